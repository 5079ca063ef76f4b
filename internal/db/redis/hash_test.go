package redis

import (
	"context"
	"strings"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/reviewdex/internal/db"
)

func hset(key string) gomock.Matcher {
	return mock.MatchFn(func(cmd []string) bool { return cmd[0] == "HSET" && cmd[1] == key }, "HSET "+key)
}

func TestHSetMulti_OneRoundTrip(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		DoMulti(gomock.Any(), hset("books:a"), hset("books:b")).
		Return([]rueidis.RedisResult{mock.Result(mock.RedisInt64(3)), mock.Result(mock.RedisInt64(3))})

	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "books:a", Fields: map[string]string{"Title": "Dune", "review/score": "5"}},
		{Key: "books:b", Fields: map[string]string{"Title": "Solaris", "review/score": "3"}},
	})
	if err != nil {
		t.Fatalf("HSetMulti: %v", err)
	}
}

func TestHSetMulti_NamesFailingKey(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{mock.Result(mock.RedisInt64(1)), mock.Result(mock.RedisError("READONLY"))})

	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "books:a", Fields: map[string]string{"f": "v"}},
		{Key: "books:b", Fields: map[string]string{"f": "v"}},
	})
	if opOf(err) != db.OpHSet {
		t.Fatalf("err = %v, want db.Error with op HSET", err)
	}
	if !strings.Contains(err.Error(), "books:b") {
		t.Errorf("error should name the failing key: %v", err)
	}
}

func TestExistsMulti(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		DoMulti(gomock.Any(), mock.Match("EXISTS", "a"), mock.Match("EXISTS", "b")).
		Return([]rueidis.RedisResult{mock.Result(mock.RedisInt64(1)), mock.Result(mock.RedisInt64(0))})

	got, err := s.ExistsMulti(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("ExistsMulti: %v", err)
	}
	if len(got) != 2 || !got[0] || got[1] {
		t.Errorf("ExistsMulti() = %v, want [true false]", got)
	}
}

func TestMultiCommands_EmptyInputSkipsServer(t *testing.T) {
	s := NewStoreForTest(nil)
	if err := s.HSetMulti(context.Background(), nil); err != nil {
		t.Errorf("HSetMulti(nil): %v", err)
	}
	if got, err := s.ExistsMulti(context.Background(), nil); err != nil || got != nil {
		t.Errorf("ExistsMulti(nil) = %v, %v", got, err)
	}
}
