package vector

import (
	"context"
	"testing"

	"github.com/kailas-cloud/reviewdex/internal/db"
	"github.com/kailas-cloud/reviewdex/internal/domain/review"
	domvec "github.com/kailas-cloud/reviewdex/internal/domain/vector"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetMultiFn   func(ctx context.Context, items []db.HashSetItem) error
	hgetAllFn     func(ctx context.Context, key string) (map[string]string, error)
	existsMultiFn func(ctx context.Context, keys []string) ([]bool, error)
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) ExistsMulti(ctx context.Context, keys []string) ([]bool, error) {
	if m.existsMultiFn != nil {
		return m.existsMultiFn(ctx, keys)
	}
	return make([]bool, len(keys)), nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

func testEntry(t *testing.T, id string, vec []float32) domvec.Entry {
	t.Helper()
	e, err := domvec.New(id, vec, review.Metadata{
		ID:      "0826414346",
		Title:   "Dr. Seuss: American Icon",
		UserID:  "A30TK6U7DNS82R",
		Score:   5,
		Time:    1095724800,
		Summary: "Really Enjoyed It",
	})
	if err != nil {
		t.Fatalf("vector.New: %v", err)
	}
	return e
}
