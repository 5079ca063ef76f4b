package redis

import (
	"errors"
	"testing"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/reviewdex/internal/db"
)

func newMockStore(t *testing.T) (*Store, *mock.Client) {
	t.Helper()
	c := mock.NewClient(gomock.NewController(t))
	return NewStoreForTest(c), c
}

// opOf returns the store operation of a wrapped db.Error, or "".
func opOf(err error) string {
	var dbErr *db.Error
	if errors.As(err, &dbErr) {
		return dbErr.Op
	}
	return ""
}
