package index

import (
	"context"
	"testing"

	"github.com/kailas-cloud/reviewdex/internal/db"
	domidx "github.com/kailas-cloud/reviewdex/internal/domain/index"
	"github.com/kailas-cloud/reviewdex/internal/domain/search/filter"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	getFn         func(ctx context.Context, key string) ([]byte, error)
	setFn         func(ctx context.Context, key string, value []byte) error
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	listIndexesFn func(ctx context.Context) ([]string, error)
	indexInfoFn   func(ctx context.Context, name string) (*db.IndexInfo, error)
	searchCountFn func(ctx context.Context, index string, filters filter.Expression) (int, error)
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) ListIndexes(ctx context.Context) ([]string, error) {
	if m.listIndexesFn != nil {
		return m.listIndexesFn(ctx)
	}
	return nil, nil
}

func (m *mockStore) IndexInfo(ctx context.Context, name string) (*db.IndexInfo, error) {
	if m.indexInfoFn != nil {
		return m.indexInfoFn(ctx, name)
	}
	return &db.IndexInfo{Name: name}, nil
}

func (m *mockStore) SearchCount(ctx context.Context, index string, filters filter.Expression) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, index, filters)
	}
	return 0, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

func testSpec(t *testing.T) domidx.Spec {
	t.Helper()
	spec, err := domidx.NewSpec("book-reviews", 1024, domidx.MetricCosine, domidx.Region{Cloud: "aws", Region: "us-east-1"})
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	return spec
}
