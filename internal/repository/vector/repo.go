package vector

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/reviewdex/internal/db"
	domvec "github.com/kailas-cloud/reviewdex/internal/domain/vector"
	"github.com/kailas-cloud/reviewdex/internal/repository/index"
)

// store is the consumer interface for vector entries (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	ExistsMulti(ctx context.Context, keys []string) ([]bool, error)
}

// Repo writes and reads vector entries stored as hashes.
type Repo struct {
	store store
}

// New creates a vector repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Upsert writes all entries to a namespace in one pipelined round-trip.
// Entries with the same identifier are overwritten.
func (r *Repo) Upsert(ctx context.Context, indexName, namespace string, entries []domvec.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	items := make([]db.HashSetItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, db.HashSetItem{
			Key:    index.DocKey(indexName, namespace, e.ID()),
			Fields: buildHashFields(namespace, e),
		})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return 0, fmt.Errorf("upsert %d vectors into %s/%s: %w", len(items), indexName, namespace, err)
	}
	return len(items), nil
}

// FetchVector returns the stored embedding of id. found is false for an unknown id.
func (r *Repo) FetchVector(ctx context.Context, indexName, namespace, id string) ([]float32, bool, error) {
	key := index.DocKey(indexName, namespace, id)
	h, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("fetch %s: %w", key, err)
	}
	raw, ok := h[index.VectorField]
	if !ok {
		return nil, false, nil
	}
	vec, err := db.DecodeVector(raw)
	if err != nil {
		return nil, false, fmt.Errorf("fetch %s: %w", key, err)
	}
	return vec, true, nil
}

// Existing reports which of ids are already stored in the namespace.
func (r *Repo) Existing(ctx context.Context, indexName, namespace string, ids []string) (map[string]bool, error) {
	if len(ids) == 0 {
		return map[string]bool{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = index.DocKey(indexName, namespace, id)
	}

	exists, err := r.store.ExistsMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("check %d ids in %s/%s: %w", len(ids), indexName, namespace, err)
	}

	out := make(map[string]bool, len(ids))
	for i, id := range ids {
		if i < len(exists) && exists[i] {
			out[id] = true
		}
	}
	return out, nil
}
