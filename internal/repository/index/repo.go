package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/reviewdex/internal/db"
	"github.com/kailas-cloud/reviewdex/internal/domain"
	domidx "github.com/kailas-cloud/reviewdex/internal/domain/index"
	"github.com/kailas-cloud/reviewdex/internal/domain/search/filter"
)

// NamespaceField is the hash field holding the namespace of a vector entry.
const NamespaceField = "__namespace"

// store is the consumer interface for index management (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	ListIndexes(ctx context.Context) ([]string, error)
	IndexInfo(ctx context.Context, name string) (*db.IndexInfo, error)
	SearchCount(ctx context.Context, index string, filters filter.Expression) (int, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo manages review indexes and their descriptors.
type Repo struct {
	store store
	hnsw  HNSWConfig
}

// New creates an index repository.
func New(s store) *Repo {
	return &Repo{store: s, hnsw: HNSWConfig{M: 16, EFConstruct: 200}}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// Ensure creates the index unless it already exists. An existing index is never altered.
func (r *Repo) Ensure(ctx context.Context, spec domidx.Spec) (domidx.EnsureOutcome, error) {
	name := spec.Name()

	exists, err := r.store.IndexExists(ctx, IndexName(name))
	if err != nil {
		return "", fmt.Errorf("check index %s: %w", name, err)
	}
	if exists {
		return domidx.AlreadyExists, nil
	}

	def, err := buildIndex(spec, r.hnsw)
	if err != nil {
		return "", fmt.Errorf("build index: %w", err)
	}
	data, err := specToJSON(spec)
	if err != nil {
		return "", err
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return domidx.AlreadyExists, nil
		}
		return "", fmt.Errorf("create index %s: %w", name, err)
	}

	// The descriptor only carries the spec for Describe; the FT index is the source of truth.
	if err := r.store.Set(ctx, descriptorKey(name), data); err != nil {
		return domidx.Created, fmt.Errorf("store descriptor %s: %w", name, err)
	}
	return domidx.Created, nil
}

// ListNames returns the names of review indexes known to the store.
func (r *Repo) ListNames(ctx context.Context) ([]string, error) {
	raw, err := r.store.ListIndexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	names := make([]string, 0, len(raw))
	for _, ftName := range raw {
		if name, ok := nameFromIndex(ftName); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Describe reads the spec an index was created with.
func (r *Repo) Describe(ctx context.Context, name string) (domidx.Spec, error) {
	data, err := r.store.Get(ctx, descriptorKey(name))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domidx.Spec{}, fmt.Errorf("index %s: %w", name, domain.ErrNotFound)
		}
		return domidx.Spec{}, fmt.Errorf("get descriptor %s: %w", name, err)
	}
	return specFromJSON(name, data)
}

// Stats reports the total vector count of an index and the count per requested namespace.
func (r *Repo) Stats(ctx context.Context, name string, namespaces ...string) (domidx.Stats, error) {
	info, err := r.store.IndexInfo(ctx, IndexName(name))
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return domidx.Stats{}, fmt.Errorf("index %s: %w", name, domain.ErrNotFound)
		}
		return domidx.Stats{}, fmt.Errorf("index info %s: %w", name, err)
	}

	stats := domidx.Stats{TotalVectorCount: info.NumDocs, Namespaces: make(map[string]int, len(namespaces))}
	if spec, err := r.Describe(ctx, name); err == nil {
		stats.Dimension = spec.Dimension()
	}

	for _, ns := range namespaces {
		n, err := r.store.SearchCount(ctx, IndexName(name), NamespaceFilter(ns))
		if err != nil {
			return domidx.Stats{}, fmt.Errorf("count namespace %s: %w", ns, err)
		}
		stats.Namespaces[ns] = n
	}
	return stats, nil
}

// NamespaceFilter matches the entries of one namespace.
func NamespaceFilter(namespace string) filter.Expression {
	c, err := filter.Equals(NamespaceField, namespace)
	if err != nil {
		return filter.Expression{}
	}
	expr, _ := filter.And(c)
	return expr
}

// Key patterns: reviewdex:{index}:idx, reviewdex:{index}:spec, reviewdex:{index}:{namespace}:{id}

// IndexName returns the FT index name for a review index.
func IndexName(name string) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, name)
}

// DocPrefix returns the key prefix covered by the FT index.
func DocPrefix(name string) string {
	return fmt.Sprintf("%s%s:", domain.KeyPrefix, name)
}

// DocKey returns the hash key of a vector entry.
func DocKey(name, namespace, id string) string {
	return fmt.Sprintf("%s%s:%s:%s", domain.KeyPrefix, name, namespace, id)
}

func descriptorKey(name string) string {
	return fmt.Sprintf("%s%s:spec", domain.KeyPrefix, name)
}

func nameFromIndex(ftName string) (string, bool) {
	if !strings.HasPrefix(ftName, domain.KeyPrefix) || !strings.HasSuffix(ftName, ":idx") {
		return "", false
	}
	name := strings.TrimSuffix(strings.TrimPrefix(ftName, domain.KeyPrefix), ":idx")
	if name == "" || strings.Contains(name, ":") {
		return "", false
	}
	return name, true
}
