// Package memory is an in-process db.Store for dry runs and tests.
// KNN is brute force over every hash under the index prefixes.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/reviewdex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type kvEntry struct {
	value    []byte
	expireAt time.Time
}

// Store keeps hashes, plain values and index definitions in maps.
type Store struct {
	mu      sync.RWMutex
	hashes  map[string]map[string]string
	kv      map[string]kvEntry
	indexes map[string]*db.IndexDefinition
	now     func() time.Time
}

// NewStore creates an empty memory store.
func NewStore() *Store {
	return &Store{
		hashes:  make(map[string]map[string]string),
		kv:      make(map[string]kvEntry),
		indexes: make(map[string]*db.IndexDefinition),
		now:     time.Now,
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// HSetMulti merges fields into each hash.
func (s *Store) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		h, ok := s.hashes[item.Key]
		if !ok {
			h = make(map[string]string, len(item.Fields))
			s.hashes[item.Key] = h
		}
		for k, v := range item.Fields {
			h[k] = v
		}
	}
	return nil
}

// HGetAll returns a copy of a hash, empty when the key is missing.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyFields(s.hashes[key]), nil
}

// ExistsMulti reports which keys hold a hash or a live value.
func (s *Store) ExistsMulti(_ context.Context, keys []string) ([]bool, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]bool, len(keys))
	for i, k := range keys {
		_, isHash := s.hashes[k]
		_, isValue := s.liveValue(k)
		out[i] = isHash || isValue
	}
	return out, nil
}

// Get returns a stored value or db.ErrKeyNotFound.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.liveValue(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores a value. A zero ttl stores without expiry.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := kvEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expireAt = s.now().Add(ttl)
	}
	s.kv[key] = e
	return nil
}

func (s *Store) liveValue(key string) ([]byte, bool) {
	e, ok := s.kv[key]
	if !ok {
		return nil, false
	}
	if !e.expireAt.IsZero() && !s.now().Before(e.expireAt) {
		return nil, false
	}
	return e.value, true
}

// CreateIndex registers an index definition.
func (s *Store) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	cp := *def
	cp.Fields = append([]db.IndexField(nil), def.Fields...)
	cp.Prefixes = append([]string(nil), def.Prefixes...)
	s.indexes[def.Name] = &cp
	return nil
}

// IndexExists reports whether an index is registered.
func (s *Store) IndexExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.indexes[name]
	return ok, nil
}

// ListIndexes returns the registered index names in sorted order.
func (s *Store) ListIndexes(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.indexes))
	for name := range s.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// IndexInfo counts the hashes covered by an index.
func (s *Store) IndexInfo(_ context.Context, name string) (*db.IndexInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.indexes[name]
	if !ok {
		return nil, db.ErrIndexNotFound
	}
	return &db.IndexInfo{Name: name, NumDocs: len(s.documents(def))}, nil
}

// documents returns the keys under the index prefixes, sorted for stable output.
func (s *Store) documents(def *db.IndexDefinition) []string {
	var keys []string
	for k := range s.hashes {
		if hasAnyPrefix(k, def.Prefixes) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func hasAnyPrefix(key string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

func copyFields(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
