package memory

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/reviewdex/internal/db"
	"github.com/kailas-cloud/reviewdex/internal/domain/search/filter"
)

// SearchKNN scores every matching document against the query vector.
// Filters address fields by their query name (alias), like FT.SEARCH.
func (s *Store) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.indexes[q.IndexName]
	if !ok {
		return nil, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
	}
	vf, ok := def.VectorField()
	if !ok {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("index %s has no vector field", def.Name)}
	}
	if len(q.Vector) != vf.Vector.Dim {
		return nil, &db.Error{
			Op:  db.OpSearch,
			Err: fmt.Errorf("query vector has %d dimensions, index expects %d", len(q.Vector), vf.Vector.Dim),
		}
	}

	var entries []db.SearchEntry
	for _, key := range s.matching(def, q.Filters) {
		h := s.hashes[key]
		vec, err := db.DecodeVector(h[vf.Name])
		if err != nil || len(vec) != vf.Vector.Dim {
			continue // FT indexes skip documents with unusable vectors too
		}
		entries = append(entries, db.SearchEntry{
			Key:    key,
			Score:  score(q.Vector, vec, vf.Vector.Distance),
			Fields: project(def, h, q.ReturnFields),
		})
	}

	ascending := vf.Vector.Distance == db.DistanceL2
	sort.SliceStable(entries, func(i, j int) bool {
		if ascending {
			return entries[i].Score < entries[j].Score
		}
		return entries[i].Score > entries[j].Score
	})
	if len(entries) > q.K {
		entries = entries[:q.K]
	}

	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
}

// SearchCount counts documents matching filters.
func (s *Store) SearchCount(_ context.Context, index string, filters filter.Expression) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.indexes[index]
	if !ok {
		return 0, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
	}
	return len(s.matching(def, filters)), nil
}

func (s *Store) matching(def *db.IndexDefinition, filters filter.Expression) []string {
	keys := s.documents(def)
	if filters.IsEmpty() {
		return keys
	}
	out := keys[:0]
	for _, key := range keys {
		h := s.hashes[key]
		lookup := func(name string) (string, bool) {
			f, ok := def.FieldByQueryName(name)
			if !ok {
				return "", false
			}
			v, ok := h[f.Name]
			return v, ok
		}
		if filters.Evaluate(lookup) {
			out = append(out, key)
		}
	}
	return out
}

// project mirrors RETURN: named fields only, or every hash field when none are named.
func project(def *db.IndexDefinition, h map[string]string, fields []string) map[string]string {
	if len(fields) == 0 {
		return copyFields(h)
	}
	out := make(map[string]string, len(fields))
	for _, name := range fields {
		src := name
		if f, ok := def.FieldByQueryName(name); ok {
			src = f.Name
		}
		if v, ok := h[src]; ok {
			out[name] = v
		}
	}
	return out
}

// score returns cosine similarity, inner product or L2 distance, matching
// what the Redis store reports for each metric.
func score(a, b []float32, distance db.DistanceMetric) float64 {
	var dot, na2, nb2, l2 float64
	for i := range a {
		va, vb := float64(a[i]), float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
		d := va - vb
		l2 += d * d
	}
	switch distance {
	case db.DistanceL2:
		return math.Sqrt(l2)
	case db.DistanceIP:
		return dot
	default:
		if na2 == 0 || nb2 == 0 {
			return 0
		}
		return dot / math.Sqrt(na2*nb2)
	}
}
