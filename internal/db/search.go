package db

import "github.com/kailas-cloud/reviewdex/internal/domain/search/filter"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
	// Distance decides how __vector_score becomes a similarity score.
	// L2 distances are returned as-is; COSINE and IP map to 1 - distance.
	Distance DistanceMetric
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// IndexInfo is the subset of FT.INFO reviewdex reads.
type IndexInfo struct {
	Name    string
	NumDocs int
}
