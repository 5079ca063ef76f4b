package result

import "github.com/kailas-cloud/reviewdex/internal/domain"

// Result is a single query match.
type Result struct {
	id       string
	score    float64
	metadata map[string]string
}

// New creates a query match.
func New(id string, score float64, metadata map[string]string) Result {
	return Result{id: id, score: score, metadata: metadata}
}

// ID returns the vector identifier.
func (r *Result) ID() string { return r.id }

// Score returns the similarity score.
func (r *Result) Score() float64 { return r.score }

// Metadata returns the stored metadata.
func (r *Result) Metadata() map[string]string { return r.metadata }

// Field returns a metadata value. A missing key is a malformed record, never a default.
func (r *Result) Field(key string) (string, error) {
	v, ok := r.metadata[key]
	if !ok {
		return "", &domain.MissingFieldError{ID: r.id, Field: key}
	}
	return v, nil
}
