package vector

import (
	"fmt"

	"github.com/kailas-cloud/reviewdex/internal/domain/review"
)

// Entry is an embedded review ready to be written to a namespace.
type Entry struct {
	id        string
	embedding []float32
	metadata  review.Metadata
}

// New validates and creates an Entry.
func New(id string, embedding []float32, metadata review.Metadata) (Entry, error) {
	if id == "" {
		return Entry{}, fmt.Errorf("entry id is required")
	}
	if len(embedding) == 0 {
		return Entry{}, fmt.Errorf("entry %q has no embedding", id)
	}
	return Entry{id: id, embedding: embedding, metadata: metadata}, nil
}

// FromDocuments pairs documents with their embeddings by position.
func FromDocuments(docs []review.Document, embeddings [][]float32) ([]Entry, error) {
	if len(docs) != len(embeddings) {
		return nil, fmt.Errorf("%d documents but %d embeddings", len(docs), len(embeddings))
	}
	out := make([]Entry, 0, len(docs))
	for i, d := range docs {
		e, err := New(d.ID, embeddings[i], d.Metadata)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// ID returns the entry identifier.
func (e Entry) ID() string { return e.id }

// Embedding returns the vector.
func (e Entry) Embedding() []float32 { return e.embedding }

// Metadata returns the stored review fields.
func (e Entry) Metadata() review.Metadata { return e.metadata }
