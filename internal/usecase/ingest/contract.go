package ingest

import (
	"context"

	"github.com/kailas-cloud/reviewdex/internal/domain"
	domidx "github.com/kailas-cloud/reviewdex/internal/domain/index"
	domvec "github.com/kailas-cloud/reviewdex/internal/domain/vector"
	"github.com/kailas-cloud/reviewdex/internal/reader"
)

// IndexRepository creates indexes and reports their population.
type IndexRepository interface {
	Ensure(ctx context.Context, spec domidx.Spec) (domidx.EnsureOutcome, error)
	Stats(ctx context.Context, name string, namespaces ...string) (domidx.Stats, error)
}

// VectorRepository writes vector entries.
type VectorRepository interface {
	Upsert(ctx context.Context, indexName, namespace string, entries []domvec.Entry) (int, error)
	Existing(ctx context.Context, indexName, namespace string, ids []string) (map[string]bool, error)
}

// Embedder vectorizes texts; Embeddings[i] must correspond to texts[i].
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string, inputType domain.InputType) (domain.BatchEmbeddingResult, error)
}

// RecordReader loads review records from a file.
type RecordReader interface {
	ReadFile(path string) (reader.Result, error)
}
