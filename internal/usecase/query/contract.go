package query

import (
	"context"

	domidx "github.com/kailas-cloud/reviewdex/internal/domain/index"
	"github.com/kailas-cloud/reviewdex/internal/domain/search/request"
	"github.com/kailas-cloud/reviewdex/internal/domain/search/result"
)

// Searcher runs KNN searches against an index.
type Searcher interface {
	SearchKNN(
		ctx context.Context, indexName string, req *request.Request, metric domidx.Metric,
	) ([]result.Result, error)
}

// VectorFetcher reads the stored embedding of a review.
type VectorFetcher interface {
	FetchVector(ctx context.Context, indexName, namespace, id string) ([]float32, bool, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// IndexDescriber reads the descriptor an index was created with.
type IndexDescriber interface {
	Describe(ctx context.Context, name string) (domidx.Spec, error)
}
