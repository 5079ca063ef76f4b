package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/reviewdex/internal/db"
	domidx "github.com/kailas-cloud/reviewdex/internal/domain/index"
	"github.com/kailas-cloud/reviewdex/internal/domain/review"
	"github.com/kailas-cloud/reviewdex/internal/domain/search/filter"
	"github.com/kailas-cloud/reviewdex/internal/domain/search/request"
	"github.com/kailas-cloud/reviewdex/internal/domain/search/result"
	"github.com/kailas-cloud/reviewdex/internal/repository/index"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements usecase/query.Searcher.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// SearchKNN runs a KNN search in the request namespace, pre-filtered by the request filter.
// Filter keys use metadata field names ("review/score") and are mapped to their query aliases.
func (r *Repo) SearchKNN(
	ctx context.Context, indexName string, req *request.Request, metric domidx.Metric,
) ([]result.Result, error) {
	if !req.HasVector() {
		return nil, fmt.Errorf("search %s: query vector is required", indexName)
	}

	distance, err := index.Distance(metric)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", indexName, err)
	}

	filters, err := scopedFilter(req.Namespace(), req.Filters())
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", indexName, err)
	}

	var returnFields []string
	if req.IncludeMetadata() {
		returnFields = review.MetadataFields()
	} else {
		returnFields = []string{index.NamespaceField}
	}

	q := &db.KNNQuery{
		IndexName:    index.IndexName(indexName),
		Filters:      filters,
		Vector:       req.Vector(),
		K:            req.TopK(),
		ReturnFields: returnFields,
		Distance:     distance,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn %s/%s: %w", indexName, req.Namespace(), err)
	}

	return parseKNNResults(sr, indexName, req.Namespace(), req.IncludeMetadata()), nil
}

// scopedFilter renames filter fields to query aliases and puts the namespace match first.
func scopedFilter(namespace string, filters filter.Expression) (filter.Expression, error) {
	ns, err := filter.Equals(index.NamespaceField, namespace)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("namespace filter: %w", err)
	}
	clauses := append([]filter.Clause{ns}, filters.RenameFields(review.Alias).Clauses()...)
	return filter.And(clauses...)
}

// parseKNNResults converts db.SearchResult into []result.Result.
func parseKNNResults(sr *db.SearchResult, indexName, namespace string, includeMetadata bool) []result.Result {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	prefix := index.DocKey(indexName, namespace, "")
	results := make([]result.Result, 0, len(sr.Entries))

	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, prefix)
		var meta map[string]string
		if includeMetadata {
			meta = make(map[string]string, len(entry.Fields))
			for k, v := range entry.Fields {
				if k == index.NamespaceField || k == index.VectorField {
					continue
				}
				meta[k] = v
			}
		}
		results = append(results, result.New(id, entry.Score, meta))
	}

	return results
}
