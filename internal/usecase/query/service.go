package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reviewdex/internal/domain"
	domidx "github.com/kailas-cloud/reviewdex/internal/domain/index"
	"github.com/kailas-cloud/reviewdex/internal/domain/search/filter"
	"github.com/kailas-cloud/reviewdex/internal/domain/search/mode"
	"github.com/kailas-cloud/reviewdex/internal/domain/search/request"
	"github.com/kailas-cloud/reviewdex/internal/domain/search/result"
)

// DefaultPlaceholder is embedded for filter queries that carry no text.
const DefaultPlaceholder = "book"

// Definition describes one configured query.
type Definition struct {
	Kind        mode.Mode
	Description string
	Namespace   string
	ID          string
	Text        string
	Filter      map[string]any
	TopK        int

	// OmitMetadata makes matches carry only identifiers and scores.
	OmitMetadata bool
}

// Service runs query requests against one index.
type Service struct {
	search    Searcher
	vectors   VectorFetcher
	embed     Embedder
	indexes   IndexDescriber
	indexName string
	metric    domidx.Metric
	logger    *zap.Logger
}

// New creates a query service. metric is used when the index has no readable descriptor.
func New(
	indexName string, metric domidx.Metric,
	search Searcher, vectors VectorFetcher, embed Embedder, logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		search:    search,
		vectors:   vectors,
		embed:     embed,
		indexName: indexName,
		metric:    metric,
		logger:    logger,
	}
}

// WithDescriber makes Query take the metric from the index descriptor.
func (s *Service) WithDescriber(d IndexDescriber) *Service {
	s.indexes = d
	return s
}

// Query executes req. An ID lookup for an unknown id returns no results and no error.
func (s *Service) Query(ctx context.Context, req *request.Request) ([]result.Result, error) {
	if req.Mode() == mode.ID {
		vec, found, err := s.vectors.FetchVector(ctx, s.indexName, req.Namespace(), req.ID())
		if err != nil {
			return nil, fmt.Errorf("fetch vector %s: %w", req.ID(), err)
		}
		if !found {
			s.logger.Info("id not found", zap.String("id", req.ID()), zap.String("namespace", req.Namespace()))
			return nil, nil
		}
		resolved := req.WithVector(vec)
		req = &resolved
	}

	results, err := s.search.SearchKNN(ctx, s.indexName, req, s.resolveMetric(ctx))
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", req.Mode(), err)
	}
	return results, nil
}

// Run builds the request for def and executes it.
func (s *Service) Run(ctx context.Context, def Definition) ([]result.Result, error) {
	req, err := s.Build(ctx, def)
	if err != nil {
		return nil, err
	}
	return s.Query(ctx, &req)
}

// Build turns def into a request, embedding its text when the kind needs a vector.
func (s *Service) Build(ctx context.Context, def Definition) (request.Request, error) {
	ns := def.Namespace
	if ns == "" {
		ns = domain.DefaultNamespace
	}

	var (
		req request.Request
		err error
	)
	switch def.Kind {
	case mode.ID:
		req, err = request.NewIDLookup(ns, def.ID, def.TopK)
	case mode.Filter, mode.Hybrid:
		f, perr := filter.Parse(def.Filter)
		if perr != nil {
			return request.Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, perr)
		}
		text := def.Text
		if strings.TrimSpace(text) == "" && def.Kind == mode.Filter {
			text = DefaultPlaceholder
		}
		vec, eerr := s.embedText(ctx, text)
		if eerr != nil {
			return request.Request{}, eerr
		}
		if def.Kind == mode.Filter {
			req, err = request.NewFilter(ns, vec, f, def.TopK)
		} else {
			req, err = request.NewHybrid(ns, vec, f, def.TopK)
		}
	case mode.Semantic:
		vec, eerr := s.embedText(ctx, def.Text)
		if eerr != nil {
			return request.Request{}, eerr
		}
		req, err = request.NewSemantic(ns, vec, def.TopK)
	default:
		return request.Request{}, fmt.Errorf("%w: unknown query kind %q", domain.ErrInvalidRequest, def.Kind)
	}
	if err != nil {
		return request.Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if def.OmitMetadata {
		req = req.WithoutMetadata()
	}
	return req, nil
}

func (s *Service) embedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: query text is required", domain.ErrInvalidRequest)
	}
	vec, err := s.embed.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vec, nil
}

func (s *Service) resolveMetric(ctx context.Context) domidx.Metric {
	if s.indexes == nil {
		return s.metric
	}
	spec, err := s.indexes.Describe(ctx, s.indexName)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("read index descriptor", zap.String("index", s.indexName), zap.Error(err))
		}
		return s.metric
	}
	return spec.Metric()
}

// DefaultDefinitions returns the four stock queries: an ID lookup, a metadata filter,
// a semantic search and a hybrid search.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			Kind:        mode.ID,
			Description: "Search by ID",
			ID:          "124858c5e447c61c3193834e4e6e6d01",
			TopK:        5,
		},
		{
			Kind:        mode.Filter,
			Description: "filtered search for high-rated books",
			Text:        DefaultPlaceholder,
			Filter: map[string]any{
				"Title":        map[string]any{"$eq": "A husband for Kutani"},
				"review/score": map[string]any{"$gte": 4.0},
			},
			TopK: 5,
		},
		{
			Kind:        mode.Semantic,
			Description: "semantic search for sci-fi books about aliens and space travel",
			Text:        "science fiction with aliens and space travel",
			TopK:        5,
		},
		{
			Kind:        mode.Hybrid,
			Description: "hybrid search for high-rated romance books",
			Text:        "romance novels",
			Filter:      map[string]any{"review/score": map[string]any{"$gte": 4.0}},
			TopK:        5,
		},
	}
}
