package embedding

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/reviewdex/internal/domain"
)

// Service routes texts to the passage or query embedding chain.
type Service struct {
	passage domain.Embedder
	query   domain.Embedder
}

// NewService creates a Service from one chain per input type.
func NewService(passage, query domain.Embedder) *Service {
	return &Service{passage: passage, query: query}
}

// BatchEmbed embeds texts as the given input type; Embeddings[i] corresponds to texts[i].
func (s *Service) BatchEmbed(
	ctx context.Context, texts []string, inputType domain.InputType,
) (domain.BatchEmbeddingResult, error) {
	e, err := s.chain(inputType)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	return domain.EmbedBatch(ctx, e, texts)
}

// EmbedQuery embeds a single search text.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	res, err := s.BatchEmbed(ctx, []string{text}, domain.InputQuery)
	if err != nil {
		return nil, err
	}
	return res.Embeddings[0], nil
}

// HealthCheck checks the passage chain; both chains share one provider.
func (s *Service) HealthCheck(ctx context.Context) error {
	if hc, ok := s.passage.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (s *Service) chain(t domain.InputType) (domain.Embedder, error) {
	switch t {
	case domain.InputPassage:
		return s.passage, nil
	case domain.InputQuery:
		return s.query, nil
	default:
		return nil, fmt.Errorf("unknown input type %q", t)
	}
}
