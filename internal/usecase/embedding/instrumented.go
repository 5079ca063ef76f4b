package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reviewdex/internal/domain"
)

// Labels identify an embedding chain in logs.
type Labels struct {
	Provider  string
	Model     string
	InputType domain.InputType
}

func (l Labels) fields() []zap.Field {
	return []zap.Field{
		zap.String("provider", l.Provider),
		zap.String("model", l.Model),
		zap.String("input_type", string(l.InputType)),
	}
}

// InstrumentedEmbedder is the outermost decorator of a chain. It logs each call
// and rejects vectors whose length differs from the index dimension.
// Request, duration and token metrics are recorded by the transport.
type InstrumentedEmbedder struct {
	inner     domain.Embedder
	labels    Labels
	dimension int
	logger    *zap.Logger
}

// NewInstrumentedEmbedder wraps inner. dimension <= 0 disables the length check.
func NewInstrumentedEmbedder(inner domain.Embedder, labels Labels, dimension int, logger *zap.Logger) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:     inner,
		labels:    labels,
		dimension: dimension,
		logger:    logger.With(labels.fields()...),
	}
}

// Embed embeds one text.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := p.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbed embeds texts in order through the inner chain.
func (p *InstrumentedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()
	res, err := domain.EmbedBatch(ctx, p.inner, texts)
	took := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding failed",
			zap.Int("texts", len(texts)), zap.Duration("duration", took), zap.Error(err))
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embed %d %s texts: %w", len(texts), p.labels.InputType, err)
	}

	if p.dimension > 0 {
		for i, vec := range res.Embeddings {
			if len(vec) != p.dimension {
				return domain.BatchEmbeddingResult{}, fmt.Errorf("embedding %d has %d dimensions, index expects %d: %w",
					i, len(vec), p.dimension, domain.ErrVectorDimMismatch)
			}
		}
	}

	p.logger.Debug("Embedded texts",
		zap.Int("texts", len(texts)),
		zap.Duration("duration", took),
		zap.Int("total_tokens", res.TotalTokens),
	)
	return res, nil
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
