package domain

import (
	"context"
	"fmt"
)

// InputType tells the embedding model whether a text is stored content or a search query.
type InputType string

const (
	// InputPassage marks texts that are indexed.
	InputPassage InputType = "passage"
	// InputQuery marks texts that are searched for.
	InputQuery InputType = "query"
)

// IsValid reports whether t is a known input type.
func (t InputType) IsValid() bool {
	return t == InputPassage || t == InputQuery
}

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single API call.
// Embeddings[i] must correspond to texts[i].
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// EmbedBatch embeds texts through e in input order. Embedders without a batch
// call get one Embed per text. Exactly one embedding per input is guaranteed.
func EmbedBatch(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return BatchEmbeddingResult{}, nil
	}

	var res BatchEmbeddingResult
	if be, ok := e.(BatchEmbedder); ok {
		var err error
		if res, err = be.BatchEmbed(ctx, texts); err != nil {
			return BatchEmbeddingResult{}, err
		}
	} else {
		res.Embeddings = make([][]float32, len(texts))
		for i, text := range texts {
			one, err := e.Embed(ctx, text)
			if err != nil {
				return BatchEmbeddingResult{}, fmt.Errorf("text %d of %d: %w", i+1, len(texts), err)
			}
			res.Embeddings[i] = one.Embedding
			res.PromptTokens += one.PromptTokens
			res.TotalTokens += one.TotalTokens
		}
	}

	if len(res.Embeddings) != len(texts) {
		return BatchEmbeddingResult{}, fmt.Errorf("got %d embeddings for %d inputs: %w",
			len(res.Embeddings), len(texts), ErrEmbeddingProviderError)
	}
	return res, nil
}

// InstructionEmbedder prepends a fixed instruction to every text,
// e.g. "passage: " or "query: " for e5 models.
type InstructionEmbedder struct {
	inner       Embedder
	instruction string
}

// NewInstructionEmbedder wraps inner.
func NewInstructionEmbedder(inner Embedder, instruction string) *InstructionEmbedder {
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

// Embed embeds instruction+text.
func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	res, err := e.inner.Embed(ctx, e.instruction+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("embed with instruction %q: %w", e.instruction, err)
	}
	return res, nil
}

// BatchEmbed embeds instruction+text for every text.
func (e *InstructionEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = e.instruction + t
	}
	res, err := EmbedBatch(ctx, e.inner, prefixed)
	if err != nil {
		return BatchEmbeddingResult{}, fmt.Errorf("embed with instruction %q: %w", e.instruction, err)
	}
	return res, nil
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (e *InstructionEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
