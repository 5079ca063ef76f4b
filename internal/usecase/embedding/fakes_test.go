package embedding

import (
	"context"

	"github.com/kailas-cloud/reviewdex/internal/domain"
)

// fakeEmbedder embeds each text as dim copies of its byte length and
// charges tokens per text. It records every batch it receives.
type fakeEmbedder struct {
	dim       int
	tokens    int
	err       error
	healthErr error
	batches   [][]string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := f.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: res.Embeddings[0], TotalTokens: res.TotalTokens}, nil
}

func (f *fakeEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	f.batches = append(f.batches, texts)
	if f.err != nil {
		return domain.BatchEmbeddingResult{}, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec := make([]float32, f.dim)
		for j := range vec {
			vec[j] = float32(len(t))
		}
		out[i] = vec
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: f.tokens * len(texts)}, nil
}

func (f *fakeEmbedder) HealthCheck(context.Context) error { return f.healthErr }

// singleEmbedder has no batch call.
type singleEmbedder struct {
	calls int
}

func (s *singleEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	s.calls++
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text))}, TotalTokens: 2}, nil
}
