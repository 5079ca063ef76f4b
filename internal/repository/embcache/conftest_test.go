package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reviewdex/internal/db"
	"github.com/kailas-cloud/reviewdex/internal/domain"
)

// countingProvider returns a one-component vector per text: its length.
type countingProvider struct {
	calls  int
	texts  []string
	tokens int // per text
	err    error
	short  bool // return one embedding too few
}

func (p *countingProvider) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := p.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: res.Embeddings[0], TotalTokens: res.TotalTokens}, nil
}

func (p *countingProvider) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	p.calls++
	p.texts = append(p.texts, texts...)
	if p.err != nil {
		return domain.BatchEmbeddingResult{}, p.err
	}
	n := len(texts)
	if p.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{float32(len(texts[i]))}
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   out,
		PromptTokens: p.tokens * len(texts),
		TotalTokens:  p.tokens * len(texts),
	}, nil
}

// mapKV is an in-memory kv. getErr and setErr force failures.
type mapKV struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMapKV() *mapKV {
	return &mapKV{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mapKV) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mapKV) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

var passageScope = Scope{Model: "multilingual-e5-large", InputType: domain.InputPassage}

// seed stores vec for text as if a previous run had embedded it.
func (m *mapKV) seed(t *testing.T, scope Scope, text string, vec ...float32) {
	t.Helper()
	m.data[scope.Key(text)] = []byte(db.EncodeVector(vec))
}

func newCached(p *countingProvider, kv *mapKV) *CachedEmbedder {
	return New(p, kv, passageScope, 0, nil, zap.NewNop())
}

var errBoom = errors.New("boom")
