// Package embcache memoizes embeddings in the key-value side of the vector store,
// so re-running an ingest over the same CSV costs no provider tokens.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reviewdex/internal/db"
	"github.com/kailas-cloud/reviewdex/internal/domain"
)

var keyPrefix = domain.KeyPrefix + "emb_cache:"

type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Scope separates entries of different models and input types:
// "dune" embedded as a passage and as a query are two vectors.
type Scope struct {
	Model     string
	InputType domain.InputType
}

// Key returns the cache key of text within the scope.
func (s Scope) Key(text string) string {
	sum := sha256.Sum256([]byte(s.Model + "\x00" + string(s.InputType) + "\x00" + text))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// CachedEmbedder wraps an embedder with a read-through cache.
// Cache failures are logged and degrade to a provider call.
type CachedEmbedder struct {
	inner   domain.Embedder
	kv      kv
	scope   Scope
	ttl     time.Duration
	lookups *prometheus.CounterVec
	logger  *zap.Logger
}

// New wraps inner. ttl <= 0 keeps entries forever. lookups, when non-nil,
// is incremented with label "hit" or "miss" per text.
func New(
	inner domain.Embedder,
	store kv,
	scope Scope,
	ttl time.Duration,
	lookups *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, kv: store, scope: scope, ttl: ttl, lookups: lookups, logger: logger}
}

// Embed returns the cached vector (zero tokens) or the provider result.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := c.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbed answers what it can from the cache and sends the remaining
// texts to the provider in one call. Token counts cover those texts only.
func (c *CachedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	out := make([][]float32, len(texts))
	var pending []int
	for i, text := range texts {
		if vec, ok := c.lookup(ctx, text); ok {
			out[i] = vec
			continue
		}
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return domain.BatchEmbeddingResult{Embeddings: out}, nil
	}

	missed := make([]string, len(pending))
	for j, i := range pending {
		missed[j] = texts[i]
	}
	res, err := domain.EmbedBatch(ctx, c.inner, missed)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embed %d uncached texts: %w", len(missed), err)
	}
	for j, i := range pending {
		out[i] = res.Embeddings[j]
		c.store(ctx, texts[i], res.Embeddings[j])
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   out,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (c *CachedEmbedder) lookup(ctx context.Context, text string) ([]float32, bool) {
	key := c.scope.Key(text)
	vec, err := c.read(ctx, key)
	if err != nil && !errors.Is(err, db.ErrKeyNotFound) {
		c.logger.Warn("Embedding cache read failed", zap.String("key", key), zap.Error(err))
	}
	hit := err == nil
	if c.lookups != nil {
		label := "miss"
		if hit {
			label = "hit"
		}
		c.lookups.WithLabelValues(label).Inc()
	}
	return vec, hit
}

func (c *CachedEmbedder) read(ctx context.Context, key string) ([]float32, error) {
	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return db.DecodeVector(string(raw))
}

func (c *CachedEmbedder) store(ctx context.Context, text string, vec []float32) {
	key := c.scope.Key(text)
	if err := c.kv.SetWithTTL(ctx, key, []byte(db.EncodeVector(vec)), c.ttl); err != nil {
		c.logger.Warn("Embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}
