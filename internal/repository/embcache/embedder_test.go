package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reviewdex/internal/domain"
)

func TestBatchEmbed_OnlyMissesReachProvider(t *testing.T) {
	p := &countingProvider{tokens: 3}
	kv := newMapKV()
	kv.seed(t, passageScope, "cached summary", 42)
	c := newCached(p, kv)

	res, err := c.BatchEmbed(context.Background(), []string{"dune", "cached summary", "solaris"})
	if err != nil {
		t.Fatalf("BatchEmbed: %v", err)
	}
	if p.calls != 1 {
		t.Errorf("provider calls = %d, want 1", p.calls)
	}
	if len(p.texts) != 2 || p.texts[0] != "dune" || p.texts[1] != "solaris" {
		t.Errorf("provider got %v, want [dune solaris]", p.texts)
	}
	want := []float32{4, 42, 7}
	for i, w := range want {
		if res.Embeddings[i][0] != w {
			t.Errorf("embedding[%d] = %v, want %v", i, res.Embeddings[i], w)
		}
	}
	if res.TotalTokens != 6 {
		t.Errorf("TotalTokens = %d, want 6", res.TotalTokens)
	}
	if len(kv.data) != 3 {
		t.Errorf("cache holds %d entries, want 3", len(kv.data))
	}
}

func TestBatchEmbed_SecondRunIsFree(t *testing.T) {
	p := &countingProvider{tokens: 5}
	c := newCached(p, newMapKV())
	texts := []string{"a", "bb"}

	if _, err := c.BatchEmbed(context.Background(), texts); err != nil {
		t.Fatalf("first run: %v", err)
	}
	res, err := c.BatchEmbed(context.Background(), texts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if p.calls != 1 {
		t.Errorf("provider calls = %d, want 1", p.calls)
	}
	if res.TotalTokens != 0 {
		t.Errorf("TotalTokens = %d on a fully cached batch, want 0", res.TotalTokens)
	}
	if res.Embeddings[1][0] != 2 {
		t.Errorf("embedding[1] = %v, want [2]", res.Embeddings[1])
	}
}

func TestBatchEmbed_Empty(t *testing.T) {
	p := &countingProvider{}
	res, err := newCached(p, newMapKV()).BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("BatchEmbed: %v", err)
	}
	if res.Embeddings != nil || p.calls != 0 {
		t.Errorf("empty input: embeddings=%v calls=%d", res.Embeddings, p.calls)
	}
}

func TestBatchEmbed_ProviderErrors(t *testing.T) {
	tests := []struct {
		name     string
		provider *countingProvider
		target   error
	}{
		{"call fails", &countingProvider{err: errBoom}, errBoom},
		{"short response", &countingProvider{short: true}, domain.ErrEmbeddingProviderError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := newMapKV()
			_, err := newCached(tt.provider, kv).BatchEmbed(context.Background(), []string{"a", "b"})
			if !errors.Is(err, tt.target) {
				t.Fatalf("err = %v, want %v", err, tt.target)
			}
			if len(kv.data) != 0 {
				t.Error("nothing may be cached after a failed call")
			}
		})
	}
}

func TestBatchEmbed_CacheFailuresDegrade(t *testing.T) {
	p := &countingProvider{tokens: 1}
	kv := newMapKV()
	kv.getErr = errBoom
	kv.setErr = errBoom

	res, err := newCached(p, kv).BatchEmbed(context.Background(), []string{"abc"})
	if err != nil {
		t.Fatalf("cache outage must not fail embedding: %v", err)
	}
	if res.Embeddings[0][0] != 3 || p.calls != 1 {
		t.Errorf("embedding=%v calls=%d", res.Embeddings, p.calls)
	}
}

func TestBatchEmbed_CorruptEntryIsAMiss(t *testing.T) {
	p := &countingProvider{}
	kv := newMapKV()
	kv.data[passageScope.Key("abc")] = []byte{1, 2, 3}

	res, err := newCached(p, kv).BatchEmbed(context.Background(), []string{"abc"})
	if err != nil {
		t.Fatalf("BatchEmbed: %v", err)
	}
	if p.calls != 1 || res.Embeddings[0][0] != 3 {
		t.Errorf("corrupt entry should be re-embedded: calls=%d embedding=%v", p.calls, res.Embeddings)
	}
}

func TestEmbed_SingleText(t *testing.T) {
	p := &countingProvider{tokens: 2}
	kv := newMapKV()
	c := New(p, kv, Scope{Model: "m", InputType: domain.InputQuery}, time.Hour, nil, zap.NewNop())

	res, err := c.Embed(context.Background(), "romance")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if res.Embedding[0] != 7 || res.TotalTokens != 2 {
		t.Errorf("result = %+v", res)
	}
	key := Scope{Model: "m", InputType: domain.InputQuery}.Key("romance")
	if kv.ttls[key] != time.Hour {
		t.Errorf("ttl = %v, want 1h", kv.ttls[key])
	}
}

func TestScopeKey(t *testing.T) {
	query := Scope{Model: passageScope.Model, InputType: domain.InputQuery}
	other := Scope{Model: "e5-small", InputType: domain.InputPassage}

	k := passageScope.Key("romance")
	if k == query.Key("romance") {
		t.Error("passage and query keys must differ")
	}
	if k == other.Key("romance") {
		t.Error("keys of different models must differ")
	}
	if k != passageScope.Key("romance") {
		t.Error("key must be deterministic")
	}
	if len(k) != len(keyPrefix)+64 {
		t.Errorf("unexpected key %q", k)
	}
}

func TestLookupsCounter(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_embedding_cache_total"}, []string{"result"})
	c := New(&countingProvider{}, newMapKV(), passageScope, 0, counter, zap.NewNop())

	for range 3 {
		if _, err := c.Embed(context.Background(), "same text"); err != nil {
			t.Fatalf("Embed: %v", err)
		}
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("miss")); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("hit")); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
}
