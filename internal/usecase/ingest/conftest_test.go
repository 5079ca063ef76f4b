package ingest

import (
	"context"

	"github.com/kailas-cloud/reviewdex/internal/domain"
	domidx "github.com/kailas-cloud/reviewdex/internal/domain/index"
	"github.com/kailas-cloud/reviewdex/internal/domain/review"
	domvec "github.com/kailas-cloud/reviewdex/internal/domain/vector"
	"github.com/kailas-cloud/reviewdex/internal/reader"
)

type mockIndexes struct {
	outcome   domidx.EnsureOutcome
	ensureErr error
	// counts is returned by successive Stats calls; the last value repeats.
	counts   []int
	statsErr []error
	polls    int
}

func (m *mockIndexes) Ensure(_ context.Context, _ domidx.Spec) (domidx.EnsureOutcome, error) {
	return m.outcome, m.ensureErr
}

func (m *mockIndexes) Stats(_ context.Context, _ string, _ ...string) (domidx.Stats, error) {
	i := m.polls
	m.polls++
	if i < len(m.statsErr) && m.statsErr[i] != nil {
		return domidx.Stats{}, m.statsErr[i]
	}
	if len(m.counts) == 0 {
		return domidx.Stats{}, nil
	}
	if i >= len(m.counts) {
		i = len(m.counts) - 1
	}
	return domidx.Stats{TotalVectorCount: m.counts[i]}, nil
}

type mockVectors struct {
	upserted  []domvec.Entry
	namespace string
	upsertErr error
	stored    map[string]bool
	existErr  error
}

func (m *mockVectors) Upsert(_ context.Context, _, namespace string, entries []domvec.Entry) (int, error) {
	if m.upsertErr != nil {
		return 0, m.upsertErr
	}
	m.namespace = namespace
	m.upserted = append(m.upserted, entries...)
	return len(entries), nil
}

func (m *mockVectors) Existing(_ context.Context, _, _ string, ids []string) (map[string]bool, error) {
	if m.existErr != nil {
		return nil, m.existErr
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = m.stored[id]
	}
	return out, nil
}

// hashEmbedder returns a small deterministic vector per text.
type hashEmbedder struct {
	calls     int
	texts     []string
	inputType domain.InputType
	err       error
}

func (e *hashEmbedder) BatchEmbed(
	_ context.Context, texts []string, inputType domain.InputType,
) (domain.BatchEmbeddingResult, error) {
	e.calls++
	e.texts = texts
	e.inputType = inputType
	if e.err != nil {
		return domain.BatchEmbeddingResult{}, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = textVector(t)
	}
	return domain.BatchEmbeddingResult{Embeddings: out}, nil
}

func (e *hashEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	res, err := e.BatchEmbed(ctx, []string{text}, domain.InputQuery)
	if err != nil {
		return nil, err
	}
	return res.Embeddings[0], nil
}

func textVector(t string) []float32 {
	v := []float32{1, 1, 1, 1}
	for i, c := range t {
		v[i%4] += float32(c % 17)
	}
	return v
}

type stubReader struct {
	result reader.Result
	err    error
	reads  int
}

func (s *stubReader) ReadFile(_ string) (reader.Result, error) {
	s.reads++
	return s.result, s.err
}

func twoRecords() []review.Record {
	return []review.Record{
		{ID: "1882931173", UserID: "AVCGYZL8FQQTD", Title: "Its Only Art If Its Well Hung!", Score: 4, Time: 940636800,
			Summary: "Nice collection of Julie Strain images", Text: "This is only for Julie Strain fans."},
		{ID: "0826414346", UserID: "A30TK6U7DNS82R", Title: "Dr. Seuss: American Icon", Score: 5, Time: 1095724800,
			Summary: "Really Enjoyed It", Text: "I changed my mind."},
	}
}
