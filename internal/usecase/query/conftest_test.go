package query

import (
	"context"

	domidx "github.com/kailas-cloud/reviewdex/internal/domain/index"
	"github.com/kailas-cloud/reviewdex/internal/domain/search/request"
	"github.com/kailas-cloud/reviewdex/internal/domain/search/result"
)

type mockSearcher struct {
	results []result.Result
	err     error
	calls   int
	lastReq request.Request
	metric  domidx.Metric
}

func (m *mockSearcher) SearchKNN(
	_ context.Context, _ string, req *request.Request, metric domidx.Metric,
) ([]result.Result, error) {
	m.calls++
	m.lastReq = *req
	m.metric = metric
	return m.results, m.err
}

type mockFetcher struct {
	vec   []float32
	found bool
	err   error
	gotID string
}

func (m *mockFetcher) FetchVector(_ context.Context, _, _, id string) ([]float32, bool, error) {
	m.gotID = id
	return m.vec, m.found, m.err
}

type mockEmbedder struct {
	vec   []float32
	err   error
	texts []string
}

func (m *mockEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	m.texts = append(m.texts, text)
	return m.vec, m.err
}

type mockDescriber struct {
	spec domidx.Spec
	err  error
}

func (m *mockDescriber) Describe(_ context.Context, _ string) (domidx.Spec, error) {
	return m.spec, m.err
}

func newTestService() (*Service, *mockSearcher, *mockFetcher, *mockEmbedder) {
	s := &mockSearcher{}
	f := &mockFetcher{}
	e := &mockEmbedder{vec: []float32{0.1, 0.2}}
	return New("book-reviews", domidx.MetricCosine, s, f, e, nil), s, f, e
}
