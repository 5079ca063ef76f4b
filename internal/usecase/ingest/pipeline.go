package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reviewdex/internal/domain"
	domidx "github.com/kailas-cloud/reviewdex/internal/domain/index"
	"github.com/kailas-cloud/reviewdex/internal/domain/review"
	domvec "github.com/kailas-cloud/reviewdex/internal/domain/vector"
	"github.com/kailas-cloud/reviewdex/internal/metrics"
)

// Policy decides what Run does when the index already existed.
type Policy string

const (
	// PolicySkip leaves an existing index untouched.
	PolicySkip Policy = "skip"
	// PolicyForce re-ingests every row; same identifiers are overwritten.
	PolicyForce Policy = "force"
	// PolicyDiff embeds and writes only rows whose identifiers are not stored yet.
	PolicyDiff Policy = "diff"
)

// IsValid reports whether p is a known policy.
func (p Policy) IsValid() bool {
	return p == PolicySkip || p == PolicyForce || p == PolicyDiff
}

// Defaults for waiting on index population.
const (
	DefaultWaitTimeout  = 30 * time.Second
	DefaultPollInterval = 2 * time.Second
)

// Options configures a Pipeline.
type Options struct {
	Namespace    string
	Policy       Policy
	WaitTimeout  time.Duration
	PollInterval time.Duration
}

func (o *Options) applyDefaults() {
	if o.Namespace == "" {
		o.Namespace = domain.DefaultNamespace
	}
	if !o.Policy.IsValid() {
		o.Policy = PolicySkip
	}
	if o.WaitTimeout <= 0 {
		o.WaitTimeout = DefaultWaitTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
}

// Report summarizes one Run.
type Report struct {
	Created   bool
	Skipped   bool
	Rejected  int
	Documents int
	Embedded  int
	Upserted  int
	Populated bool
}

// Pipeline loads reviews from CSV into a vector index.
type Pipeline struct {
	spec    domidx.Spec
	indexes IndexRepository
	vectors VectorRepository
	embed   Embedder
	reader  RecordReader
	opts    Options
	logger  *zap.Logger
}

// New creates an ingestion pipeline for the index described by spec.
func New(
	spec domidx.Spec, indexes IndexRepository, vectors VectorRepository,
	embed Embedder, rd RecordReader, opts Options, logger *zap.Logger,
) *Pipeline {
	opts.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		spec:    spec,
		indexes: indexes,
		vectors: vectors,
		embed:   embed,
		reader:  rd,
		opts:    opts,
		logger:  logger.With(zap.String("index", spec.Name()), zap.String("namespace", opts.Namespace)),
	}
}

// Run ensures the index, loads the CSV at path, embeds every document in one batch,
// upserts the entries and waits until the index reports them.
func (p *Pipeline) Run(ctx context.Context, path string) (Report, error) {
	var rep Report

	outcome, err := p.indexes.Ensure(ctx, p.spec)
	if err != nil {
		return rep, fmt.Errorf("ensure index: %w", err)
	}
	rep.Created = outcome == domidx.Created
	if rep.Created {
		p.logger.Info("created index",
			zap.Int("dimension", p.spec.Dimension()),
			zap.String("metric", string(p.spec.Metric())),
			zap.String("cloud", p.spec.Region().Cloud),
			zap.String("region", p.spec.Region().Region),
		)
	} else {
		p.logger.Info("index already exists", zap.String("policy", string(p.opts.Policy)))
		if p.opts.Policy == PolicySkip {
			rep.Skipped = true
			return rep, nil
		}
	}

	read, err := p.reader.ReadFile(path)
	if err != nil {
		return rep, fmt.Errorf("read records: %w", err)
	}
	rep.Rejected = len(read.Rejected)

	docs := make([]review.Document, 0, len(read.Records))
	for _, r := range read.Records {
		docs = append(docs, review.NewDocument(r))
	}
	rep.Documents = len(docs)
	p.logger.Info("prepared documents", zap.Int("documents", len(docs)), zap.Int("rejected", rep.Rejected))

	pending := docs
	if !rep.Created && p.opts.Policy == PolicyDiff {
		pending, err = p.missing(ctx, docs)
		if err != nil {
			return rep, err
		}
		p.logger.Info("diff against stored ids",
			zap.Int("stored", len(docs)-len(pending)), zap.Int("pending", len(pending)))
	}

	if len(pending) > 0 {
		entries, err := p.embedDocuments(ctx, pending)
		if err != nil {
			return rep, err
		}
		rep.Embedded = len(entries)

		n, err := p.upsert(ctx, entries)
		if err != nil {
			return rep, err
		}
		rep.Upserted = n
	}

	rep.Populated = p.WaitForPopulation(ctx, distinctIDs(docs), p.opts.WaitTimeout, p.opts.PollInterval)
	return rep, nil
}

// distinctIDs counts documents by identifier; repeated rows overwrite one key.
func distinctIDs(docs []review.Document) int {
	seen := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		seen[d.ID] = struct{}{}
	}
	return len(seen)
}

func (p *Pipeline) missing(ctx context.Context, docs []review.Document) ([]review.Document, error) {
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	stored, err := p.vectors.Existing(ctx, p.spec.Name(), p.opts.Namespace, ids)
	if err != nil {
		return nil, fmt.Errorf("check stored ids: %w", err)
	}
	out := make([]review.Document, 0, len(docs))
	for _, d := range docs {
		if !stored[d.ID] {
			out = append(out, d)
		}
	}
	return out, nil
}

func (p *Pipeline) embedDocuments(ctx context.Context, docs []review.Document) ([]domvec.Entry, error) {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}

	p.logger.Info("creating embeddings", zap.Int("texts", len(texts)))
	res, err := p.embed.BatchEmbed(ctx, texts, domain.InputPassage)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	metrics.DocumentsEmbeddedTotal.WithLabelValues(p.spec.Name()).Add(float64(len(res.Embeddings)))

	entries, err := domvec.FromDocuments(docs, res.Embeddings)
	if err != nil {
		return nil, fmt.Errorf("build entries: %w", err)
	}
	return entries, nil
}

func (p *Pipeline) upsert(ctx context.Context, entries []domvec.Entry) (int, error) {
	p.logger.Info("upserting vectors", zap.Int("vectors", len(entries)))

	start := time.Now()
	n, err := p.vectors.Upsert(ctx, p.spec.Name(), p.opts.Namespace, entries)
	metrics.UpsertDuration.WithLabelValues(p.spec.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		p.logger.Error("upsert failed", zap.Int("vectors", len(entries)), zap.Error(err))
		return 0, fmt.Errorf("upsert: %w", err)
	}

	metrics.VectorsUpsertedTotal.WithLabelValues(p.spec.Name(), p.opts.Namespace).Add(float64(n))
	p.logger.Info("upserted vectors", zap.Int("vectors", n))
	return n, nil
}

// WaitForPopulation polls index stats until the total vector count reaches expected.
// It returns false once timeout elapses or ctx is done. Stats errors are logged and polling continues.
func (p *Pipeline) WaitForPopulation(ctx context.Context, expected int, timeout, interval time.Duration) bool {
	deadline := time.Now().Add(timeout)
	name := p.spec.Name()

	for time.Now().Before(deadline) {
		stats, err := p.indexes.Stats(ctx, name)
		if err != nil {
			p.logger.Warn("read index stats", zap.Error(err))
		} else {
			metrics.IndexVectorCount.WithLabelValues(name).Set(float64(stats.TotalVectorCount))
			p.logger.Info("waiting for vectors",
				zap.Int("available", stats.TotalVectorCount), zap.Int("expected", expected))
			if stats.TotalVectorCount >= expected {
				return true
			}
		}

		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			p.logger.Warn("stopped waiting for vectors", zap.Error(ctx.Err()))
			return false
		case <-t.C:
		}
	}

	p.logger.Warn("not all vectors are indexed yet", zap.Error(domain.ErrTimeout), zap.Duration("timeout", timeout))
	return false
}
