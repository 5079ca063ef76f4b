// Package reviewdex wires the review ingestion pipeline and query layer
// from a loaded configuration.
package reviewdex

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reviewdex/internal/config"
	"github.com/kailas-cloud/reviewdex/internal/db"
	"github.com/kailas-cloud/reviewdex/internal/db/memory"
	dbRedis "github.com/kailas-cloud/reviewdex/internal/db/redis"
	"github.com/kailas-cloud/reviewdex/internal/domain"
	domidx "github.com/kailas-cloud/reviewdex/internal/domain/index"
	"github.com/kailas-cloud/reviewdex/internal/domain/search/mode"
	"github.com/kailas-cloud/reviewdex/internal/domain/search/result"
	"github.com/kailas-cloud/reviewdex/internal/metrics"
	"github.com/kailas-cloud/reviewdex/internal/reader"
	"github.com/kailas-cloud/reviewdex/internal/repository/embcache"
	indexrepo "github.com/kailas-cloud/reviewdex/internal/repository/index"
	searchrepo "github.com/kailas-cloud/reviewdex/internal/repository/search"
	vectorrepo "github.com/kailas-cloud/reviewdex/internal/repository/vector"
	chiTransport "github.com/kailas-cloud/reviewdex/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/reviewdex/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/reviewdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/reviewdex/internal/usecase/health"
	"github.com/kailas-cloud/reviewdex/internal/usecase/ingest"
	"github.com/kailas-cloud/reviewdex/internal/usecase/query"
)

// Client holds the wired services for one index.
type Client struct {
	cfg       config.Config
	store     db.Store
	spec      domidx.Spec
	indexes   *indexrepo.Repo
	embedding *embeddinguc.Service
	pipeline  *ingest.Pipeline
	queries   *query.Service
	health    *healthuc.Service
	logger    *zap.Logger
}

// Option configures the Client.
type Option func(*clientOptions)

type clientOptions struct {
	logger *zap.Logger
	store  db.Store
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// WithStore uses s instead of opening the configured database.
func WithStore(s db.Store) Option {
	return func(o *clientOptions) { o.store = s }
}

// New connects to the configured store and builds the services.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Client, error) {
	o := &clientOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	spec, err := domidx.NewSpec(
		cfg.Index.Name, cfg.Index.Dimension, domidx.Metric(cfg.Index.Metric),
		domidx.Region{Cloud: cfg.Index.Cloud, Region: cfg.Index.Region},
	)
	if err != nil {
		return nil, fmt.Errorf("reviewdex: index spec: %w", err)
	}

	store := o.store
	if store == nil {
		store, err = createStore(cfg.Database)
		if err != nil {
			return nil, err
		}
		timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("reviewdex: database not ready: %w: %w", domain.ErrTimeout, err)
			}
			return nil, fmt.Errorf("reviewdex: database not ready: %w", err)
		}
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterIngestMetrics()

	return wireClient(store, spec, cfg, o.logger), nil
}

func createStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("reviewdex: create redis store: %w", err)
		}
		return s, nil
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("reviewdex: unknown driver %q", cfg.Driver)
	}
}

func wireClient(store db.Store, spec domidx.Spec, cfg config.Config, logger *zap.Logger) *Client {
	indexes := indexrepo.New(store).WithHNSW(indexrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	vectors := vectorrepo.New(store)
	embedding := buildEmbedding(cfg, spec.Dimension(), store, logger)

	pipeline := ingest.New(spec, indexes, vectors, embedding, reader.New(cfg.Ingest.Limit, logger), ingest.Options{
		Namespace:    cfg.Ingest.Namespace,
		Policy:       ingest.Policy(cfg.Ingest.Policy),
		WaitTimeout:  time.Duration(cfg.Ingest.WaitTimeoutSec) * time.Second,
		PollInterval: time.Duration(cfg.Ingest.PollIntervalSec) * time.Second,
	}, logger)

	queries := query.New(spec.Name(), spec.Metric(), searchrepo.New(store), vectors, embedding, logger).
		WithDescriber(indexes)

	health := healthuc.New(store, embedding).
		WithIndex(indexes, spec.Name()).
		WithTimeout(time.Duration(cfg.Ops.HealthTimeoutSec) * time.Second)

	return &Client{
		cfg:       cfg,
		store:     store,
		spec:      spec,
		indexes:   indexes,
		embedding: embedding,
		pipeline:  pipeline,
		queries:   queries,
		health:    health,
		logger:    logger,
	}
}

// buildEmbedding assembles one chain per input type:
// OpenAI -> Cached -> Instruction -> Instrumented.
func buildEmbedding(cfg config.Config, dimension int, store db.Store, logger *zap.Logger) *embeddinguc.Service {
	ec := cfg.Embedding
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:        ec.APIKey,
		BaseURL:       ec.BaseURL,
		Model:         ec.Model,
		Dimensions:    ec.Dimensions,
		Provider:      ec.Provider,
		MaxBatchSize:  ec.MaxBatchSize,
		Truncate:      strings.ToUpper(ec.Truncate),
		MaxInputChars: ec.MaxInputChars,
		Logger:        logger,
	})

	chain := func(t domain.InputType, instruction string) domain.Embedder {
		var e domain.Embedder = base
		if ec.Cache.Enabled {
			ttl := time.Duration(ec.Cache.TTLHours) * time.Hour
			e = embcache.New(e, store, embcache.Scope{Model: ec.Model, InputType: t}, ttl,
				metrics.EmbeddingCacheTotal, logger)
		}
		if instruction != "" {
			e = domain.NewInstructionEmbedder(e, instruction)
		}
		labels := embeddinguc.Labels{Provider: ec.Provider, Model: ec.Model, InputType: t}
		return embeddinguc.NewInstrumentedEmbedder(e, labels, dimension, logger)
	}

	return embeddinguc.NewService(
		chain(domain.InputPassage, ec.PassageInstruction),
		chain(domain.InputQuery, ec.QueryInstruction),
	)
}

// Close releases the store connection.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Spec returns the index the client works on.
func (c *Client) Spec() domidx.Spec { return c.spec }

// Ingest loads the configured CSV into the index.
func (c *Client) Ingest(ctx context.Context) (ingest.Report, error) {
	return c.IngestFile(ctx, c.cfg.Ingest.Path)
}

// IngestFile loads the CSV at path into the index.
func (c *Client) IngestFile(ctx context.Context, path string) (ingest.Report, error) {
	rep, err := c.pipeline.Run(ctx, path)
	if err != nil {
		return rep, fmt.Errorf("ingest %s: %w", path, err)
	}
	return rep, nil
}

// Query runs one query definition.
func (c *Client) Query(ctx context.Context, def query.Definition) ([]result.Result, error) {
	return c.queries.Run(ctx, def)
}

// Definitions returns the configured queries, or the four stock queries when none are configured.
func (c *Client) Definitions() []query.Definition {
	if len(c.cfg.Queries) == 0 {
		return query.DefaultDefinitions()
	}
	defs := make([]query.Definition, len(c.cfg.Queries))
	for i, q := range c.cfg.Queries {
		defs[i] = query.Definition{
			Kind:        mode.Mode(q.Kind),
			Description: q.Description,
			Namespace:   q.Namespace,
			ID:          q.ID,
			Text:        q.Text,
			Filter:      q.Filter,
			TopK:        q.TopK,

			OmitMetadata: q.IncludeMetadata != nil && !*q.IncludeMetadata,
		}
	}
	return defs
}

// Preflight checks the store and the embedding provider, without requiring the index to exist.
func (c *Client) Preflight(ctx context.Context) healthuc.Report {
	return healthuc.New(c.store, c.embedding).
		WithTimeout(time.Duration(c.cfg.Ops.HealthTimeoutSec) * time.Second).
		Check(ctx)
}

// Health checks the store, the embedding provider and the index.
func (c *Client) Health(ctx context.Context) healthuc.Report {
	return c.health.Check(ctx)
}

// ServeOps runs the ops listener until ctx is done. It returns nil at once when ops.port is 0.
func (c *Client) ServeOps(ctx context.Context) error {
	if c.cfg.Ops.Port <= 0 {
		return nil
	}
	srv := chiTransport.NewServer(c.health, c.logger).WithStats(c.indexes, c.spec.Name(), c.cfg.Ingest.Namespace)
	err := chiTransport.Serve(ctx, fmt.Sprintf(":%d", c.cfg.Ops.Port), srv.Router(c.cfg.Ops.APIKeys),
		time.Duration(c.cfg.Ops.ShutdownSec)*time.Second, c.logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("reviewdex: %w", err)
	}
	return nil
}
