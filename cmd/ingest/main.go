package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reviewdex"
	"github.com/kailas-cloud/reviewdex/internal/config"
	"github.com/kailas-cloud/reviewdex/internal/domain"
	logpkg "github.com/kailas-cloud/reviewdex/internal/logger"
	healthuc "github.com/kailas-cloud/reviewdex/internal/usecase/health"
	"github.com/kailas-cloud/reviewdex/internal/version"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code once every deferred cleanup has run.
func run() int {
	if err := config.LoadDotEnv(); err != nil {
		panic("failed to load .env: " + err.Error())
	}
	env := config.GetEnv()

	boot, err := logpkg.NewLogger(env)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}

	cfg, err := config.Load(env)
	if err != nil {
		if errors.Is(err, domain.ErrConfigurationMissing) {
			boot.Error("Required configuration is missing", zap.Error(err))
			return 1
		}
		boot.Error("Failed to load config", zap.Error(err))
		return 1
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		boot.Error("Failed to create logger", zap.Error(err))
		return 1
	}
	defer func() { _ = logger.Sync() }()
	logger = logpkg.ForCommand(logger, "ingest", cfg.Index.Name)

	logger.Info("Starting review ingestion",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("path", cfg.Ingest.Path),
		zap.Int("limit", cfg.Ingest.Limit),
		zap.String("policy", cfg.Ingest.Policy),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := reviewdex.New(ctx, cfg, reviewdex.WithLogger(logger))
	if err != nil {
		logger.Error("Failed to initialize", zap.Error(err))
		return 1
	}
	defer client.Close()

	spec := client.Spec()
	logger.Info("Index resolved",
		zap.String("index", spec.Name()),
		zap.Int("dimension", spec.Dimension()),
		zap.String("metric", string(spec.Metric())),
	)

	go func() {
		if err := client.ServeOps(ctx); err != nil {
			logger.Error("Ops listener failed", zap.Error(err))
		}
	}()

	if r := client.Preflight(ctx); r.Status != healthuc.Healthy {
		logger.Warn("Preflight degraded",
			zap.String("status", string(r.Status)), zap.Any("errors", r.Errors))
	}

	rep, err := client.Ingest(ctx)
	if err != nil {
		logger.Error("Ingestion failed", zap.Error(err))
		return 1
	}

	logger.Info("Ingestion finished",
		zap.Bool("created", rep.Created),
		zap.Bool("skipped", rep.Skipped),
		zap.Int("rejected", rep.Rejected),
		zap.Int("documents", rep.Documents),
		zap.Int("embedded", rep.Embedded),
		zap.Int("upserted", rep.Upserted),
		zap.Bool("populated", rep.Populated),
	)
	return 0
}
