package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reviewdex"
	"github.com/kailas-cloud/reviewdex/internal/config"
	"github.com/kailas-cloud/reviewdex/internal/domain"
	"github.com/kailas-cloud/reviewdex/internal/domain/search/mode"
	logpkg "github.com/kailas-cloud/reviewdex/internal/logger"
	"github.com/kailas-cloud/reviewdex/internal/render"
	"github.com/kailas-cloud/reviewdex/internal/version"
)

func main() {
	os.Exit(run())
}

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
	logger = logpkg.ForCommand(logger, "query", cfg.Index.Name)

	logger.Info("Starting review queries",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("db_driver", cfg.Database.Driver),
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

	for i, def := range client.Definitions() {
		if ctx.Err() != nil {
			logger.Warn("Interrupted", zap.Error(ctx.Err()))
			return 1
		}

		fmt.Printf("\n--- QUERY TYPE %d: %s ---\n", i+1, heading(def.Kind))

		results, err := client.Query(ctx, def)
		if err != nil {
			logger.Error("Query failed",
				zap.String("kind", string(def.Kind)), zap.String("description", def.Description), zap.Error(err))
			continue
		}
		if err := render.Results(os.Stdout, def.Description, results); err != nil {
			logger.Error("Render failed", zap.String("description", def.Description), zap.Error(err))
		}
	}
	return 0
}

func heading(k mode.Mode) string {
	switch k {
	case mode.ID:
		return "Search for ID"
	case mode.Filter:
		return "Metadata Filtering"
	case mode.Semantic:
		return "Semantic Search"
	case mode.Hybrid:
		return "Hybrid Search"
	default:
		return string(k)
	}
}
