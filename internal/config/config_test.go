package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/reviewdex/internal/domain"
)

func validConfig() Config {
	cfg := Config{
		Database:  DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Embedding: EmbeddingConfig{APIKey: "test-key"},
		Index:     IndexConfig{Name: "book-reviews"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_MissingRequired(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"api key", func(c *Config) { c.Embedding.APIKey = "" }, "embedding.api_key"},
		{"index name", func(c *Config) { c.Index.Name = "" }, "index.name"},
		{"redis addrs", func(c *Config) { c.Database.Addrs = nil }, "database.addrs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if !errors.Is(err, domain.ErrConfigurationMissing) {
				t.Fatalf("expected ErrConfigurationMissing, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not name %q", err, tt.want)
			}
		})
	}
}

func TestValidate_MemoryNeedsNoAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "memory"
	cfg.Database.Addrs = nil
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"driver", func(c *Config) { c.Database.Driver = "valkey-cluster" }},
		{"metric", func(c *Config) { c.Index.Metric = "manhattan" }},
		{"truncate", func(c *Config) { c.Embedding.Truncate = "START" }},
		{"policy", func(c *Config) { c.Ingest.Policy = "merge" }},
		{"ops port", func(c *Config) { c.Ops.Port = 70000 }},
		{"query kind", func(c *Config) { c.Queries = []QueryConfig{{Kind: "keyword"}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, domain.ErrConfigurationMissing) {
				t.Errorf("invalid value must not be reported as missing: %v", err)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Database.Driver != "redis" || cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("unexpected database defaults %+v", cfg.Database)
	}
	if cfg.Embedding.Model != "multilingual-e5-large" {
		t.Errorf("expected e5 model, got %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.PassageInstruction != "passage: " || cfg.Embedding.QueryInstruction != "query: " {
		t.Errorf("unexpected instructions %q %q", cfg.Embedding.PassageInstruction, cfg.Embedding.QueryInstruction)
	}
	if cfg.Embedding.Truncate != "END" || cfg.Embedding.MaxBatchSize != 96 {
		t.Errorf("unexpected embedding defaults %+v", cfg.Embedding)
	}
	if cfg.Index.Dimension != 1024 || cfg.Index.Metric != "cosine" {
		t.Errorf("unexpected index defaults %+v", cfg.Index)
	}
	if cfg.Index.Cloud != "aws" || cfg.Index.Region != "us-east-1" {
		t.Errorf("unexpected region defaults %+v", cfg.Index)
	}
	if cfg.Ingest.Limit != 95 || cfg.Ingest.Namespace != "books" || cfg.Ingest.Policy != "skip" {
		t.Errorf("unexpected ingest defaults %+v", cfg.Ingest)
	}
	if cfg.Ingest.WaitTimeoutSec != 30 || cfg.Ingest.PollIntervalSec != 2 {
		t.Errorf("unexpected wait defaults %+v", cfg.Ingest)
	}
	if cfg.Ops.Port != 0 {
		t.Errorf("ops listener must be off by default, got port %d", cfg.Ops.Port)
	}
	if cfg.Ops.ShutdownSec != 10 || cfg.Ops.HealthTimeoutSec != 5 {
		t.Errorf("unexpected ops defaults %+v", cfg.Ops)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		Database: DatabaseConfig{Driver: "memory", ReadinessTimeout: 15},
		Index:    IndexConfig{Dimension: 384, Metric: "dotproduct", HNSWM: 32},
		Ingest:   IngestConfig{Limit: -1, Namespace: "movies"},
	}
	cfg.ApplyDefaults()

	if cfg.Database.Driver != "memory" || cfg.Database.ReadinessTimeout != 15 {
		t.Errorf("database overridden: %+v", cfg.Database)
	}
	if cfg.Index.Dimension != 384 || cfg.Index.Metric != "dotproduct" || cfg.Index.HNSWM != 32 {
		t.Errorf("index overridden: %+v", cfg.Index)
	}
	if cfg.Ingest.Limit != -1 || cfg.Ingest.Namespace != "movies" {
		t.Errorf("ingest overridden: %+v", cfg.Ingest)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("REVIEWDEX_TEST_SET", "value")

	in := "a: ${REVIEWDEX_TEST_SET}\nb: ${REVIEWDEX_TEST_UNSET:-fallback}\nc: ${REVIEWDEX_TEST_UNSET}\n"
	want := "a: value\nb: fallback\nc: \n"
	if got := string(expandEnvVars([]byte(in))); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoadFile_QueriesAndEnv(t *testing.T) {
	t.Setenv("EMBEDDING_API_KEY", "sk-test")
	t.Setenv("INDEX_NAME", "book-reviews")

	path := filepath.Join(t.TempDir(), "test.yaml")
	yml := `
database:
  driver: memory
embedding:
  api_key: ${EMBEDDING_API_KEY}
  base_url: ${EMBEDDING_BASE_URL:-http://localhost:8000/v1}
index:
  name: ${INDEX_NAME}
queries:
  - kind: hybrid
    description: hybrid search for high-rated romance books
    text: romance novels
    filter:
      review/score: {$gte: 4}
    top_k: 5
  - kind: semantic
    text: aliens
    include_metadata: false
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Embedding.APIKey != "sk-test" || cfg.Index.Name != "book-reviews" {
		t.Errorf("env not expanded: %+v %+v", cfg.Embedding, cfg.Index)
	}
	if cfg.Embedding.BaseURL != "http://localhost:8000/v1" {
		t.Errorf("default not applied: %q", cfg.Embedding.BaseURL)
	}
	if len(cfg.Queries) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(cfg.Queries))
	}
	if cfg.Queries[0].IncludeMetadata != nil {
		t.Errorf("include_metadata must stay unset when absent, got %v", *cfg.Queries[0].IncludeMetadata)
	}
	if im := cfg.Queries[1].IncludeMetadata; im == nil || *im {
		t.Errorf("include_metadata: false not decoded: %v", im)
	}
	score, ok := cfg.Queries[0].Filter["review/score"].(map[string]any)
	if !ok || score["$gte"] != 4 {
		t.Errorf("unexpected filter %#v", cfg.Queries[0].Filter)
	}
}

func TestLoadFile_MissingKeyIsConfigurationMissing(t *testing.T) {
	t.Setenv("EMBEDDING_API_KEY", "")

	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte("embedding:\n  api_key: ${EMBEDDING_API_KEY}\nindex:\n  name: x\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFile(path); !errors.Is(err, domain.ErrConfigurationMissing) {
		t.Fatalf("expected ErrConfigurationMissing, got %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("REVIEWDEX_DOTENV_TEST=from-file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("REVIEWDEX_DOTENV_TEST") })

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("REVIEWDEX_DOTENV_TEST"); got != "from-file" {
		t.Errorf("got %q, want from-file", got)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if GetEnv() != "local" {
		t.Errorf("expected local default, got %q", GetEnv())
	}
	t.Setenv("ENV", "prod")
	if GetEnv() != "prod" {
		t.Errorf("expected prod, got %q", GetEnv())
	}
}
