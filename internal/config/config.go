package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/reviewdex/internal/domain"
)

// Config holds the reviewdex configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Queries   []QueryConfig   `yaml:"queries"`
	Ops       OpsConfig       `yaml:"ops"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// DatabaseConfig holds vector store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, memory (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds the embedding provider and model settings.
type EmbeddingConfig struct {
	Provider           string      `yaml:"provider"`
	APIKey             string      `yaml:"api_key"`
	BaseURL            string      `yaml:"base_url"`
	Model              string      `yaml:"model"`
	Dimensions         int         `yaml:"dimensions"` // sent to the provider only when > 0
	PassageInstruction string      `yaml:"passage_instruction"`
	QueryInstruction   string      `yaml:"query_instruction"`
	Truncate           string      `yaml:"truncate"` // END, NONE
	MaxInputChars      int         `yaml:"max_input_chars"`
	MaxBatchSize       int         `yaml:"max_batch_size"`
	Cache              CacheConfig `yaml:"cache"`
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Enabled  bool `yaml:"enabled"`
	TTLHours int  `yaml:"ttl_hours"`
}

// IndexConfig describes the vector index.
type IndexConfig struct {
	Name            string `yaml:"name"`
	Dimension       int    `yaml:"dimension"`
	Metric          string `yaml:"metric"` // cosine, euclidean, dotproduct
	Cloud           string `yaml:"cloud"`
	Region          string `yaml:"region"`
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
}

// IngestConfig holds CSV loading settings.
type IngestConfig struct {
	Path            string `yaml:"path"`
	Limit           int    `yaml:"limit"`
	Namespace       string `yaml:"namespace"`
	Policy          string `yaml:"policy"` // skip, force, diff
	WaitTimeoutSec  int    `yaml:"wait_timeout_sec"`
	PollIntervalSec int    `yaml:"poll_interval_sec"`
}

// QueryConfig describes one query run by cmd/query.
type QueryConfig struct {
	Kind        string         `yaml:"kind"` // id, filter, semantic, hybrid
	Description string         `yaml:"description"`
	Namespace   string         `yaml:"namespace"`
	ID          string         `yaml:"id"`
	Text        string         `yaml:"text"`
	Filter      map[string]any `yaml:"filter"`
	TopK        int            `yaml:"top_k"`

	// IncludeMetadata defaults to true when absent.
	IncludeMetadata *bool `yaml:"include_metadata"`
}

// OpsConfig holds the optional ops listener settings. Port 0 disables it.
type OpsConfig struct {
	Port             int      `yaml:"port"`
	APIKeys          []string `yaml:"api_keys"`
	ShutdownSec      int      `yaml:"shutdown_timeout_sec"`
	HealthTimeoutSec int      `yaml:"health_timeout_sec"` // per check
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, expands, defaults and validates the configuration at path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads variables from .env files into the process environment.
// Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	vec := domain.DefaultVectorConfig()

	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = vec.Model
	}
	if c.Embedding.PassageInstruction == "" {
		c.Embedding.PassageInstruction = vec.PassageInstruction
	}
	if c.Embedding.QueryInstruction == "" {
		c.Embedding.QueryInstruction = vec.QueryInstruction
	}
	if c.Embedding.Truncate == "" {
		c.Embedding.Truncate = vec.Truncate
	}
	if c.Embedding.MaxInputChars <= 0 {
		c.Embedding.MaxInputChars = vec.MaxInputChars
	}
	if c.Embedding.MaxBatchSize <= 0 {
		c.Embedding.MaxBatchSize = vec.MaxAPIBatchSize
	}
	if c.Embedding.Cache.TTLHours <= 0 {
		c.Embedding.Cache.TTLHours = 24 * 30
	}

	if c.Index.Dimension <= 0 {
		c.Index.Dimension = vec.Dimensions
	}
	if c.Index.Metric == "" {
		c.Index.Metric = vec.DistanceMetric
	}
	if c.Index.Cloud == "" {
		c.Index.Cloud = "aws"
	}
	if c.Index.Region == "" {
		c.Index.Region = "us-east-1"
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}

	if c.Ingest.Path == "" {
		c.Ingest.Path = "books_rating.csv"
	}
	if c.Ingest.Limit == 0 {
		c.Ingest.Limit = 95
	}
	if c.Ingest.Namespace == "" {
		c.Ingest.Namespace = domain.DefaultNamespace
	}
	if c.Ingest.Policy == "" {
		c.Ingest.Policy = "skip"
	}
	if c.Ingest.WaitTimeoutSec <= 0 {
		c.Ingest.WaitTimeoutSec = 30
	}
	if c.Ingest.PollIntervalSec <= 0 {
		c.Ingest.PollIntervalSec = 2
	}

	if c.Ops.ShutdownSec <= 0 {
		c.Ops.ShutdownSec = 10
	}
	if c.Ops.HealthTimeoutSec <= 0 {
		c.Ops.HealthTimeoutSec = 5
	}
}

// Validate checks the configuration for correctness.
// Absent required settings wrap domain.ErrConfigurationMissing.
func (c *Config) Validate() error {
	if c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding.api_key: %w", domain.ErrConfigurationMissing)
	}
	if c.Index.Name == "" {
		return fmt.Errorf("index.name: %w", domain.ErrConfigurationMissing)
	}

	switch c.Database.Driver {
	case "redis":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs: %w", domain.ErrConfigurationMissing)
		}
	case "memory":
	default:
		return fmt.Errorf("database.driver must be \"redis\" or \"memory\", got %q", c.Database.Driver)
	}

	switch c.Index.Metric {
	case "cosine", "euclidean", "dotproduct":
	default:
		return fmt.Errorf("index.metric must be cosine, euclidean or dotproduct, got %q", c.Index.Metric)
	}
	switch strings.ToUpper(c.Embedding.Truncate) {
	case "END", "NONE":
	default:
		return fmt.Errorf("embedding.truncate must be END or NONE, got %q", c.Embedding.Truncate)
	}
	switch c.Ingest.Policy {
	case "skip", "force", "diff":
	default:
		return fmt.Errorf("ingest.policy must be skip, force or diff, got %q", c.Ingest.Policy)
	}
	if c.Ops.Port < 0 || c.Ops.Port > 65535 {
		return fmt.Errorf("ops.port must be between 0 and 65535, got %d", c.Ops.Port)
	}

	for i, q := range c.Queries {
		switch q.Kind {
		case "id", "filter", "semantic", "hybrid":
		default:
			return fmt.Errorf("queries[%d].kind must be id, filter, semantic or hybrid, got %q", i, q.Kind)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
