// Package config loads and persists talentsift configuration from YAML
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when fields are unset.
const (
	DefaultDataDir             = ".talentsift"
	DefaultMaxResults          = 10
	DefaultRRFConstant         = 60
	DefaultCandidateMultiplier = 2
	DefaultBM25K1              = 1.5
	DefaultBM25B               = 0.75
	DefaultProvider            = "static"
	DefaultEmbedTimeout        = 30 * time.Second
	DefaultEmbedMaxRetries     = 3
	DefaultCacheSize           = 10000
)

// Config is the root configuration.
type Config struct {
	DataDir    string           `yaml:"data_dir"`
	Search     SearchConfig     `yaml:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Logging    LoggingConfig    `yaml:"logging"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// SearchConfig tunes ranking behavior.
type SearchConfig struct {
	MaxResults          int     `yaml:"max_results"`
	RRFConstant         int     `yaml:"rrf_constant"`
	CandidateMultiplier int     `yaml:"candidate_multiplier"`
	BM25K1              float64 `yaml:"bm25_k1"`
	BM25B               float64 `yaml:"bm25_b"`
}

// EmbeddingsConfig selects and tunes the embedding provider.
type EmbeddingsConfig struct {
	Provider   string   `yaml:"provider"`
	Model      string   `yaml:"model"`
	APIKey     string   `yaml:"api_key"`
	Endpoint   string   `yaml:"endpoint"`
	Dimensions int      `yaml:"dimensions"`
	Timeout    Duration `yaml:"timeout"`
	MaxRetries int      `yaml:"max_retries"`
	CacheSize  int      `yaml:"cache_size"`
}

// Duration marshals as a human-readable string ("30s") and accepts both
// strings and integer nanoseconds on load.
type Duration time.Duration

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	*d = Duration(n)
	return nil
}

// LoggingConfig tunes structured logging.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	FilePath  string `yaml:"file_path"`
	MaxSizeMB int    `yaml:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files"`
}

// TelemetryConfig controls query metrics collection.
type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		DataDir: DefaultDataDir,
		Search: SearchConfig{
			MaxResults:          DefaultMaxResults,
			RRFConstant:         DefaultRRFConstant,
			CandidateMultiplier: DefaultCandidateMultiplier,
			BM25K1:              DefaultBM25K1,
			BM25B:               DefaultBM25B,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   DefaultProvider,
			Timeout:    Duration(DefaultEmbedTimeout),
			MaxRetries: DefaultEmbedMaxRetries,
			CacheSize:  DefaultCacheSize,
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
		},
	}
}

// Load reads configuration from path, merges defaults, and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks ranges on tunable parameters.
func (c *Config) Validate() error {
	if c.Search.RRFConstant <= 0 {
		return fmt.Errorf("search.rrf_constant must be positive, got %d", c.Search.RRFConstant)
	}
	if c.Search.CandidateMultiplier <= 0 {
		return fmt.Errorf("search.candidate_multiplier must be positive, got %d", c.Search.CandidateMultiplier)
	}
	if c.Search.BM25K1 < 0 {
		return fmt.Errorf("search.bm25_k1 must be non-negative, got %g", c.Search.BM25K1)
	}
	if c.Search.BM25B < 0 || c.Search.BM25B > 1 {
		return fmt.Errorf("search.bm25_b must be in [0, 1], got %g", c.Search.BM25B)
	}
	switch c.Embeddings.Provider {
	case "static", "gemini":
	default:
		return fmt.Errorf("embeddings.provider must be static or gemini, got %q", c.Embeddings.Provider)
	}
	return nil
}

// applyEnv overlays TALENTSIFT_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("TALENTSIFT_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("TALENTSIFT_EMBED_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("TALENTSIFT_EMBED_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("TALENTSIFT_API_KEY"); v != "" {
		c.Embeddings.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && c.Embeddings.APIKey == "" {
		c.Embeddings.APIKey = v
	}
	if v := os.Getenv("TALENTSIFT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TALENTSIFT_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.MaxResults = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = DefaultMaxResults
	}
	if c.Search.RRFConstant == 0 {
		c.Search.RRFConstant = DefaultRRFConstant
	}
	if c.Search.CandidateMultiplier == 0 {
		c.Search.CandidateMultiplier = DefaultCandidateMultiplier
	}
	if c.Search.BM25K1 == 0 {
		c.Search.BM25K1 = DefaultBM25K1
	}
	if c.Search.BM25B == 0 {
		c.Search.BM25B = DefaultBM25B
	}
	if c.Embeddings.Provider == "" {
		c.Embeddings.Provider = DefaultProvider
	}
	if c.Embeddings.Timeout == 0 {
		c.Embeddings.Timeout = Duration(DefaultEmbedTimeout)
	}
	if c.Embeddings.MaxRetries <= 0 {
		c.Embeddings.MaxRetries = DefaultEmbedMaxRetries
	}
	if c.Embeddings.CacheSize == 0 {
		c.Embeddings.CacheSize = DefaultCacheSize
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Telemetry.DBPath == "" {
		c.Telemetry.DBPath = filepath.Join(c.DataDir, "metrics.db")
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "talentsift.yaml"
	}
	return filepath.Join(home, ".config", "talentsift", "config.yaml")
}
