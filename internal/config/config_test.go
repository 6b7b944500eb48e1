package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentsift/talentsift/configs"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultDataDir, cfg.DataDir)
	assert.Equal(t, 60, cfg.Search.RRFConstant)
	assert.Equal(t, 2, cfg.Search.CandidateMultiplier)
	assert.Equal(t, 1.5, cfg.Search.BM25K1)
	assert.Equal(t, 0.75, cfg.Search.BM25B)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
	assert.Equal(t, DefaultEmbedMaxRetries, cfg.Embeddings.MaxRetries)
	assert.True(t, cfg.Telemetry.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultDataDir, cfg.DataDir)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
data_dir: /tmp/ts-data
search:
  max_results: 25
  rrf_constant: 30
embeddings:
  provider: gemini
  model: text-embedding-004
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ts-data", cfg.DataDir)
	assert.Equal(t, 25, cfg.Search.MaxResults)
	assert.Equal(t, 30, cfg.Search.RRFConstant)
	assert.Equal(t, "gemini", cfg.Embeddings.Provider)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Unset fields keep their defaults.
	assert.Equal(t, 2, cfg.Search.CandidateMultiplier)
	assert.Equal(t, 1.5, cfg.Search.BM25K1)
	assert.Equal(t, filepath.Join("/tmp/ts-data", "metrics.db"), cfg.Telemetry.DBPath)
}

func TestDurationParsing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "embeddings:\n  timeout: 45s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Duration(45*time.Second), cfg.Embeddings.Timeout)

	bad := "embeddings:\n  timeout: soon\n"
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestEmbeddedTemplateLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configs.ConfigTemplate), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Duration(30*time.Second), cfg.Embeddings.Timeout)
	require.NoError(t, cfg.Validate())
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search: ["), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TALENTSIFT_DATA_DIR", "/tmp/from-env")
	t.Setenv("TALENTSIFT_EMBED_PROVIDER", "gemini")
	t.Setenv("TALENTSIFT_API_KEY", "secret")
	t.Setenv("TALENTSIFT_LOG_LEVEL", "warn")
	t.Setenv("TALENTSIFT_MAX_RESULTS", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env", cfg.DataDir)
	assert.Equal(t, "gemini", cfg.Embeddings.Provider)
	assert.Equal(t, "secret", cfg.Embeddings.APIKey)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 7, cfg.Search.MaxResults)
}

func TestGeminiKeyFallback(t *testing.T) {
	t.Setenv("TALENTSIFT_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-secret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gemini-secret", cfg.Embeddings.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero rrf constant", func(c *Config) { c.Search.RRFConstant = -1 }},
		{"zero candidate multiplier", func(c *Config) { c.Search.CandidateMultiplier = -1 }},
		{"negative k1", func(c *Config) { c.Search.BM25K1 = -0.5 }},
		{"b out of range", func(c *Config) { c.Search.BM25B = 1.5 }},
		{"unknown provider", func(c *Config) { c.Embeddings.Provider = "openai" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.DataDir = "/tmp/saved"
	cfg.Embeddings.Timeout = Duration(10 * time.Second)
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/saved", loaded.DataDir)
	assert.Equal(t, Duration(10*time.Second), loaded.Embeddings.Timeout)
}
