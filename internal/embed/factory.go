package embed

import (
	"fmt"
	"log/slog"
	"time"
)

// FactoryConfig selects and configures an embedding provider.
type FactoryConfig struct {
	Provider   string // "gemini" or "static"
	Model      string
	APIKey     string
	Endpoint   string
	Dimensions int
	Timeout    time.Duration
	MaxRetries int
	CacheSize  int
}

// NewEmbedder creates an embedder from configuration, wrapped with LRU
// caching. An unconfigured or unknown provider falls back to the static
// embedder so the engine always has a working embedding capability.
func NewEmbedder(cfg FactoryConfig) (Embedder, error) {
	inner, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}
	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}

func newProvider(cfg FactoryConfig) (Embedder, error) {
	switch cfg.Provider {
	case "", "static":
		return NewStaticEmbedder(), nil

	case "gemini":
		if cfg.APIKey == "" {
			slog.Warn("embedder_fallback",
				slog.String("reason", "gemini selected but no API key configured"),
				slog.String("provider", "static"))
			return NewStaticEmbedder(), nil
		}
		return NewGeminiEmbedder(GeminiConfig{
			Endpoint:   cfg.Endpoint,
			Model:      cfg.Model,
			APIKey:     cfg.APIKey,
			Dimensions: cfg.Dimensions,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		})

	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
}
