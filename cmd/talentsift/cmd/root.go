// Package cmd implements the talentsift CLI.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/talentsift/talentsift/internal/config"
	"github.com/talentsift/talentsift/internal/embed"
	"github.com/talentsift/talentsift/internal/logging"
	"github.com/talentsift/talentsift/internal/output"
	"github.com/talentsift/talentsift/internal/search"
	"github.com/talentsift/talentsift/internal/store"
	"github.com/talentsift/talentsift/internal/telemetry"
)

var (
	flagConfig  string
	flagDataDir string
	flagLogLvl  string
	flagNoColor bool
	flagFormat  string

	cfg        *config.Config
	out        *output.Writer
	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "talentsift",
	Short: "Hybrid dense + lexical search over candidate documents",
	Long: `talentsift indexes normalized candidate documents into a dense vector
index and a BM25 lexical index, and searches them independently or fused
with reciprocal rank fusion.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return err
		}
		if flagDataDir != "" {
			cfg.DataDir = flagDataDir
		}
		if flagLogLvl != "" {
			cfg.Logging.Level = flagLogLvl
		}

		logCleanup, err = logging.SetupDefault(logging.Config{
			Level:         cfg.Logging.Level,
			FilePath:      cfg.Logging.FilePath,
			MaxSizeMB:     cfg.Logging.MaxSizeMB,
			MaxFiles:      cfg.Logging.MaxFiles,
			WriteToStderr: cfg.Logging.FilePath == "",
		})
		if err != nil {
			return fmt.Errorf("setup logging: %w", err)
		}

		format := output.Format(flagFormat)
		if format != output.FormatText && format != output.FormatJSON {
			return fmt.Errorf("unknown output format: %q", flagFormat)
		}
		out = output.NewWriter(os.Stdout, format, flagNoColor)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			logCleanup()
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", config.DefaultPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "index data directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLvl, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: text or json")
}

// openEngine constructs the embedder, metrics, and engine from the loaded
// config. The returned cleanup closes them in order.
func openEngine() (*search.Engine, *telemetry.QueryMetrics, func(), error) {
	embedder, err := embed.NewEmbedder(embed.FactoryConfig{
		Provider:   cfg.Embeddings.Provider,
		Model:      cfg.Embeddings.Model,
		APIKey:     cfg.Embeddings.APIKey,
		Endpoint:   cfg.Embeddings.Endpoint,
		Dimensions: cfg.Embeddings.Dimensions,
		Timeout:    time.Duration(cfg.Embeddings.Timeout),
		MaxRetries: cfg.Embeddings.MaxRetries,
		CacheSize:  cfg.Embeddings.CacheSize,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create embedder: %w", err)
	}

	var metricsStore telemetry.MetricsStore
	if cfg.Telemetry.Enabled {
		metricsStore, err = telemetry.NewSQLiteMetricsStore(cfg.Telemetry.DBPath)
		if err != nil {
			// Metrics are best-effort; fall back to in-memory collection.
			slog.Warn("telemetry_store_unavailable", slog.String("error", err.Error()))
			metricsStore = nil
		}
	}
	metrics := telemetry.NewQueryMetrics(metricsStore)

	engine, err := search.NewEngine(cfg.DataDir, embedder, search.EngineConfig{
		RRFConstant:         cfg.Search.RRFConstant,
		CandidateMultiplier: cfg.Search.CandidateMultiplier,
		BM25: store.BM25Config{
			K1: cfg.Search.BM25K1,
			B:  cfg.Search.BM25B,
		},
	}, search.WithMetrics(metrics))
	if err != nil {
		embedder.Close()
		if metricsStore != nil {
			metricsStore.Close()
		}
		return nil, nil, nil, err
	}

	cleanup := func() {
		engine.Close()
		embedder.Close()
		if metricsStore != nil {
			metricsStore.Close()
		}
	}
	return engine, metrics, cleanup, nil
}
