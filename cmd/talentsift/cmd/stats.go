package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/talentsift/talentsift/internal/output"
	"github.com/talentsift/talentsift/internal/telemetry"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show query metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Telemetry.Enabled {
			return fmt.Errorf("telemetry is disabled in configuration")
		}

		store, err := telemetry.NewSQLiteMetricsStore(cfg.Telemetry.DBPath)
		if err != nil {
			return fmt.Errorf("open metrics store: %w", err)
		}
		defer store.Close()

		summary, err := store.Summary()
		if err != nil {
			return fmt.Errorf("read metrics: %w", err)
		}

		if out.Format() == output.FormatJSON {
			return out.JSON(summary)
		}

		styles := out.Styles()
		out.Println(styles.Title.Render("Query metrics"))
		out.Printf("  total queries: %d\n", summary.TotalQueries)

		if len(summary.QueriesByMode) > 0 {
			out.Println(styles.Header.Render("  by mode:"))
			for mode, count := range summary.QueriesByMode {
				out.Printf("    %-8s %d\n", mode, count)
			}
		}
		if len(summary.LatencyBuckets) > 0 {
			out.Println(styles.Header.Render("  latency:"))
			for _, bucket := range []string{"<10ms", "10-50ms", "50-100ms", "100-500ms", ">500ms"} {
				if count, ok := summary.LatencyBuckets[bucket]; ok {
					out.Printf("    %-10s %d\n", bucket, count)
				}
			}
		}
		if len(summary.ZeroResultQueries) > 0 {
			out.Println(styles.Header.Render("  recent zero-result queries:"))
			for _, q := range summary.ZeroResultQueries {
				out.Printf("    %s\n", styles.Muted.Render(q))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
