package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/talentsift/talentsift/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, cleanup, err := openEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		stats := engine.Stats()
		vectorBytes := fileSize(filepath.Join(stats.DataDir, "vectors.index"))
		documentBytes := fileSize(filepath.Join(stats.DataDir, "metadata.jsonl"))

		if out.Format() == output.FormatJSON {
			return out.JSON(map[string]any{
				"documents":      stats.Documents,
				"dimensions":     stats.Dimensions,
				"data_dir":       stats.DataDir,
				"model":          stats.Model,
				"vector_bytes":   vectorBytes,
				"document_bytes": documentBytes,
			})
		}

		styles := out.Styles()
		out.Println(styles.Title.Render("Index status"))
		out.Printf("  documents:    %d\n", stats.Documents)
		out.Printf("  dimensions:   %d\n", stats.Dimensions)
		out.Printf("  model:        %s\n", stats.Model)
		out.Printf("  data dir:     %s\n", stats.DataDir)
		out.Printf("  vector blob:  %d bytes\n", vectorBytes)
		out.Printf("  documents db: %d bytes\n", documentBytes)
		return nil
	},
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
