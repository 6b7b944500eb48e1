package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/talentsift/talentsift/internal/output"
	"github.com/talentsift/talentsift/internal/search"
)

var (
	flagSearchMode  string
	flagSearchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the index",
	Long: `Search indexed documents. Mode "dense" ranks by cosine similarity,
"lexical" by BM25, and "hybrid" fuses both with reciprocal rank fusion.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		limit := flagSearchLimit
		if limit <= 0 {
			limit = cfg.Search.MaxResults
		}

		engine, _, cleanup, err := openEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()

		switch flagSearchMode {
		case "hybrid":
			results, err := engine.SearchHybrid(ctx, query, limit)
			if err != nil {
				return err
			}
			return renderFused(results)

		case "dense":
			results, err := engine.SearchDense(ctx, query, limit)
			if err != nil {
				return err
			}
			return renderResults(results)

		case "lexical":
			results, err := engine.SearchLexical(ctx, query, limit)
			if err != nil {
				return err
			}
			return renderResults(results)

		default:
			return fmt.Errorf("unknown search mode: %q (want hybrid, dense, or lexical)", flagSearchMode)
		}
	},
}

func renderFused(results []*search.FusedResult) error {
	if out.Format() == output.FormatJSON {
		return out.JSON(results)
	}
	if len(results) == 0 {
		out.Println("no results")
		return nil
	}
	styles := out.Styles()
	for i, r := range results {
		out.Printf("%s %s %s\n",
			styles.Header.Render(fmt.Sprintf("%d.", i+1)),
			styles.Highlight.Render(metadataID(r.Metadata)),
			styles.Score.Render(fmt.Sprintf("(score %.4f)", r.Score)))
		renderAttributes(r.Metadata)
	}
	return nil
}

func renderResults(results []*search.Result) error {
	if out.Format() == output.FormatJSON {
		return out.JSON(results)
	}
	if len(results) == 0 {
		out.Println("no results")
		return nil
	}
	styles := out.Styles()
	for i, r := range results {
		out.Printf("%s %s %s\n",
			styles.Header.Render(fmt.Sprintf("%d.", i+1)),
			styles.Highlight.Render(metadataID(r.Metadata)),
			styles.Score.Render(fmt.Sprintf("(score %.4f)", r.Score)))
		renderAttributes(r.Metadata)
	}
	return nil
}

func renderAttributes(metadata map[string]any) {
	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		if key == "id" || key == "normalized_text" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	styles := out.Styles()
	for _, key := range keys {
		out.Printf("   %s\n", styles.Muted.Render(fmt.Sprintf("%s: %v", key, metadata[key])))
	}
}

func metadataID(metadata map[string]any) string {
	if id, ok := metadata["id"].(string); ok {
		return id
	}
	return "?"
}

func init() {
	searchCmd.Flags().StringVar(&flagSearchMode, "mode", "hybrid", "search mode: hybrid, dense, or lexical")
	searchCmd.Flags().IntVar(&flagSearchLimit, "limit", 0, "maximum results (default from config)")
	rootCmd.AddCommand(searchCmd)
}
