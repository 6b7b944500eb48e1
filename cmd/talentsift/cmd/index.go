package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/talentsift/talentsift/internal/search"
)

var (
	flagIndexID    string
	flagIndexText  string
	flagIndexAttrs []string
	flagIndexFile  string
)

// maxIngestLineBytes bounds a single JSONL document line.
const maxIngestLineBytes = 16 * 1024 * 1024

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Add documents to the index",
	Long: `Add a single document with --id and --text, or bulk-load a JSONL file
with --file where each line is an object with "id", "text", and optional
"attributes".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagIndexFile == "" && (flagIndexID == "" || flagIndexText == "") {
			return fmt.Errorf("either --file or both --id and --text are required")
		}

		engine, _, cleanup, err := openEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()

		if flagIndexFile != "" {
			n, err := ingestFile(ctx, flagIndexFile, engine)
			if err != nil {
				return err
			}
			out.Success(fmt.Sprintf("indexed %d documents from %s", n, flagIndexFile))
			return nil
		}

		attrs, err := parseAttrs(flagIndexAttrs)
		if err != nil {
			return err
		}
		if err := engine.IndexDocument(ctx, flagIndexID, flagIndexText, attrs); err != nil {
			return fmt.Errorf("index document: %w", err)
		}
		out.Success(fmt.Sprintf("indexed document %s", flagIndexID))
		return nil
	},
}

// ingestDoc is one line of a bulk-load JSONL file.
type ingestDoc struct {
	ID         string         `json:"id"`
	Text       string         `json:"text"`
	Attributes map[string]any `json:"attributes"`
}

// ingestFile loads every non-blank line of a JSONL file into the engine,
// showing a progress bar. A malformed line aborts with its line number.
func ingestFile(ctx context.Context, path string, engine *search.Engine) (int, error) {
	total, err := countLines(path)
	if err != nil {
		return 0, fmt.Errorf("read ingest file: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open ingest file: %w", err)
	}
	defer f.Close()

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("indexing"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	indexed := 0
	lineNo := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxIngestLineBytes)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var doc ingestDoc
		if err := json.Unmarshal([]byte(line), &doc); err != nil {
			return indexed, fmt.Errorf("line %d: parse document: %w", lineNo, err)
		}
		if doc.ID == "" {
			return indexed, fmt.Errorf("line %d: document id is required", lineNo)
		}

		if err := engine.IndexDocument(ctx, doc.ID, doc.Text, doc.Attributes); err != nil {
			return indexed, fmt.Errorf("line %d: index document %s: %w", lineNo, doc.ID, err)
		}
		indexed++
		_ = bar.Add(1)
	}
	if err := scanner.Err(); err != nil {
		return indexed, fmt.Errorf("read ingest file: %w", err)
	}
	_ = bar.Finish()
	return indexed, nil
}

func parseAttrs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	attrs := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid attribute %q, expected key=value", pair)
		}
		attrs[key] = value
	}
	return attrs, nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxIngestLineBytes)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			count++
		}
	}
	return count, scanner.Err()
}

func init() {
	indexCmd.Flags().StringVar(&flagIndexID, "id", "", "document identifier")
	indexCmd.Flags().StringVar(&flagIndexText, "text", "", "normalized document text")
	indexCmd.Flags().StringArrayVar(&flagIndexAttrs, "attr", nil, "document attribute as key=value (repeatable)")
	indexCmd.Flags().StringVar(&flagIndexFile, "file", "", "bulk-load documents from a JSONL file")
	rootCmd.AddCommand(indexCmd)
}
