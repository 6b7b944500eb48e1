package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/talentsift/talentsift/internal/embed"
	"github.com/talentsift/talentsift/internal/store"
	"github.com/talentsift/talentsift/internal/telemetry"
)

// Index layout inside the data directory. The vector blob and the document
// file are only valid together: their lengths must match on load.
const (
	vectorsFile   = "vectors.index"
	documentsFile = "metadata.jsonl"
	lockFile      = "index.lock"
)

// ErrNilDependency is returned when a required dependency is nil.
var ErrNilDependency = errors.New("nil dependency")

// ErrLocked is returned when another process holds the index directory.
var ErrLocked = errors.New("index directory is locked by another process")

// Engine owns the three position-aligned stores and orchestrates ingestion,
// search, and persistence. It is an explicitly constructed instance with a
// load-or-init / use / persist lifecycle; there is no global index.
//
// Mutations are serialized by a single mutex held across the whole
// append-vector, append-tokens, append-record, persist sequence, so a reader
// can never observe a torn state. Searches take the read side and may run
// concurrently with each other. A file lock additionally guards the data
// directory against a second writing process.
type Engine struct {
	mu sync.RWMutex

	dataDir  string
	docs     *store.DocumentStore
	vectors  *store.FlatVectorIndex
	lexical  *store.BM25Index
	corpus   [][]string
	embedder embed.Embedder
	fusion   *RRFFusion
	config   EngineConfig

	metrics *telemetry.QueryMetrics
	lock    *flock.Flock
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithMetrics sets an optional query metrics collector.
func WithMetrics(m *telemetry.QueryMetrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates an engine over the given data directory, loading any
// persisted index found there. A missing, corrupt, or length-mismatched
// index is discarded with a warning and the engine starts empty; only an
// unusable data directory is fatal.
func NewEngine(dataDir string, embedder embed.Embedder, config EngineConfig, opts ...EngineOption) (*Engine, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrNilDependency)
	}
	if config.RRFConstant <= 0 {
		config.RRFConstant = DefaultRRFConstant
	}
	if config.CandidateMultiplier <= 0 {
		config.CandidateMultiplier = 2
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	lock := flock.New(filepath.Join(dataDir, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire index lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}

	vectors, err := store.NewFlatVectorIndex(embedder.Dimensions())
	if err != nil {
		lock.Unlock()
		return nil, err
	}

	e := &Engine{
		dataDir:  dataDir,
		docs:     store.NewDocumentStore(),
		vectors:  vectors,
		lexical:  store.NewBM25Index(config.BM25),
		embedder: embedder,
		fusion:   NewRRFFusionWithK(config.RRFConstant),
		config:   config,
		lock:     lock,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.loadOrReset()
	return e, nil
}

// loadOrReset reconstructs the index from disk. Any failure or alignment
// mismatch resets to an empty index; partial recovery is never attempted.
func (e *Engine) loadOrReset() {
	vectorsPath := filepath.Join(e.dataDir, vectorsFile)
	documentsPath := filepath.Join(e.dataDir, documentsFile)

	_, vecErr := os.Stat(vectorsPath)
	_, docErr := os.Stat(documentsPath)
	if os.IsNotExist(vecErr) && os.IsNotExist(docErr) {
		return // fresh start
	}

	reset := func(reason string, err error) {
		attrs := []any{slog.String("reason", reason)}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		slog.Warn("index_reset", attrs...)
		e.docs = store.NewDocumentStore()
		e.vectors, _ = store.NewFlatVectorIndex(e.embedder.Dimensions())
		e.lexical = store.NewBM25Index(e.config.BM25)
		e.corpus = nil
	}

	if vecErr != nil || docErr != nil {
		reset("index files incomplete", nil)
		return
	}

	if err := e.vectors.Load(vectorsPath); err != nil {
		reset("vector index corrupt", err)
		return
	}
	if err := e.docs.Load(documentsPath); err != nil {
		reset("document store corrupt", err)
		return
	}

	// The tokenized corpus and its term statistics are a deterministic
	// function of the document store; rebuild them rather than persist them.
	records := e.docs.All()
	e.corpus = make([][]string, len(records))
	for i, record := range records {
		e.corpus[i] = store.Tokenize(record.NormalizedText)
	}
	e.lexical.Rebuild(e.corpus)

	if err := e.validateAlignment(); err != nil {
		reset("store lengths diverged", err)
		return
	}

	slog.Info("index_loaded",
		slog.Int("documents", e.docs.Len()),
		slog.Int("dimensions", e.vectors.Dimensions()))
}

// validateAlignment checks the position-alignment invariant across the
// three stores.
func (e *Engine) validateAlignment() error {
	if e.vectors.Len() != e.docs.Len() || len(e.corpus) != e.docs.Len() || e.lexical.Len() != e.docs.Len() {
		return fmt.Errorf("store length mismatch: vectors=%d corpus=%d lexical=%d documents=%d",
			e.vectors.Len(), len(e.corpus), e.lexical.Len(), e.docs.Len())
	}
	return nil
}

// IndexDocument embeds the text, appends the document to all three stores
// at the same position, and persists a consistent snapshot. An embedding
// failure degrades to a zero vector so the document is still lexically
// searchable; only a persistence failure is returned as an error.
//
// Deduplication is the caller's responsibility: re-indexing an id produces a
// second, independent entry.
func (e *Engine) IndexDocument(ctx context.Context, id, normalizedText string, attributes map[string]any) error {
	if id == "" {
		return fmt.Errorf("document id is required")
	}
	// Reject bad attributes before touching any store: a failure between the
	// vector append and the document append would leave the lengths diverged.
	if err := store.ValidateAttributes(attributes); err != nil {
		return err
	}

	vector, err := e.embedder.Embed(ctx, normalizedText)
	if err != nil || len(vector) != e.vectors.Dimensions() {
		if err == nil {
			err = store.ErrDimensionMismatch{Expected: e.vectors.Dimensions(), Got: len(vector)}
		}
		slog.Warn("degraded_indexing",
			slog.String("id", id),
			slog.String("error", err.Error()))
		vector = make([]float32, e.vectors.Dimensions())
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.vectors.Add(vector); err != nil {
		return fmt.Errorf("add vector: %w", err)
	}
	if _, err := e.docs.Append(&store.DocumentRecord{
		ID:             id,
		NormalizedText: normalizedText,
		Attributes:     attributes,
	}); err != nil {
		return fmt.Errorf("append document: %w", err)
	}
	e.corpus = append(e.corpus, store.Tokenize(normalizedText))
	e.lexical.Rebuild(e.corpus)

	if err := e.validateAlignment(); err != nil {
		return err
	}

	return e.persist()
}

// persist writes a consistent snapshot of the vector index and document
// store. Called with the write lock held, synchronously after every
// addition: durability over throughput at these corpus sizes.
func (e *Engine) persist() error {
	if err := e.vectors.Save(filepath.Join(e.dataDir, vectorsFile)); err != nil {
		return fmt.Errorf("persist vector index: %w", err)
	}
	if err := e.docs.Save(filepath.Join(e.dataDir, documentsFile)); err != nil {
		return fmt.Errorf("persist document store: %w", err)
	}
	return nil
}

// SearchDense performs exact cosine-similarity search. A query embedding
// failure degrades to a zero vector (all scores zero) rather than erroring.
func (e *Engine) SearchDense(ctx context.Context, query string, k int) ([]*Result, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	start := time.Now()

	results, err := e.searchDenseLocked(ctx, query, k)
	if err != nil {
		return nil, err
	}
	e.recordMetrics(query, telemetry.ModeDense, len(results), time.Since(start))
	return results, nil
}

func (e *Engine) searchDenseLocked(ctx context.Context, query string, k int) ([]*Result, error) {
	if k <= 0 || e.docs.Len() == 0 {
		return []*Result{}, nil
	}

	vector, err := e.embedder.Embed(ctx, query)
	if err != nil || len(vector) != e.vectors.Dimensions() {
		if err == nil {
			err = store.ErrDimensionMismatch{Expected: e.vectors.Dimensions(), Got: len(vector)}
		}
		slog.Warn("degraded_query_embedding", slog.String("error", err.Error()))
		vector = make([]float32, e.vectors.Dimensions())
	}

	hits, err := e.vectors.Search(vector, k)
	if err != nil {
		return nil, fmt.Errorf("dense search: %w", err)
	}
	return e.toResults(hits)
}

// SearchLexical performs BM25 search. Documents sharing no terms with the
// query never appear, regardless of k.
func (e *Engine) SearchLexical(ctx context.Context, query string, k int) ([]*Result, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	start := time.Now()

	results, err := e.searchLexicalLocked(query, k)
	if err != nil {
		return nil, err
	}
	e.recordMetrics(query, telemetry.ModeLexical, len(results), time.Since(start))
	return results, nil
}

func (e *Engine) searchLexicalLocked(query string, k int) ([]*Result, error) {
	if k <= 0 || e.docs.Len() == 0 {
		return []*Result{}, nil
	}

	hits := e.lexical.Search(query, k)
	results := make([]*Result, 0, len(hits))
	for _, hit := range hits {
		record, err := e.docs.Get(hit.DocIndex)
		if err != nil {
			return nil, err
		}
		results = append(results, &Result{
			DocIndex: hit.DocIndex,
			Score:    hit.Score,
			Metadata: record.Metadata(),
		})
	}
	return results, nil
}

// SearchHybrid retrieves 2k candidates independently from the dense and
// lexical paths, fuses them with RRF, and returns the top k with fused
// scores and metadata only. Called twice on an unchanged index it returns
// identical ordered results.
func (e *Engine) SearchHybrid(ctx context.Context, query string, k int) ([]*FusedResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	start := time.Now()

	if k <= 0 || e.docs.Len() == 0 {
		return []*FusedResult{}, nil
	}

	candidateK := k * e.config.CandidateMultiplier

	var (
		dense   []*store.VectorResult
		lexical []*store.LexicalResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vector, err := e.embedder.Embed(gctx, query)
		if err != nil || len(vector) != e.vectors.Dimensions() {
			if err == nil {
				err = store.ErrDimensionMismatch{Expected: e.vectors.Dimensions(), Got: len(vector)}
			}
			slog.Warn("degraded_query_embedding", slog.String("error", err.Error()))
			vector = make([]float32, e.vectors.Dimensions())
		}
		hits, err := e.vectors.Search(vector, candidateK)
		if err != nil {
			return fmt.Errorf("dense search: %w", err)
		}
		dense = hits
		return nil
	})
	g.Go(func() error {
		lexical = e.lexical.Search(query, candidateK)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := e.fusion.Fuse(dense, lexical)
	if len(fused) > k {
		fused = fused[:k]
	}

	results := make([]*FusedResult, 0, len(fused))
	for _, doc := range fused {
		record, err := e.docs.Get(doc.DocIndex)
		if err != nil {
			return nil, err
		}
		results = append(results, &FusedResult{
			DocIndex: doc.DocIndex,
			Score:    doc.Score,
			Metadata: record.Metadata(),
		})
	}

	e.recordMetrics(query, telemetry.ModeHybrid, len(results), time.Since(start))
	return results, nil
}

// toResults maps dense hits to results with metadata attached.
func (e *Engine) toResults(hits []*store.VectorResult) ([]*Result, error) {
	results := make([]*Result, 0, len(hits))
	for _, hit := range hits {
		record, err := e.docs.Get(hit.DocIndex)
		if err != nil {
			return nil, err
		}
		results = append(results, &Result{
			DocIndex: hit.DocIndex,
			Score:    float64(hit.Score),
			Metadata: record.Metadata(),
		})
	}
	return results, nil
}

func (e *Engine) recordMetrics(query, mode string, resultCount int, latency time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.Record(telemetry.QueryEvent{
		Query:       strings.TrimSpace(query),
		Mode:        mode,
		ResultCount: resultCount,
		Latency:     latency,
		Timestamp:   time.Now(),
	})
}

// Stats describes the current index.
type Stats struct {
	Documents  int
	Dimensions int
	DataDir    string
	Model      string
}

// Stats returns current index statistics.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{
		Documents:  e.docs.Len(),
		Dimensions: e.vectors.Dimensions(),
		DataDir:    e.dataDir,
		Model:      e.embedder.ModelName(),
	}
}

// Close releases the index directory lock. The embedder is owned by the
// caller and is not closed here.
func (e *Engine) Close() error {
	if e.lock != nil {
		return e.lock.Unlock()
	}
	return nil
}
