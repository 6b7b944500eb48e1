// Package embed generates vector embeddings for text. The remote Gemini
// backend is the primary provider; a deterministic hash-based static
// embedder serves as the offline fallback. Embedding is the engine's only
// slow external call, so failures here must always be recoverable: callers
// degrade to a zero vector rather than abort ingestion.
package embed

import (
	"context"
	"time"
)

const (
	// DefaultDimensions is the embedding dimension for the Gemini models.
	DefaultDimensions = 768

	// StaticDimensions is the embedding dimension for the static embedder.
	StaticDimensions = 256

	// DefaultTimeout bounds a single remote embedding request.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the default number of retry attempts.
	DefaultMaxRetries = 3

	// DefaultBatchSize is the default batch size for embedding requests.
	DefaultBatchSize = 32
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available checks if the embedder is ready.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}
