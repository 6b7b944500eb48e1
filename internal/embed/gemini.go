package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Gemini defaults.
const (
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel    = "text-embedding-004"
)

// GeminiConfig configures the Gemini embedder.
type GeminiConfig struct {
	Endpoint   string        // API base URL (default: DefaultGeminiEndpoint)
	Model      string        // model name (default: DefaultGeminiModel)
	APIKey     string        // required
	Dimensions int           // requested output dimensionality (default: 768)
	Timeout    time.Duration // per-request timeout (default: DefaultTimeout)
	MaxRetries int           // retry attempts (default: DefaultMaxRetries)
}

// GeminiEmbedder generates embeddings via the Gemini embedContent HTTP API.
type GeminiEmbedder struct {
	client *http.Client
	config GeminiConfig
	retry  RetryConfig

	mu     sync.RWMutex
	closed bool
}

// Request/response payloads for the embedContent endpoints.
type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiEmbedRequest struct {
	Model                string        `json:"model"`
	Content              geminiContent `json:"content"`
	OutputDimensionality int           `json:"outputDimensionality,omitempty"`
}

type geminiBatchRequest struct {
	Requests []geminiEmbedRequest `json:"requests"`
}

type geminiEmbedding struct {
	Values []float32 `json:"values"`
}

type geminiEmbedResponse struct {
	Embedding geminiEmbedding `json:"embedding"`
}

type geminiBatchResponse struct {
	Embeddings []geminiEmbedding `json:"embeddings"`
}

// NewGeminiEmbedder creates a Gemini-backed embedder.
func NewGeminiEmbedder(cfg GeminiConfig) (*GeminiEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini embedder requires an API key")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultGeminiEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	// No client-level timeout: per-request contexts own cancellation.
	transport := &http.Transport{
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     10 * time.Second,
	}

	retry := DefaultRetryConfig()
	retry.MaxRetries = cfg.MaxRetries

	return &GeminiEmbedder{
		client: &http.Client{Transport: transport},
		config: cfg,
		retry:  retry,
	}, nil
}

// Embed generates an embedding for a single text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s",
		e.config.Endpoint, e.config.Model, e.config.APIKey)
	body := e.embedRequest(text)

	var resp geminiEmbedResponse
	err := WithRetry(ctx, e.retry, func() error {
		return e.post(ctx, url, body, &resp)
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini returned empty embedding")
	}
	return resp.Embedding.Values, nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	url := fmt.Sprintf("%s/models/%s:batchEmbedContents?key=%s",
		e.config.Endpoint, e.config.Model, e.config.APIKey)

	batch := geminiBatchRequest{Requests: make([]geminiEmbedRequest, len(texts))}
	for i, text := range texts {
		batch.Requests[i] = e.embedRequest(text)
	}

	var resp geminiBatchResponse
	err := WithRetry(ctx, e.retry, func() error {
		return e.post(ctx, url, batch, &resp)
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	results := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		results[i] = emb.Values
	}
	return results, nil
}

func (e *GeminiEmbedder) embedRequest(text string) geminiEmbedRequest {
	return geminiEmbedRequest{
		Model:                "models/" + e.config.Model,
		Content:              geminiContent{Parts: []geminiPart{{Text: text}}},
		OutputDimensionality: e.config.Dimensions,
	}
}

// post sends a JSON request and decodes the JSON response, bounded by the
// configured per-request timeout.
func (e *GeminiEmbedder) post(ctx context.Context, url string, payload, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("embedding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("embedding request failed: status %d: %s", resp.StatusCode, snippet)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Dimensions returns the embedding dimension.
func (e *GeminiEmbedder) Dimensions() int {
	return e.config.Dimensions
}

// ModelName returns the model identifier.
func (e *GeminiEmbedder) ModelName() string {
	return e.config.Model
}

// Available reports whether the embedder is configured and not closed. It
// does not probe the network; remote failures surface per-call and degrade
// to zero vectors upstream.
func (e *GeminiEmbedder) Available(_ context.Context) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.closed && e.config.APIKey != ""
}

// Close releases idle connections.
func (e *GeminiEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if t, ok := e.client.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
	return nil
}

var _ Embedder = (*GeminiEmbedder)(nil)
