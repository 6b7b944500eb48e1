package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGeminiTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "batchEmbedContents"):
			var req geminiBatchRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

			resp := geminiBatchResponse{Embeddings: make([]geminiEmbedding, len(req.Requests))}
			for i := range req.Requests {
				resp.Embeddings[i] = geminiEmbedding{Values: []float32{float32(i), 1, 2}}
			}
			require.NoError(t, json.NewEncoder(w).Encode(resp))

		case strings.Contains(r.URL.Path, "embedContent"):
			resp := geminiEmbedResponse{Embedding: geminiEmbedding{Values: []float32{0.1, 0.2, 0.3}}}
			require.NoError(t, json.NewEncoder(w).Encode(resp))

		default:
			http.NotFound(w, r)
		}
	}))
}

func newGeminiTestEmbedder(t *testing.T, endpoint string) *GeminiEmbedder {
	t.Helper()
	e, err := NewGeminiEmbedder(GeminiConfig{
		Endpoint:   endpoint,
		APIKey:     "test-key",
		Dimensions: 3,
		Timeout:    2 * time.Second,
		MaxRetries: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestGeminiEmbedderRequiresAPIKey(t *testing.T) {
	_, err := NewGeminiEmbedder(GeminiConfig{})
	assert.Error(t, err)
}

func TestGeminiEmbedderEmbed(t *testing.T) {
	server := newGeminiTestServer(t)
	defer server.Close()

	e := newGeminiTestEmbedder(t, server.URL)
	vec, err := e.Embed(context.Background(), "python developer")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestGeminiEmbedderBatch(t *testing.T) {
	server := newGeminiTestServer(t)
	defer server.Close()

	e := newGeminiTestEmbedder(t, server.URL)
	vecs, err := e.EmbedBatch(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, float32(0), vecs[0][0])
	assert.Equal(t, float32(1), vecs[1][0])
}

func TestGeminiEmbedderServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	e := newGeminiTestEmbedder(t, server.URL)
	_, err := e.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGeminiEmbedderRetriesTransientFailures(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		resp := geminiEmbedResponse{Embedding: geminiEmbedding{Values: []float32{1, 2, 3}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	e, err := NewGeminiEmbedder(GeminiConfig{
		Endpoint:   server.URL,
		APIKey:     "test-key",
		Dimensions: 3,
		MaxRetries: 2,
	})
	require.NoError(t, err)
	defer e.Close()
	e.retry.InitialDelay = time.Millisecond

	vec, err := e.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
	assert.Equal(t, 2, attempts)
}

func TestGeminiEmbedderClosed(t *testing.T) {
	e := newGeminiTestEmbedder(t, "http://127.0.0.1:0")
	require.NoError(t, e.Close())

	_, err := e.Embed(context.Background(), "text")
	assert.Error(t, err)
	assert.False(t, e.Available(context.Background()))
}
