package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestStaticEmbedderEmbed(t *testing.T) {
	ctx := context.Background()
	e := NewStaticEmbedder()

	t.Run("deterministic", func(t *testing.T) {
		first, err := e.Embed(ctx, "python aws lambda")
		require.NoError(t, err)
		second, err := e.Embed(ctx, "python aws lambda")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("unit length for non-empty text", func(t *testing.T) {
		vec, err := e.Embed(ctx, "go developer")
		require.NoError(t, err)
		assert.Len(t, vec, StaticDimensions)
		assert.InDelta(t, 1.0, vectorNorm(vec), 1e-5)
	})

	t.Run("empty text yields a zero vector", func(t *testing.T) {
		vec, err := e.Embed(ctx, "   ")
		require.NoError(t, err)
		assert.Len(t, vec, StaticDimensions)
		assert.Equal(t, 0.0, vectorNorm(vec))
	})

	t.Run("different texts produce different vectors", func(t *testing.T) {
		a, err := e.Embed(ctx, "python backend")
		require.NoError(t, err)
		b, err := e.Embed(ctx, "frontend react")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("overlapping texts are more similar than disjoint ones", func(t *testing.T) {
		query, err := e.Embed(ctx, "python aws")
		require.NoError(t, err)
		overlap, err := e.Embed(ctx, "python aws lambda experience")
		require.NoError(t, err)
		disjoint, err := e.Embed(ctx, "java spring backend")
		require.NoError(t, err)

		dot := func(a, b []float32) float64 {
			var sum float64
			for i := range a {
				sum += float64(a[i]) * float64(b[i])
			}
			return sum
		}
		assert.Greater(t, dot(query, overlap), dot(query, disjoint))
	})
}

func TestStaticEmbedderBatch(t *testing.T) {
	ctx := context.Background()
	e := NewStaticEmbedder()

	vecs, err := e.EmbedBatch(ctx, []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	single, err := e.Embed(ctx, "one")
	require.NoError(t, err)
	assert.Equal(t, single, vecs[0])

	empty, err := e.EmbedBatch(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStaticEmbedderLifecycle(t *testing.T) {
	ctx := context.Background()
	e := NewStaticEmbedder()

	assert.Equal(t, StaticDimensions, e.Dimensions())
	assert.Equal(t, "static", e.ModelName())
	assert.True(t, e.Available(ctx))

	require.NoError(t, e.Close())
	assert.False(t, e.Available(ctx))

	_, err := e.Embed(ctx, "after close")
	assert.Error(t, err)
}

func TestExtractNgrams(t *testing.T) {
	assert.Equal(t, []string{"abc", "bcd"}, extractNgrams("abcd", 3))
	assert.Empty(t, extractNgrams("ab", 3))
}
