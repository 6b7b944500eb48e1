package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentsift/talentsift/internal/store"
)

func denseList(indexes ...int) []*store.VectorResult {
	results := make([]*store.VectorResult, len(indexes))
	for i, idx := range indexes {
		results[i] = &store.VectorResult{DocIndex: idx, Score: float32(len(indexes) - i)}
	}
	return results
}

func lexicalList(indexes ...int) []*store.LexicalResult {
	results := make([]*store.LexicalResult, len(indexes))
	for i, idx := range indexes {
		results[i] = &store.LexicalResult{DocIndex: idx, Score: float64(len(indexes) - i)}
	}
	return results
}

func TestRRFFusionConstants(t *testing.T) {
	assert.Equal(t, 60, NewRRFFusion().K)
	assert.Equal(t, 10, NewRRFFusionWithK(10).K)
	assert.Equal(t, 60, NewRRFFusionWithK(0).K)
	assert.Equal(t, 60, NewRRFFusionWithK(-5).K)
}

func TestRRFFusionScores(t *testing.T) {
	f := NewRRFFusion()

	t.Run("document in both lists outranks single-list documents", func(t *testing.T) {
		// Doc 1 is rank 0 in both lists: 1/60 + 1/60.
		// Doc 2 is rank 1 dense only, doc 3 rank 1 lexical only: 1/61 each.
		fused := f.Fuse(denseList(1, 2), lexicalList(1, 3))
		require.Len(t, fused, 3)

		assert.Equal(t, 1, fused[0].DocIndex)
		assert.InDelta(t, 2.0/60.0, fused[0].Score, 1e-12)
		assert.InDelta(t, 1.0/61.0, fused[1].Score, 1e-12)
		assert.InDelta(t, 1.0/61.0, fused[2].Score, 1e-12)
	})

	t.Run("absence from a list adds nothing", func(t *testing.T) {
		// Doc 5 appears only at dense rank 0: exactly 1/60, no penalty term.
		fused := f.Fuse(denseList(5), lexicalList())
		require.Len(t, fused, 1)
		assert.InDelta(t, 1.0/60.0, fused[0].Score, 1e-12)
	})

	t.Run("ranks are zero-based", func(t *testing.T) {
		fused := f.Fuse(denseList(7, 8, 9), nil)
		require.Len(t, fused, 3)
		assert.InDelta(t, 1.0/60.0, fused[0].Score, 1e-12)
		assert.InDelta(t, 1.0/61.0, fused[1].Score, 1e-12)
		assert.InDelta(t, 1.0/62.0, fused[2].Score, 1e-12)
	})

	t.Run("equal scores tie-break by ascending position", func(t *testing.T) {
		// Docs 9 and 2 both sit at rank 0 of one list each.
		fused := f.Fuse(denseList(9), lexicalList(2))
		require.Len(t, fused, 2)
		assert.Equal(t, 2, fused[0].DocIndex)
		assert.Equal(t, 9, fused[1].DocIndex)
	})

	t.Run("empty inputs fuse to empty", func(t *testing.T) {
		assert.Empty(t, f.Fuse(nil, nil))
	})
}

func TestRRFFusionDeterminism(t *testing.T) {
	f := NewRRFFusion()
	dense := denseList(4, 1, 7, 2)
	lexical := lexicalList(2, 7, 5)

	first := f.Fuse(dense, lexical)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, f.Fuse(dense, lexical))
	}
}

func TestRRFFusionCustomK(t *testing.T) {
	f := NewRRFFusionWithK(10)
	fused := f.Fuse(denseList(1), lexicalList(1))
	require.Len(t, fused, 1)
	assert.InDelta(t, 2.0/10.0, fused[0].Score, 1e-12)
}
