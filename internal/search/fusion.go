// Package search provides hybrid retrieval combining exact dense search and
// BM25 lexical search, fused with Reciprocal Rank Fusion (RRF). Rank-based
// fusion is used instead of weighted score blending because the two signals
// live on incomparable scales: cosine similarity is bounded [-1,1] while
// BM25 is unbounded.
package search

import (
	"sort"

	"github.com/talentsift/talentsift/internal/store"
)

// DefaultRRFConstant is the standard RRF smoothing parameter. k=60 is
// empirically validated across domains (used by Azure AI Search, OpenSearch).
const DefaultRRFConstant = 60

// FusedDoc accumulates a document's RRF score across ranked lists.
type FusedDoc struct {
	DocIndex int
	Score    float64
}

// RRFFusion merges ranked lists by scoring each document with the sum of
// 1/(rank + K) over every list it appears in, rank being the zero-based
// position in that list. A document absent from a list simply gains no
// contribution from it; there is no penalty term.
type RRFFusion struct {
	K int
}

// NewRRFFusion creates an RRF fusion instance with the default constant.
func NewRRFFusion() *RRFFusion {
	return &RRFFusion{K: DefaultRRFConstant}
}

// NewRRFFusionWithK creates an RRF fusion with a custom constant.
// If k <= 0, the default is used.
func NewRRFFusionWithK(k int) *RRFFusion {
	if k <= 0 {
		k = DefaultRRFConstant
	}
	return &RRFFusion{K: k}
}

// Fuse combines dense and lexical results. The returned documents are sorted
// by fused score descending, ties broken by ascending document position for
// determinism.
func (f *RRFFusion) Fuse(dense []*store.VectorResult, lexical []*store.LexicalResult) []FusedDoc {
	scores := make(map[int]float64, len(dense)+len(lexical))

	for rank, r := range dense {
		scores[r.DocIndex] += 1.0 / float64(rank+f.K)
	}
	for rank, r := range lexical {
		scores[r.DocIndex] += 1.0 / float64(rank+f.K)
	}

	fused := make([]FusedDoc, 0, len(scores))
	for docIndex, score := range scores {
		fused = append(fused, FusedDoc{DocIndex: docIndex, Score: score})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].DocIndex < fused[j].DocIndex
	})

	return fused
}
