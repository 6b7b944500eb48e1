// Package store provides the three aligned stores behind the retrieval
// engine: the flat vector index, the BM25 lexical index, and the JSONL
// document store. The stores are correlated by document position; they must
// never diverge in length or order.
package store

import "fmt"

// DocumentRecord is a single indexed document. Attributes are opaque
// pass-through data; the engine never inspects specific keys.
type DocumentRecord struct {
	ID             string
	NormalizedText string
	Attributes     map[string]any

	// DocIndex is the zero-based position assigned at insertion time. It is
	// immutable and identical across the vector index, the tokenized corpus,
	// and the document store.
	DocIndex int
}

// Metadata returns the record's attributes with the id included, as exposed
// on search results. The returned map is a copy.
func (r *DocumentRecord) Metadata() map[string]any {
	meta := make(map[string]any, len(r.Attributes)+1)
	for k, v := range r.Attributes {
		meta[k] = v
	}
	meta[attrKeyID] = r.ID
	return meta
}

// VectorResult is a single dense search hit.
type VectorResult struct {
	DocIndex int
	Score    float32 // inner product against the unit-normalized query
}

// LexicalResult is a single BM25 search hit.
type LexicalResult struct {
	DocIndex int
	Score    float64
}

// BM25Config configures the lexical index.
type BM25Config struct {
	// K1 is the term frequency saturation parameter.
	K1 float64

	// B is the document length normalization parameter.
	B float64
}

// DefaultBM25Config matches the Okapi defaults the index was tuned against.
func DefaultBM25Config() BM25Config {
	return BM25Config{K1: 1.5, B: 0.75}
}

// ErrDimensionMismatch indicates a vector of the wrong dimensionality.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
