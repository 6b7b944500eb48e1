package search

import "github.com/talentsift/talentsift/internal/store"

// Result is a single-method (dense or lexical) search hit: position, raw
// score, and the document's metadata with its id included. Vectors and
// tokens never travel outward.
type Result struct {
	DocIndex int            `json:"doc_index"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// FusedResult is a hybrid search hit. Only the fused score is exposed; the
// per-method scores that produced it are not.
type FusedResult struct {
	DocIndex int            `json:"doc_index"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// EngineConfig configures the retrieval engine.
type EngineConfig struct {
	// RRFConstant is the RRF smoothing parameter k. Default: 60.
	RRFConstant int

	// CandidateMultiplier controls hybrid over-fetch: each method retrieves
	// multiplier*k candidates before fusion narrows back to k. Default: 2.
	CandidateMultiplier int

	// BM25 configures the lexical scorer.
	BM25 store.BM25Config
}

// DefaultEngineConfig returns the engine defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		RRFConstant:         DefaultRRFConstant,
		CandidateMultiplier: 2,
		BM25:                store.DefaultBM25Config(),
	}
}
