package store

import (
	"math"
	"sort"
	"sync"
)

// BM25Index scores documents with Okapi BM25 over a tokenized corpus kept
// position-parallel to the document store. All term statistics are a
// deterministic function of the corpus: Rebuild recomputes them from scratch
// whenever the corpus changes. Full rebuild costs O(corpus) per insertion,
// an accepted trade for corpora up to the low thousands.
type BM25Index struct {
	mu     sync.RWMutex
	config BM25Config

	corpus    [][]string
	termFreqs []map[string]int
	docFreq   map[string]int
	docLen    []int
	avgDocLen float64
}

// NewBM25Index creates an empty lexical index.
func NewBM25Index(config BM25Config) *BM25Index {
	if config.K1 <= 0 {
		config.K1 = DefaultBM25Config().K1
	}
	if config.B <= 0 {
		config.B = DefaultBM25Config().B
	}
	return &BM25Index{
		config:  config,
		docFreq: make(map[string]int),
	}
}

// Len returns the number of documents in the corpus.
func (b *BM25Index) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.corpus)
}

// Rebuild recomputes document frequencies, per-document term counts, and
// average document length from the full tokenized corpus. The index keeps a
// reference to the corpus slice; callers must not mutate existing entries.
func (b *BM25Index) Rebuild(corpus [][]string) {
	termFreqs := make([]map[string]int, len(corpus))
	docFreq := make(map[string]int)
	docLen := make([]int, len(corpus))
	totalLen := 0

	for i, terms := range corpus {
		freqs := make(map[string]int, len(terms))
		for _, term := range terms {
			freqs[term]++
		}
		termFreqs[i] = freqs
		docLen[i] = len(terms)
		totalLen += len(terms)
		for term := range freqs {
			docFreq[term]++
		}
	}

	avg := 0.0
	if len(corpus) > 0 {
		avg = float64(totalLen) / float64(len(corpus))
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.corpus = corpus
	b.termFreqs = termFreqs
	b.docFreq = docFreq
	b.docLen = docLen
	b.avgDocLen = avg
}

// Scores computes the BM25 score of every document against the query terms.
// Documents sharing no terms with the query score exactly 0; excluding them
// from results is the caller's responsibility.
func (b *BM25Index) Scores(queryTerms []string) []float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	scores := make([]float64, len(b.corpus))
	if len(b.corpus) == 0 || len(queryTerms) == 0 {
		return scores
	}

	n := float64(len(b.corpus))
	for _, term := range queryTerms {
		df := b.docFreq[term]
		if df == 0 {
			continue
		}
		// Non-negative IDF (Lucene form).
		idf := math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))

		for i := range b.corpus {
			tf := float64(b.termFreqs[i][term])
			if tf == 0 {
				continue
			}
			norm := 1 - b.config.B + b.config.B*float64(b.docLen[i])/b.avgDocLen
			scores[i] += idf * (tf * (b.config.K1 + 1)) / (tf + b.config.K1*norm)
		}
	}
	return scores
}

// Search tokenizes the query, scores all documents, excludes zero scores,
// and returns the top k by descending score with ties broken by ascending
// document position. An empty corpus or k <= 0 yields an empty result
// without invoking the scorer.
func (b *BM25Index) Search(query string, k int) []*LexicalResult {
	if k <= 0 || b.Len() == 0 {
		return []*LexicalResult{}
	}

	scores := b.Scores(Tokenize(query))

	results := make([]*LexicalResult, 0, len(scores))
	for i, score := range scores {
		if score == 0 {
			continue
		}
		results = append(results, &LexicalResult{DocIndex: i, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocIndex < results[j].DocIndex
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}
