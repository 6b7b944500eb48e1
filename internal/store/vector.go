package store

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FlatVectorIndex stores unit-normalized embedding vectors in insertion
// order and answers exact cosine-similarity queries by scanning every entry.
// Exact search is deliberate: corpora are tens to low hundreds of documents,
// so correctness and determinism win over sub-linear scaling.
type FlatVectorIndex struct {
	mu      sync.RWMutex
	dims    int
	vectors [][]float32
}

// flatIndexFile is the on-disk gob layout.
type flatIndexFile struct {
	Dims    int
	Vectors [][]float32
}

// NewFlatVectorIndex creates an empty index for vectors of the given
// dimensionality.
func NewFlatVectorIndex(dims int) (*FlatVectorIndex, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("invalid vector dimensions: %d", dims)
	}
	return &FlatVectorIndex{dims: dims}, nil
}

// Dimensions returns the fixed vector dimensionality.
func (s *FlatVectorIndex) Dimensions() int {
	return s.dims
}

// Len returns the number of stored vectors.
func (s *FlatVectorIndex) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Add appends a vector at the next position, normalizing it to unit length
// first. A zero vector is stored as-is: it marks a degraded entry that stays
// position-aligned but contributes no dense-similarity signal.
func (s *FlatVectorIndex) Add(vector []float32) error {
	if len(vector) != s.dims {
		return ErrDimensionMismatch{Expected: s.dims, Got: len(vector)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	vec := make([]float32, len(vector))
	copy(vec, vector)
	normalizeInPlace(vec)
	s.vectors = append(s.vectors, vec)
	return nil
}

// Search normalizes the query identically to Add, computes the inner product
// against every stored vector, and returns the k highest-scoring positions.
// Ordering is descending by score with ties broken by ascending position.
// An empty index or k <= 0 yields an empty result; k larger than the corpus
// returns all entries.
func (s *FlatVectorIndex) Search(query []float32, k int) ([]*VectorResult, error) {
	if len(query) != s.dims {
		return nil, ErrDimensionMismatch{Expected: s.dims, Got: len(query)}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 || len(s.vectors) == 0 {
		return []*VectorResult{}, nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	normalizeInPlace(q)

	results := make([]*VectorResult, 0, len(s.vectors))
	for i, vec := range s.vectors {
		results = append(results, &VectorResult{
			DocIndex: i,
			Score:    dotProduct(q, vec),
		})
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
	return results, nil
}

// Save persists the index as an opaque gob blob using temp file + rename.
func (s *FlatVectorIndex) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create vector index file: %w", err)
	}

	payload := flatIndexFile{Dims: s.dims, Vectors: s.vectors}
	if err := gob.NewEncoder(file).Encode(payload); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode vector index: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close vector index file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Load replaces the index contents from a gob blob written by Save.
func (s *FlatVectorIndex) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open vector index file: %w", err)
	}
	defer file.Close()

	var payload flatIndexFile
	if err := gob.NewDecoder(file).Decode(&payload); err != nil {
		return fmt.Errorf("decode vector index: %w", err)
	}
	if payload.Dims <= 0 {
		return fmt.Errorf("invalid vector index dimensions: %d", payload.Dims)
	}
	for i, vec := range payload.Vectors {
		if len(vec) != payload.Dims {
			return fmt.Errorf("vector %d has %d dimensions, want %d", i, len(vec), payload.Dims)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dims = payload.Dims
	s.vectors = payload.Vectors
	return nil
}

// normalizeInPlace scales a vector to unit length. Zero vectors are left
// untouched so they remain explicit degraded markers.
func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}

// dotProduct computes the inner product of two equal-length vectors. With
// both sides unit-normalized this equals cosine similarity.
func dotProduct(a, b []float32) float32 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum)
}
