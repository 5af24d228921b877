package network

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Embedding is a dense vector added into the input at [Offset, Offset+Length).
type Embedding struct {
	Offset int
	Length int
	Vector []float32
}

// EmbeddingTable maps feature keys to embeddings packed into one input
// vector of Dim elements.
type EmbeddingTable struct {
	dim int
	m   map[uint64]*Embedding
}

// NewEmbeddingTable creates an empty table for an input of dim elements.
func NewEmbeddingTable(dim int) *EmbeddingTable {
	return &EmbeddingTable{
		dim: dim,
		m:   make(map[uint64]*Embedding),
	}
}

// Dim returns the length of the embedded input vector.
func (t *EmbeddingTable) Dim() int {
	return t.dim
}

// Len returns the number of embeddings.
func (t *EmbeddingTable) Len() int {
	return len(t.m)
}

// Set stores e under key, replacing any prior embedding. The table keeps e.Vector.
func (t *EmbeddingTable) Set(key uint64, e Embedding) error {
	if e.Offset < 0 || e.Length < 0 || len(e.Vector) != e.Length || e.Offset+e.Length > t.dim {
		return fmt.Errorf("%w: key %d at [%d,%d) with %d values in input of %d",
			ErrEmbeddingBounds, key, e.Offset, e.Offset+e.Length, len(e.Vector), t.dim)
	}
	t.m[key] = &e
	return nil
}

// Get returns the embedding for key.
func (t *EmbeddingTable) Get(key uint64) (*Embedding, bool) {
	e, ok := t.m[key]
	return e, ok
}

// Remove deletes the embedding for key.
func (t *EmbeddingTable) Remove(key uint64) {
	delete(t.m, key)
}

// Range calls fn for every embedding in unspecified order until fn returns false.
func (t *EmbeddingTable) Range(fn func(key uint64, e *Embedding) bool) {
	for k, e := range t.m {
		if !fn(k, e) {
			return
		}
	}
}

// Keys returns the set of keys that have an embedding.
func (t *EmbeddingTable) Keys() *roaring64.Bitmap {
	bm := roaring64.New()
	for k := range t.m {
		bm.Add(k)
	}
	return bm
}
