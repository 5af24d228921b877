package network

import "github.com/hupe1980/hashmodel/internal/math32"

// Gradients accumulates parameter gradients over one or more examples.
type Gradients struct {
	W          [][]float32
	B          [][]float32
	Embeddings map[uint64][]float32
	// Examples counts the Backward calls since the last Reset.
	Examples int
}

// NewGradients allocates zeroed accumulators shaped like n.
func NewGradients(n *Network) *Gradients {
	g := &Gradients{
		W:          make([][]float32, n.Depth()),
		B:          make([][]float32, n.Depth()),
		Embeddings: make(map[uint64][]float32),
	}
	for i, l := range n.Layers {
		g.W[i] = make([]float32, len(l.W))
		g.B[i] = make([]float32, len(l.B))
	}
	return g
}

// Reset zeroes every accumulator.
func (g *Gradients) Reset() {
	for i := range g.W {
		math32.Zero(g.W[i])
		math32.Zero(g.B[i])
	}
	clear(g.Embeddings)
	g.Examples = 0
}

func (g *Gradients) embedding(key uint64, length int) []float32 {
	acc, ok := g.Embeddings[key]
	if !ok {
		acc = make([]float32, length)
		g.Embeddings[key] = acc
	}
	return acc
}

// Apply performs one SGD step: every parameter moves by -lr times its
// accumulated gradient. Embedding gradients for keys no longer in the
// table are dropped.
func (g *Gradients) Apply(n *Network, lr float32) {
	for i, l := range n.Layers {
		math32.Axpy(-lr, g.W[i], l.W)
		math32.Axpy(-lr, g.B[i], l.B)
	}
	for key, acc := range g.Embeddings {
		if e, ok := n.Embeddings.Get(key); ok {
			math32.Axpy(-lr, acc, e.Vector)
		}
	}
}
