package network

import (
	"fmt"
	"math/rand"
)

// Network is an embedding table followed by a stack of layers.
type Network struct {
	Embeddings *EmbeddingTable
	Layers     []*Layer
}

// New validates that the layers chain from the embedding dimension to the
// class count and returns the network.
func New(embeddings *EmbeddingTable, layers ...*Layer) (*Network, error) {
	if len(layers) == 0 {
		return nil, ErrNoLayers
	}
	in := embeddings.Dim()
	for i, l := range layers {
		if err := l.validate(i); err != nil {
			return nil, err
		}
		if l.In != in {
			return nil, fmt.Errorf("%w: layer %d expects %d inputs, previous stage yields %d", ErrShape, i, l.In, in)
		}
		in = l.Out
	}
	return &Network{Embeddings: embeddings, Layers: layers}, nil
}

// Build creates a randomly initialized network for the given layer widths.
// sizes[0] is the embedding dimension and the last size the class count.
// Hidden layers use hidden; the output layer is Identity.
func Build(sizes []int, hidden Activation, seed int64) (*Network, error) {
	if len(sizes) < 2 {
		return nil, ErrNoLayers
	}
	layers := make([]*Layer, len(sizes)-1)
	for i := range layers {
		act := hidden
		if i == len(layers)-1 {
			act = Identity
		}
		layers[i] = NewLayer(sizes[i], sizes[i+1], act)
	}
	n, err := New(NewEmbeddingTable(sizes[0]), layers...)
	if err != nil {
		return nil, err
	}
	n.Randomize(seed)
	return n, nil
}

// Randomize re-initializes every layer from seed.
func (n *Network) Randomize(seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for _, l := range n.Layers {
		l.Randomize(rng)
	}
}

// InputDim returns the embedded input dimension.
func (n *Network) InputDim() int {
	return n.Embeddings.Dim()
}

// NumClasses returns the output dimension.
func (n *Network) NumClasses() int {
	return n.Layers[len(n.Layers)-1].Out
}

// Depth returns the number of layers.
func (n *Network) Depth() int {
	return len(n.Layers)
}
