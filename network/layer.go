package network

import (
	"fmt"
	"math"
	"math/rand"
)

// Layer is one fully connected transform out = activation(x·W + b).
// W is row-major with shape In×Out: W[i*Out+o] connects input i to output o.
type Layer struct {
	In         int
	Out        int
	W          []float32
	B          []float32
	Activation Activation
}

// NewLayer allocates a zero-initialized layer.
func NewLayer(in, out int, act Activation) *Layer {
	return &Layer{
		In:         in,
		Out:        out,
		W:          make([]float32, in*out),
		B:          make([]float32, out),
		Activation: act,
	}
}

// Randomize fills W with Xavier-uniform values and zeroes B.
func (l *Layer) Randomize(rng *rand.Rand) {
	limit := math.Sqrt(6 / float64(l.In+l.Out))
	for i := range l.W {
		l.W[i] = float32((rng.Float64()*2 - 1) * limit)
	}
	clear(l.B)
}

func (l *Layer) validate(idx int) error {
	if l.In <= 0 || l.Out <= 0 || len(l.W) != l.In*l.Out || len(l.B) != l.Out {
		return fmt.Errorf("%w: layer %d is %dx%d with %d weights and %d biases",
			ErrShape, idx, l.In, l.Out, len(l.W), len(l.B))
	}
	if !l.Activation.Valid() {
		return fmt.Errorf("%w: layer %d uses %s", ErrUnknownActivation, idx, l.Activation)
	}
	return nil
}
