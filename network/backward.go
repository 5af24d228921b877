package network

import (
	"github.com/hupe1980/hashmodel/feature"
	"github.com/hupe1980/hashmodel/internal/math32"
)

// Backward accumulates the gradients of one example into g. ws must hold
// the state of the Forward call that produced scores for the same features.
//
// The terminal delta is scores − target, scaled by the output layer's
// activation derivative. Each layer adds delta to its bias gradient and
// input·deltaᵗ to its weight gradient, then passes W·delta (scaled by the
// previous layer's derivative) down. The delta reaching the input is left in
// ws.InputDelta and scattered into the embedding gradients.
func Backward(n *Network, ws *Workspace, features []feature.Feature, scores, target []float32, g *Gradients) error {
	classes := n.NumClasses()
	if len(scores) != classes {
		return &DimensionError{What: "score buffer", Want: classes, Got: len(scores)}
	}
	if len(target) != classes {
		return &DimensionError{What: "target", Want: classes, Got: len(target)}
	}

	last := n.Depth() - 1
	out := n.Layers[last]
	d := ws.Delta[last]
	for o := range d {
		d[o] = (scores[o] - target[o]) * out.Activation.Derivative(ws.Pre[last][o], ws.Signal[last][o])
	}

	for i := last; i >= 0; i-- {
		l := n.Layers[i]
		delta := ws.Delta[i]

		math32.Axpy(1, delta, g.B[i])
		math32.AddOuter(g.W[i], 1, ws.input(i), delta)

		if i == 0 {
			math32.MulVec(ws.InputDelta, l.W, delta, l.In, l.Out)
			break
		}

		down := ws.Delta[i-1]
		math32.MulVec(down, l.W, delta, l.In, l.Out)
		prev := n.Layers[i-1]
		for j := range down {
			down[j] *= prev.Activation.Derivative(ws.Pre[i-1][j], ws.Signal[i-1][j])
		}
	}

	for _, f := range features {
		e, ok := n.Embeddings.Get(f.Key)
		if !ok {
			continue
		}
		acc := g.embedding(f.Key, e.Length)
		math32.Axpy(f.Value, ws.InputDelta[e.Offset:e.Offset+e.Length], acc)
	}

	g.Examples++
	return nil
}
