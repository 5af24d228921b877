package network

import (
	"math"

	"github.com/hupe1980/hashmodel/feature"
	"github.com/hupe1980/hashmodel/internal/math32"
)

// Forward scores one example. scores must have NumClasses elements and is
// overwritten with the softmax of the last layer's output.
func Forward(n *Network, ws *Workspace, features []feature.Feature, scores []float32) error {
	if len(scores) != n.NumClasses() {
		return &DimensionError{What: "score buffer", Want: n.NumClasses(), Got: len(scores)}
	}

	Embed(n.Embeddings, ws.Embedded, features)

	for i, l := range n.Layers {
		pre := ws.Pre[i]
		copy(pre, l.B)
		math32.MulVecT(pre, l.W, ws.input(i), l.In, l.Out)

		sig := ws.Signal[i]
		copy(sig, pre)
		l.Activation.Apply(sig)
	}

	Softmax(scores, ws.Output())
	return nil
}

// Embed clears dst and accumulates embedding·value for every feature that
// has an embedding.
func Embed(t *EmbeddingTable, dst []float32, features []feature.Feature) {
	clear(dst)
	for _, f := range features {
		e, ok := t.Get(f.Key)
		if !ok {
			continue
		}
		math32.Axpy(f.Value, e.Vector, dst[e.Offset:e.Offset+e.Length])
	}
}

// Softmax writes the normalized exponentials of logits into dst.
func Softmax(dst, logits []float32) {
	if len(logits) == 0 {
		return
	}
	maxVal, _ := math32.Max(logits)

	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v - maxVal))
		dst[i] = float32(e)
		sum += e
	}

	inv := float32(1 / sum)
	math32.ScaleInPlace(dst[:len(logits)], inv)
}

// Loss returns the cross-entropy of scores against the target distribution.
func Loss(scores, target []float32) float64 {
	const eps = 1e-12
	var loss float64
	for i, t := range target {
		if t == 0 {
			continue
		}
		p := math.Max(float64(scores[i]), eps)
		loss -= float64(t) * math.Log(p)
	}
	return loss
}

// OneHot fills target with a one-hot distribution for class.
func OneHot(target []float32, class int) {
	clear(target)
	if class >= 0 && class < len(target) {
		target[class] = 1
	}
}
