// Package math32 provides the float32 vector and matrix kernels used by the
// network scorer. Level-1 and level-2 routines delegate to gonum's blas32.
//
// Matrices are dense row-major slices. A layer matrix W of shape in×out is
// stored with stride out, so W[i*out+o] connects input i to output o.
package math32

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

func vec(a []float32) blas32.Vector {
	return blas32.Vector{N: len(a), Data: a, Inc: 1}
}

func general(w []float32, rows, cols int) blas32.General {
	return blas32.General{Rows: rows, Cols: cols, Stride: cols, Data: w}
}

// Axpy computes y += alpha*x.
func Axpy(alpha float32, x, y []float32) {
	if len(x) == 0 {
		return
	}
	blas32.Axpy(alpha, vec(x), vec(y))
}

// ScaleInPlace multiplies all elements of a by scalar.
func ScaleInPlace(a []float32, scalar float32) {
	if len(a) == 0 {
		return
	}
	blas32.Scal(scalar, vec(a))
}

// Zero sets all elements of a to 0.
func Zero(a []float32) {
	clear(a)
}

// MulVecT computes out = Wᵗ·x + out for W of shape rows×cols,
// len(x) == rows and len(out) == cols.
func MulVecT(out, w, x []float32, rows, cols int) {
	if rows == 0 || cols == 0 {
		return
	}
	blas32.Gemv(blas.Trans, 1, general(w, rows, cols), vec(x), 1, vec(out))
}

// MulVec computes out = W·y for W of shape rows×cols,
// len(y) == cols and len(out) == rows. out is overwritten.
func MulVec(out, w, y []float32, rows, cols int) {
	if rows == 0 || cols == 0 {
		return
	}
	blas32.Gemv(blas.NoTrans, 1, general(w, rows, cols), vec(y), 0, vec(out))
}

// AddOuter accumulates W += alpha·x·yᵗ for W of shape len(x)×len(y).
func AddOuter(w []float32, alpha float32, x, y []float32) {
	if len(x) == 0 || len(y) == 0 {
		return
	}
	blas32.Ger(alpha, vec(x), vec(y), general(w, len(x), len(y)))
}

// Max returns the largest element of a and its index, or (0, -1) for an empty slice.
func Max(a []float32) (float32, int) {
	if len(a) == 0 {
		return 0, -1
	}
	best, idx := a[0], 0
	for i := 1; i < len(a); i++ {
		if a[i] > best {
			best, idx = a[i], i
		}
	}
	return best, idx
}
