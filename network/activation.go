package network

import (
	"fmt"
	"math"
	"strings"
)

// Activation is an element-wise non-linearity applied to a layer's output.
type Activation uint8

const (
	// Identity passes values through unchanged.
	Identity Activation = iota
	// ReLU is max(0, x).
	ReLU
	// Logistic is 1/(1+e^-x).
	Logistic
	// Tanh is the hyperbolic tangent.
	Tanh
)

func (a Activation) String() string {
	switch a {
	case Identity:
		return "identity"
	case ReLU:
		return "relu"
	case Logistic:
		return "logistic"
	case Tanh:
		return "tanh"
	default:
		return fmt.Sprintf("Activation(%d)", uint8(a))
	}
}

// ParseActivation returns the activation named s (case-insensitive).
func ParseActivation(s string) (Activation, error) {
	switch strings.ToLower(s) {
	case "identity", "linear":
		return Identity, nil
	case "relu":
		return ReLU, nil
	case "logistic", "sigmoid":
		return Logistic, nil
	case "tanh":
		return Tanh, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownActivation, s)
}

// Valid reports whether a is a known activation.
func (a Activation) Valid() bool {
	return a <= Tanh
}

// Apply rewrites every element of x with the activation.
func (a Activation) Apply(x []float32) {
	switch a {
	case ReLU:
		for i, v := range x {
			if v < 0 {
				x[i] = 0
			}
		}
	case Logistic:
		for i, v := range x {
			x[i] = float32(1 / (1 + math.Exp(-float64(v))))
		}
	case Tanh:
		for i, v := range x {
			x[i] = float32(math.Tanh(float64(v)))
		}
	}
}

// Derivative returns d out / d pre for one unit, given its pre-activation
// value and its activated output.
func (a Activation) Derivative(pre, out float32) float32 {
	switch a {
	case ReLU:
		if pre > 0 {
			return 1
		}
		return 0
	case Logistic:
		return out * (1 - out)
	case Tanh:
		return 1 - out*out
	default:
		return 1
	}
}
