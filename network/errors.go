package network

import (
	"errors"
	"fmt"
)

var (
	// ErrNoLayers is returned when a network is built without layers.
	ErrNoLayers = errors.New("network: at least one layer is required")

	// ErrShape is returned when a layer's buffers do not match its declared shape.
	ErrShape = errors.New("network: layer shape mismatch")

	// ErrEmbeddingBounds is returned when an embedding does not fit the input vector.
	ErrEmbeddingBounds = errors.New("network: embedding out of bounds")

	// ErrUnknownActivation is returned for an unrecognized activation.
	ErrUnknownActivation = errors.New("network: unknown activation")
)

// DimensionError reports a buffer whose length does not match the network.
type DimensionError struct {
	What string
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("network: %s has dimension %d, want %d", e.What, e.Got, e.Want)
}
