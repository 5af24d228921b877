package hashmodel

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/hashmodel/internal/resource"
	"github.com/hupe1980/hashmodel/network"
	"github.com/hupe1980/hashmodel/persistence"
	"github.com/hupe1980/hashmodel/weights"
)

var (
	// ErrClassCountMismatch is returned when an example or a loaded file
	// disagrees with the model's class count.
	ErrClassCountMismatch = errors.New("class count mismatch")

	// ErrInvalidClassCount is returned when a model is created with fewer than one class.
	ErrInvalidClassCount = errors.New("class count must be positive")

	// ErrInvalidClass is returned when a training label is out of range.
	ErrInvalidClass = errors.New("class out of range")
)

// ErrDimensionMismatch indicates a score buffer of the wrong size.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

var fatalErrors = []error{
	persistence.ErrShortWrite,
	persistence.ErrShortRead,
	persistence.ErrCloseFailed,
	persistence.ErrCorrupt,
	persistence.ErrChecksumMismatch,
	persistence.ErrInvalidMagic,
	persistence.ErrInvalidVersion,
	persistence.ErrUnknownCompression,
	persistence.ErrIsDirectory,
	weights.ErrMissingSentinel,
	weights.ErrUnsorted,
	weights.ErrDuplicateClass,
	weights.ErrNegativeClass,
	weights.ErrClassOutOfRange,
	weights.ErrNilVector,
	resource.ErrMemoryLimitExceeded,
	network.ErrShape,
	network.ErrEmbeddingBounds,
	ErrClassCountMismatch,
}

// IsFatal reports whether err aborted an operation because of a codec,
// resource or invariant failure. Such errors are never worth retrying.
// Cancellation is not fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ioErr *persistence.IOError
	if errors.As(err, &ioErr) {
		return true
	}
	var invErr *weights.InvariantError
	if errors.As(err, &invErr) {
		return true
	}
	for _, target := range fatalErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	var de *network.DimensionError
	if errors.As(err, &de) {
		return &ErrDimensionMismatch{Expected: de.Want, Actual: de.Got, cause: err}
	}
	return err
}
