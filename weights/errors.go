package weights

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingSentinel indicates a vector whose backing slice does not end in a sentinel.
	ErrMissingSentinel = errors.New("sparse vector: missing sentinel")
	// ErrUnsorted indicates class ids that are not strictly increasing.
	ErrUnsorted = errors.New("sparse vector: class ids not sorted")
	// ErrDuplicateClass indicates a class id that appears more than once.
	ErrDuplicateClass = errors.New("sparse vector: duplicate class id")
	// ErrNegativeClass indicates a negative class id among the live entries.
	ErrNegativeClass = errors.New("sparse vector: negative class id")
	// ErrClassOutOfRange indicates a class id at or beyond the model's class count.
	ErrClassOutOfRange = errors.New("sparse vector: class id out of range")
	// ErrNilVector indicates a present key whose payload is nil where one is required.
	ErrNilVector = errors.New("weight store: nil vector")
)

// InvariantError reports a broken vector invariant for a feature key.
type InvariantError struct {
	Key   uint64
	Index int
	cause error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("feature %d: entry %d: %v", e.Key, e.Index, e.cause)
}

func (e *InvariantError) Unwrap() error { return e.cause }

// NewInvariantError reports that entry index of the vector stored under key
// breaks an invariant. cause is one of the package's sentinel errors.
func NewInvariantError(key uint64, index int, cause error) *InvariantError {
	return &InvariantError{Key: key, Index: index, cause: cause}
}
