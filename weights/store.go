package weights

import (
	"errors"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/hupe1980/hashmodel/internal/resource"
)

// Store maps feature keys to owned sparse vectors.
type Store struct {
	m     map[uint64]*SparseVector
	rc    *resource.Controller
	bytes int64
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithController charges every held vector against rc's memory budget.
func WithController(rc *resource.Controller) StoreOption {
	return func(s *Store) {
		s.rc = rc
	}
}

// WithCapacity pre-sizes the key map.
func WithCapacity(n int) StoreOption {
	return func(s *Store) {
		s.m = make(map[uint64]*SparseVector, n)
	}
}

// NewStore creates an empty store.
func NewStore(optFns ...StoreOption) *Store {
	s := &Store{}
	for _, fn := range optFns {
		fn(s)
	}
	if s.m == nil {
		s.m = make(map[uint64]*SparseVector)
	}
	return s
}

// Get returns the vector for key. ok is false when the key is absent; a
// present key may still map to a nil vector (see SetNil).
func (s *Store) Get(key uint64) (v *SparseVector, ok bool) {
	v, ok = s.m[key]
	return v, ok
}

// Lookup returns the vector for key, or nil when the key is absent or nil.
// It is the scoring fast path.
func (s *Store) Lookup(key uint64) *SparseVector {
	return s.m[key]
}

// Set stores v under key, taking ownership and releasing any prior vector.
// When the memory budget cannot hold the difference, the store is unchanged.
func (s *Store) Set(key uint64, v *SparseVector) error {
	prev := s.m[key]
	if err := s.charge(v.Bytes() - prev.Bytes()); err != nil {
		return err
	}
	s.m[key] = v
	return nil
}

// SetNil records key as present with no payload. Writers skip such entries.
func (s *Store) SetNil(key uint64) {
	prev := s.m[key]
	s.refund(prev.Bytes())
	s.m[key] = nil
}

// Remove deletes key and releases its vector. It reports whether key was present.
func (s *Store) Remove(key uint64) bool {
	prev, ok := s.m[key]
	if !ok {
		return false
	}
	delete(s.m, key)
	s.refund(prev.Bytes())
	return true
}

// RemoveAll releases every vector. Calling it again is a no-op.
func (s *Store) RemoveAll() {
	for key, v := range s.m {
		delete(s.m, key)
		s.refund(v.Bytes())
	}
}

// Add adds delta to the weight of class for key, creating the vector or the
// entry when missing. Existing entries are updated in place; a new entry
// replaces the vector with one allocation sized for the grown length.
func (s *Store) Add(key uint64, class int32, delta float32) error {
	if class < 0 {
		return &InvariantError{Key: key, Index: -1, cause: ErrNegativeClass}
	}
	prev := s.m[key]
	if prev != nil && prev.addExisting(class, delta) {
		return nil
	}
	return s.Set(key, prev.inserted(class, delta))
}

// Len returns the number of present keys, including keys mapped to nil.
func (s *Store) Len() int {
	return len(s.m)
}

// Bytes returns the accounted size of all held vectors.
func (s *Store) Bytes() int64 {
	return s.bytes
}

// Range calls fn for every present key in unspecified order until fn returns false.
// fn must not mutate the store.
func (s *Store) Range(fn func(key uint64, v *SparseVector) bool) {
	for key, v := range s.m {
		if !fn(key, v) {
			return
		}
	}
}

// Keys returns the set of keys holding a non-nil vector.
func (s *Store) Keys() *roaring64.Bitmap {
	bm := roaring64.New()
	for key, v := range s.m {
		if v != nil {
			bm.Add(key)
		}
	}
	return bm
}

// Validate checks every non-nil vector and reports the first broken invariant.
func (s *Store) Validate() error {
	for key, v := range s.m {
		if v == nil {
			continue
		}
		if err := v.Validate(); err != nil {
			var ie *InvariantError
			if errors.As(err, &ie) {
				ie.Key = key
				return ie
			}
			return &InvariantError{Key: key, Index: -1, cause: err}
		}
	}
	return nil
}

func (s *Store) charge(delta int64) error {
	if delta > 0 {
		if err := s.rc.AcquireMemory(delta); err != nil {
			return err
		}
	} else if delta < 0 {
		s.rc.ReleaseMemory(-delta)
	}
	s.bytes += delta
	return nil
}

func (s *Store) refund(n int64) {
	if n <= 0 {
		return
	}
	s.rc.ReleaseMemory(n)
	s.bytes -= n
}
