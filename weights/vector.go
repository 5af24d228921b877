package weights

import (
	"slices"
	"unsafe"
)

const (
	// SentinelEnd terminates a vector built in memory.
	SentinelEnd int32 = -1
	// SentinelCapacity terminates a vector decoded from a weight file.
	SentinelCapacity int32 = -2
)

// Entry is one (class, weight) pair.
type Entry struct {
	Class  int32
	Weight float32
}

// EntrySize is the in-memory size of one Entry in bytes.
const EntrySize = int64(unsafe.Sizeof(Entry{}))

// SparseVector is the class-weight list of one feature.
// The backing slice holds Len() live entries followed by one sentinel.
type SparseVector struct {
	buf []Entry
}

// NewSparseVector copies entries into a fresh vector, preserving their order,
// and terminates it with SentinelEnd.
func NewSparseVector(entries ...Entry) *SparseVector {
	buf := make([]Entry, len(entries)+1)
	copy(buf, entries)
	buf[len(entries)] = Entry{Class: SentinelEnd}
	return &SparseVector{buf: buf}
}

// NewSortedSparseVector is like NewSparseVector but sorts the copy by class id.
func NewSortedSparseVector(entries ...Entry) *SparseVector {
	v := NewSparseVector(entries...)
	v.Sort()
	return v
}

// Wrap takes ownership of a sentinel-terminated buffer.
// The last element must be the only entry with a negative class id.
func Wrap(buf []Entry) (*SparseVector, error) {
	if len(buf) == 0 || buf[len(buf)-1].Class >= 0 {
		return nil, ErrMissingSentinel
	}
	v := &SparseVector{buf: buf}
	if n := v.ScanLen(); n != len(buf)-1 {
		return nil, &InvariantError{Index: n, cause: ErrNegativeClass}
	}
	return v, nil
}

// Len returns the number of live entries.
func (v *SparseVector) Len() int {
	return len(v.buf) - 1
}

// Entries returns the live entries. The slice aliases the vector.
func (v *SparseVector) Entries() []Entry {
	return v.buf[:len(v.buf)-1]
}

// Raw returns the backing slice including the trailing sentinel.
func (v *SparseVector) Raw() []Entry {
	return v.buf
}

// Sentinel returns the class id of the terminating entry.
func (v *SparseVector) Sentinel() int32 {
	return v.buf[len(v.buf)-1].Class
}

// ScanLen walks the backing slice until the first negative class id and
// returns the number of entries before it, or len(Raw()) if none is found.
func (v *SparseVector) ScanLen() int {
	for i, e := range v.buf {
		if e.Class < 0 {
			return i
		}
	}
	return len(v.buf)
}

// Weight returns the weight stored for class.
func (v *SparseVector) Weight(class int32) (float32, bool) {
	for _, e := range v.Entries() {
		if e.Class == class {
			return e.Weight, true
		}
	}
	return 0, false
}

// Sort orders the live entries by ascending class id. The sentinel stays last.
func (v *SparseVector) Sort() {
	slices.SortFunc(v.Entries(), func(a, b Entry) int {
		switch {
		case a.Class < b.Class:
			return -1
		case a.Class > b.Class:
			return 1
		default:
			return 0
		}
	})
}

// IsSorted reports whether the live entries are in ascending class order.
func (v *SparseVector) IsSorted() bool {
	entries := v.Entries()
	for i := 1; i < len(entries); i++ {
		if entries[i].Class < entries[i-1].Class {
			return false
		}
	}
	return true
}

// Validate checks the sentinel and the strictly-increasing class ids.
func (v *SparseVector) Validate() error {
	if v == nil {
		return ErrNilVector
	}
	if len(v.buf) == 0 || v.Sentinel() >= 0 {
		return ErrMissingSentinel
	}
	entries := v.Entries()
	for i, e := range entries {
		if e.Class < 0 {
			return &InvariantError{Index: i, cause: ErrNegativeClass}
		}
		if i == 0 {
			continue
		}
		switch prev := entries[i-1].Class; {
		case e.Class == prev:
			return &InvariantError{Index: i, cause: ErrDuplicateClass}
		case e.Class < prev:
			return &InvariantError{Index: i, cause: ErrUnsorted}
		}
	}
	return nil
}

// Bytes returns the size of the backing allocation.
func (v *SparseVector) Bytes() int64 {
	if v == nil {
		return 0
	}
	return int64(len(v.buf)) * EntrySize
}

// Clone returns a deep copy with the same sentinel.
func (v *SparseVector) Clone() *SparseVector {
	return &SparseVector{buf: slices.Clone(v.buf)}
}

// Equal reports whether both vectors hold the same live entries in the same order.
func (v *SparseVector) Equal(o *SparseVector) bool {
	if v == nil || o == nil {
		return v == o
	}
	return slices.Equal(v.Entries(), o.Entries())
}

// addExisting adds delta to class in place and reports whether class was present.
func (v *SparseVector) addExisting(class int32, delta float32) bool {
	entries := v.Entries()
	for i := range entries {
		if entries[i].Class == class {
			entries[i].Weight += delta
			return true
		}
	}
	return false
}

// inserted returns a new vector holding v's entries plus (class, weight) in
// class order. The sentinel is written last, after every live entry.
func (v *SparseVector) inserted(class int32, weight float32) *SparseVector {
	var entries []Entry
	if v != nil {
		entries = v.Entries()
	}
	pos, _ := slices.BinarySearchFunc(entries, class, func(e Entry, c int32) int {
		switch {
		case e.Class < c:
			return -1
		case e.Class > c:
			return 1
		default:
			return 0
		}
	})

	buf := make([]Entry, len(entries)+2)
	copy(buf, entries[:pos])
	buf[pos] = Entry{Class: class, Weight: weight}
	copy(buf[pos+1:], entries[pos:])
	buf[len(buf)-1] = Entry{Class: SentinelEnd}
	return &SparseVector{buf: buf}
}
