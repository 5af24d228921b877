package weights

import "github.com/RoaringBitmap/roaring/v2/roaring64"

// Difference describes how two stores' non-nil entries differ.
type Difference struct {
	OnlyLeft  *roaring64.Bitmap
	OnlyRight *roaring64.Bitmap
	Changed   *roaring64.Bitmap
}

// Empty reports whether the stores hold equivalent entries.
func (d Difference) Empty() bool {
	return d.OnlyLeft.IsEmpty() && d.OnlyRight.IsEmpty() && d.Changed.IsEmpty()
}

// Diff compares two stores key by key. Vectors are compared in canonical
// (class-sorted) order, so a vector whose live order differs from its
// persisted order is not reported as changed.
func Diff(left, right *Store) Difference {
	lk, rk := left.Keys(), right.Keys()
	d := Difference{
		OnlyLeft:  roaring64.AndNot(lk, rk),
		OnlyRight: roaring64.AndNot(rk, lk),
		Changed:   roaring64.New(),
	}

	both := roaring64.And(lk, rk)
	it := both.Iterator()
	for it.HasNext() {
		key := it.Next()
		if !canonicalEqual(left.Lookup(key), right.Lookup(key)) {
			d.Changed.Add(key)
		}
	}
	return d
}

// Equivalent reports whether Diff(left, right) is empty.
func Equivalent(left, right *Store) bool {
	return Diff(left, right).Empty()
}

func canonicalEqual(a, b *SparseVector) bool {
	if a.Len() != b.Len() {
		return false
	}
	if a.IsSorted() && b.IsSorted() {
		return a.Equal(b)
	}
	ca, cb := a.Clone(), b.Clone()
	ca.Sort()
	cb.Sort()
	return ca.Equal(cb)
}
