// Package feature defines the sparse input representation consumed by the
// scorers: a list of (key, value) pairs where the key is a hash-bucket
// address in a 64-bit feature space.
package feature

import (
	"github.com/cespare/xxhash/v2"
)

// Feature is one active input dimension.
type Feature struct {
	Key   uint64
	Value float32
}

// Key hashes a namespaced feature name into the key space.
// The namespace and value are separated so ("ab","c") and ("a","bc") differ.
func Key(namespace, value string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(namespace)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(value)
	return d.Sum64()
}

// Hashed returns the Feature for a namespaced name with the given value.
func Hashed(namespace, value string, v float32) Feature {
	return Feature{Key: Key(namespace, value), Value: v}
}

// Indicator returns a binary (value 1) feature for a namespaced name.
func Indicator(namespace, value string) Feature {
	return Hashed(namespace, value, 1)
}
