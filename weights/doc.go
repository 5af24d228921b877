// Package weights holds the sparse, hashed weight table shared by the linear
// and network scorers.
//
// A [Store] maps a 64-bit feature key to an owned [SparseVector]: the list of
// (class, weight) pairs that feature contributes to. Keys that were never
// trained are simply absent and contribute nothing.
//
// # Layout
//
// Each SparseVector is one exactly-sized allocation of length+1 [Entry]
// values. The extra slot is a sentinel with a negative class id:
//
//   - [SentinelEnd] (-1) terminates vectors built in memory.
//   - [SentinelCapacity] (-2) terminates vectors decoded from a weight file
//     and marks the end of the allocated region.
//
// The length is also kept explicitly, so hot loops never scan for the
// sentinel; [SparseVector.ScanLen] and [SparseVector.Validate] exist to detect
// corrupted records.
//
// # Ownership
//
// The Store exclusively owns its vectors. Set and Remove release the prior
// vector, RemoveAll releases everything, and when a resource controller is
// attached every vector's bytes are charged on insert and refunded exactly
// once on removal.
//
// # Concurrency
//
// Concurrent reads (Get, Range, scoring) are safe when no goroutine mutates
// the store. Mutation (Set, Add, Remove) must be serialized by the caller.
package weights
