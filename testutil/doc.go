// Package testutil provides testing utilities for hashmodel.
//
// This package is intended for use in tests and benchmarks only.
// It provides a deterministic RNG plus generators for weight stores,
// feature vectors and networks.
//
// # Random Data
//
//	rng := testutil.NewRNG(seed)
//	store := rng.Store(1000, 20)            // 1000 keys, classes [0, 20)
//	feats := rng.Features(store, 16, 1.2)   // Zipf-skewed features over its keys
//	net := rng.Network([]int{8, 16, 4}, 32) // 32 random embeddings
package testutil
