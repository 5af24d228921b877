// Package cache provides an in-memory LRU for immutable blob blocks.
//
// Cached bytes are charged against a resource.Controller when one is
// given; a block that does not fit the global budget is simply not cached.
package cache
