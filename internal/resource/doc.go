// Package resource bounds the memory, concurrency, and disk bandwidth a
// model may use.
//
//   - Memory: every sparse weight vector held by a weights.Store is charged
//     against a byte budget (non-blocking, fail-fast).
//   - Workers: batch scoring takes one slot per concurrently scored example.
//   - IO: saves and loads of weight files pass through a token bucket so a
//     checkpoint does not starve a colocated serving process.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:     8 << 30,
//	    MaxBackgroundWorkers: 4,
//	    IOLimitBytesPerSec:   200 << 20,
//	})
//
// All methods handle a nil Controller gracefully; they become no-ops.
// This allows optional limiting without nil checks at every call site.
package resource
