// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: an open file with read/write/sync capabilities
//   - [FileSystem]: open, remove, rename, stat and mkdir
//
// # Implementations
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: test utility that injects write failures, short writes,
//     short reads, and sync/close errors
//
// Weight-file persistence treats every short transfer and every close error
// as fatal, so those paths are exercised through [FaultyFS]:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("weights.bin", fs.Fault{ShortWriteAfter: 16})
//	err := persistence.SaveStore(path, classes, store, persistence.WithFileSystem(ffs))
//
// This package intentionally does NOT take context.Context parameters; local
// file operations are not interruptible at the syscall level.
package fs
