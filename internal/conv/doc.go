// Package conv provides checked integer narrowing.
//
// The weight file stores lengths, class ids and the class count as int32.
// Every conversion from Go's platform int into a fixed-width field goes
// through this package so that an oversized value surfaces as an error
// instead of silently wrapping on disk.
package conv
