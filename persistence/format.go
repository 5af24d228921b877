package persistence

import (
	"errors"
	"fmt"
)

const (
	// keySize, lengthSize and classCountSize are the widths of the weight file's scalar fields.
	keySize        = 8
	lengthSize     = 4
	classCountSize = 4
	// entrySize is the on-disk width of one (class_id, weight) pair.
	entrySize = 8

	// defaultBufferSize batches small field writes into large file writes.
	defaultBufferSize = 256 * 1024
)

var (
	// ErrIsDirectory is returned when a weight file path names a directory.
	ErrIsDirectory = errors.New("path is a directory")
	// ErrShortWrite is returned when a write transfers fewer bytes than requested.
	ErrShortWrite = errors.New("short write")
	// ErrShortRead is returned when a field read ends before the field is complete.
	ErrShortRead = errors.New("short read")
	// ErrCloseFailed is returned when closing a written file reports an error.
	ErrCloseFailed = errors.New("close failed")
	// ErrCorrupt is returned for field values that cannot be valid.
	ErrCorrupt = errors.New("corrupt data")
	// ErrClosed is returned when a closed writer is used.
	ErrClosed = errors.New("writer is closed")

	ErrInvalidMagic       = errors.New("invalid magic number")
	ErrInvalidVersion     = errors.New("unsupported version")
	ErrUnknownCompression = errors.New("unknown compression type")
)

// IOError reports a failed codec operation on one field of a file.
type IOError struct {
	Op    string // open, create, read, write, sync, close, rename
	Path  string // empty for streams
	Field string // header, key, length, entries, ...
	Err   error
}

func (e *IOError) Error() string {
	msg := "persistence: " + e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" (%s)", e.Field)
	}
	return msg + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }
