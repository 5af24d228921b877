package persistence

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"

	"github.com/hupe1980/hashmodel/internal/conv"
	"github.com/hupe1980/hashmodel/internal/resource"
	"github.com/hupe1980/hashmodel/weights"
)

// Writer encodes a weight file. Any error is sticky: once a write fails,
// every later call returns the same error and the output must be discarded.
type Writer struct {
	w       *bufio.Writer
	file    *atomicFile // nil for stream writers
	path    string
	scratch []byte
	err     error
	closed  bool

	classCount int
	records    int
}

// NewWriter writes the header for classCount classes to w and returns a
// Writer for the records. Close flushes but does not close w.
func NewWriter(w io.Writer, classCount int) (*Writer, error) {
	return newWriter(w, nil, "", classCount, defaultBufferSize)
}

// Create starts a weight file at path. The file only replaces path when
// Close succeeds; Abort discards it.
func Create(path string, classCount int, optFns ...Option) (*Writer, error) {
	o := applyOptions(optFns)

	af, err := createAtomic(o.FileSystem, path)
	if err != nil {
		return nil, err
	}

	var dst io.Writer = af
	if o.Controller != nil {
		dst = resource.NewRateLimitedWriter(o.Context, af, o.Controller)
	}

	wr, err := newWriter(dst, af, path, classCount, o.BufferSize)
	if err != nil {
		af.abort()
		return nil, err
	}
	return wr, nil
}

func newWriter(dst io.Writer, af *atomicFile, path string, classCount, bufSize int) (*Writer, error) {
	cc, err := conv.NonNegativeInt32(classCount)
	if err != nil {
		return nil, &IOError{Op: "write", Path: path, Field: "header", Err: err}
	}

	wr := &Writer{
		w:          bufio.NewWriterSize(dst, bufSize),
		file:       af,
		path:       path,
		scratch:    make([]byte, keySize+lengthSize),
		classCount: classCount,
	}

	binary.LittleEndian.PutUint32(wr.scratch, uint32(cc))
	wr.write(wr.scratch[:classCountSize], "header")
	return wr, wr.err
}

// ClassCount returns the class count written in the header.
func (wr *Writer) ClassCount() int {
	return wr.classCount
}

// Records returns the number of records written so far.
func (wr *Writer) Records() int {
	return wr.records
}

// WriteVector appends the record for key. A nil vector is skipped, and a
// class id at or beyond the class count is an error.
// The vector's entries are sorted in place before they are written.
func (wr *Writer) WriteVector(key uint64, v *weights.SparseVector) error {
	if err := wr.usable(); err != nil {
		return err
	}
	if v == nil {
		return nil
	}

	n := v.ScanLen()
	if n != v.Len() {
		cause := weights.ErrNegativeClass
		if n > v.Len() {
			cause = weights.ErrMissingSentinel
		}
		wr.err = weights.NewInvariantError(key, n, cause)
		return wr.err
	}
	for i, e := range v.Entries() {
		if int(e.Class) >= wr.classCount {
			wr.err = weights.NewInvariantError(key, i, weights.ErrClassOutOfRange)
			return wr.err
		}
	}
	length, err := conv.NonNegativeInt32(n)
	if err != nil {
		wr.err = &IOError{Op: "write", Path: wr.path, Field: "length", Err: err}
		return wr.err
	}

	v.Sort()

	binary.LittleEndian.PutUint64(wr.scratch, key)
	binary.LittleEndian.PutUint32(wr.scratch[keySize:], uint32(length))
	wr.write(wr.scratch[:keySize], "key")
	wr.write(wr.scratch[keySize:keySize+lengthSize], "length")
	wr.writeEntries(v.Entries())

	if wr.err == nil {
		wr.records++
	}
	return wr.err
}

// WriteStore writes every non-nil vector in store, in the store's iteration order.
func (wr *Writer) WriteStore(store *weights.Store) error {
	store.Range(func(key uint64, v *weights.SparseVector) bool {
		return wr.WriteVector(key, v) == nil
	})
	return wr.err
}

// Close flushes buffered records. For files created with Create it also
// syncs, closes and renames the file into place. A failed Close removes the
// temporary file.
func (wr *Writer) Close() error {
	if wr.closed {
		return wr.err
	}
	wr.closed = true

	if wr.err == nil {
		if err := wr.w.Flush(); err != nil {
			wr.err = wr.ioError("write", "flush", err)
		}
	}
	if wr.file == nil {
		return wr.err
	}
	if wr.err != nil {
		wr.file.abort()
		return wr.err
	}
	if err := wr.file.commit(); err != nil {
		wr.err = err
	}
	return wr.err
}

// Abort discards everything written. The target file is left untouched.
func (wr *Writer) Abort() {
	if wr.closed {
		return
	}
	wr.closed = true
	if wr.err == nil {
		wr.err = ErrClosed
	}
	if wr.file != nil {
		wr.file.abort()
	}
}

func (wr *Writer) usable() error {
	if wr.err != nil {
		return wr.err
	}
	if wr.closed {
		return ErrClosed
	}
	return nil
}

func (wr *Writer) writeEntries(entries []weights.Entry) {
	if wr.err != nil || len(entries) == 0 {
		return
	}
	if nativeLayout {
		wr.write(entryBytes(entries), "entries")
		return
	}
	buf := make([]byte, len(entries)*entrySize)
	putEntries(buf, entries)
	wr.write(buf, "entries")
}

func (wr *Writer) write(p []byte, field string) {
	if wr.err != nil {
		return
	}
	n, err := wr.w.Write(p)
	if err == nil && n < len(p) {
		err = ErrShortWrite
	}
	if err != nil {
		wr.err = wr.ioError("write", field, err)
	}
}

func (wr *Writer) ioError(op, field string, err error) error {
	if errors.Is(err, io.ErrShortWrite) {
		err = ErrShortWrite
	}
	return &IOError{Op: op, Path: wr.path, Field: field, Err: err}
}
