package persistence

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/hupe1980/hashmodel/internal/conv"
	"github.com/hupe1980/hashmodel/internal/resource"
	"github.com/hupe1980/hashmodel/weights"
)

// Reader decodes a weight file record by record.
type Reader struct {
	r       *bufio.Reader
	closer  io.Closer
	path    string
	scratch [keySize]byte

	// remaining is the number of unread bytes when the source size is
	// known, or -1. It bounds allocations for corrupt length fields.
	remaining int64

	classCount int
	records    int
	err        error
}

// sizer is implemented by sources that know how many bytes are left, such
// as *bytes.Reader.
type sizer interface {
	Len() int
}

// NewReader reads the header from r and returns a Reader for the records.
func NewReader(r io.Reader) (*Reader, error) {
	size := int64(-1)
	if s, ok := r.(sizer); ok {
		size = int64(s.Len())
	}
	return newReader(r, nil, "", size, defaultBufferSize)
}

// Open opens the weight file at path. A missing path or a directory is an error.
func Open(path string, optFns ...Option) (*Reader, error) {
	o := applyOptions(optFns)

	fi, err := o.FileSystem.Stat(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	if fi.IsDir() {
		return nil, &IOError{Op: "open", Path: path, Err: ErrIsDirectory}
	}

	f, err := o.FileSystem.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}

	var src io.Reader = f
	if o.Controller != nil {
		src = resource.NewRateLimitedReader(o.Context, f, o.Controller)
	}

	rd, err := newReader(src, f, path, fi.Size(), o.BufferSize)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return rd, nil
}

func newReader(src io.Reader, closer io.Closer, path string, size int64, bufSize int) (*Reader, error) {
	rd := &Reader{
		r:         bufio.NewReaderSize(src, bufSize),
		closer:    closer,
		path:      path,
		remaining: size,
	}

	if err := rd.readFull(rd.scratch[:classCountSize], "header"); err != nil {
		return nil, err
	}
	cc := int32(binary.LittleEndian.Uint32(rd.scratch[:classCountSize]))
	n, err := conv.Int32ToLen(cc)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Field: "header", Err: fmt.Errorf("%w: %w", ErrCorrupt, err)}
	}
	rd.classCount = n
	return rd, nil
}

// ClassCount returns the class count from the header.
func (rd *Reader) ClassCount() int {
	return rd.classCount
}

// Records returns the number of records read so far.
func (rd *Reader) Records() int {
	return rd.records
}

// Next returns the next record. At a clean end of stream it returns io.EOF.
// The returned vector holds length+1 entries, the last being
// weights.SentinelCapacity.
func (rd *Reader) Next() (uint64, *weights.SparseVector, error) {
	if rd.err != nil {
		return 0, nil, rd.err
	}

	key, v, err := rd.next()
	if err != nil {
		rd.err = err
		return 0, nil, err
	}
	rd.records++
	return key, v, nil
}

func (rd *Reader) next() (uint64, *weights.SparseVector, error) {
	n, err := io.ReadFull(rd.r, rd.scratch[:keySize])
	if n == 0 && errors.Is(err, io.EOF) {
		return 0, nil, io.EOF
	}
	if err != nil {
		return 0, nil, rd.ioError("key", err)
	}
	rd.consumed(keySize)
	key := binary.LittleEndian.Uint64(rd.scratch[:keySize])

	if err := rd.readFull(rd.scratch[:lengthSize], "length"); err != nil {
		return 0, nil, err
	}
	length, err := conv.Int32ToLen(int32(binary.LittleEndian.Uint32(rd.scratch[:lengthSize])))
	if err != nil {
		return 0, nil, &IOError{Op: "read", Path: rd.path, Field: "length", Err: fmt.Errorf("%w: feature %d: %w", ErrCorrupt, key, err)}
	}
	if rd.remaining >= 0 && int64(length)*entrySize > rd.remaining {
		return 0, nil, &IOError{Op: "read", Path: rd.path, Field: "entries",
			Err: fmt.Errorf("%w: feature %d: %d entries exceed the %d remaining bytes", ErrShortRead, key, length, rd.remaining)}
	}

	buf, err := rd.readVector(length)
	if err != nil {
		return 0, nil, err
	}

	v, err := weights.Wrap(buf)
	if err != nil {
		var ie *weights.InvariantError
		if errors.As(err, &ie) {
			ie.Key = key
		}
		return 0, nil, rd.corrupt(err)
	}
	for i, e := range buf[:length] {
		if int(e.Class) >= rd.classCount {
			return 0, nil, rd.corrupt(weights.NewInvariantError(key, i, weights.ErrClassOutOfRange))
		}
	}
	return key, v, nil
}

// entryChunk bounds the entries allocated ahead of those actually read when
// the source size is unknown.
const entryChunk = readChunk / entrySize

// readVector reads length entries and appends the capacity sentinel. With a
// known source size the slice is allocated once; otherwise it grows in
// chunks as entries arrive.
func (rd *Reader) readVector(length int) ([]weights.Entry, error) {
	capHint := length + 1
	if rd.remaining < 0 {
		capHint = min(capHint, entryChunk)
	}
	buf := make([]weights.Entry, 0, capHint)
	for len(buf) < length {
		step := min(length-len(buf), entryChunk)
		buf = slices.Grow(buf, step)
		if err := rd.readEntries(buf[len(buf) : len(buf)+step]); err != nil {
			return nil, err
		}
		buf = buf[:len(buf)+step]
	}
	return append(buf, weights.Entry{Class: weights.SentinelCapacity}), nil
}

func (rd *Reader) corrupt(err error) error {
	return &IOError{Op: "read", Path: rd.path, Field: "entries", Err: fmt.Errorf("%w: %w", ErrCorrupt, err)}
}

// Close closes the underlying file, if the Reader opened one.
func (rd *Reader) Close() error {
	if rd.closer == nil {
		return nil
	}
	err := rd.closer.Close()
	rd.closer = nil
	return err
}

func (rd *Reader) readEntries(entries []weights.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if nativeLayout {
		return rd.readFull(entryBytes(entries), "entries")
	}
	buf := make([]byte, len(entries)*entrySize)
	if err := rd.readFull(buf, "entries"); err != nil {
		return err
	}
	getEntries(entries, buf)
	return nil
}

func (rd *Reader) readFull(p []byte, field string) error {
	if _, err := io.ReadFull(rd.r, p); err != nil {
		return rd.ioError(field, err)
	}
	rd.consumed(len(p))
	return nil
}

func (rd *Reader) consumed(n int) {
	if rd.remaining >= 0 {
		rd.remaining -= int64(n)
	}
}

func (rd *Reader) ioError(field string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		err = ErrShortRead
	}
	return &IOError{Op: "read", Path: rd.path, Field: field, Err: err}
}
