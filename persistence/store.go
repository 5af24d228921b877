package persistence

import (
	"bytes"
	"errors"
	"io"

	"github.com/hupe1980/hashmodel/internal/mmap"
	"github.com/hupe1980/hashmodel/weights"
)

// SaveStore writes store to path with the given class count.
// The previous file at path is replaced only when the write succeeds.
func SaveStore(path string, classCount int, store *weights.Store, optFns ...Option) error {
	wr, err := Create(path, classCount, optFns...)
	if err != nil {
		return err
	}
	if err := wr.WriteStore(store); err != nil {
		wr.Abort()
		return err
	}
	return wr.Close()
}

// LoadStore reads the weight file at path into a new store and returns it
// with the file's class count. On error no store is returned.
func LoadStore(path string, optFns ...Option) (*weights.Store, int, error) {
	o := applyOptions(optFns)

	rd, err := Open(path, optFns...)
	if err != nil {
		return nil, 0, err
	}
	defer rd.Close()

	store := o.newStore()
	if err := ReadStore(rd, store); err != nil {
		store.RemoveAll()
		return nil, 0, err
	}
	return store, rd.ClassCount(), nil
}

// LoadStoreMapped is like LoadStore but decodes from a read-only memory
// mapping of the file. Vectors are copied out, so the mapping is released
// before returning.
func LoadStoreMapped(path string, optFns ...Option) (*weights.Store, int, error) {
	o := applyOptions(optFns)

	if err := checkNotDir(o.FileSystem, "open", path); err != nil {
		return nil, 0, err
	}

	m, err := mmap.Open(path)
	if err != nil {
		return nil, 0, &IOError{Op: "open", Path: path, Err: err}
	}
	defer m.Close()
	_ = m.AdviseSequential()

	rd, err := newReader(m.Reader(), nil, path, int64(m.Size()), o.BufferSize)
	if err != nil {
		return nil, 0, err
	}

	store := o.newStore()
	if err := ReadStore(rd, store); err != nil {
		store.RemoveAll()
		return nil, 0, err
	}
	return store, rd.ClassCount(), nil
}

// ReadStore inserts every remaining record of rd into store. A record for a
// key already in store replaces it.
func ReadStore(rd *Reader, store *weights.Store) error {
	for {
		key, v, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := store.Set(key, v); err != nil {
			return err
		}
	}
}

// EncodeStore returns the weight file encoding of store.
func EncodeStore(classCount int, store *weights.Store) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(int(store.Bytes()) + store.Len()*(keySize+lengthSize) + classCountSize)

	wr, err := NewWriter(&buf, classCount)
	if err != nil {
		return nil, err
	}
	if err := wr.WriteStore(store); err != nil {
		return nil, err
	}
	if err := wr.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeStore decodes a weight file held in memory.
func DecodeStore(data []byte, optFns ...Option) (*weights.Store, int, error) {
	o := applyOptions(optFns)

	rd, err := NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, 0, err
	}

	store := o.newStore()
	if err := ReadStore(rd, store); err != nil {
		store.RemoveAll()
		return nil, 0, err
	}
	return store, rd.ClassCount(), nil
}
