package persistence

import (
	"encoding/binary"
	"io"
	"math"
	"slices"
	"unsafe"

	"github.com/hupe1980/hashmodel/weights"
)

// nativeLayout reports whether in-memory entries and float32 slices have the
// on-disk little-endian layout, allowing bulk reinterpretation as bytes.
var nativeLayout = isLittleEndian() && weights.EntrySize == entrySize &&
	unsafe.Offsetof(weights.Entry{}.Weight) == 4

// isLittleEndian checks if the system is little-endian
func isLittleEndian() bool {
	var test uint16 = 0x0001
	firstByte := *(*byte)(unsafe.Pointer(&test))
	return firstByte == 1
}

// entryBytes views entries as their encoded bytes. Only valid when nativeLayout.
func entryBytes(entries []weights.Entry) []byte {
	if len(entries) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&entries[0])), len(entries)*entrySize)
}

// float32Bytes views vec as its encoded bytes. Only valid when nativeLayout.
func float32Bytes(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&vec[0])), len(vec)*4)
}

// putEntries encodes entries field by field into dst, which must hold
// len(entries)*entrySize bytes.
func putEntries(dst []byte, entries []weights.Entry) {
	for i, e := range entries {
		off := i * entrySize
		binary.LittleEndian.PutUint32(dst[off:], uint32(e.Class))
		binary.LittleEndian.PutUint32(dst[off+4:], math.Float32bits(e.Weight))
	}
}

// getEntries decodes src into entries field by field.
func getEntries(entries []weights.Entry, src []byte) {
	for i := range entries {
		off := i * entrySize
		entries[i] = weights.Entry{
			Class:  int32(binary.LittleEndian.Uint32(src[off:])),
			Weight: math.Float32frombits(binary.LittleEndian.Uint32(src[off+4:])),
		}
	}
}

// readChunk caps how far an allocation may run ahead of the bytes actually
// read, so a corrupt length field cannot force a huge allocation.
const readChunk = 1 << 20

// readBytes reads exactly n bytes from r, growing the buffer one chunk at a
// time. A short source yields io.EOF or io.ErrUnexpectedEOF.
func readBytes(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, 0, min(n, readChunk))
	for len(buf) < n {
		step := min(n-len(buf), readChunk)
		buf = slices.Grow(buf, step)
		if _, err := io.ReadFull(r, buf[len(buf):len(buf)+step]); err != nil {
			return nil, err
		}
		buf = buf[:len(buf)+step]
	}
	return buf, nil
}

// readFloat32s reads n little-endian float32 values from r in chunks.
func readFloat32s(r io.Reader, n int) ([]float32, error) {
	const chunk = readChunk / 4
	vec := make([]float32, 0, min(n, chunk))
	for len(vec) < n {
		step := min(n-len(vec), chunk)
		vec = slices.Grow(vec, step)
		if err := readFloat32Slice(r, vec[len(vec):len(vec)+step]); err != nil {
			return nil, err
		}
		vec = vec[:len(vec)+step]
	}
	return vec, nil
}
