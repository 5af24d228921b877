package persistence

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/hupe1980/hashmodel/internal/conv"
	ihash "github.com/hupe1980/hashmodel/internal/hash"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the archive payload codec.
type Compression uint8

const (
	// CompressionNone stores the payload as is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZstd uses Zstandard (better ratio).
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

const (
	// ArchiveMagic identifies archives (ASCII: "HWA1").
	ArchiveMagic uint32 = 0x48574131
	// ArchiveVersion is the current archive format version.
	ArchiveVersion uint16 = 1

	archiveHeaderSize = 32

	// lz4MaxRatio bounds the expansion of an LZ4 block.
	lz4MaxRatio = 255
)

// ArchiveHeader is the 32-byte header of an archive. Checksum is the CRC32C
// of the uncompressed payload.
type ArchiveHeader struct {
	Magic       uint32
	Version     uint16
	Compression Compression
	Padding     uint8
	RawSize     uint64
	StoredSize  uint64
	Checksum    uint32
	Reserved    uint32
}

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// WriteArchive writes raw to w in an archive. If compression does not
// shrink the payload by at least 10%, it is stored uncompressed and the
// header records CompressionNone.
func WriteArchive(w io.Writer, raw []byte, c Compression) error {
	payload, used, err := compress(raw, c)
	if err != nil {
		return err
	}

	hdr := ArchiveHeader{
		Magic:       ArchiveMagic,
		Version:     ArchiveVersion,
		Compression: used,
		RawSize:     uint64(len(raw)),
		StoredSize:  uint64(len(payload)),
		Checksum:    ihash.CRC32C(raw),
	}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return &IOError{Op: "write", Field: "archive header", Err: err}
	}
	n, err := w.Write(payload)
	if err == nil && n < len(payload) {
		err = ErrShortWrite
	}
	if err != nil {
		return &IOError{Op: "write", Field: "archive payload", Err: err}
	}
	return nil
}

// ReadArchive reads an archive from r, decompresses it and verifies the
// checksum. It returns the header and the raw payload.
func ReadArchive(r io.Reader) (ArchiveHeader, []byte, error) {
	var hdr ArchiveHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return hdr, nil, shortRead("archive header", err)
	}
	if hdr.Magic != ArchiveMagic {
		return hdr, nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, hdr.Magic)
	}
	if hdr.Version != ArchiveVersion {
		return hdr, nil, fmt.Errorf("%w: got %d", ErrInvalidVersion, hdr.Version)
	}

	stored, err := conv.Uint64ToInt(hdr.StoredSize)
	if err != nil {
		return hdr, nil, &IOError{Op: "read", Field: "archive header", Err: fmt.Errorf("%w: %w", ErrCorrupt, err)}
	}
	rawSize, err := conv.Uint64ToInt(hdr.RawSize)
	if err != nil {
		return hdr, nil, &IOError{Op: "read", Field: "archive header", Err: fmt.Errorf("%w: %w", ErrCorrupt, err)}
	}

	if hdr.Compression == CompressionNone && stored != rawSize {
		return hdr, nil, &IOError{Op: "read", Field: "archive header",
			Err: fmt.Errorf("%w: uncompressed payload of %d bytes, raw size %d", ErrCorrupt, stored, rawSize)}
	}

	payload, err := readBytes(r, stored)
	if err != nil {
		return hdr, nil, shortRead("archive payload", err)
	}

	raw, err := decompress(payload, hdr.Compression, rawSize)
	if err != nil {
		return hdr, nil, &IOError{Op: "read", Field: "archive payload", Err: err}
	}
	if len(raw) != rawSize {
		return hdr, nil, &IOError{Op: "read", Field: "archive payload",
			Err: fmt.Errorf("%w: decoded %d bytes, header says %d", ErrCorrupt, len(raw), rawSize)}
	}
	if err := verifyChecksum(hdr.Checksum, ihash.CRC32C(raw)); err != nil {
		return hdr, nil, err
	}
	return hdr, raw, nil
}

func compress(raw []byte, c Compression) ([]byte, Compression, error) {
	if len(raw) == 0 {
		return raw, CompressionNone, nil
	}

	var out []byte
	switch c {
	case CompressionNone:
		return raw, CompressionNone, nil
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, c, err
		}
		out = buf[:n]
	case CompressionZstd:
		enc := getZstdEncoder()
		out = enc.EncodeAll(raw, make([]byte, 0, len(raw)/2))
		putZstdEncoder(enc)
	default:
		return nil, c, fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(c))
	}

	// If compression doesn't help (ratio > 0.9), store uncompressed
	if len(out) == 0 || float64(len(out)) > float64(len(raw))*0.9 {
		return raw, CompressionNone, nil
	}
	return out, c, nil
}

func decompress(payload []byte, c Compression, rawSize int) ([]byte, error) {
	switch c {
	case CompressionNone:
		return payload, nil
	case CompressionLZ4:
		if rawSize > len(payload)*lz4MaxRatio+16 {
			return nil, fmt.Errorf("%w: lz4 block of %d bytes cannot expand to %d", ErrCorrupt, len(payload), rawSize)
		}
		raw := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		return raw[:n], nil
	case CompressionZstd:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)
		raw, err := dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(c))
	}
}
