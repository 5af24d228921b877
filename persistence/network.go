package persistence

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/hupe1980/hashmodel/internal/conv"
	"github.com/hupe1980/hashmodel/network"
)

const (
	// NetworkMagic identifies network files (ASCII: "HNN1").
	NetworkMagic uint32 = 0x484e4e31
	// NetworkVersion is the current network file format version.
	NetworkVersion uint32 = 0x00010000
)

// NetworkHeader is the 32-byte header at the start of every network file.
type NetworkHeader struct {
	Magic      uint32
	Version    uint32
	Layers     uint32
	InputDim   uint32
	Embeddings uint64
	Reserved   [8]byte
}

// layerHeader precedes each layer's weights and biases.
type layerHeader struct {
	In         uint32
	Out        uint32
	Activation uint8
	Padding    [7]byte
}

// embeddingHeader precedes each embedding vector.
type embeddingHeader struct {
	Key    uint64
	Offset uint32
	Length uint32
}

// WriteNetwork encodes n to w followed by a CRC32C of everything before it.
// Embeddings are written in ascending key order.
func WriteNetwork(w io.Writer, n *network.Network) error {
	cw := NewChecksumWriter(w)

	inputDim, err := conv.IntToUint32(n.InputDim())
	if err != nil {
		return err
	}
	depth, err := conv.IntToUint32(n.Depth())
	if err != nil {
		return err
	}

	hdr := NetworkHeader{
		Magic:      NetworkMagic,
		Version:    NetworkVersion,
		Layers:     depth,
		InputDim:   inputDim,
		Embeddings: uint64(n.Embeddings.Len()),
	}
	if err := binary.Write(cw, binary.LittleEndian, &hdr); err != nil {
		return err
	}

	for _, l := range n.Layers {
		in, err := conv.IntToUint32(l.In)
		if err != nil {
			return err
		}
		out, err := conv.IntToUint32(l.Out)
		if err != nil {
			return err
		}
		lh := layerHeader{In: in, Out: out, Activation: uint8(l.Activation)}
		if err := binary.Write(cw, binary.LittleEndian, &lh); err != nil {
			return err
		}
		if err := writeFloat32Slice(cw, l.W); err != nil {
			return err
		}
		if err := writeFloat32Slice(cw, l.B); err != nil {
			return err
		}
	}

	it := n.Embeddings.Keys().Iterator()
	for it.HasNext() {
		key := it.Next()
		e, _ := n.Embeddings.Get(key)
		off, err := conv.IntToUint32(e.Offset)
		if err != nil {
			return err
		}
		length, err := conv.IntToUint32(e.Length)
		if err != nil {
			return err
		}
		eh := embeddingHeader{Key: key, Offset: off, Length: length}
		if err := binary.Write(cw, binary.LittleEndian, &eh); err != nil {
			return err
		}
		if err := writeFloat32Slice(cw, e.Vector); err != nil {
			return err
		}
	}

	return binary.Write(w, binary.LittleEndian, cw.Sum())
}

// ReadNetwork decodes a network written by WriteNetwork and verifies its checksum.
func ReadNetwork(r io.Reader) (*network.Network, error) {
	cr := NewChecksumReader(r)

	var hdr NetworkHeader
	if err := binary.Read(cr, binary.LittleEndian, &hdr); err != nil {
		return nil, shortRead("header", err)
	}
	if hdr.Magic != NetworkMagic {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, hdr.Magic)
	}
	if hdr.Version != NetworkVersion {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, hdr.Version)
	}

	layers := make([]*network.Layer, 0, min(hdr.Layers, 64))
	for i := uint32(0); i < hdr.Layers; i++ {
		var lh layerHeader
		if err := binary.Read(cr, binary.LittleEndian, &lh); err != nil {
			return nil, shortRead("layer", err)
		}
		if uint64(lh.In)*uint64(lh.Out) > math.MaxInt32 {
			return nil, &IOError{Op: "read", Field: "layer", Err: fmt.Errorf("%w: layer %d is %dx%d", ErrCorrupt, i, lh.In, lh.Out)}
		}
		w, err := readFloat32s(cr, int(lh.In)*int(lh.Out))
		if err != nil {
			return nil, shortRead("weights", err)
		}
		b, err := readFloat32s(cr, int(lh.Out))
		if err != nil {
			return nil, shortRead("biases", err)
		}
		layers = append(layers, &network.Layer{
			In:         int(lh.In),
			Out:        int(lh.Out),
			W:          w,
			B:          b,
			Activation: network.Activation(lh.Activation),
		})
	}

	table := network.NewEmbeddingTable(int(hdr.InputDim))
	for i := uint64(0); i < hdr.Embeddings; i++ {
		var eh embeddingHeader
		if err := binary.Read(cr, binary.LittleEndian, &eh); err != nil {
			return nil, shortRead("embedding", err)
		}
		if eh.Length > hdr.InputDim {
			return nil, &IOError{Op: "read", Field: "embedding", Err: fmt.Errorf("%w: feature %d has %d values", ErrCorrupt, eh.Key, eh.Length)}
		}
		vec, err := readFloat32s(cr, int(eh.Length))
		if err != nil {
			return nil, shortRead("embedding", err)
		}
		if err := table.Set(eh.Key, network.Embedding{Offset: int(eh.Offset), Length: int(eh.Length), Vector: vec}); err != nil {
			return nil, &IOError{Op: "read", Field: "embedding", Err: fmt.Errorf("%w: %w", ErrCorrupt, err)}
		}
	}

	computed := cr.Sum()
	var stored uint32
	if err := binary.Read(r, binary.LittleEndian, &stored); err != nil {
		return nil, shortRead("checksum", err)
	}
	if err := verifyChecksum(stored, computed); err != nil {
		return nil, err
	}

	return network.New(table, layers...)
}

// SaveNetwork atomically writes n to path.
func SaveNetwork(path string, n *network.Network, optFns ...Option) error {
	o := applyOptions(optFns)

	af, err := createAtomic(o.FileSystem, path)
	if err != nil {
		return err
	}

	buf := bufio.NewWriterSize(af, o.BufferSize)
	if err := WriteNetwork(buf, n); err != nil {
		af.abort()
		return withPath(err, "write", path)
	}
	if err := buf.Flush(); err != nil {
		af.abort()
		return &IOError{Op: "write", Path: path, Field: "flush", Err: err}
	}
	return af.commit()
}

// LoadNetwork reads the network file at path.
func LoadNetwork(path string, optFns ...Option) (*network.Network, error) {
	o := applyOptions(optFns)

	if err := checkNotDir(o.FileSystem, "open", path); err != nil {
		return nil, err
	}
	f, err := o.FileSystem.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	n, err := ReadNetwork(bufio.NewReaderSize(f, o.BufferSize))
	if err != nil {
		return nil, withPath(err, "read", path)
	}
	return n, nil
}

// writeFloat32Slice writes vec as raw little-endian bytes.
func writeFloat32Slice(w io.Writer, vec []float32) error {
	if len(vec) == 0 {
		return nil
	}
	if nativeLayout {
		_, err := w.Write(float32Bytes(vec))
		return err
	}
	return binary.Write(w, binary.LittleEndian, vec)
}

// readFloat32Slice fills vec from raw little-endian bytes.
func readFloat32Slice(r io.Reader, vec []float32) error {
	if len(vec) == 0 {
		return nil
	}
	if nativeLayout {
		_, err := io.ReadFull(r, float32Bytes(vec))
		return err
	}
	return binary.Read(r, binary.LittleEndian, vec)
}

// withPath attaches path to err, wrapping it in an IOError if it is not one.
func withPath(err error, op, path string) error {
	var ioe *IOError
	if errors.As(err, &ioe) {
		ioe.Path = path
		return err
	}
	return &IOError{Op: op, Path: path, Err: err}
}

func shortRead(field string, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = ErrShortRead
	}
	return &IOError{Op: "read", Field: field, Err: err}
}
