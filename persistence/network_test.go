package persistence

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/hupe1980/hashmodel/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNetwork(t *testing.T) *network.Network {
	t.Helper()
	n, err := network.Build([]int{6, 5, 3}, network.Tanh, 11)
	require.NoError(t, err)
	require.NoError(t, n.Embeddings.Set(100, network.Embedding{Offset: 0, Length: 3, Vector: []float32{1, 2, 3}}))
	require.NoError(t, n.Embeddings.Set(7, network.Embedding{Offset: 3, Length: 3, Vector: []float32{-1, 0.5, 0}}))
	n.Layers[1].B[2] = 0.75
	return n
}

func assertSameNetwork(t *testing.T, want, got *network.Network) {
	t.Helper()
	require.Equal(t, want.Depth(), got.Depth())
	assert.Equal(t, want.InputDim(), got.InputDim())
	for i := range want.Layers {
		assert.Equal(t, *want.Layers[i], *got.Layers[i], "layer %d", i)
	}
	assert.Equal(t, want.Embeddings.Keys().ToArray(), got.Embeddings.Keys().ToArray())
	want.Embeddings.Range(func(key uint64, e *network.Embedding) bool {
		ge, ok := got.Embeddings.Get(key)
		require.True(t, ok)
		assert.Equal(t, *e, *ge)
		return true
	})
}

func TestNetwork_RoundTrip(t *testing.T) {
	n := testNetwork(t)

	var buf bytes.Buffer
	require.NoError(t, WriteNetwork(&buf, n))

	got, err := ReadNetwork(&buf)
	require.NoError(t, err)
	assertSameNetwork(t, n, got)
}

func TestNetwork_SaveLoad(t *testing.T) {
	n := testNetwork(t)
	path := filepath.Join(t.TempDir(), "net.bin")

	require.NoError(t, SaveNetwork(path, n))
	got, err := LoadNetwork(path)
	require.NoError(t, err)
	assertSameNetwork(t, n, got)

	_, err = LoadNetwork(filepath.Dir(path))
	assert.ErrorIs(t, err, ErrIsDirectory)
}

func TestNetwork_Corruption(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNetwork(&buf, testNetwork(t)))
	data := buf.Bytes()

	t.Run("bit flip", func(t *testing.T) {
		c := bytes.Clone(data)
		c[40] ^= 0x01
		_, err := ReadNetwork(bytes.NewReader(c))
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("bad magic", func(t *testing.T) {
		c := bytes.Clone(data)
		c[0] ^= 0xFF
		_, err := ReadNetwork(bytes.NewReader(c))
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := ReadNetwork(bytes.NewReader(data[:len(data)-2]))
		assert.ErrorIs(t, err, ErrShortRead)
	})

	encodeHeader := func(t *testing.T, parts ...any) []byte {
		t.Helper()
		var b bytes.Buffer
		for _, p := range parts {
			require.NoError(t, binary.Write(&b, binary.LittleEndian, p))
		}
		return b.Bytes()
	}

	t.Run("oversized layer", func(t *testing.T) {
		c := encodeHeader(t,
			&NetworkHeader{Magic: NetworkMagic, Version: NetworkVersion, Layers: 1, InputDim: 1 << 15},
			&layerHeader{In: 1 << 15, Out: 1 << 15},
		)
		c = append(c, 1, 2, 3, 4)
		_, err := ReadNetwork(bytes.NewReader(c))
		assert.ErrorIs(t, err, ErrShortRead)
	})

	t.Run("oversized embedding", func(t *testing.T) {
		c := encodeHeader(t,
			&NetworkHeader{Magic: NetworkMagic, Version: NetworkVersion, InputDim: 0xFFFFFFFF, Embeddings: 1},
			&embeddingHeader{Key: 9, Length: 0xF0000000},
		)
		_, err := ReadNetwork(bytes.NewReader(c))
		assert.ErrorIs(t, err, ErrShortRead)
	})

	t.Run("path attached", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "net.bin")
		require.NoError(t, SaveNetwork(path, testNetwork(t)))
		_, err := LoadNetwork(path + ".missing")
		var ioe *IOError
		require.ErrorAs(t, err, &ioe)
		assert.Equal(t, path+".missing", ioe.Path)
	})
}
