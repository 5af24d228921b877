package persistence

import (
	"bytes"
	"encoding/binary"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/hashmodel/internal/resource"
	"github.com/hupe1980/hashmodel/testutil"
	"github.com/hupe1980/hashmodel/weights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioStore(t *testing.T) *weights.Store {
	t.Helper()
	s := weights.NewStore()
	require.NoError(t, s.Set(42, weights.NewSparseVector(
		weights.Entry{Class: 3, Weight: 1.5},
		weights.Entry{Class: 7, Weight: -2.0},
	)))
	return s
}

func randomStore(t *testing.T, seed int64, keys, classes int) *weights.Store {
	t.Helper()
	return testutil.NewRNG(seed).Store(keys, classes)
}

func TestSaveLoad_Scenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.bin")

	require.NoError(t, SaveStore(path, 10, scenarioStore(t)))

	loaded, classCount, err := LoadStore(path)
	require.NoError(t, err)
	assert.Equal(t, 10, classCount)
	assert.Equal(t, 1, loaded.Len())

	v := loaded.Lookup(42)
	require.NotNil(t, v)
	assert.Equal(t, []weights.Entry{{Class: 3, Weight: 1.5}, {Class: 7, Weight: -2.0}}, v.Entries())
}

func TestSaveLoad_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.bin")

	require.NoError(t, SaveStore(path, 5, weights.NewStore()))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(classCountSize), fi.Size())

	loaded, classCount, err := LoadStore(path)
	require.NoError(t, err)
	assert.Equal(t, 5, classCount)
	assert.Equal(t, 0, loaded.Len())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := randomStore(t, 1, 500, 20)
	store.SetNil(12345)

	path := filepath.Join(dir, "weights.bin")
	require.NoError(t, SaveStore(path, 20, store))

	for name, load := range map[string]func(string, ...Option) (*weights.Store, int, error){
		"stream": LoadStore,
		"mapped": LoadStoreMapped,
	} {
		t.Run(name, func(t *testing.T) {
			loaded, classCount, err := load(path)
			require.NoError(t, err)
			assert.Equal(t, 20, classCount)
			assert.True(t, weights.Diff(store, loaded).Empty())
			assert.True(t, store.Keys().Equals(loaded.Keys()))

			_, ok := loaded.Get(12345)
			assert.False(t, ok, "nil vectors are not written")
			require.NoError(t, loaded.Validate())
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestLoad_SentinelIntegrity(t *testing.T) {
	data, err := EncodeStore(10, scenarioStore(t))
	require.NoError(t, err)

	loaded, _, err := DecodeStore(data)
	require.NoError(t, err)

	v := loaded.Lookup(42)
	require.NotNil(t, v)
	raw := v.Raw()
	require.Len(t, raw, 3)
	assert.GreaterOrEqual(t, raw[0].Class, int32(0))
	assert.GreaterOrEqual(t, raw[1].Class, int32(0))
	assert.Equal(t, weights.SentinelCapacity, raw[2].Class)
	assert.Equal(t, weights.SentinelCapacity, v.Sentinel())
	assert.Equal(t, 2, v.ScanLen())
	assert.Equal(t, 2, v.Len())
}

func TestSave_SortsEntries(t *testing.T) {
	store := weights.NewStore()
	require.NoError(t, store.Set(9, weights.NewSparseVector(
		weights.Entry{Class: 7, Weight: -2},
		weights.Entry{Class: 3, Weight: 1.5},
		weights.Entry{Class: 5, Weight: 0.25},
	)))

	data, err := EncodeStore(8, store)
	require.NoError(t, err)
	require.Len(t, data, classCountSize+keySize+lengthSize+3*entrySize)

	assert.Equal(t, uint32(8), binary.LittleEndian.Uint32(data))
	assert.Equal(t, uint64(9), binary.LittleEndian.Uint64(data[4:]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(data[12:]))

	var classes []int32
	for off := 16; off < len(data); off += entrySize {
		classes = append(classes, int32(binary.LittleEndian.Uint32(data[off:])))
	}
	assert.Equal(t, []int32{3, 5, 7}, classes)
	assert.True(t, store.Lookup(9).IsSorted(), "writer sorts the live vector")
}

func TestLoad_PathErrors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := LoadStore(dir)
	assert.ErrorIs(t, err, ErrIsDirectory)

	_, _, err = LoadStoreMapped(dir)
	assert.ErrorIs(t, err, ErrIsDirectory)

	_, _, err = LoadStore(filepath.Join(dir, "missing.bin"))
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, _, err = LoadStoreMapped(filepath.Join(dir, "missing.bin"))
	assert.ErrorIs(t, err, fs.ErrNotExist)

	assert.ErrorIs(t, SaveStore(dir, 3, weights.NewStore()), ErrIsDirectory)
}

func TestLoad_Truncated(t *testing.T) {
	data, err := EncodeStore(10, randomStore(t, 2, 3, 4))
	require.NoError(t, err)

	for _, cut := range []int{1, 3, 4 + 4, 4 + 8 + 2, len(data) - 1} {
		_, _, err := DecodeStore(data[:cut])
		assert.ErrorIs(t, err, ErrShortRead, "cut at %d", cut)

		var ioe *IOError
		assert.ErrorAs(t, err, &ioe)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.bin")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, _, err := LoadStore(path)
	assert.ErrorIs(t, err, ErrShortRead)

	_, _, err = LoadStoreMapped(path)
	assert.ErrorIs(t, err, ErrShortRead)
}

func TestLoad_CorruptRecords(t *testing.T) {
	header := binary.LittleEndian.AppendUint32(nil, 4)

	t.Run("negative class count", func(t *testing.T) {
		_, _, err := DecodeStore(binary.LittleEndian.AppendUint32(nil, 0xFFFFFFFF))
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("negative length", func(t *testing.T) {
		data := binary.LittleEndian.AppendUint64(bytes.Clone(header), 1)
		data = binary.LittleEndian.AppendUint32(data, 0xFFFFFFFF)
		_, _, err := DecodeStore(data)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("length beyond end", func(t *testing.T) {
		data := binary.LittleEndian.AppendUint64(bytes.Clone(header), 1)
		data = binary.LittleEndian.AppendUint32(data, 1<<30)
		_, _, err := DecodeStore(data)
		assert.ErrorIs(t, err, ErrShortRead)
	})

	t.Run("length beyond end of unsized stream", func(t *testing.T) {
		data := binary.LittleEndian.AppendUint64(bytes.Clone(header), 1)
		data = binary.LittleEndian.AppendUint32(data, 1<<30)
		data = binary.LittleEndian.AppendUint64(data, 0)

		rd, err := NewReader(io.MultiReader(bytes.NewReader(data)))
		require.NoError(t, err)
		_, _, err = rd.Next()
		assert.ErrorIs(t, err, ErrShortRead)
	})

	t.Run("class id beyond class count", func(t *testing.T) {
		data := binary.LittleEndian.AppendUint32(nil, 3)
		data = binary.LittleEndian.AppendUint64(data, 1)
		data = binary.LittleEndian.AppendUint32(data, 1)
		data = binary.LittleEndian.AppendUint32(data, 50)
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(1))

		_, _, err := DecodeStore(data)
		assert.ErrorIs(t, err, ErrCorrupt)
		assert.ErrorIs(t, err, weights.ErrClassOutOfRange)

		var ie *weights.InvariantError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, uint64(1), ie.Key)
		assert.Equal(t, 0, ie.Index)
	})

	t.Run("negative class id", func(t *testing.T) {
		data := binary.LittleEndian.AppendUint64(bytes.Clone(header), 77)
		data = binary.LittleEndian.AppendUint32(data, 2)
		data = binary.LittleEndian.AppendUint32(data, 1)
		data = binary.LittleEndian.AppendUint32(data, 0)
		data = binary.LittleEndian.AppendUint32(data, 0xFFFFFFFF)
		data = binary.LittleEndian.AppendUint32(data, 0)

		_, _, err := DecodeStore(data)
		assert.ErrorIs(t, err, ErrCorrupt)
		assert.ErrorIs(t, err, weights.ErrNegativeClass)

		var ie *weights.InvariantError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, uint64(77), ie.Key)
	})
}

func TestReader_UnsizedStreamLongVector(t *testing.T) {
	const classes = 3*entryChunk/2 + 7

	entries := make([]weights.Entry, classes)
	for i := range entries {
		entries[i] = weights.Entry{Class: int32(i), Weight: float32(i % 13)}
	}
	store := weights.NewStore()
	require.NoError(t, store.Set(5, weights.NewSparseVector(entries...)))

	data, err := EncodeStore(classes, store)
	require.NoError(t, err)

	rd, err := NewReader(io.MultiReader(bytes.NewReader(data)))
	require.NoError(t, err)
	key, v, err := rd.Next()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), key)
	assert.Equal(t, entries, v.Entries())
	assert.Equal(t, weights.SentinelCapacity, v.Sentinel())

	_, _, err = rd.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLoad_DuplicateKeyReplaces(t *testing.T) {
	var buf bytes.Buffer
	wr, err := NewWriter(&buf, 4)
	require.NoError(t, err)
	require.NoError(t, wr.WriteVector(1, weights.NewSparseVector(weights.Entry{Class: 0, Weight: 1})))
	require.NoError(t, wr.WriteVector(1, weights.NewSparseVector(weights.Entry{Class: 2, Weight: 3})))
	require.NoError(t, wr.Close())

	loaded, _, err := DecodeStore(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []weights.Entry{{Class: 2, Weight: 3}}, loaded.Lookup(1).Entries())
}

func TestLoad_MemoryBudget(t *testing.T) {
	store := randomStore(t, 3, 100, 8)
	path := filepath.Join(t.TempDir(), "weights.bin")
	require.NoError(t, SaveStore(path, 8, store))

	rc := resource.NewController(resource.Config{MemoryLimitBytes: store.Bytes() / 2})
	_, _, err := LoadStore(path, WithController(rc))
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	assert.Equal(t, int64(0), rc.MemoryUsage(), "failed loads release everything")

	rc = resource.NewController(resource.Config{MemoryLimitBytes: store.Bytes() * 2, IOLimitBytesPerSec: 1 << 30})
	loaded, _, err := LoadStore(path, WithController(rc))
	require.NoError(t, err)
	assert.Equal(t, loaded.Bytes(), rc.MemoryUsage())

	loaded.RemoveAll()
	assert.Equal(t, int64(0), rc.MemoryUsage())
}
