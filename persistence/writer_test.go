package persistence

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	ifs "github.com/hupe1980/hashmodel/internal/fs"
	"github.com/hupe1980/hashmodel/weights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Stream(t *testing.T) {
	var buf bytes.Buffer
	wr, err := NewWriter(&buf, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, wr.ClassCount())

	require.NoError(t, wr.WriteVector(1, weights.NewSparseVector(weights.Entry{Class: 2, Weight: 1})))
	require.NoError(t, wr.WriteVector(2, nil))
	require.NoError(t, wr.Close())
	assert.Equal(t, 1, wr.Records())

	rd, err := NewReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, 3, rd.ClassCount())

	key, v, err := rd.Next()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), key)
	assert.Equal(t, []weights.Entry{{Class: 2, Weight: 1}}, v.Entries())

	_, _, err = rd.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 1, rd.Records())

	assert.ErrorIs(t, wr.WriteVector(3, weights.NewSparseVector()), ErrClosed)
}

func TestWriter_RejectsBrokenVector(t *testing.T) {
	var buf bytes.Buffer
	wr, err := NewWriter(&buf, 3)
	require.NoError(t, err)

	broken := weights.NewSparseVector(weights.Entry{Class: 1}, weights.Entry{Class: -7}, weights.Entry{Class: 2})
	err = wr.WriteVector(5, broken)
	assert.ErrorIs(t, err, weights.ErrNegativeClass)

	var ie *weights.InvariantError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, uint64(5), ie.Key)
	assert.Equal(t, 1, ie.Index)

	// Errors are sticky.
	assert.ErrorIs(t, wr.WriteVector(6, weights.NewSparseVector()), weights.ErrNegativeClass)
	assert.ErrorIs(t, wr.Close(), weights.ErrNegativeClass)
}

func TestWriter_RejectsClassBeyondCount(t *testing.T) {
	var buf bytes.Buffer
	wr, err := NewWriter(&buf, 3)
	require.NoError(t, err)

	require.NoError(t, wr.WriteVector(1, weights.NewSparseVector(weights.Entry{Class: 2, Weight: 1})))
	err = wr.WriteVector(4, weights.NewSparseVector(weights.Entry{Class: 0, Weight: 1}, weights.Entry{Class: 50, Weight: 1}))
	assert.ErrorIs(t, err, weights.ErrClassOutOfRange)

	var ie *weights.InvariantError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, uint64(4), ie.Key)
	assert.Equal(t, 1, ie.Index)
	assert.Equal(t, 1, wr.Records())

	store := weights.NewStore()
	require.NoError(t, store.Set(1, weights.NewSparseVector(weights.Entry{Class: 50, Weight: 1})))
	_, err = EncodeStore(3, store)
	assert.ErrorIs(t, err, weights.ErrClassOutOfRange)
}

func TestWriter_NegativeClassCount(t *testing.T) {
	_, err := NewWriter(&bytes.Buffer{}, -1)
	assert.Error(t, err)
}

func TestWriter_EmptyVector(t *testing.T) {
	store := weights.NewStore()
	require.NoError(t, store.Set(8, weights.NewSparseVector()))

	data, err := EncodeStore(2, store)
	require.NoError(t, err)

	loaded, _, err := DecodeStore(data)
	require.NoError(t, err)
	v, ok := loaded.Get(8)
	require.True(t, ok)
	require.NotNil(t, v, "an empty vector is distinct from an absent key")
	assert.Equal(t, 0, v.Len())
}

func TestCreate_Faults(t *testing.T) {
	store := randomStore(t, 4, 50, 6)
	original := scenarioStore(t)

	tests := []struct {
		name  string
		fault func() ifs.Fault
		want  error
	}{
		{
			name: "short write",
			fault: func() ifs.Fault {
				f := ifs.NoFault()
				f.ShortWriteAfter = 10
				return f
			},
			want: ErrShortWrite,
		},
		{
			name: "write error",
			fault: func() ifs.Fault {
				f := ifs.NoFault()
				f.FailAfterBytes = 10
				return f
			},
			want: ifs.ErrInjected,
		},
		{
			name: "sync failure",
			fault: func() ifs.Fault {
				f := ifs.NoFault()
				f.FailOnSync = true
				return f
			},
			want: ifs.ErrInjected,
		},
		{
			name: "close failure",
			fault: func() ifs.Fault {
				f := ifs.NoFault()
				f.FailOnClose = true
				return f
			},
			want: ErrCloseFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "weights.bin")
			require.NoError(t, SaveStore(path, 10, original))

			ffs := ifs.NewFaultyFS(nil)
			ffs.AddRule("weights.bin.tmp", tt.fault())

			err := SaveStore(path, 6, store, WithFileSystem(ffs))
			require.ErrorIs(t, err, tt.want)

			var ioe *IOError
			assert.ErrorAs(t, err, &ioe)
			assert.Equal(t, path, ioe.Path)

			loaded, classCount, err := LoadStore(path)
			require.NoError(t, err)
			assert.Equal(t, 10, classCount, "failed save leaves the previous file")
			assert.True(t, weights.Equivalent(original, loaded))

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

func TestOpen_ShortRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.bin")
	require.NoError(t, SaveStore(path, 4, randomStore(t, 5, 20, 4)))

	ffs := ifs.NewFaultyFS(nil)
	f := ifs.NoFault()
	f.ShortReadAfter = 30
	ffs.AddRule("weights.bin", f)

	_, _, err := LoadStore(path, WithFileSystem(ffs))
	assert.ErrorIs(t, err, ErrShortRead)
}

func TestCreate_Abort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weights.bin")

	wr, err := Create(path, 2)
	require.NoError(t, err)
	require.NoError(t, wr.WriteVector(1, weights.NewSparseVector(weights.Entry{Class: 0, Weight: 1})))
	wr.Abort()

	assert.ErrorIs(t, wr.Close(), ErrClosed)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
