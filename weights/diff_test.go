package weights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	left := NewStore()
	right := NewStore()

	require.NoError(t, left.Set(1, NewSparseVector(Entry{0, 1}, Entry{2, 2})))
	require.NoError(t, right.Set(1, NewSparseVector(Entry{2, 2}, Entry{0, 1})))

	require.NoError(t, left.Set(2, NewSparseVector(Entry{0, 1})))
	require.NoError(t, right.Set(2, NewSparseVector(Entry{0, 2})))

	require.NoError(t, left.Set(3, NewSparseVector(Entry{0, 1})))
	require.NoError(t, right.Set(4, NewSparseVector(Entry{0, 1})))

	// nil payloads are invisible to comparison.
	left.SetNil(5)

	d := Diff(left, right)
	assert.False(t, d.Empty())
	assert.Equal(t, []uint64{3}, d.OnlyLeft.ToArray())
	assert.Equal(t, []uint64{4}, d.OnlyRight.ToArray())
	assert.Equal(t, []uint64{2}, d.Changed.ToArray())
}

func TestEquivalent(t *testing.T) {
	left := NewStore()
	right := NewStore()
	assert.True(t, Equivalent(left, right))

	require.NoError(t, left.Set(42, NewSparseVector(Entry{7, -2}, Entry{3, 1.5})))
	require.NoError(t, right.Set(42, NewSparseVector(Entry{3, 1.5}, Entry{7, -2})))
	assert.True(t, Equivalent(left, right))

	require.NoError(t, right.Set(43, NewSparseVector()))
	assert.False(t, Equivalent(left, right))
}
