package cache

import (
	"testing"

	"github.com/hupe1980/hashmodel/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_GetSet(t *testing.T) {
	c := NewLRU(100, nil)
	k := Key{Name: "a", Size: 10, Block: 0}

	_, ok := c.Get(k)
	assert.False(t, ok)

	c.Set(k, []byte("hello"))
	v, ok := c.Get(k)
	require.True(t, ok)
	assert.Equal(t, "hello", string(v))

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU(20, nil)
	a := Key{Name: "x", Block: 0}
	b := Key{Name: "x", Block: 1}
	d := Key{Name: "x", Block: 2}

	c.Set(a, make([]byte, 10))
	c.Set(b, make([]byte, 10))
	_, _ = c.Get(a) // a is now most recent
	c.Set(d, make([]byte, 10))

	_, ok := c.Get(b)
	assert.False(t, ok, "least recently used block is evicted")
	_, ok = c.Get(a)
	assert.True(t, ok)
	assert.Equal(t, int64(20), c.Size())
}

func TestLRU_TooLarge(t *testing.T) {
	c := NewLRU(8, nil)
	c.Set(Key{Name: "big"}, make([]byte, 9))
	assert.Zero(t, c.Size())
}

func TestLRU_Replace(t *testing.T) {
	c := NewLRU(100, nil)
	k := Key{Name: "a"}
	c.Set(k, make([]byte, 10))
	c.Set(k, make([]byte, 4))
	assert.Equal(t, int64(4), c.Size())
}

func TestLRU_Controller(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 10})
	c := NewLRU(50, rc)

	c.Set(Key{Name: "a"}, make([]byte, 8))
	assert.Equal(t, int64(8), rc.MemoryUsage())

	// Does not fit the global budget: not cached.
	c.Set(Key{Name: "b"}, make([]byte, 4))
	_, ok := c.Get(Key{Name: "b"})
	assert.False(t, ok)

	c.Invalidate("a")
	assert.Zero(t, rc.MemoryUsage())
	assert.Zero(t, c.Size())

	c.Set(Key{Name: "c", Block: 0}, make([]byte, 3))
	c.Set(Key{Name: "c", Block: 1}, make([]byte, 3))
	c.Clear()
	assert.Zero(t, rc.MemoryUsage())
}
