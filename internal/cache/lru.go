package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/hashmodel/internal/resource"
)

// LRU is a byte-bounded least-recently-used block cache.
// Returned slices must be treated as read-only.
type LRU struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[Key]*list.Element
	evictList *list.List
	rc        *resource.Controller

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	key   Key
	value []byte
}

// NewLRU creates a cache holding at most capacity bytes.
// If rc is non-nil, cached bytes are also charged against its memory budget.
func NewLRU(capacity int64, rc *resource.Controller) *LRU {
	return &LRU{
		capacity:  capacity,
		items:     make(map[Key]*list.Element),
		evictList: list.New(),
		rc:        rc,
	}
}

// Get returns a cached block.
func (c *LRU) Get(key Key) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*entry).value, true
	}
	c.misses.Add(1)
	return nil, false
}

// Set caches a block. Blocks larger than the capacity, and blocks the
// controller has no memory for, are dropped.
func (c *LRU) Set(key Key, b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.removeElement(ent)
	}

	n := int64(len(b))
	if n > c.capacity {
		return
	}

	// Evict locally first so freed bytes return to the controller.
	for c.size+n > c.capacity {
		back := c.evictList.Back()
		if back == nil {
			break
		}
		c.removeElement(back)
	}

	if err := c.rc.AcquireMemory(n); err != nil {
		return
	}

	c.items[key] = c.evictList.PushFront(&entry{key: key, value: b})
	c.size += n
}

// Invalidate removes every block of the named blob.
func (c *LRU) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stale []*list.Element
	for key, e := range c.items {
		if key.Name == name {
			stale = append(stale, e)
		}
	}
	for _, e := range stale {
		c.removeElement(e)
	}
}

// Clear drops every block and returns its memory to the controller.
func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for e := c.evictList.Back(); e != nil; e = c.evictList.Back() {
		c.removeElement(e)
	}
}

// Stats returns the hit and miss counts.
func (c *LRU) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Size returns the current size of the cache in bytes.
func (c *LRU) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *LRU) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	kv := e.Value.(*entry)
	delete(c.items, kv.key)
	n := int64(len(kv.value))
	c.size -= n
	c.rc.ReleaseMemory(n)
}
