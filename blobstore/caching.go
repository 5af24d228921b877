package blobstore

import (
	"context"
	"errors"
	"io"

	"github.com/hupe1980/hashmodel/internal/cache"
	"github.com/hupe1980/hashmodel/internal/resource"
	"golang.org/x/sync/errgroup"
)

const defaultBlockSize = 64 << 10

// CachingStore wraps a BlobStore and caches read blocks in memory.
// Writes pass through and invalidate the cached blocks of the written name.
type CachingStore struct {
	inner     BlobStore
	cache     *cache.LRU
	blockSize int64
}

// CachingOption configures a CachingStore.
type CachingOption func(*cachingOptions)

type cachingOptions struct {
	blockSize int64
	rc        *resource.Controller
}

// WithBlockSize sets the cache block size. Default: 64KiB.
func WithBlockSize(n int64) CachingOption {
	return func(o *cachingOptions) {
		o.blockSize = n
	}
}

// WithCacheController charges cached bytes against rc's memory budget.
func WithCacheController(rc *resource.Controller) CachingOption {
	return func(o *cachingOptions) {
		o.rc = rc
	}
}

// NewCachingStore creates a store caching at most capacity bytes of inner's blobs.
func NewCachingStore(inner BlobStore, capacity int64, optFns ...CachingOption) *CachingStore {
	o := cachingOptions{blockSize: defaultBlockSize}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.blockSize <= 0 {
		o.blockSize = defaultBlockSize
	}
	return &CachingStore{
		inner:     inner,
		cache:     cache.NewLRU(capacity, o.rc),
		blockSize: o.blockSize,
	}
}

// Stats returns cache hits and misses counted per block.
func (s *CachingStore) Stats() (hits, misses int64) {
	return s.cache.Stats()
}

// Close drops every cached block.
func (s *CachingStore) Close() error {
	s.cache.Clear()
	return nil
}

func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &cachingBlob{
		inner:     b,
		cache:     s.cache,
		name:      name,
		blockSize: s.blockSize,
	}, nil
}

func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	w, err := s.inner.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	return &invalidatingBlob{WritableBlob: w, cache: s.cache, name: name}, nil
}

func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	defer s.cache.Invalidate(name)
	return s.inner.Put(ctx, name, data)
}

func (s *CachingStore) Delete(ctx context.Context, name string) error {
	defer s.cache.Invalidate(name)
	return s.inner.Delete(ctx, name)
}

func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

type invalidatingBlob struct {
	WritableBlob
	cache *cache.LRU
	name  string
}

func (w *invalidatingBlob) Close() error {
	defer w.cache.Invalidate(w.name)
	return w.WritableBlob.Close()
}

func (w *invalidatingBlob) Abort(ctx context.Context) error {
	return Abort(ctx, w.WritableBlob)
}

// cachingBlob serves ReadAt from cached blocks, fetching missing runs of
// blocks from the inner blob in parallel.
type cachingBlob struct {
	inner     Blob
	cache     *cache.LRU
	name      string
	blockSize int64
}

func (b *cachingBlob) Close() error {
	return b.inner.Close()
}

func (b *cachingBlob) Size() int64 {
	return b.inner.Size()
}

func (b *cachingBlob) key(block int64) cache.Key {
	return cache.Key{Name: b.name, Size: b.inner.Size(), Block: block}
}

func (b *cachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	size := b.Size()
	if off >= size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	end := min(off+int64(len(p)), size)
	first := off / b.blockSize
	last := (end - 1) / b.blockSize

	blocks, err := b.blocks(ctx, first, last)
	if err != nil {
		return 0, err
	}

	n := 0
	for i, data := range blocks {
		start := (first + int64(i)) * b.blockSize
		lo := max(off, start) - start
		hi := min(end, start+int64(len(data))) - start
		if hi <= lo {
			break
		}
		n += copy(p[n:], data[lo:hi])
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *cachingBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	limit := min(off+length, b.Size())
	return io.NopCloser(&sectionReader{blob: b, ctx: ctx, off: off, limit: limit}), nil
}

// blocks returns blocks first..last, reading every contiguous run of
// missing blocks with a single request.
func (b *cachingBlob) blocks(ctx context.Context, first, last int64) ([][]byte, error) {
	out := make([][]byte, last-first+1)

	type run struct{ start, count int64 }
	var missing []run
	for blk := first; blk <= last; blk++ {
		if data, ok := b.cache.Get(b.key(blk)); ok {
			out[blk-first] = data
			continue
		}
		if n := len(missing); n > 0 && missing[n-1].start+missing[n-1].count == blk {
			missing[n-1].count++
		} else {
			missing = append(missing, run{start: blk, count: 1})
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(16)
	for _, r := range missing {
		g.Go(func() error {
			byteStart := r.start * b.blockSize
			byteLen := min(r.count*b.blockSize, b.Size()-byteStart)
			buf := make([]byte, byteLen)
			n, err := b.inner.ReadAt(ctx, buf, byteStart)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			if int64(n) < byteLen {
				return io.ErrUnexpectedEOF
			}
			for i := int64(0); i < r.count; i++ {
				lo := i * b.blockSize
				hi := min(lo+b.blockSize, byteLen)
				// Copy so one cached block does not pin the whole run.
				block := append([]byte(nil), buf[lo:hi]...)
				b.cache.Set(b.key(r.start+i), block)
				out[r.start+i-first] = block
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

type sectionReader struct {
	blob  *cachingBlob
	ctx   context.Context
	off   int64
	limit int64
}

func (r *sectionReader) Read(p []byte) (int, error) {
	if r.off >= r.limit {
		return 0, io.EOF
	}
	if remaining := r.limit - r.off; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := r.blob.ReadAt(r.ctx, p, r.off)
	r.off += int64(n)
	if errors.Is(err, io.EOF) && n > 0 {
		err = nil
	}
	return n, err
}
