package persistence

import (
	"context"

	"github.com/hupe1980/hashmodel/internal/fs"
	"github.com/hupe1980/hashmodel/internal/resource"
	"github.com/hupe1980/hashmodel/weights"
)

// Options configures file-based reads and writes.
type Options struct {
	// FileSystem is used for every file operation. Defaults to the local file system.
	FileSystem fs.FileSystem

	// Controller throttles file I/O and budgets the memory of loaded stores.
	Controller *resource.Controller

	// Context bounds rate-limited I/O waits. Defaults to context.Background().
	Context context.Context

	// StoreOptions are applied to stores created by the load functions.
	StoreOptions []weights.StoreOption

	// BufferSize is the size of the buffered reader or writer. Defaults to 256KiB.
	BufferSize int
}

// Option configures Options.
type Option func(*Options)

// WithFileSystem sets the file system.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *Options) {
		o.FileSystem = fsys
	}
}

// WithController sets the resource controller.
func WithController(rc *resource.Controller) Option {
	return func(o *Options) {
		o.Controller = rc
	}
}

// WithContext sets the context used while waiting on the I/O rate limiter.
func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		o.Context = ctx
	}
}

// WithStoreOptions adds options for loaded stores.
func WithStoreOptions(optFns ...weights.StoreOption) Option {
	return func(o *Options) {
		o.StoreOptions = append(o.StoreOptions, optFns...)
	}
}

// WithBufferSize sets the I/O buffer size.
func WithBufferSize(n int) Option {
	return func(o *Options) {
		o.BufferSize = n
	}
}

func applyOptions(optFns []Option) Options {
	o := Options{}
	for _, fn := range optFns {
		fn(&o)
	}
	o.FileSystem = fs.OrDefault(o.FileSystem)
	if o.Context == nil {
		o.Context = context.Background()
	}
	if o.BufferSize <= 0 {
		o.BufferSize = defaultBufferSize
	}
	return o
}

func (o *Options) newStore() *weights.Store {
	optFns := append([]weights.StoreOption{weights.WithController(o.Controller)}, o.StoreOptions...)
	return weights.NewStore(optFns...)
}
