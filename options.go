package hashmodel

import (
	"log/slog"

	"github.com/hupe1980/hashmodel/internal/fs"
	"github.com/hupe1980/hashmodel/internal/resource"
	"github.com/hupe1980/hashmodel/network"
	"github.com/hupe1980/hashmodel/persistence"
	"github.com/hupe1980/hashmodel/weights"
)

// ResourceConfig holds the limits of a ResourceController.
type ResourceConfig = resource.Config

// ResourceController enforces memory, I/O and concurrency limits. One
// controller may be shared by several models.
type ResourceController = resource.Controller

// NewResourceController creates a controller for cfg.
func NewResourceController(cfg ResourceConfig) *ResourceController {
	return resource.NewController(cfg)
}

// Compression selects how published archives are compressed.
type Compression = persistence.Compression

const (
	CompressionNone = persistence.CompressionNone
	CompressionLZ4  = persistence.CompressionLZ4
	CompressionZstd = persistence.CompressionZstd
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	controller       *resource.Controller
	fileSystem       fs.FileSystem
	compression      Compression
	activation       network.Activation
	workers          int
	learningRate     float32
	mapped           bool
}

// Option configures model constructors and loaders.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example:
//
//	metrics := &hashmodel.BasicMetricsCollector{}
//	m, _ := hashmodel.New(10, hashmodel.WithMetricsCollector(metrics))
//	// ... use m ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
//
// Example:
//
//	logger := hashmodel.NewJSONLogger(slog.LevelInfo)
//	m, _ := hashmodel.New(10, hashmodel.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithResourceController shares rc with the model. Weight memory is
// charged against it, file I/O is rate limited by it and batch scoring
// uses its worker slots.
func WithResourceController(rc *ResourceController) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// WithFileSystem overrides the file system used by Save and Load.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fileSystem = fsys
	}
}

// WithArchiveCompression sets the compression used by Publish.
// Default: CompressionZstd.
func WithArchiveCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithActivation sets the hidden-layer activation of networks built by
// NewNetworkModel. Default: ReLU.
func WithActivation(a network.Activation) Option {
	return func(o *options) {
		o.activation = a
	}
}

// WithWorkers sets how many examples ScoreBatch scores concurrently.
// It is ignored when a resource controller is configured.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithLearningRate sets the update step of Train and TrainStep.
// Default: 1 for linear models, 0.1 for networks.
func WithLearningRate(rate float32) Option {
	return func(o *options) {
		o.learningRate = rate
	}
}

// WithMappedLoad makes Load decode the weight file from a read-only
// memory mapping instead of a buffered stream.
func WithMappedLoad() Option {
	return func(o *options) {
		o.mapped = true
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		compression:      CompressionZstd,
		activation:       network.ReLU,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.controller == nil && o.workers > 0 {
		o.controller = resource.NewController(resource.Config{
			MaxBackgroundWorkers: int64(o.workers),
		})
	}
	return o
}

func (o *options) persistenceOptions(extra ...persistence.Option) []persistence.Option {
	optFns := []persistence.Option{
		persistence.WithController(o.controller),
		persistence.WithFileSystem(o.fileSystem),
	}
	return append(optFns, extra...)
}

func (o *options) newStore() *weights.Store {
	return weights.NewStore(weights.WithController(o.controller))
}
