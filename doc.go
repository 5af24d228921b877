// Package hashmodel provides sparse hashed-feature classifiers for Go.
//
// A model maps hashed feature keys to per-class weights and scores an
// example by summing the weighted contributions of its features. Two model
// kinds are available: a sparse linear model backed by a weights.Store,
// and a small dense network that embeds features and runs them through a
// stack of fully connected layers.
//
// # Quick Start
//
//	m, _ := hashmodel.New(10)
//	ex := &hashmodel.Example{
//	    Features: []feature.Feature{
//	        feature.Indicator("word", "hello"),
//	        feature.Hashed("len", "short", 0.5),
//	    },
//	}
//	_, _ = m.Train(ctx, ex, 3)
//	class, _ := m.Predict(ctx, ex)
//
// # Persistence
//
// Linear models are saved in a compact little-endian weight file. Saves are
// atomic: the file is written to a temporary sibling, synced and renamed.
//
//	_ = m.Save(ctx, "model.bin")
//	m2, _ := hashmodel.Load(ctx, "model.bin")
//
// Models can also be published to any blobstore.BlobStore (local directory,
// memory, S3, MinIO) as a checksummed and optionally compressed archive:
//
//	_ = m.Publish(ctx, store, "ranker/v3.hwa")
//	m3, _ := hashmodel.Fetch(ctx, store, "ranker/v3.hwa")
//
// # Resource Limits
//
// A shared controller can cap the memory held by weight vectors, the
// save/load throughput and the number of examples scored concurrently:
//
//	rc := hashmodel.NewResourceController(hashmodel.ResourceConfig{
//	    MemoryLimitBytes:     512 << 20,
//	    MaxBackgroundWorkers: 8,
//	})
//	m, _ := hashmodel.New(10, hashmodel.WithResourceController(rc))
//
// # Observability
//
// Structured logging uses log/slog through Logger; operational counters are
// reported to a MetricsCollector. Both default to no-ops.
package hashmodel
