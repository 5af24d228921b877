// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	if err != nil { ... }
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "models/")
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - Multipart streaming uploads with CRC32C integrity checks
//   - Conditional writes (PutIfAbsent) for immutable model versions
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
