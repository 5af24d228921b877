// Package persistence reads and writes weight stores and networks in compact
// binary formats.
//
// # Weight files
//
// A weight file is a class-count header followed by one record per feature:
//
//	[class_count int32]
//	repeat until EOF:
//	  [feature_key uint64][length int32]
//	  length × [class_id int32][weight float32]
//
// All fields are little-endian. The format carries no magic number and no
// checksum; EOF at a record boundary ends the stream, and any other short
// read is fatal. Records are written with their entries sorted by class id.
//
//	if err := persistence.SaveStore("model.bin", numClasses, store); err != nil { ... }
//	store, numClasses, err := persistence.LoadStore("model.bin")
//
// Writes go to a temporary file in the target directory which is fsynced,
// closed and renamed over the target, so a failed save never leaves a
// truncated file behind.
//
// # Archives
//
// WriteArchive wraps an encoded weight file in a checksummed container with
// optional LZ4 or Zstandard compression for publishing to blob storage.
//
// # Network files
//
// SaveNetwork and LoadNetwork store layer matrices and embeddings behind a
// fixed 32-byte header with a CRC32C trailer.
//
// # Platform
//
// Bulk entry and float32 I/O reinterprets slices as bytes on little-endian
// hosts; other hosts fall back to field-by-field encoding.
package persistence
