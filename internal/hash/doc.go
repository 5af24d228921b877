// Package hash provides the CRC32-Castagnoli checksum used to protect
// published weight archives.
//
// Go's crc32 package uses SSE4.2 / ARM CRC instructions when available,
// so checksumming a multi-gigabyte weight file stays I/O bound.
//
//	h := hash.NewCRC32C()
//	h.Write(chunk)
//	sum := h.Sum32()
package hash
