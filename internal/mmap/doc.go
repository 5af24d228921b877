// Package mmap provides read-only memory-mapped file access.
//
// Weight files for large hashed feature spaces run to gigabytes. Loading
// them through a mapping lets the decoder walk the bytes sequentially
// without copying them through a userspace read buffer first.
//
//	m, err := mmap.Open("weights.bin")
//	if err != nil { ... }
//	defer m.Close()
//	_ = m.AdviseSequential()
//	r := m.Reader()
//
// Unix uses mmap(2)/madvise(2) via golang.org/x/sys/unix; Windows uses
// CreateFileMapping/MapViewOfFile via golang.org/x/sys/windows.
//
// Close is idempotent. Callers must not touch Bytes() after Close returns.
package mmap
