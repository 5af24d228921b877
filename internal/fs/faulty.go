package fs

import (
	"errors"
	"io"
	"os"
	"strings"
	"sync"
)

// ErrInjected is the default error returned by injected faults.
var ErrInjected = errors.New("injected fault error")

// Fault defines specific failure behavior for files whose name matches a rule.
// Byte thresholds are counted per opened file; a negative value disables the check.
type Fault struct {
	FailAfterBytes  int64 // Writes past this many bytes fail with Err.
	ShortWriteAfter int64 // Writes past this many bytes report a partial count and a nil error.
	ShortReadAfter  int64 // Reads past this many bytes return fewer bytes and then io.EOF.
	FailOnSync      bool
	FailOnClose     bool
	Err             error
}

// NoFault returns a Fault with every threshold disabled.
func NoFault() Fault {
	return Fault{FailAfterBytes: -1, ShortWriteAfter: -1, ShortReadAfter: -1}
}

// FaultyFS is a FileSystem wrapper that can inject errors.
type FaultyFS struct {
	FS    FileSystem
	mu    sync.Mutex
	rules map[string]Fault // Filename pattern -> Fault
}

// NewFaultyFS creates a new FaultyFS wrapping the provided FS (or Default if nil).
func NewFaultyFS(fsys FileSystem) *FaultyFS {
	return &FaultyFS{
		FS:    OrDefault(fsys),
		rules: make(map[string]Fault),
	}
}

// AddRule adds a fault injection rule for files whose name contains pattern.
// Unset thresholds (zero) are treated literally, so start from NoFault() when
// only one behavior should be injected.
func (f *FaultyFS) AddRule(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[pattern] = fault
}

func (f *FaultyFS) match(name string) (Fault, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for pattern, rule := range f.rules {
		if strings.Contains(name, pattern) {
			if rule.Err == nil {
				rule.Err = ErrInjected
			}
			return rule, true
		}
	}
	return Fault{}, false
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	file, err := f.FS.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	fault, ok := f.match(name)
	if !ok {
		return file, nil
	}
	return &faultyFile{File: file, fault: fault}, nil
}

func (f *FaultyFS) Remove(name string) error             { return f.FS.Remove(name) }
func (f *FaultyFS) Rename(oldpath, newpath string) error { return f.FS.Rename(oldpath, newpath) }
func (f *FaultyFS) Stat(name string) (os.FileInfo, error) {
	return f.FS.Stat(name)
}
func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error {
	return f.FS.MkdirAll(path, perm)
}

type faultyFile struct {
	File
	fault   Fault
	written int64
	read    int64
}

func (ff *faultyFile) Write(p []byte) (int, error) {
	if ff.fault.FailAfterBytes >= 0 && ff.written+int64(len(p)) > ff.fault.FailAfterBytes {
		return 0, ff.fault.Err
	}
	if ff.fault.ShortWriteAfter >= 0 && ff.written+int64(len(p)) > ff.fault.ShortWriteAfter {
		allowed := ff.fault.ShortWriteAfter - ff.written
		if allowed < 0 {
			allowed = 0
		}
		n, err := ff.File.Write(p[:allowed])
		ff.written += int64(n)
		return n, err
	}
	n, err := ff.File.Write(p)
	ff.written += int64(n)
	return n, err
}

func (ff *faultyFile) Read(p []byte) (int, error) {
	if ff.fault.ShortReadAfter >= 0 && ff.read+int64(len(p)) > ff.fault.ShortReadAfter {
		allowed := ff.fault.ShortReadAfter - ff.read
		if allowed <= 0 {
			return 0, io.EOF
		}
		p = p[:allowed]
	}
	n, err := ff.File.Read(p)
	ff.read += int64(n)
	return n, err
}

func (ff *faultyFile) Sync() error {
	if ff.fault.FailOnSync {
		return ff.fault.Err
	}
	return ff.File.Sync()
}

func (ff *faultyFile) Close() error {
	if ff.fault.FailOnClose {
		_ = ff.File.Close()
		return ff.fault.Err
	}
	return ff.File.Close()
}
