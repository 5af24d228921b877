package persistence

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	ifs "github.com/hupe1980/hashmodel/internal/fs"
)

var tmpSeq atomic.Uint64

// atomicFile is a temporary file that replaces its target on commit.
type atomicFile struct {
	fsys    ifs.FileSystem
	path    string
	tmpPath string
	file    ifs.File
	done    bool
}

// checkNotDir returns ErrIsDirectory when path names a directory.
// A missing path is fine.
func checkNotDir(fsys ifs.FileSystem, op, path string) error {
	fi, err := fsys.Stat(path)
	switch {
	case err == nil && fi.IsDir():
		return &IOError{Op: op, Path: path, Err: ErrIsDirectory}
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return &IOError{Op: op, Path: path, Err: err}
	}
	return nil
}

// createAtomic opens a temporary file next to path.
func createAtomic(fsys ifs.FileSystem, path string) (*atomicFile, error) {
	if err := checkNotDir(fsys, "create", path); err != nil {
		return nil, err
	}

	tmpPath := fmt.Sprintf("%s.tmp-%d-%d", path, os.Getpid(), tmpSeq.Add(1))
	f, err := fsys.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, &IOError{Op: "create", Path: path, Err: err}
	}

	return &atomicFile{fsys: fsys, path: path, tmpPath: tmpPath, file: f}, nil
}

func (a *atomicFile) Write(p []byte) (int, error) {
	return a.file.Write(p)
}

var _ io.Writer = (*atomicFile)(nil)

// commit syncs and closes the temporary file and renames it over the target.
func (a *atomicFile) commit() error {
	if a.done {
		return nil
	}
	a.done = true

	if err := a.file.Sync(); err != nil {
		_ = a.file.Close()
		_ = a.fsys.Remove(a.tmpPath)
		return &IOError{Op: "sync", Path: a.path, Err: err}
	}
	if err := a.file.Close(); err != nil {
		_ = a.fsys.Remove(a.tmpPath)
		return &IOError{Op: "close", Path: a.path, Err: fmt.Errorf("%w: %w", ErrCloseFailed, err)}
	}
	if err := a.fsys.Rename(a.tmpPath, a.path); err != nil {
		_ = a.fsys.Remove(a.tmpPath)
		return &IOError{Op: "rename", Path: a.path, Err: err}
	}

	// Best-effort: fsync the directory so the rename is durable on POSIX.
	if d, err := a.fsys.OpenFile(filepath.Dir(a.path), os.O_RDONLY, 0); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

// abort discards the temporary file.
func (a *atomicFile) abort() {
	if a.done {
		return
	}
	a.done = true
	_ = a.file.Close()
	_ = a.fsys.Remove(a.tmpPath)
}
