package batch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Target is an archive being written. Bytes only become visible at
// Location after Commit; Abort discards them.
type Target interface {
	io.Writer
	Location() string
	Commit() error
	Abort() error
}

// Destination selects where an archive is written. Create returns
// ErrCancelled when the caller declines to choose a location.
type Destination interface {
	Create() (Target, error)
}

// ConfirmFunc asks whether an existing file may be replaced.
type ConfirmFunc func(path string) bool

// FileDestination writes the archive to Path. An empty Path counts as a
// cancelled selection. When Path exists and Confirm is set, a false answer
// cancels.
type FileDestination struct {
	Path    string
	Confirm ConfirmFunc
	Perm    os.FileMode
}

// Create opens a temporary file next to Path.
func (d FileDestination) Create() (Target, error) {
	path := strings.TrimSpace(d.Path)
	if path == "" {
		return nil, ErrCancelled
	}

	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return nil, fmt.Errorf("destination %s is a directory", path)
		}
		if d.Confirm != nil && !d.Confirm(path) {
			return nil, ErrCancelled
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat destination: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create destination directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".qrforge-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create archive file: %w", err)
	}

	perm := d.Perm
	if perm == 0 {
		perm = 0o644
	}
	return &fileTarget{
		f:    tmp,
		bw:   bufio.NewWriterSize(tmp, 64*1024),
		dest: path,
		perm: perm,
	}, nil
}

// DirDestination writes the archive as Name inside Dir. Name must be a
// plain file name.
type DirDestination struct {
	Dir  string
	Name string
}

// Create validates Name and delegates to FileDestination.
func (d DirDestination) Create() (Target, error) {
	if d.Name == "" || d.Name != filepath.Base(d.Name) || d.Name == "." || d.Name == ".." {
		return nil, fmt.Errorf("invalid archive name %q", d.Name)
	}
	return FileDestination{Path: filepath.Join(d.Dir, d.Name)}.Create()
}

// fileTarget buffers into a temp file and renames it into place on Commit.
type fileTarget struct {
	f    *os.File
	bw   *bufio.Writer
	dest string
	perm os.FileMode
	done bool
}

func (t *fileTarget) Write(p []byte) (int, error) {
	return t.bw.Write(p)
}

func (t *fileTarget) Location() string { return t.dest }

// Commit flushes, fsyncs and atomically moves the temp file to its final path.
func (t *fileTarget) Commit() error {
	if t.done {
		return errors.New("archive target already closed")
	}
	t.done = true
	tmpPath := t.f.Name()

	if err := t.bw.Flush(); err != nil {
		t.discard()
		return fmt.Errorf("flush archive: %w", err)
	}
	if err := t.f.Sync(); err != nil {
		t.discard()
		return fmt.Errorf("sync archive: %w", err)
	}
	if err := t.f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close archive: %w", err)
	}
	_ = os.Chmod(tmpPath, t.perm)
	if err := os.Rename(tmpPath, t.dest); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("move archive into place: %w", err)
	}
	_ = syncDir(filepath.Dir(t.dest))
	return nil
}

// Abort removes the temp file. It is safe to call after Commit.
func (t *fileTarget) Abort() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.discard()
}

func (t *fileTarget) discard() error {
	_ = t.f.Close()
	if err := os.Remove(t.f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// syncDir fsyncs a directory so the rename survives a crash. Best effort.
func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
