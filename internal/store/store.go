// Package store defines the remote filesystem capabilities used by the
// archiver and the transcoder, and the full Store implemented by backends.
package store

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"path"
	"time"
)

var (
	// ErrNotFound is returned when a path does not exist.
	ErrNotFound = errors.New("store: path not found")

	// ErrConnection is returned when the backend cannot be reached.
	ErrConnection = errors.New("store: connection failure")

	// ErrNotDir is returned when listing a path that is not a directory.
	ErrNotDir = errors.New("store: not a directory")

	// ErrIsDir is returned when opening or creating a directory as a file.
	ErrIsDir = errors.New("store: is a directory")

	// ErrNotEmpty is returned when removing a non-empty directory without recursion.
	ErrNotEmpty = errors.New("store: directory not empty")
)

// Entry describes a node on the remote filesystem.
type Entry struct {
	// Path is the full slash-separated path of the node.
	Path    string
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Lister lists the immediate children of a directory.
type Lister interface {
	// List returns the children of dir in backend order.
	List(ctx context.Context, dir string) ([]Entry, error)
}

// Opener opens files for reading.
type Opener interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Creator opens files for writing, creating or truncating them.
// Parent directories are created as needed.
type Creator interface {
	Create(ctx context.Context, name string) (io.WriteCloser, error)
}

// Renamer is implemented by stores that can move a file.
type Renamer interface {
	Rename(ctx context.Context, oldName, newName string) error
}

// Store defines the interface for remote filesystem backends.
type Store interface {
	Lister
	Opener
	Creator

	// Stat returns the entry for name.
	Stat(ctx context.Context, name string) (Entry, error)

	// Mkdir creates dir and any missing parents.
	Mkdir(ctx context.Context, dir string) error

	// Remove deletes name. Directories with children require recursive.
	Remove(ctx context.Context, name string, recursive bool) error

	// Close releases any resources held by the store.
	Close() error
}

// Clean returns the canonical absolute form of a remote path.
func Clean(name string) string {
	return path.Clean("/" + name)
}

// FromFileInfo builds the entry for a node at the cleaned path name.
// Directories report a zero size.
func FromFileInfo(name string, info fs.FileInfo) Entry {
	e := Entry{
		Path:    name,
		Name:    path.Base(name),
		IsDir:   info.IsDir(),
		ModTime: info.ModTime(),
	}
	if !e.IsDir {
		e.Size = info.Size()
	}
	return e
}

// ReadFile reads the whole content of name.
func ReadFile(ctx context.Context, o Opener, name string) ([]byte, error) {
	r, err := o.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// WriteFile creates name with the given content.
func WriteFile(ctx context.Context, c Creator, name string, data []byte) error {
	w, err := c.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// CheckContext returns ctx.Err() if ctx is done. Backends call it before
// starting I/O.
func CheckContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
