// Package diskstore implements a store rooted at a local directory.
package diskstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"syscall"

	"github.com/discochess/hdfsutil/internal/store"
)

// Compile-time checks that Store implements the store interfaces.
var (
	_ store.Store   = (*Store)(nil)
	_ store.Renamer = (*Store)(nil)
)

// Store maps remote paths onto a local directory tree.
// List returns children in lexical order.
type Store struct {
	root string
}

// New creates a new disk store rooted at the given directory.
// The directory must exist.
func New(root string) (*Store, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	return &Store{root: root}, nil
}

// List returns the children of dir.
func (s *Store) List(ctx context.Context, dir string) ([]store.Entry, error) {
	if err := store.CheckContext(ctx); err != nil {
		return nil, err
	}
	dir = store.Clean(dir)

	dirEntries, err := os.ReadDir(s.localPath(dir))
	if err != nil {
		return nil, mapError("list", dir, err)
	}

	entries := make([]store.Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := de.Info()
		if err != nil {
			return nil, mapError("list", path.Join(dir, de.Name()), err)
		}
		entries = append(entries, store.FromFileInfo(path.Join(dir, de.Name()), info))
	}
	return entries, nil
}

// Open opens a file for reading.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := store.CheckContext(ctx); err != nil {
		return nil, err
	}
	name = store.Clean(name)

	local := s.localPath(name)
	if info, err := os.Stat(local); err == nil && info.IsDir() {
		return nil, fmt.Errorf("open %s: %w", name, store.ErrIsDir)
	}
	f, err := os.Open(local)
	if err != nil {
		return nil, mapError("open", name, err)
	}
	return f, nil
}

// Create creates or truncates a file, creating parent directories.
func (s *Store) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := store.CheckContext(ctx); err != nil {
		return nil, err
	}
	name = store.Clean(name)

	local := s.localPath(name)
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return nil, mapError("create", name, err)
	}
	f, err := os.Create(local)
	if err != nil {
		return nil, mapError("create", name, err)
	}
	return f, nil
}

// Stat returns the entry for name.
func (s *Store) Stat(ctx context.Context, name string) (store.Entry, error) {
	if err := store.CheckContext(ctx); err != nil {
		return store.Entry{}, err
	}
	name = store.Clean(name)

	info, err := os.Stat(s.localPath(name))
	if err != nil {
		return store.Entry{}, mapError("stat", name, err)
	}
	return store.FromFileInfo(name, info), nil
}

// Mkdir creates dir and its parents.
func (s *Store) Mkdir(ctx context.Context, dir string) error {
	if err := store.CheckContext(ctx); err != nil {
		return err
	}
	dir = store.Clean(dir)

	if err := os.MkdirAll(s.localPath(dir), 0o755); err != nil {
		return mapError("mkdir", dir, err)
	}
	return nil
}

// Remove deletes name.
func (s *Store) Remove(ctx context.Context, name string, recursive bool) error {
	if err := store.CheckContext(ctx); err != nil {
		return err
	}
	name = store.Clean(name)

	local := s.localPath(name)
	info, err := os.Lstat(local)
	if err != nil {
		return mapError("remove", name, err)
	}
	if info.IsDir() && !recursive {
		children, err := os.ReadDir(local)
		if err != nil {
			return mapError("remove", name, err)
		}
		if len(children) > 0 {
			return fmt.Errorf("remove %s: %w", name, store.ErrNotEmpty)
		}
	}
	if recursive {
		err = os.RemoveAll(local)
	} else {
		err = os.Remove(local)
	}
	if err != nil {
		return mapError("remove", name, err)
	}
	return nil
}

// Rename moves a file, creating the destination's parent directories.
func (s *Store) Rename(ctx context.Context, oldName, newName string) error {
	if err := store.CheckContext(ctx); err != nil {
		return err
	}
	oldName, newName = store.Clean(oldName), store.Clean(newName)

	dst := s.localPath(newName)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return mapError("rename", newName, err)
	}
	if err := os.Rename(s.localPath(oldName), dst); err != nil {
		return mapError("rename", oldName, err)
	}
	return nil
}

// Close releases any resources held by the store.
func (s *Store) Close() error {
	return nil
}

// localPath returns the filesystem path for a remote path.
func (s *Store) localPath(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(store.Clean(name)))
}

func mapError(op, name string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s %s: %w", op, name, store.ErrNotFound)
	case errors.Is(err, syscall.ENOTDIR):
		return fmt.Errorf("%s %s: %w", op, name, store.ErrNotDir)
	default:
		return fmt.Errorf("%s %s: %w", op, name, err)
	}
}
