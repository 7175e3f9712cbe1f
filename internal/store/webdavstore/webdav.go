// Package webdavstore implements a storage backend over WebDAV.
package webdavstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"

	"github.com/discochess/hdfsutil/internal/store"
)

// Compile-time checks that Store implements the store interfaces.
var (
	_ store.Store   = (*Store)(nil)
	_ store.Renamer = (*Store)(nil)
)

// Store is a WebDAV storage backend.
type Store struct {
	client *gowebdav.Client
}

// Option configures a Store.
type Option func(*gowebdav.Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *gowebdav.Client) {
		c.SetTimeout(d)
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *gowebdav.Client) {
		c.SetHeader(key, value)
	}
}

// New connects to the WebDAV server at url.
func New(url, user, password string, opts ...Option) (*Store, error) {
	client := gowebdav.NewClient(url, user, password)
	for _, opt := range opts {
		opt(client)
	}
	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w: %w", url, store.ErrConnection, err)
	}
	return &Store{client: client}, nil
}

// List returns the children of dir sorted by name.
func (s *Store) List(ctx context.Context, dir string) ([]store.Entry, error) {
	if err := store.CheckContext(ctx); err != nil {
		return nil, err
	}
	dir = store.Clean(dir)

	info, err := s.client.Stat(dir)
	if err != nil {
		return nil, mapError("list", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("list %s: %w", dir, store.ErrNotDir)
	}

	infos, err := s.client.ReadDir(dir)
	if err != nil {
		return nil, mapError("list", dir, err)
	}

	entries := make([]store.Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, store.FromFileInfo(path.Join(dir, info.Name()), info))
	}
	slices.SortFunc(entries, func(a, b store.Entry) int {
		return strings.Compare(a.Name, b.Name)
	})
	return entries, nil
}

// Open streams a file.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := store.CheckContext(ctx); err != nil {
		return nil, err
	}
	name = store.Clean(name)

	r, err := s.client.ReadStream(name)
	if err != nil {
		return nil, mapError("open", name, err)
	}
	return r, nil
}

// Create returns a writer that streams the upload. The server's result is
// reported by Close.
func (s *Store) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := store.CheckContext(ctx); err != nil {
		return nil, err
	}
	name = store.Clean(name)

	if err := s.client.MkdirAll(path.Dir(name), 0o755); err != nil {
		return nil, mapError("create", name, err)
	}

	pr, pw := io.Pipe()
	w := &uploadWriter{pw: pw, done: make(chan error, 1), name: name}
	go func() {
		err := s.client.WriteStream(name, pr, 0o644)
		pr.CloseWithError(err)
		w.done <- err
	}()
	return w, nil
}

// Stat returns the entry for name.
func (s *Store) Stat(ctx context.Context, name string) (store.Entry, error) {
	if err := store.CheckContext(ctx); err != nil {
		return store.Entry{}, err
	}
	name = store.Clean(name)

	info, err := s.client.Stat(name)
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

	if err := s.client.MkdirAll(dir, 0o755); err != nil {
		return mapError("mkdir", dir, err)
	}
	return nil
}

// Remove deletes name. WebDAV DELETE is always recursive, so emptiness is
// checked first.
func (s *Store) Remove(ctx context.Context, name string, recursive bool) error {
	if err := store.CheckContext(ctx); err != nil {
		return err
	}
	name = store.Clean(name)

	info, err := s.client.Stat(name)
	if err != nil {
		return mapError("remove", name, err)
	}
	if info.IsDir() && !recursive {
		children, err := s.client.ReadDir(name)
		if err != nil {
			return mapError("remove", name, err)
		}
		if len(children) > 0 {
			return fmt.Errorf("remove %s: %w", name, store.ErrNotEmpty)
		}
	}
	if err := s.client.RemoveAll(name); err != nil {
		return mapError("remove", name, err)
	}
	return nil
}

// Rename moves a file, replacing any existing destination.
func (s *Store) Rename(ctx context.Context, oldName, newName string) error {
	if err := store.CheckContext(ctx); err != nil {
		return err
	}
	oldName, newName = store.Clean(oldName), store.Clean(newName)

	if err := s.client.MkdirAll(path.Dir(newName), 0o755); err != nil {
		return mapError("rename", newName, err)
	}
	if err := s.client.Rename(oldName, newName, true); err != nil {
		return mapError("rename", oldName, err)
	}
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// uploadWriter feeds a WriteStream running in its own goroutine.
type uploadWriter struct {
	pw     *io.PipeWriter
	done   chan error
	name   string
	closed bool
}

func (w *uploadWriter) Write(p []byte) (int, error) {
	n, err := w.pw.Write(p)
	if err != nil {
		return n, mapError("write", w.name, err)
	}
	return n, nil
}

func (w *uploadWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.pw.Close()
	if err := <-w.done; err != nil {
		return mapError("create", w.name, err)
	}
	return nil
}

// mapError translates WebDAV errors into store errors.
func mapError(op, name string, err error) error {
	var netErr net.Error
	switch {
	case gowebdav.IsErrNotFound(err):
		return fmt.Errorf("%s %s: %w", op, name, store.ErrNotFound)
	case errors.As(err, &netErr):
		return fmt.Errorf("%s %s: %w: %w", op, name, store.ErrConnection, err)
	default:
		return fmt.Errorf("%s %s: %w", op, name, err)
	}
}
