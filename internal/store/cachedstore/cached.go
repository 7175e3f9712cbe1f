package cachedstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/discochess/hdfsutil/internal/store"
)

// DefaultMaxEntrySize is the largest file whose content is cached.
const DefaultMaxEntrySize = 16 << 20

// Compile-time checks that Store implements the store interfaces.
var (
	_ store.Store   = (*Store)(nil)
	_ store.Renamer = (*Store)(nil)
)

// Store wraps another Store and caches the content of files read through
// Open. Writes, removals and renames through the wrapper invalidate the
// affected paths; changes made behind its back are not observed.
type Store struct {
	underlying   store.Store
	backend      Backend
	maxEntrySize int64
}

// Option configures a Store.
type Option func(*Store)

// WithMaxEntrySize sets the largest file that is cached. Larger files are
// streamed from the underlying store on every Open.
func WithMaxEntrySize(n int64) Option {
	return func(s *Store) {
		s.maxEntrySize = n
	}
}

// New creates a new cached store wrapping the given store.
func New(underlying store.Store, backend Backend, opts ...Option) *Store {
	s := &Store{
		underlying:   underlying,
		backend:      backend,
		maxEntrySize: DefaultMaxEntrySize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open returns cached content when present. Otherwise it streams from the
// underlying store and caches the content once it has been read to EOF.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	name = store.Clean(name)
	if data, ok := s.backend.Get(name); ok {
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	r, err := s.underlying.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &fillingReader{rc: r, s: s, key: name}, nil
}

// List lists the underlying store.
func (s *Store) List(ctx context.Context, dir string) ([]store.Entry, error) {
	return s.underlying.List(ctx, dir)
}

// Stat stats the underlying store.
func (s *Store) Stat(ctx context.Context, name string) (store.Entry, error) {
	return s.underlying.Stat(ctx, name)
}

// Mkdir creates a directory in the underlying store.
func (s *Store) Mkdir(ctx context.Context, dir string) error {
	return s.underlying.Mkdir(ctx, dir)
}

// Create invalidates name and creates it in the underlying store. The entry
// is invalidated again when the writer is closed.
func (s *Store) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	name = store.Clean(name)
	s.backend.Invalidate(name)

	w, err := s.underlying.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	return &invalidatingWriter{WriteCloser: w, s: s, key: name}, nil
}

// Remove invalidates name and everything below it.
func (s *Store) Remove(ctx context.Context, name string, recursive bool) error {
	name = store.Clean(name)
	err := s.underlying.Remove(ctx, name, recursive)
	s.backend.Invalidate(name)
	return err
}

// Rename renames in the underlying store when it supports it.
func (s *Store) Rename(ctx context.Context, oldName, newName string) error {
	r, ok := s.underlying.(store.Renamer)
	if !ok {
		return fmt.Errorf("rename %s: %w", oldName, errors.ErrUnsupported)
	}
	oldName, newName = store.Clean(oldName), store.Clean(newName)
	err := r.Rename(ctx, oldName, newName)
	s.backend.Invalidate(oldName)
	s.backend.Invalidate(newName)
	return err
}

// Close closes the underlying store.
func (s *Store) Close() error {
	return s.underlying.Close()
}

// Stats returns cache statistics.
func (s *Store) Stats() Stats {
	return s.backend.Stats()
}

// fillingReader records what it reads and caches it on a clean EOF.
type fillingReader struct {
	rc       io.ReadCloser
	s        *Store
	key      string
	buf      bytes.Buffer
	overflow bool
	done     bool
}

func (r *fillingReader) Read(p []byte) (int, error) {
	n, err := r.rc.Read(p)
	if n > 0 && !r.overflow {
		if int64(r.buf.Len()+n) > r.s.maxEntrySize {
			r.overflow = true
			r.buf = bytes.Buffer{}
		} else {
			r.buf.Write(p[:n])
		}
	}
	if err == io.EOF && !r.overflow && !r.done {
		r.done = true
		r.s.backend.Set(r.key, bytes.Clone(r.buf.Bytes()))
	}
	return n, err
}

func (r *fillingReader) Close() error {
	return r.rc.Close()
}

type invalidatingWriter struct {
	io.WriteCloser
	s   *Store
	key string
}

func (w *invalidatingWriter) Close() error {
	err := w.WriteCloser.Close()
	w.s.backend.Invalidate(w.key)
	return err
}
