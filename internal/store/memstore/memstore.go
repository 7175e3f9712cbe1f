// Package memstore provides an in-memory store implementation for testing.
package memstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/discochess/hdfsutil/internal/store"
)

// Compile-time checks that Store implements the store interfaces.
var (
	_ store.Store   = (*Store)(nil)
	_ store.Renamer = (*Store)(nil)
)

// Op names an operation for fault injection.
type Op string

// Operations that can be made to fail.
const (
	OpList   Op = "list"
	OpOpen   Op = "open"
	OpCreate Op = "create"
)

type fault struct {
	op   Op
	name string
}

type readFault struct {
	after int
	err   error
}

// Store is an in-memory filesystem for testing. List returns children in
// lexical order.
type Store struct {
	mu         sync.RWMutex
	files      map[string][]byte
	dirs       map[string]bool
	modTimes   map[string]time.Time
	faults     map[fault]error
	readFaults map[string]readFault
}

// New creates a new in-memory store containing only the root directory.
func New() *Store {
	return &Store{
		files:      make(map[string][]byte),
		dirs:       map[string]bool{"/": true},
		modTimes:   make(map[string]time.Time),
		faults:     make(map[fault]error),
		readFaults: make(map[string]readFault),
	}
}

// SetFile sets the content of a file, creating parent directories (for test setup).
// The data is copied to prevent caller mutations from affecting the store.
func (s *Store) SetFile(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(store.Clean(name), data)
}

// MkdirAll creates a directory and its parents (for test setup).
func (s *Store) MkdirAll(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mkdirLocked(store.Clean(name))
}

// File returns the content of a file.
func (s *Store) File(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[store.Clean(name)]
	return data, ok
}

// Fail makes op on name return err until cleared with a nil err.
func (s *Store) Fail(op Op, name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := fault{op: op, name: store.Clean(name)}
	if err == nil {
		delete(s.faults, f)
		return
	}
	s.faults[f] = err
}

// FailReadAfter makes readers of name return err after after bytes.
func (s *Store) FailReadAfter(name string, after int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readFaults[store.Clean(name)] = readFault{after: after, err: err}
}

// List returns the children of dir sorted by name.
func (s *Store) List(ctx context.Context, dir string) ([]store.Entry, error) {
	if err := store.CheckContext(ctx); err != nil {
		return nil, err
	}
	dir = store.Clean(dir)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.faultLocked(OpList, dir); err != nil {
		return nil, err
	}
	if _, ok := s.files[dir]; ok {
		return nil, fmt.Errorf("list %s: %w", dir, store.ErrNotDir)
	}
	if !s.dirs[dir] {
		return nil, fmt.Errorf("list %s: %w", dir, store.ErrNotFound)
	}

	var entries []store.Entry
	for p := range s.dirs {
		if p != "/" && path.Dir(p) == dir {
			entries = append(entries, s.entryLocked(p))
		}
	}
	for p := range s.files {
		if path.Dir(p) == dir {
			entries = append(entries, s.entryLocked(p))
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Open returns a reader over a copy of the file content.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := store.CheckContext(ctx); err != nil {
		return nil, err
	}
	name = store.Clean(name)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.faultLocked(OpOpen, name); err != nil {
		return nil, err
	}
	if s.dirs[name] {
		return nil, fmt.Errorf("open %s: %w", name, store.ErrIsDir)
	}
	data, ok := s.files[name]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, store.ErrNotFound)
	}

	var r io.Reader = bytes.NewReader(bytes.Clone(data))
	if rf, ok := s.readFaults[name]; ok {
		r = io.MultiReader(io.LimitReader(r, int64(rf.after)), &errReader{err: rf.err})
	}
	return io.NopCloser(r), nil
}

// Create returns a writer whose content replaces the file on Close.
func (s *Store) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := store.CheckContext(ctx); err != nil {
		return nil, err
	}
	name = store.Clean(name)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.faultLocked(OpCreate, name); err != nil {
		return nil, err
	}
	if s.dirs[name] {
		return nil, fmt.Errorf("create %s: %w", name, store.ErrIsDir)
	}
	return &fileWriter{store: s, name: name}, nil
}

// Stat returns the entry for name.
func (s *Store) Stat(ctx context.Context, name string) (store.Entry, error) {
	if err := store.CheckContext(ctx); err != nil {
		return store.Entry{}, err
	}
	name = store.Clean(name)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.files[name]; !ok && !s.dirs[name] {
		return store.Entry{}, fmt.Errorf("stat %s: %w", name, store.ErrNotFound)
	}
	return s.entryLocked(name), nil
}

// Mkdir creates dir and its parents.
func (s *Store) Mkdir(ctx context.Context, dir string) error {
	if err := store.CheckContext(ctx); err != nil {
		return err
	}
	dir = store.Clean(dir)

	s.mu.Lock()
	defer s.mu.Unlock()

	for p := dir; p != "/"; p = path.Dir(p) {
		if _, ok := s.files[p]; ok {
			return fmt.Errorf("mkdir %s: %w", p, store.ErrNotDir)
		}
	}
	s.mkdirLocked(dir)
	return nil
}

// Remove deletes name, and its children when recursive is set.
func (s *Store) Remove(ctx context.Context, name string, recursive bool) error {
	if err := store.CheckContext(ctx); err != nil {
		return err
	}
	name = store.Clean(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[name]; ok {
		delete(s.files, name)
		delete(s.modTimes, name)
		return nil
	}
	if !s.dirs[name] {
		return fmt.Errorf("remove %s: %w", name, store.ErrNotFound)
	}

	prefix := strings.TrimSuffix(name, "/") + "/"
	var children []string
	for p := range s.files {
		if strings.HasPrefix(p, prefix) {
			children = append(children, p)
		}
	}
	for p := range s.dirs {
		if strings.HasPrefix(p, prefix) {
			children = append(children, p)
		}
	}
	if len(children) > 0 && !recursive {
		return fmt.Errorf("remove %s: %w", name, store.ErrNotEmpty)
	}
	for _, p := range children {
		delete(s.files, p)
		delete(s.dirs, p)
		delete(s.modTimes, p)
	}
	if name != "/" {
		delete(s.dirs, name)
		delete(s.modTimes, name)
	}
	return nil
}

// Rename moves a file.
func (s *Store) Rename(ctx context.Context, oldName, newName string) error {
	if err := store.CheckContext(ctx); err != nil {
		return err
	}
	oldName, newName = store.Clean(oldName), store.Clean(newName)

	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.files[oldName]
	if !ok {
		return fmt.Errorf("rename %s: %w", oldName, store.ErrNotFound)
	}
	delete(s.files, oldName)
	delete(s.modTimes, oldName)
	s.putLocked(newName, data)
	return nil
}

// Close is a no-op for the memory store.
func (s *Store) Close() error {
	return nil
}

func (s *Store) faultLocked(op Op, name string) error {
	if err, ok := s.faults[fault{op: op, name: name}]; ok {
		return err
	}
	return nil
}

func (s *Store) putLocked(name string, data []byte) {
	s.mkdirLocked(path.Dir(name))
	s.files[name] = bytes.Clone(data)
	if s.files[name] == nil {
		s.files[name] = []byte{}
	}
	s.modTimes[name] = time.Now()
}

func (s *Store) mkdirLocked(dir string) {
	for p := dir; ; p = path.Dir(p) {
		if !s.dirs[p] {
			s.dirs[p] = true
			s.modTimes[p] = time.Now()
		}
		if p == "/" {
			return
		}
	}
}

func (s *Store) entryLocked(name string) store.Entry {
	e := store.Entry{
		Path:    name,
		Name:    path.Base(name),
		IsDir:   s.dirs[name],
		ModTime: s.modTimes[name],
	}
	if data, ok := s.files[name]; ok {
		e.Size = int64(len(data))
	}
	return e
}

// fileWriter buffers writes and commits them on Close.
type fileWriter struct {
	store  *Store
	name   string
	buf    bytes.Buffer
	closed bool
}

func (w *fileWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("write %s: %w", w.name, io.ErrClosedPipe)
	}
	return w.buf.Write(p)
}

func (w *fileWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	w.store.putLocked(w.name, w.buf.Bytes())
	return nil
}

type errReader struct {
	err error
}

func (r *errReader) Read([]byte) (int, error) {
	return 0, r.err
}
