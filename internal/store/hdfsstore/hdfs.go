// Package hdfsstore implements an HDFS storage backend.
package hdfsstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"path"
	"strings"
	"syscall"

	"github.com/colinmarc/hdfs/v2"

	"github.com/discochess/hdfsutil/internal/store"
)

// Compile-time checks that Store implements the store interfaces.
var (
	_ store.Store   = (*Store)(nil)
	_ store.Renamer = (*Store)(nil)
)

// Store is an HDFS storage backend. List returns children in the lexical
// order the namenode reports them.
type Store struct {
	client *hdfs.Client
}

// Option configures the HDFS client.
type Option func(*hdfs.ClientOptions)

// WithUser sets the user the client acts as.
func WithUser(user string) Option {
	return func(o *hdfs.ClientOptions) {
		o.User = user
	}
}

// WithDatanodeHostnames makes the client dial datanodes by hostname instead
// of IP, which is needed when datanodes sit behind NAT.
func WithDatanodeHostnames() Option {
	return func(o *hdfs.ClientOptions) {
		o.UseDatanodeHostname = true
	}
}

// New connects to the namenode(s) at endpoint. The endpoint may carry an
// hdfs:// scheme and lists HA namenodes separated by commas.
func New(endpoint string, opts ...Option) (*Store, error) {
	addresses := ParseEndpoint(endpoint)
	if len(addresses) == 0 {
		return nil, fmt.Errorf("hdfs: no namenode address in %q", endpoint)
	}

	o := hdfs.ClientOptions{Addresses: addresses}
	for _, opt := range opts {
		opt(&o)
	}

	client, err := hdfs.NewClient(o)
	if err != nil {
		return nil, fmt.Errorf("connecting to namenode %s: %w: %w", endpoint, store.ErrConnection, err)
	}
	return &Store{client: client}, nil
}

// ParseEndpoint splits an endpoint such as "hdfs://nn1:8020,nn2:8020" into
// namenode addresses.
func ParseEndpoint(endpoint string) []string {
	endpoint = strings.TrimPrefix(strings.TrimSpace(endpoint), "hdfs://")
	endpoint = strings.TrimSuffix(endpoint, "/")

	var addresses []string
	for _, addr := range strings.Split(endpoint, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			addresses = append(addresses, addr)
		}
	}
	return addresses
}

// List returns the children of dir.
func (s *Store) List(ctx context.Context, dir string) ([]store.Entry, error) {
	if err := store.CheckContext(ctx); err != nil {
		return nil, err
	}
	dir = store.Clean(dir)

	infos, err := s.client.ReadDir(dir)
	if err != nil {
		return nil, mapError("list", dir, err)
	}

	entries := make([]store.Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, store.FromFileInfo(path.Join(dir, info.Name()), info))
	}
	return entries, nil
}

// Open opens a file for reading.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := store.CheckContext(ctx); err != nil {
		return nil, err
	}
	name = store.Clean(name)

	r, err := s.client.Open(name)
	if err != nil {
		return nil, mapError("open", name, err)
	}
	if r.Stat().IsDir() {
		r.Close()
		return nil, fmt.Errorf("open %s: %w", name, store.ErrIsDir)
	}
	return r, nil
}

// Create creates or truncates a file. HDFS refuses to overwrite, so an
// existing file is removed first.
func (s *Store) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := store.CheckContext(ctx); err != nil {
		return nil, err
	}
	name = store.Clean(name)

	if err := s.client.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, mapError("create", name, err)
	}
	if err := s.client.MkdirAll(path.Dir(name), 0o755); err != nil {
		return nil, mapError("create", name, err)
	}
	w, err := s.client.Create(name)
	if err != nil {
		return nil, mapError("create", name, err)
	}
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

// Remove deletes name.
func (s *Store) Remove(ctx context.Context, name string, recursive bool) error {
	if err := store.CheckContext(ctx); err != nil {
		return err
	}
	name = store.Clean(name)

	info, err := s.client.Stat(name)
	if err != nil {
		return mapError("remove", name, err)
	}
	if recursive {
		err = s.client.RemoveAll(name)
	} else {
		if info.IsDir() {
			children, err := s.client.ReadDir(name)
			if err != nil {
				return mapError("remove", name, err)
			}
			if len(children) > 0 {
				return fmt.Errorf("remove %s: %w", name, store.ErrNotEmpty)
			}
		}
		err = s.client.Remove(name)
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

	if err := s.client.MkdirAll(path.Dir(newName), 0o755); err != nil {
		return mapError("rename", newName, err)
	}
	if err := s.client.Rename(oldName, newName); err != nil {
		return mapError("rename", oldName, err)
	}
	return nil
}

// Close closes the connection to the namenode.
func (s *Store) Close() error {
	return s.client.Close()
}

// mapError translates client errors into store errors.
func mapError(op, name string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s %s: %w", op, name, store.ErrNotFound)
	case errors.Is(err, syscall.ENOTDIR):
		return fmt.Errorf("%s %s: %w", op, name, store.ErrNotDir)
	case errors.Is(err, syscall.ENOTEMPTY):
		return fmt.Errorf("%s %s: %w", op, name, store.ErrNotEmpty)
	case errors.As(err, &netErr), errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%s %s: %w: %w", op, name, store.ErrConnection, err)
	default:
		return fmt.Errorf("%s %s: %w", op, name, err)
	}
}
