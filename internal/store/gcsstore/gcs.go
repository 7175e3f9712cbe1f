// Package gcsstore implements a Google Cloud Storage backend. Directories
// are virtual prefixes, as in s3store.
package gcsstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"path"
	"slices"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/discochess/hdfsutil/internal/store"
)

// Compile-time checks that Store implements the store interfaces.
var (
	_ store.Store   = (*Store)(nil)
	_ store.Renamer = (*Store)(nil)
)

// Store is a Google Cloud Storage backend.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
}

type options struct {
	prefix     string
	clientOpts []option.ClientOption
}

// Option configures a Store.
type Option func(*options)

// WithPrefix roots every path under an object prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = normalizePrefix(prefix)
	}
}

// WithEndpoint points the client at a custom endpoint, such as an emulator.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.clientOpts = append(o.clientOpts, option.WithEndpoint(endpoint), option.WithoutAuthentication())
	}
}

// WithCredentialsFile authenticates with a service account key file.
func WithCredentialsFile(file string) Option {
	return func(o *options) {
		o.clientOpts = append(o.clientOpts, option.WithCredentialsFile(file))
	}
}

// New creates a new GCS store. The bucket must already exist.
func New(ctx context.Context, bucketName string, opts ...Option) (*Store, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	client, err := storage.NewClient(ctx, o.clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w: %w", store.ErrConnection, err)
	}

	return &Store{
		client: client,
		bucket: client.Bucket(bucketName),
		prefix: o.prefix,
	}, nil
}

// List returns the children of dir sorted by name.
func (s *Store) List(ctx context.Context, dir string) ([]store.Entry, error) {
	if err := store.CheckContext(ctx); err != nil {
		return nil, err
	}
	dir = store.Clean(dir)
	dirPrefix := s.dirPrefix(dir)

	var (
		entries []store.Entry
		found   = dir == "/"
	)
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: dirPrefix, Delimiter: "/"})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, mapError("list", dir, err)
		}
		found = true
		if e, ok := s.entryFor(dir, dirPrefix, attrs); ok {
			entries = append(entries, e)
		}
	}

	if !found {
		if _, err := s.bucket.Object(s.key(dir)).Attrs(ctx); err == nil {
			return nil, fmt.Errorf("list %s: %w", dir, store.ErrNotDir)
		}
		return nil, fmt.Errorf("list %s: %w", dir, store.ErrNotFound)
	}

	slices.SortFunc(entries, func(a, b store.Entry) int {
		return strings.Compare(a.Name, b.Name)
	})
	return entries, nil
}

// entryFor converts a delimited listing result to an entry. The directory's
// own marker object is skipped.
func (s *Store) entryFor(dir, dirPrefix string, attrs *storage.ObjectAttrs) (store.Entry, bool) {
	if attrs.Prefix != "" {
		name := strings.TrimSuffix(strings.TrimPrefix(attrs.Prefix, dirPrefix), "/")
		return store.Entry{Path: path.Join(dir, name), Name: name, IsDir: true}, true
	}
	if attrs.Name == dirPrefix {
		return store.Entry{}, false
	}
	name := strings.TrimPrefix(attrs.Name, dirPrefix)
	return store.Entry{
		Path:    path.Join(dir, name),
		Name:    name,
		Size:    attrs.Size,
		ModTime: attrs.Updated,
	}, true
}

// Open opens an object for reading.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := store.CheckContext(ctx); err != nil {
		return nil, err
	}
	name = store.Clean(name)

	r, err := s.bucket.Object(s.key(name)).NewReader(ctx)
	if err != nil {
		return nil, mapError("open", name, err)
	}
	return r, nil
}

// Create returns a writer that streams the object. It is committed on Close.
func (s *Store) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := store.CheckContext(ctx); err != nil {
		return nil, err
	}
	name = store.Clean(name)
	if name == "/" {
		return nil, fmt.Errorf("create %s: %w", name, store.ErrIsDir)
	}
	return s.bucket.Object(s.key(name)).NewWriter(ctx), nil
}

// Stat returns the entry for name.
func (s *Store) Stat(ctx context.Context, name string) (store.Entry, error) {
	if err := store.CheckContext(ctx); err != nil {
		return store.Entry{}, err
	}
	name = store.Clean(name)
	if name == "/" {
		return store.Entry{Path: "/", Name: "/", IsDir: true}, nil
	}

	attrs, err := s.bucket.Object(s.key(name)).Attrs(ctx)
	if err == nil {
		return store.Entry{Path: name, Name: path.Base(name), Size: attrs.Size, ModTime: attrs.Updated}, nil
	}
	if !errors.Is(err, storage.ErrObjectNotExist) {
		return store.Entry{}, mapError("stat", name, err)
	}

	it := s.bucket.Objects(ctx, &storage.Query{Prefix: s.dirPrefix(name)})
	if _, err := it.Next(); err != nil {
		if errors.Is(err, iterator.Done) {
			return store.Entry{}, fmt.Errorf("stat %s: %w", name, store.ErrNotFound)
		}
		return store.Entry{}, mapError("stat", name, err)
	}
	return store.Entry{Path: name, Name: path.Base(name), IsDir: true}, nil
}

// Mkdir writes a directory marker object.
func (s *Store) Mkdir(ctx context.Context, dir string) error {
	if err := store.CheckContext(ctx); err != nil {
		return err
	}
	dir = store.Clean(dir)
	if dir == "/" {
		return nil
	}

	w := s.bucket.Object(s.dirPrefix(dir)).NewWriter(ctx)
	if err := w.Close(); err != nil {
		return mapError("mkdir", dir, err)
	}
	return nil
}

// Remove deletes an object, or every object under a directory.
func (s *Store) Remove(ctx context.Context, name string, recursive bool) error {
	if err := store.CheckContext(ctx); err != nil {
		return err
	}
	name = store.Clean(name)

	err := s.bucket.Object(s.key(name)).Delete(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrObjectNotExist) {
		return mapError("remove", name, err)
	}

	var keys []string
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: s.dirPrefix(name)})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return mapError("remove", name, err)
		}
		keys = append(keys, attrs.Name)
	}
	if len(keys) == 0 {
		return fmt.Errorf("remove %s: %w", name, store.ErrNotFound)
	}
	if !recursive && (len(keys) > 1 || keys[0] != s.dirPrefix(name)) {
		return fmt.Errorf("remove %s: %w", name, store.ErrNotEmpty)
	}

	for _, key := range keys {
		if err := s.bucket.Object(key).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return mapError("remove", name, err)
		}
	}
	return nil
}

// Rename copies the object to its new name and deletes the old one.
func (s *Store) Rename(ctx context.Context, oldName, newName string) error {
	if err := store.CheckContext(ctx); err != nil {
		return err
	}
	oldName, newName = store.Clean(oldName), store.Clean(newName)

	src := s.bucket.Object(s.key(oldName))
	if _, err := s.bucket.Object(s.key(newName)).CopierFrom(src).Run(ctx); err != nil {
		return mapError("rename", oldName, err)
	}
	if err := src.Delete(ctx); err != nil {
		return mapError("rename", oldName, err)
	}
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	return s.client.Close()
}

// key returns the object name for a cleaned path.
func (s *Store) key(name string) string {
	return s.prefix + strings.TrimPrefix(name, "/")
}

// dirPrefix returns the object prefix of a directory's children.
func (s *Store) dirPrefix(dir string) string {
	if dir == "/" {
		return s.prefix
	}
	return s.key(dir) + "/"
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return prefix
}

// mapError translates client errors into store errors.
func mapError(op, name string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, storage.ErrObjectNotExist), errors.Is(err, storage.ErrBucketNotExist):
		return fmt.Errorf("%s %s: %w", op, name, store.ErrNotFound)
	case errors.As(err, &netErr):
		return fmt.Errorf("%s %s: %w: %w", op, name, store.ErrConnection, err)
	default:
		return fmt.Errorf("%s %s: %w", op, name, err)
	}
}
