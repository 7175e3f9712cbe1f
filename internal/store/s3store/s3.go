// Package s3store implements an AWS S3 storage backend. Directories are
// virtual: a directory exists while any key lives under it, or when an empty
// marker object named "dir/" was written by Mkdir.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/discochess/hdfsutil/internal/store"
)

// Compile-time checks that Store implements the store interfaces.
var (
	_ store.Store   = (*Store)(nil)
	_ store.Renamer = (*Store)(nil)
)

// deleteBatch is the DeleteObjects limit.
const deleteBatch = 1000

// api is the subset of the S3 client used by Store.
type api interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// Store is an AWS S3 storage backend.
type Store struct {
	client api
	bucket string
	prefix string
}

type options struct {
	prefix    string
	region    string
	endpoint  string
	accessKey string
	secretKey string
}

// Option configures a Store.
type Option func(*options)

// WithPrefix roots every path under a key prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = normalizePrefix(prefix)
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithEndpoint sets a custom endpoint (for S3-compatible services like MinIO).
// Path-style addressing is enabled.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.endpoint = endpoint
	}
}

// WithStaticCredentials uses a fixed access key instead of the default
// credential chain.
func WithStaticCredentials(accessKey, secretKey string) Option {
	return func(o *options) {
		o.accessKey = accessKey
		o.secretKey = secretKey
	}
}

// New creates a new S3 store. The bucket must already exist.
func New(ctx context.Context, bucketName string, opts ...Option) (*Store, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var loadOpts []func(*config.LoadOptions) error
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	if o.accessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.accessKey, o.secretKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.endpoint != "" {
			so.BaseEndpoint = aws.String(o.endpoint)
			so.UsePathStyle = true
		}
	})
	return newStore(client, bucketName, o.prefix), nil
}

func newStore(client api, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix}
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
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(dirPrefix),
		Delimiter: aws.String("/"),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, mapError("list", dir, err)
		}
		for _, cp := range page.CommonPrefixes {
			found = true
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), dirPrefix), "/")
			entries = append(entries, store.Entry{
				Path:  path.Join(dir, name),
				Name:  name,
				IsDir: true,
			})
		}
		for _, obj := range page.Contents {
			found = true
			key := aws.ToString(obj.Key)
			if key == dirPrefix {
				continue
			}
			name := strings.TrimPrefix(key, dirPrefix)
			entries = append(entries, store.Entry{
				Path:    path.Join(dir, name),
				Name:    name,
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
	}

	if !found {
		if _, err := s.headFile(ctx, dir); err == nil {
			return nil, fmt.Errorf("list %s: %w", dir, store.ErrNotDir)
		}
		return nil, fmt.Errorf("list %s: %w", dir, store.ErrNotFound)
	}

	slices.SortFunc(entries, func(a, b store.Entry) int {
		return strings.Compare(a.Name, b.Name)
	})
	return entries, nil
}

// Open opens an object for reading.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := store.CheckContext(ctx); err != nil {
		return nil, err
	}
	name = store.Clean(name)

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return nil, mapError("open", name, err)
	}
	return result.Body, nil
}

// Create returns a writer that uploads the object on Close.
func (s *Store) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := store.CheckContext(ctx); err != nil {
		return nil, err
	}
	name = store.Clean(name)
	if name == "/" {
		return nil, fmt.Errorf("create %s: %w", name, store.ErrIsDir)
	}
	return &objectWriter{ctx: ctx, s: s, name: name}, nil
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

	e, err := s.headFile(ctx, name)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Entry{}, err
	}

	keys, err := s.keysUnder(ctx, name, 1)
	if err != nil {
		return store.Entry{}, mapError("stat", name, err)
	}
	if len(keys) == 0 {
		return store.Entry{}, fmt.Errorf("stat %s: %w", name, store.ErrNotFound)
	}
	return store.Entry{Path: name, Name: path.Base(name), IsDir: true}, nil
}

// Mkdir writes a directory marker. Parents are implied by the key.
func (s *Store) Mkdir(ctx context.Context, dir string) error {
	if err := store.CheckContext(ctx); err != nil {
		return err
	}
	dir = store.Clean(dir)
	if dir == "/" {
		return nil
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.dirPrefix(dir)),
		Body:   bytes.NewReader(nil),
	})
	if err != nil {
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

	if _, err := s.headFile(ctx, name); err == nil {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(name)),
		})
		if err != nil {
			return mapError("remove", name, err)
		}
		return nil
	}

	keys, err := s.keysUnder(ctx, name, 0)
	if err != nil {
		return mapError("remove", name, err)
	}
	if len(keys) == 0 {
		return fmt.Errorf("remove %s: %w", name, store.ErrNotFound)
	}
	if !recursive && (len(keys) > 1 || keys[0] != s.dirPrefix(name)) {
		return fmt.Errorf("remove %s: %w", name, store.ErrNotEmpty)
	}

	for batch := range slices.Chunk(keys, deleteBatch) {
		ids := make([]types.ObjectIdentifier, len(batch))
		for i, k := range batch {
			ids[i] = types.ObjectIdentifier{Key: aws.String(k)}
		}
		_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return mapError("remove", name, err)
		}
	}
	return nil
}

// Rename copies the object to its new key and deletes the old one.
func (s *Store) Rename(ctx context.Context, oldName, newName string) error {
	if err := store.CheckContext(ctx); err != nil {
		return err
	}
	oldName, newName = store.Clean(oldName), store.Clean(newName)

	source := (&url.URL{Path: s.bucket + "/" + s.key(oldName)}).EscapedPath()
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(s.key(newName)),
		CopySource: aws.String(source),
	})
	if err != nil {
		return mapError("rename", oldName, err)
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(oldName)),
	})
	if err != nil {
		return mapError("rename", oldName, err)
	}
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	// S3 client doesn't need explicit closing.
	return nil
}

func (s *Store) headFile(ctx context.Context, name string) (store.Entry, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return store.Entry{}, mapError("stat", name, err)
	}
	return store.Entry{
		Path:    name,
		Name:    path.Base(name),
		Size:    aws.ToInt64(out.ContentLength),
		ModTime: aws.ToTime(out.LastModified),
	}, nil
}

// keysUnder returns every key below dir, stopping after limit keys when
// limit is positive.
func (s *Store) keysUnder(ctx context.Context, dir string, limit int) ([]string, error) {
	var keys []string
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.dirPrefix(dir)),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
			if limit > 0 && len(keys) >= limit {
				return keys, nil
			}
		}
	}
	return keys, nil
}

// key returns the object key for a cleaned path.
func (s *Store) key(name string) string {
	return s.prefix + strings.TrimPrefix(name, "/")
}

// dirPrefix returns the key prefix of a directory's children.
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

// objectWriter buffers an object and uploads it on Close.
type objectWriter struct {
	ctx    context.Context
	s      *Store
	name   string
	buf    bytes.Buffer
	closed bool
}

func (w *objectWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("write %s: writer closed", w.name)
	}
	return w.buf.Write(p)
}

func (w *objectWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	_, err := w.s.client.PutObject(w.ctx, &s3.PutObjectInput{
		Bucket: aws.String(w.s.bucket),
		Key:    aws.String(w.s.key(w.name)),
		Body:   bytes.NewReader(w.buf.Bytes()),
	})
	if err != nil {
		return mapError("create", w.name, err)
	}
	return nil
}

// mapError translates SDK errors into store errors.
func mapError(op, name string, err error) error {
	var (
		noSuchKey *types.NoSuchKey
		notFound  *types.NotFound
		netErr    net.Error
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.As(err, &noSuchKey), errors.As(err, &notFound):
		return fmt.Errorf("%s %s: %w", op, name, store.ErrNotFound)
	case errors.As(err, &netErr):
		return fmt.Errorf("%s %s: %w: %w", op, name, store.ErrConnection, err)
	default:
		return fmt.Errorf("%s %s: %w", op, name, err)
	}
}
