// Package hdfsutil manages files on a remote filesystem: listing, reading,
// writing and moving files between local disk and the remote side, packing
// remote directory trees into zip archives, and compressing or decompressing
// single remote files through pluggable codecs.
//
// Example usage:
//
//	client, err := hdfsutil.Open(ctx, hdfsutil.Config{
//	    Endpoint: "namenode:8020",
//	    User:     "etl",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	sum, err := client.ArchiveToFile(ctx, "/data", "data.zip")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("archived %d files\n", sum.Files)
package hdfsutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/discochess/hdfsutil/internal/codec"
	"github.com/discochess/hdfsutil/internal/stats"
	"github.com/discochess/hdfsutil/internal/store"
	"github.com/discochess/hdfsutil/internal/transcode"
	"github.com/discochess/hdfsutil/internal/walker"
)

// Sentinel errors for well-defined error conditions. They match with
// errors.Is against errors returned by every Client method.
var (
	// ErrPathNotFound indicates a remote path does not exist.
	ErrPathNotFound = store.ErrNotFound

	// ErrConnection indicates the remote filesystem could not be reached.
	ErrConnection = store.ErrConnection

	// ErrCodecNotFound indicates no codec is registered under an identifier.
	ErrCodecNotFound = codec.ErrNotFound

	// ErrNoCodecForExtension indicates no codec matches a file extension.
	ErrNoCodecForExtension = codec.ErrNoCodecForExtension

	// ErrClosed indicates the client has been closed.
	ErrClosed = errors.New("hdfsutil: client closed")

	// ErrNoStore indicates no store was provided.
	ErrNoStore = errors.New("hdfsutil: no store provided")
)

// Entry describes a remote file or directory.
type Entry = store.Entry

// Summary reports the outcome of an archive walk.
type Summary = walker.Summary

// Skip records a path left out of an archive.
type Skip = walker.Skip

// CodecInfo describes a registered codec.
type CodecInfo = codec.Registration

// Client provides file management, archiving and transcoding on a remote
// filesystem. A Client is safe for concurrent use by multiple goroutines
// when its store is.
type Client struct {
	store      store.Store
	registry   *codec.Registry
	transcoder *transcode.Transcoder
	walker     *walker.Walker
	stats      stats.Collector
	logger     *zap.Logger
	stdout     io.Writer
	bufSize    int
	closed     atomic.Bool
}

// New creates a new Client with the given options. WithStore is required.
func New(opts ...Option) (*Client, error) {
	return newClient(resolveOptions(opts))
}

func newClient(cfg options) (*Client, error) {
	if cfg.store == nil {
		return nil, ErrNoStore
	}

	topts := []transcode.Option{
		transcode.WithLogger(cfg.logger.Named("transcode")),
		transcode.WithStats(cfg.stats),
		transcode.WithBufferSize(cfg.bufSize),
	}
	if cfg.atomicWrites {
		topts = append(topts, transcode.WithAtomicWrites())
	}

	wopts := []walker.Option{
		walker.WithLogger(cfg.logger.Named("walker")),
		walker.WithStats(cfg.stats),
	}
	if cfg.pathNames {
		wopts = append(wopts, walker.WithPathNames())
	}

	c := &Client{
		store:      cfg.store,
		registry:   cfg.registry,
		transcoder: transcode.New(cfg.store, cfg.registry, topts...),
		walker:     walker.New(cfg.store, wopts...),
		stats:      cfg.stats,
		logger:     cfg.logger,
		stdout:     cfg.stdout,
		bufSize:    cfg.bufSize,
	}

	c.logger.Debug("client initialized",
		zap.Int("codecs", len(c.registry.Registrations())),
		zap.Bool("atomicWrites", cfg.atomicWrites),
	)

	return c, nil
}

// CompressFile writes src compressed with the codec codecID to dst.
func (c *Client) CompressFile(ctx context.Context, codecID, src, dst string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.transcoder.CompressFile(ctx, codecID, src, dst)
}

// DecompressFile writes src decompressed with the codec codecID to dst.
func (c *Client) DecompressFile(ctx context.Context, codecID, src, dst string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.transcoder.DecompressFile(ctx, codecID, src, dst)
}

// DecompressTo writes src decompressed with the codec codecID to w.
func (c *Client) DecompressTo(ctx context.Context, codecID, src string, w io.Writer) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.transcoder.DecompressTo(ctx, codecID, src, w)
}

// DecompressToStdout writes src decompressed with the codec codecID to the
// client's standard output.
func (c *Client) DecompressToStdout(ctx context.Context, codecID, src string) error {
	return c.DecompressTo(ctx, codecID, src, c.stdout)
}

// DecompressByExtension infers the codec from the extension of name and
// writes the decompressed file next to it without the extension. It returns
// the path written, or ErrNoCodecForExtension without touching the
// filesystem.
func (c *Client) DecompressByExtension(ctx context.Context, name string) (string, error) {
	if c.closed.Load() {
		return "", ErrClosed
	}
	return c.transcoder.DecompressByExtension(ctx, name)
}

// Codecs returns the registered codecs sorted by name.
func (c *Client) Codecs() []CodecInfo {
	return c.registry.Registrations()
}

// Close releases all resources associated with the client.
// After Close, the client should not be used.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	if err := c.store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}

	return nil
}

// Store returns the filesystem backend used by this client.
func (c *Client) Store() store.Store {
	return c.store
}
