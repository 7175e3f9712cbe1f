// Package transcode compresses and decompresses single remote files through
// registered codecs.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/discochess/hdfsutil/internal/codec"
	"github.com/discochess/hdfsutil/internal/pipe"
	"github.com/discochess/hdfsutil/internal/stats"
	"github.com/discochess/hdfsutil/internal/store"
)

// Transcoder runs codec streams between files of a store.
type Transcoder struct {
	store     store.Store
	registry  *codec.Registry
	logger    *zap.Logger
	collector stats.Collector
	bufSize   int
	atomic    bool
}

// Option configures a Transcoder.
type Option func(*Transcoder)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Transcoder) {
		t.logger = l
	}
}

// WithStats sets the stats collector.
func WithStats(c stats.Collector) Option {
	return func(t *Transcoder) {
		t.collector = c
	}
}

// WithBufferSize sets the copy buffer size.
func WithBufferSize(n int) Option {
	return func(t *Transcoder) {
		t.bufSize = n
	}
}

// WithAtomicWrites writes outputs to a temporary name next to the
// destination and renames it into place on success. The store must
// implement store.Renamer. A failed write removes the temporary file, so
// the destination is never left truncated.
func WithAtomicWrites() Option {
	return func(t *Transcoder) {
		t.atomic = true
	}
}

// New creates a Transcoder over st resolving codecs from reg.
func New(st store.Store, reg *codec.Registry, opts ...Option) *Transcoder {
	t := &Transcoder{
		store:     st,
		registry:  reg,
		logger:    zap.NewNop(),
		collector: stats.NewNoop(),
		bufSize:   pipe.DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CompressFile writes src compressed with codecID to dst.
func (t *Transcoder) CompressFile(ctx context.Context, codecID, src, dst string) (err error) {
	defer t.observe(&err)

	c, err := t.registry.Resolve(codecID)
	if err != nil {
		return fmt.Errorf("compressing %s: %w", src, err)
	}

	n, err := t.transcode(ctx, src, dst, func(w io.Writer) (io.WriteCloser, error) {
		return c.Writer(w)
	}, nil)
	if err != nil {
		return fmt.Errorf("compressing %s with %s: %w", src, codecID, err)
	}

	t.logger.Debug("compressed",
		zap.String("src", src),
		zap.String("dst", dst),
		zap.String("codec", codecID),
		zap.Int64("bytes", n),
	)
	return nil
}

// DecompressFile writes src decompressed with codecID to dst.
func (t *Transcoder) DecompressFile(ctx context.Context, codecID, src, dst string) (err error) {
	defer t.observe(&err)

	c, err := t.registry.Resolve(codecID)
	if err != nil {
		return fmt.Errorf("decompressing %s: %w", src, err)
	}
	if err := t.decompressFile(ctx, c, src, dst); err != nil {
		return fmt.Errorf("decompressing %s with %s: %w", src, codecID, err)
	}
	return nil
}

// DecompressTo writes src decompressed with codecID to w. w is not closed.
func (t *Transcoder) DecompressTo(ctx context.Context, codecID, src string, w io.Writer) (err error) {
	defer t.observe(&err)

	c, err := t.registry.Resolve(codecID)
	if err != nil {
		return fmt.Errorf("decompressing %s: %w", src, err)
	}

	r, err := t.store.Open(ctx, src)
	if err != nil {
		return fmt.Errorf("decompressing %s with %s: %w", src, codecID, err)
	}
	defer r.Close()

	var read atomic.Int64
	dr, err := c.Reader(pipe.NewCountingReader(r, &read))
	if err != nil {
		return fmt.Errorf("decompressing %s with %s: %w", src, codecID, err)
	}
	defer dr.Close()

	n, err := pipe.Copy(w, dr, t.bufSize)
	t.collector.IncCounter(stats.MetricTranscodeBytes, read.Load())
	if err != nil {
		return fmt.Errorf("decompressing %s with %s: %w", src, codecID, err)
	}

	t.logger.Debug("decompressed to writer",
		zap.String("src", src),
		zap.String("codec", codecID),
		zap.Int64("bytes", n),
	)
	return nil
}

// DecompressByExtension picks the codec from the extension of name and
// writes the decompressed content next to it, without the extension. It
// returns the path written. When no codec matches, it fails with
// codec.ErrNoCodecForExtension before touching the store.
func (t *Transcoder) DecompressByExtension(ctx context.Context, name string) (dst string, err error) {
	defer t.observe(&err)

	c, ok := t.registry.ResolveByExtension(name)
	if !ok {
		return "", fmt.Errorf("decompressing %s: %w", name, codec.ErrNoCodecForExtension)
	}

	dst = codec.StripExtension(name, c)
	if err := t.decompressFile(ctx, c, name, dst); err != nil {
		return "", fmt.Errorf("decompressing %s as %s: %w", name, codec.Suffix(c), err)
	}
	return dst, nil
}

func (t *Transcoder) decompressFile(ctx context.Context, c codec.Codec, src, dst string) error {
	n, err := t.transcode(ctx, src, dst, nil, func(r io.Reader) (io.ReadCloser, error) {
		return c.Reader(r)
	})
	if err != nil {
		return err
	}
	t.logger.Debug("decompressed",
		zap.String("src", src),
		zap.String("dst", dst),
		zap.String("extension", c.Extension()),
		zap.Int64("bytes", n),
	)
	return nil
}

// transcode streams src to dst through an optional writer wrapper and an
// optional reader wrapper. It returns the bytes read from src.
func (t *Transcoder) transcode(
	ctx context.Context,
	src, dst string,
	wrapWriter func(io.Writer) (io.WriteCloser, error),
	wrapReader func(io.Reader) (io.ReadCloser, error),
) (int64, error) {
	r, err := t.store.Open(ctx, src)
	if err != nil {
		return 0, err
	}

	var read atomic.Int64
	var in io.ReadCloser = readCloser{Reader: pipe.NewCountingReader(r, &read), Closer: r}
	if wrapReader != nil {
		dr, err := wrapReader(in)
		if err != nil {
			r.Close()
			return 0, err
		}
		in = readCloser{Reader: dr, Closer: closers{dr, r}}
	}

	out, err := t.createOutput(ctx, dst)
	if err != nil {
		in.Close()
		return 0, err
	}

	var w io.WriteCloser = out
	if wrapWriter != nil {
		cw, err := wrapWriter(out)
		if err != nil {
			in.Close()
			out.abort()
			return 0, err
		}
		w = writeCloser{Writer: cw, Closer: closers{cw, out}}
	}

	_, err = pipe.CopyAndClose(w, in, t.bufSize)
	t.collector.IncCounter(stats.MetricTranscodeBytes, read.Load())
	if err != nil {
		out.abort()
		return read.Load(), err
	}
	if err := out.commit(); err != nil {
		return read.Load(), err
	}
	return read.Load(), nil
}

func (t *Transcoder) observe(errp *error) {
	t.collector.IncCounter(stats.MetricTranscodeOps, 1)
	if *errp != nil {
		t.collector.IncCounter(stats.MetricTranscodeFailures, 1)
	}
}

// output is a destination file, optionally written under a temporary name.
type output struct {
	io.WriteCloser
	ctx    context.Context
	st     store.Store
	tmp    string
	dst    string
	closed bool
}

func (o *output) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	return o.WriteCloser.Close()
}

func (t *Transcoder) createOutput(ctx context.Context, dst string) (*output, error) {
	if !t.atomic {
		w, err := t.store.Create(ctx, dst)
		if err != nil {
			return nil, err
		}
		return &output{WriteCloser: w}, nil
	}

	if _, ok := t.store.(store.Renamer); !ok {
		return nil, fmt.Errorf("atomic write of %s: %w", dst, errors.ErrUnsupported)
	}
	tmp := dst + ".tmp-" + uuid.NewString()
	w, err := t.store.Create(ctx, tmp)
	if err != nil {
		return nil, err
	}
	return &output{WriteCloser: w, ctx: ctx, st: t.store, tmp: tmp, dst: dst}, nil
}

// commit moves a temporary output into place. The writer must be closed.
func (o *output) commit() error {
	if o.tmp == "" {
		return nil
	}
	if err := o.st.(store.Renamer).Rename(o.ctx, o.tmp, o.dst); err != nil {
		o.abort()
		return err
	}
	return nil
}

// abort closes the output and removes it if temporary. Direct outputs keep
// what was written.
func (o *output) abort() {
	o.Close()
	if o.tmp != "" {
		o.st.Remove(context.WithoutCancel(o.ctx), o.tmp, false)
	}
}

type readCloser struct {
	io.Reader
	io.Closer
}

type writeCloser struct {
	io.Writer
	io.Closer
}

// closers closes each element in order and returns the first error.
type closers []io.Closer

func (cs closers) Close() error {
	var first error
	for _, c := range cs {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
