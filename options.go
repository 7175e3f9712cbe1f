package hdfsutil

import (
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/discochess/hdfsutil/internal/codec"
	"github.com/discochess/hdfsutil/internal/codec/builtin"
	"github.com/discochess/hdfsutil/internal/pipe"
	"github.com/discochess/hdfsutil/internal/stats"
	"github.com/discochess/hdfsutil/internal/store"
)

// Option configures a Client.
type Option interface {
	apply(*options)
}

// options holds the client configuration.
type options struct {
	store        store.Store
	registry     *codec.Registry
	stats        stats.Collector
	logger       *zap.Logger
	stdout       io.Writer
	bufSize      int
	atomicWrites bool
	pathNames    bool
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		stats:   stats.NewNoop(),
		logger:  zap.NewNop(),
		stdout:  os.Stdout,
		bufSize: pipe.DefaultBufferSize,
	}
}

func resolveOptions(opts []Option) options {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	if cfg.registry == nil {
		cfg.registry = builtin.NewRegistry()
	}
	return cfg
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithStore sets the filesystem backend to use.
func WithStore(s store.Store) Option {
	return optionFunc(func(o *options) {
		o.store = s
	})
}

// WithRegistry sets the codec registry.
// If not set, every built-in codec is available.
func WithRegistry(r *codec.Registry) Option {
	return optionFunc(func(o *options) {
		o.registry = r
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// WithStdout sets the writer used by DecompressToStdout.
// Default is os.Stdout.
func WithStdout(w io.Writer) Option {
	return optionFunc(func(o *options) {
		o.stdout = w
	})
}

// WithBufferSize sets the copy buffer size for transfers and transcoding.
// Archive walks always copy with walker.DefaultBufferSize.
func WithBufferSize(n int) Option {
	return optionFunc(func(o *options) {
		o.bufSize = n
	})
}

// WithAtomicWrites makes compress and decompress outputs appear only once
// complete. The store must support renames.
func WithAtomicWrites() Option {
	return optionFunc(func(o *options) {
		o.atomicWrites = true
	})
}

// WithPathNames names archive entries by their path below the archived root
// instead of by base name.
func WithPathNames() Option {
	return optionFunc(func(o *options) {
		o.pathNames = true
	})
}
