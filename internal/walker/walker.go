// Package walker writes remote directory trees into archives.
//
// A walk is depth-first and pre-order: a directory's marker entry is written
// before any entry of its subtree, and children are visited in the order the
// store lists them. Failures on the remote side are skipped and recorded in
// the Summary; failures writing the archive abort the walk.
package walker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/hdfsutil/internal/archive"
	"github.com/discochess/hdfsutil/internal/pipe"
	"github.com/discochess/hdfsutil/internal/stats"
	"github.com/discochess/hdfsutil/internal/store"
)

// DefaultBufferSize is the copy buffer used for each file.
const DefaultBufferSize = 1024

// Source is the remote filesystem a Walker reads.
type Source interface {
	store.Lister
	store.Opener
}

// Walker archives remote trees. It holds no per-walk state and may be
// reused.
type Walker struct {
	src       Source
	logger    *zap.Logger
	collector stats.Collector
	bufSize   int
	normalize func(string) string
	pathNames bool
}

// Option configures a Walker.
type Option func(*Walker)

// WithLogger sets the logger skipped nodes are reported to.
func WithLogger(l *zap.Logger) Option {
	return func(w *Walker) {
		w.logger = l
	}
}

// WithStats sets the stats collector.
func WithStats(c stats.Collector) Option {
	return func(w *Walker) {
		w.collector = c
	}
}

// WithBufferSize sets the per-file copy buffer size.
func WithBufferSize(n int) Option {
	return func(w *Walker) {
		w.bufSize = n
	}
}

// WithNameNormalizer replaces NormalizeName. Pass nil to keep base names
// unchanged.
func WithNameNormalizer(f func(string) string) Option {
	return func(w *Walker) {
		w.normalize = f
	}
}

// WithPathNames names entries by their path relative to the walk root
// ("nested/b.xlsx") instead of their base name ("b.xlsx").
func WithPathNames() Option {
	return func(w *Walker) {
		w.pathNames = true
	}
}

// New creates a Walker reading from src.
func New(src Source, opts ...Option) *Walker {
	w := &Walker{
		src:       src,
		logger:    zap.NewNop(),
		collector: stats.NewNoop(),
		bufSize:   DefaultBufferSize,
		normalize: NormalizeName,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.normalize == nil {
		w.normalize = func(s string) string { return s }
	}
	return w
}

// Walk writes the tree below root into sink. root itself gets no marker.
//
// The returned error is non-nil only when the sink fails or ctx is done;
// the Summary then describes what was written before the failure.
func (w *Walker) Walk(ctx context.Context, root string, sink archive.Sink) (Summary, error) {
	start := time.Now()
	var sum Summary

	err := w.walkDir(ctx, store.Clean(root), "", sink, &sum)

	w.collector.ObserveHistogram(stats.MetricArchiveDuration, time.Since(start).Seconds())
	w.logger.Debug("walk finished",
		zap.String("root", root),
		zap.Int("dirs", sum.Dirs),
		zap.Int("files", sum.Files),
		zap.Int64("bytes", sum.Bytes),
		zap.Int("skippedSubtrees", sum.SkippedSubtrees),
		zap.Int("failedFiles", sum.FailedFiles),
	)
	return sum, err
}

func (w *Walker) walkDir(ctx context.Context, dir, prefix string, sink archive.Sink, sum *Summary) error {
	entries, err := w.src.List(ctx, dir)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.logger.Warn("skipping subtree", zap.String("path", dir), zap.Error(err))
		sum.record(Skip{Path: dir, Op: OpList, Err: err})
		w.collector.IncCounter(stats.MetricArchiveSkipped, 1)
		return nil
	}

	for _, e := range entries {
		if err := store.CheckContext(ctx); err != nil {
			return err
		}

		if e.IsDir {
			name := archive.DirName(prefix + e.Name)
			if err := sink.CreateDir(name); err != nil {
				return fmt.Errorf("archiving %s: %w", e.Path, err)
			}
			sum.Dirs++
			w.collector.IncCounter(stats.MetricArchiveDirs, 1)

			var childPrefix string
			if w.pathNames {
				childPrefix = name
			}
			if err := w.walkDir(ctx, e.Path, childPrefix, sink, sum); err != nil {
				return err
			}
			continue
		}

		if err := w.archiveFile(ctx, e, prefix, sink, sum); err != nil {
			return err
		}
	}
	return nil
}

// archiveFile copies one file into a new entry. The file is opened before
// the entry is created, so a file that cannot be opened leaves no entry.
func (w *Walker) archiveFile(ctx context.Context, e store.Entry, prefix string, sink archive.Sink, sum *Summary) error {
	r, err := w.src.Open(ctx, e.Path)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.logger.Warn("skipping file", zap.String("path", e.Path), zap.Error(err))
		sum.record(Skip{Path: e.Path, Op: OpOpen, Err: err})
		w.collector.IncCounter(stats.MetricArchiveFailed, 1)
		return nil
	}
	defer r.Close()

	name := prefix + w.normalize(e.Name)
	ew, err := sink.CreateFile(name)
	if err != nil {
		return fmt.Errorf("archiving %s: %w", e.Path, err)
	}
	sum.Files++
	w.collector.IncCounter(stats.MetricArchiveFiles, 1)

	n, err := pipe.Copy(ew, r, w.bufSize)
	sum.Bytes += n
	w.collector.IncCounter(stats.MetricArchiveBytes, n)
	if err == nil {
		return nil
	}
	if pipe.IsWriteError(err) {
		return fmt.Errorf("archiving %s: %w", e.Path, err)
	}

	// The entry keeps the bytes copied before the read failed.
	w.logger.Warn("truncated file",
		zap.String("path", e.Path),
		zap.String("entry", name),
		zap.Int64("bytes", n),
		zap.Error(err),
	)
	sum.record(Skip{Path: e.Path, Op: OpRead, Err: err})
	w.collector.IncCounter(stats.MetricArchiveFailed, 1)
	return nil
}
