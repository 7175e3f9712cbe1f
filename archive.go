package hdfsutil

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/discochess/hdfsutil/internal/archive"
	"github.com/discochess/hdfsutil/internal/archive/zipsink"
)

// Sink receives archive entries in depth-first pre-order.
type Sink = archive.Sink

// ArchiveDirectory writes the tree below root into sink.
//
// Remote failures never stop the walk: unlistable directories, unopenable
// files and files that fail mid-read are logged and reported in the
// Summary, and Summary.Partial then returns true. An error is returned only
// when the sink fails or ctx is done.
func (c *Client) ArchiveDirectory(ctx context.Context, root string, sink Sink) (Summary, error) {
	if c.closed.Load() {
		return Summary{}, ErrClosed
	}

	sum, err := c.walker.Walk(ctx, root, sink)
	if err != nil {
		return sum, fmt.Errorf("archiving %s: %w", root, err)
	}

	fields := []zap.Field{
		zap.String("root", root),
		zap.Int("dirs", sum.Dirs),
		zap.Int("files", sum.Files),
		zap.Int64("bytes", sum.Bytes),
	}
	if sum.Partial() {
		c.logger.Warn("archive is partial", append(fields,
			zap.Int("skippedSubtrees", sum.SkippedSubtrees),
			zap.Int("failedFiles", sum.FailedFiles),
		)...)
	} else {
		c.logger.Info("archive complete", fields...)
	}
	return sum, nil
}

// ArchiveToFile writes the tree below root into a zip file at the local
// path localZip. A walk aborted by an error leaves no file behind.
func (c *Client) ArchiveToFile(ctx context.Context, root, localZip string) (Summary, error) {
	if c.closed.Load() {
		return Summary{}, ErrClosed
	}

	f, err := os.Create(localZip)
	if err != nil {
		return Summary{}, fmt.Errorf("creating archive: %w", err)
	}

	sink := zipsink.New(f)
	sum, err := c.ArchiveDirectory(ctx, root, sink)
	if err == nil {
		err = sink.Close()
	}
	if cerr := f.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("closing archive: %w", cerr)
	}
	if err != nil {
		os.Remove(localZip)
		return sum, err
	}
	return sum, nil
}
