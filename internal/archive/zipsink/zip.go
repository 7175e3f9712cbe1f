// Package zipsink writes archive entries into a zip container.
package zipsink

import (
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/discochess/hdfsutil/internal/archive"
)

// Compile-time check that Sink implements archive.Sink.
var _ archive.Sink = (*Sink)(nil)

// Sink is an archive.Sink backed by a zip.Writer. Close must be called to
// write the central directory.
type Sink struct {
	zw     *zip.Writer
	method uint16
	now    func() time.Time
}

// Option configures a Sink.
type Option func(*Sink)

// WithStore stores file entries uncompressed.
func WithStore() Option {
	return func(s *Sink) {
		s.method = zip.Store
	}
}

// WithClock sets the source of entry modification times.
func WithClock(now func() time.Time) Option {
	return func(s *Sink) {
		s.now = now
	}
}

// New creates a zip sink writing to w. File entries are deflated by default.
func New(w io.Writer, opts ...Option) *Sink {
	s := &Sink{
		zw:     zip.NewWriter(w),
		method: zip.Deflate,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateDir writes a directory entry with no payload.
func (s *Sink) CreateDir(name string) error {
	_, err := s.zw.CreateHeader(&zip.FileHeader{
		Name:     archive.DirName(name),
		Method:   zip.Store,
		Modified: s.now(),
	})
	if err != nil {
		return fmt.Errorf("zip dir %s: %w", name, err)
	}
	return nil
}

// CreateFile starts a file entry.
func (s *Sink) CreateFile(name string) (io.Writer, error) {
	w, err := s.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   s.method,
		Modified: s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("zip file %s: %w", name, err)
	}
	return w, nil
}

// SetComment sets the archive comment.
func (s *Sink) SetComment(comment string) error {
	return s.zw.SetComment(comment)
}

// Close finishes the archive. It does not close the underlying writer.
func (s *Sink) Close() error {
	if err := s.zw.Close(); err != nil {
		return fmt.Errorf("finishing zip: %w", err)
	}
	return nil
}
