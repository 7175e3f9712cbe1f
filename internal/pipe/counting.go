package pipe

import (
	"io"
	"sync/atomic"
)

// CountingWriter wraps an io.Writer to track bytes written.
type CountingWriter struct {
	w       io.Writer
	written *atomic.Int64
}

// NewCountingWriter returns a writer adding every written byte count to counter.
func NewCountingWriter(w io.Writer, counter *atomic.Int64) *CountingWriter {
	return &CountingWriter{w: w, written: counter}
}

func (cw *CountingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.written.Add(int64(n))
	return n, err
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	r    io.Reader
	read *atomic.Int64
}

// NewCountingReader returns a reader adding every read byte count to counter.
func NewCountingReader(r io.Reader, counter *atomic.Int64) *CountingReader {
	return &CountingReader{r: r, read: counter}
}

func (cr *CountingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.read.Add(int64(n))
	return n, err
}
