// Package snappycodec provides a Snappy codec using the framed stream format.
package snappycodec

import (
	"io"

	"github.com/klauspost/compress/s2"

	"github.com/discochess/hdfsutil/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec implements Snappy framed compression. Output is readable by any
// Snappy framing decoder.
type Codec struct{}

// New returns a new snappy codec.
func New() *Codec {
	return &Codec{}
}

// Reader wraps r to decompress Snappy framed data.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(s2.NewReader(r)), nil
}

// Writer wraps w to compress data with Snappy framing.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return s2.NewWriter(w, s2.WriterSnappyCompat()), nil
}

// Extension returns "snappy".
func (c *Codec) Extension() string {
	return "snappy"
}
