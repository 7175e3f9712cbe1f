// Package deflatecodec provides a zlib-framed deflate codec, the format
// Hadoop writes with its default codec under the ".deflate" extension.
package deflatecodec

import (
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/discochess/hdfsutil/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec implements zlib/deflate compression.
type Codec struct{}

// New returns a new deflate codec.
func New() *Codec {
	return &Codec{}
}

// Reader wraps r to decompress zlib data.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return zlib.NewReader(r)
}

// Writer wraps w to compress data with zlib.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return zlib.NewWriter(w), nil
}

// Extension returns "deflate".
func (c *Codec) Extension() string {
	return "deflate"
}
