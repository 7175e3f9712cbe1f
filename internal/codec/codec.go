// Package codec provides pluggable compression codecs for remote files and
// the registry used to resolve them by identifier or by file extension.
package codec

import (
	"errors"
	"io"
	"strings"
)

var (
	// ErrNotFound is returned when an identifier does not name a registered codec.
	ErrNotFound = errors.New("codec: not found")

	// ErrNoCodecForExtension is returned when no registered codec matches a
	// file name suffix.
	ErrNoCodecForExtension = errors.New("codec: no codec for extension")
)

// Codec provides compression and decompression functionality.
type Codec interface {
	// Reader wraps r to decompress data read from it.
	Reader(r io.Reader) (io.ReadCloser, error)
	// Writer wraps w to compress data written to it.
	// Closing the returned writer flushes buffered output but does not close w.
	Writer(w io.Writer) (io.WriteCloser, error)
	// Extension returns the file extension without dot (e.g., "zst", "gz").
	// Returns empty string for no compression.
	Extension() string
}

// Suffix returns the file name suffix for c including the leading dot,
// or "" when c has no extension.
func Suffix(c Codec) string {
	ext := c.Extension()
	if ext == "" {
		return ""
	}
	return "." + ext
}

// StripExtension removes the suffix of c from path. A path that does not end
// with the suffix is returned unchanged.
func StripExtension(path string, c Codec) string {
	suffix := Suffix(c)
	if suffix == "" {
		return path
	}
	return strings.TrimSuffix(path, suffix)
}
