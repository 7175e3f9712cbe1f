// Package archive defines the sequential named-entry container that remote
// trees are written into.
package archive

import (
	"io"
	"strings"
)

// Sink receives archive entries in order. Entries are written from a
// single goroutine; the writer returned by CreateFile is valid until the
// next call on the Sink.
type Sink interface {
	// CreateDir adds a directory marker. name ends in "/".
	CreateDir(name string) error

	// CreateFile starts a file entry and returns the writer for its payload.
	CreateFile(name string) (io.Writer, error)
}

// DirName returns the marker name for a directory base name.
func DirName(base string) string {
	if strings.HasSuffix(base, "/") {
		return base
	}
	return base + "/"
}
