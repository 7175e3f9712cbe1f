// Package pipe copies byte streams with a bounded buffer and reports which
// side of the copy failed.
package pipe

import (
	"errors"
	"io"
)

// DefaultBufferSize is used when a non-positive buffer size is requested.
const DefaultBufferSize = 4096

// Operations reported in Error.Op.
const (
	OpRead  = "read"
	OpWrite = "write"
	OpClose = "close"
)

var errInvalidWrite = errors.New("invalid write result")

// Error is returned by Copy and CopyAndClose. Op tells whether the source
// (OpRead), the sink (OpWrite) or closing the sink (OpClose) failed.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return "pipe: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsWriteError reports whether err came from the sink side of a copy.
func IsWriteError(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && (pe.Op == OpWrite || pe.Op == OpClose)
}

// Copy copies src to dst until src is exhausted, using a buffer of bufSize
// bytes. It returns the number of bytes written to dst. Bytes already written
// when an error occurs are not rolled back.
func Copy(dst io.Writer, src io.Reader, bufSize int) (int64, error) {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	buf := make([]byte, bufSize)

	var written int64
	for {
		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			if nw < 0 || nr < nw {
				nw = 0
				if werr == nil {
					werr = errInvalidWrite
				}
			}
			written += int64(nw)
			if werr != nil {
				return written, &Error{Op: OpWrite, Err: werr}
			}
			if nr != nw {
				return written, &Error{Op: OpWrite, Err: io.ErrShortWrite}
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				return written, nil
			}
			return written, &Error{Op: OpRead, Err: rerr}
		}
	}
}

// CopyAndClose copies src to dst and closes both on every path. A failure to
// close dst is reported when the copy itself succeeded.
func CopyAndClose(dst io.WriteCloser, src io.ReadCloser, bufSize int) (n int64, err error) {
	defer src.Close()

	n, err = Copy(dst, src, bufSize)
	if cerr := dst.Close(); cerr != nil && err == nil {
		err = &Error{Op: OpClose, Err: cerr}
	}
	return n, err
}
