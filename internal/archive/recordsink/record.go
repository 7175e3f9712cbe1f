// Package recordsink provides an in-memory archive.Sink for testing.
package recordsink

import (
	"bytes"
	"fmt"
	"io"

	"github.com/discochess/hdfsutil/internal/archive"
)

// Compile-time check that Sink implements archive.Sink.
var _ archive.Sink = (*Sink)(nil)

// Entry is one recorded archive entry.
type Entry struct {
	Name  string
	IsDir bool
	Data  []byte
}

// Sink records entries in order.
type Sink struct {
	entries []*Entry
	failOn  map[string]error
}

// New creates an empty Sink.
func New() *Sink {
	return &Sink{failOn: make(map[string]error)}
}

// FailOn makes creating the entry name fail with err, and writes to it if
// it was already created.
func (s *Sink) FailOn(name string, err error) {
	s.failOn[name] = err
}

// CreateDir records a directory marker.
func (s *Sink) CreateDir(name string) error {
	if err := s.failOn[name]; err != nil {
		return err
	}
	s.entries = append(s.entries, &Entry{Name: name, IsDir: true})
	return nil
}

// CreateFile records a file entry and returns a writer for its data.
func (s *Sink) CreateFile(name string) (io.Writer, error) {
	if err := s.failOn[name]; err != nil {
		return nil, err
	}
	e := &Entry{Name: name}
	s.entries = append(s.entries, e)
	return &entryWriter{s: s, e: e}, nil
}

// Entries returns the recorded entries.
func (s *Sink) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = Entry{Name: e.Name, IsDir: e.IsDir, Data: bytes.Clone(e.Data)}
	}
	return out
}

// Names returns the recorded entry names in order.
func (s *Sink) Names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.Name
	}
	return names
}

// Find returns the first entry named name.
func (s *Sink) Find(name string) (Entry, bool) {
	for _, e := range s.entries {
		if e.Name == name {
			return Entry{Name: e.Name, IsDir: e.IsDir, Data: bytes.Clone(e.Data)}, true
		}
	}
	return Entry{}, false
}

type entryWriter struct {
	s *Sink
	e *Entry
}

func (w *entryWriter) Write(p []byte) (int, error) {
	if err := w.s.failOn[w.e.Name]; err != nil {
		return 0, fmt.Errorf("write %s: %w", w.e.Name, err)
	}
	w.e.Data = append(w.e.Data, p...)
	return len(p), nil
}
