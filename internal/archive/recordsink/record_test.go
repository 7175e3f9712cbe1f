package recordsink

import (
	"errors"
	"io"
	"testing"
)

func TestSink_Records(t *testing.T) {
	s := New()

	if err := s.CreateDir("nested/"); err != nil {
		t.Fatalf("CreateDir() error = %v", err)
	}
	w, err := s.CreateFile("nested/a.txt")
	if err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}
	io.WriteString(w, "hello ")
	io.WriteString(w, "world")

	names := s.Names()
	if len(names) != 2 || names[0] != "nested/" || names[1] != "nested/a.txt" {
		t.Errorf("Names() = %v", names)
	}

	e, ok := s.Find("nested/a.txt")
	if !ok {
		t.Fatal("Find() should find the file")
	}
	if e.IsDir || string(e.Data) != "hello world" {
		t.Errorf("Find() = %+v", e)
	}
	if entries := s.Entries(); !entries[0].IsDir {
		t.Errorf("Entries()[0] = %+v, want dir", entries[0])
	}
}

func TestSink_FailOn(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	s.FailOn("bad.txt", boom)

	if _, err := s.CreateFile("bad.txt"); !errors.Is(err, boom) {
		t.Errorf("CreateFile() error = %v, want %v", err, boom)
	}
	if err := s.CreateDir("bad.txt"); !errors.Is(err, boom) {
		t.Errorf("CreateDir() error = %v, want %v", err, boom)
	}

	w, err := s.CreateFile("later.txt")
	if err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}
	s.FailOn("later.txt", boom)
	if _, err := w.Write([]byte("x")); !errors.Is(err, boom) {
		t.Errorf("Write() error = %v, want %v", err, boom)
	}
}
