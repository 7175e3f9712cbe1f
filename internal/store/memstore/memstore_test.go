package memstore

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/discochess/hdfsutil/internal/store"
)

func TestStore_ListSorted(t *testing.T) {
	s := New()
	s.SetFile("/data/b.txt", []byte("b"))
	s.SetFile("/data/a.txt", []byte("aa"))
	s.MkdirAll("/data/nested")
	s.SetFile("/data/nested/deep.txt", []byte("deep"))

	entries, err := s.List(context.Background(), "/data")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := []struct {
		name  string
		isDir bool
		size  int64
	}{
		{"a.txt", false, 2},
		{"b.txt", false, 1},
		{"nested", true, 0},
	}
	if len(entries) != len(want) {
		t.Fatalf("List() returned %d entries, want %d", len(entries), len(want))
	}
	for i, w := range want {
		e := entries[i]
		if e.Name != w.name || e.IsDir != w.isDir || e.Size != w.size {
			t.Errorf("entries[%d] = %+v, want %+v", i, e, w)
		}
		if e.Path != "/data/"+w.name {
			t.Errorf("entries[%d].Path = %q", i, e.Path)
		}
	}
}

func TestStore_ListErrors(t *testing.T) {
	s := New()
	s.SetFile("/file.txt", []byte("x"))
	ctx := context.Background()

	if _, err := s.List(ctx, "/missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("List(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := s.List(ctx, "/file.txt"); !errors.Is(err, store.ErrNotDir) {
		t.Errorf("List(file) error = %v, want ErrNotDir", err)
	}

	s.MkdirAll("/flaky")
	s.Fail(OpList, "/flaky", store.ErrConnection)
	if _, err := s.List(ctx, "/flaky"); !errors.Is(err, store.ErrConnection) {
		t.Errorf("List(flaky) error = %v, want ErrConnection", err)
	}
	s.Fail(OpList, "/flaky", nil)
	if _, err := s.List(ctx, "/flaky"); err != nil {
		t.Errorf("List(flaky) after clearing fault error = %v", err)
	}
}

func TestStore_CreateOpen(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := store.WriteFile(ctx, s, "/a/b/c.txt", []byte("hello")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	got, err := store.ReadFile(ctx, s, "/a/b/c.txt")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("ReadFile() = %q, want %q", got, "hello")
	}

	entry, err := s.Stat(ctx, "/a/b")
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if !entry.IsDir {
		t.Error("parent directory was not created")
	}

	// Create truncates.
	if err := store.WriteFile(ctx, s, "/a/b/c.txt", []byte("x")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if data, _ := s.File("/a/b/c.txt"); string(data) != "x" {
		t.Errorf("File() = %q, want %q", data, "x")
	}
}

func TestStore_OpenErrors(t *testing.T) {
	s := New()
	s.MkdirAll("/dir")
	ctx := context.Background()

	if _, err := s.Open(ctx, "/nope"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Open(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := s.Open(ctx, "/dir"); !errors.Is(err, store.ErrIsDir) {
		t.Errorf("Open(dir) error = %v, want ErrIsDir", err)
	}
}

func TestStore_FailReadAfter(t *testing.T) {
	s := New()
	s.SetFile("/big.bin", []byte("0123456789"))
	readErr := errors.New("datanode went away")
	s.FailReadAfter("/big.bin", 4, readErr)

	r, err := s.Open(context.Background(), "/big.bin")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if !errors.Is(err, readErr) {
		t.Errorf("ReadAll() error = %v, want %v", err, readErr)
	}
	if string(data) != "0123" {
		t.Errorf("ReadAll() = %q, want %q", data, "0123")
	}
}

func TestStore_Remove(t *testing.T) {
	s := New()
	s.SetFile("/d/x", []byte("x"))
	s.SetFile("/d/sub/y", []byte("y"))
	ctx := context.Background()

	if err := s.Remove(ctx, "/d", false); !errors.Is(err, store.ErrNotEmpty) {
		t.Errorf("Remove(non-recursive) error = %v, want ErrNotEmpty", err)
	}
	if err := s.Remove(ctx, "/d", true); err != nil {
		t.Fatalf("Remove(recursive) error = %v", err)
	}
	if _, err := s.Stat(ctx, "/d/sub/y"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Stat() after remove error = %v, want ErrNotFound", err)
	}
	if err := s.Remove(ctx, "/d", false); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Remove(missing) error = %v, want ErrNotFound", err)
	}
}

func TestStore_Rename(t *testing.T) {
	s := New()
	s.SetFile("/tmp/out.gz.tmp", []byte("z"))
	ctx := context.Background()

	if err := s.Rename(ctx, "/tmp/out.gz.tmp", "/final/out.gz"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if _, ok := s.File("/tmp/out.gz.tmp"); ok {
		t.Error("old name still present")
	}
	if data, ok := s.File("/final/out.gz"); !ok || string(data) != "z" {
		t.Errorf("File(new) = %q, %v", data, ok)
	}
}

func TestStore_CancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.List(ctx, "/"); !errors.Is(err, context.Canceled) {
		t.Errorf("List() error = %v, want context.Canceled", err)
	}
}
