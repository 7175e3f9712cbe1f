package codec

import (
	"errors"
	"testing"
)

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("gzip", factory("gz"), "org.apache.hadoop.io.compress.GzipCodec"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	for _, id := range []string{"gzip", "GZIP", " gzip ", "org.apache.hadoop.io.compress.GzipCodec"} {
		c, err := r.Resolve(id)
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", id, err)
		}
		if c.Extension() != "gz" {
			t.Errorf("Resolve(%q).Extension() = %q, want %q", id, c.Extension(), "gz")
		}
	}
}

func TestRegistry_Resolve_NotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve("com.example.MissingCodec")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve() error = %v, want ErrNotFound", err)
	}
}

func TestRegistry_Register_Invalid(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("", factory("gz")); err == nil {
		t.Error("Register() with empty name should return error")
	}
	if err := r.Register("gzip", nil); err == nil {
		t.Error("Register() with nil factory should return error")
	}
}

func TestRegistry_Register_Replaces(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("fast", factory("f1"), "quick")
	_ = r.Register("fast", factory("f2"))

	c, err := r.Resolve("fast")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if c.Extension() != "f2" {
		t.Errorf("Extension() = %q, want %q", c.Extension(), "f2")
	}
	if _, err := r.Resolve("quick"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(old alias) error = %v, want ErrNotFound", err)
	}
	if _, ok := r.ResolveByExtension("a.f1"); ok {
		t.Error("ResolveByExtension() matched a replaced codec")
	}
	if n := len(r.Registrations()); n != 1 {
		t.Errorf("len(Registrations()) = %d, want 1", n)
	}
}

func TestRegistry_ResolveByExtension(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("gzip", factory("gz"))
	_ = r.Register("targz", factory("tar.gz"))
	_ = r.Register("deflate", factory("deflate"))
	_ = r.Register("none", factory(""))

	tests := []struct {
		path    string
		wantExt string
		wantOK  bool
	}{
		{"/logs/app.log.gz", "gz", true},
		{"/logs/bundle.tar.gz", "tar.gz", true},
		{"/logs/part-00000.deflate", "deflate", true},
		{"/logs/app.log", "", false},
		{"/logs/app.GZ", "", false},
		{"/logs/gz", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			c, ok := r.ResolveByExtension(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("ResolveByExtension(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if ok && c.Extension() != tt.wantExt {
				t.Errorf("ResolveByExtension(%q).Extension() = %q, want %q", tt.path, c.Extension(), tt.wantExt)
			}
		})
	}
}

func TestRegistry_Registrations_Sorted(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("zstd", factory("zst"))
	_ = r.Register("brotli", factory("br"))
	_ = r.Register("gzip", factory("gz"), "gz")

	regs := r.Registrations()
	want := []string{"brotli", "gzip", "zstd"}
	if len(regs) != len(want) {
		t.Fatalf("len(Registrations()) = %d, want %d", len(regs), len(want))
	}
	for i, name := range want {
		if regs[i].Name != name {
			t.Errorf("Registrations()[%d].Name = %q, want %q", i, regs[i].Name, name)
		}
	}
	if regs[1].Extension != "gz" || len(regs[1].Aliases) != 1 {
		t.Errorf("Registrations()[1] = %+v", regs[1])
	}
}
