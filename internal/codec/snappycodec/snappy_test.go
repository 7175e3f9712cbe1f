package snappycodec

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestCodec_Extension(t *testing.T) {
	if got := New().Extension(); got != "snappy" {
		t.Errorf("Extension() = %q, want %q", got, "snappy")
	}
}

func roundTrip(t *testing.T, c *Codec, data []byte) ([]byte, int) {
	t.Helper()

	var compressed bytes.Buffer
	w, err := c.Writer(&compressed)
	if err != nil {
		t.Fatalf("Writer() error = %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	size := compressed.Len()

	r, err := c.Reader(&compressed)
	if err != nil {
		t.Fatalf("Reader() error = %v", err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return got, size
}

func TestCodec_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"short", []byte("snappy framed data")},
		{"repetitive", bytes.Repeat([]byte("ABCDEFGHIJ"), 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := roundTrip(t, New(), tt.data)
			if !bytes.Equal(got, tt.data) {
				t.Errorf("round trip = %d bytes, want %d", len(got), len(tt.data))
			}
		})
	}
}

func TestCodec_Compresses(t *testing.T) {
	data := []byte(strings.Repeat("region,amount\nemea,42\n", 2000))
	if _, size := roundTrip(t, New(), data); size >= len(data) {
		t.Errorf("compressed %d bytes to %d, want smaller", len(data), size)
	}
}

func TestCodec_CorruptInput(t *testing.T) {
	r, err := New().Reader(strings.NewReader("this is not a snappy stream"))
	if err != nil {
		return
	}
	defer r.Close()
	if _, err := io.ReadAll(r); err == nil {
		t.Error("reading corrupt input should fail")
	}
}
