package sftpstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/sftp"

	"github.com/discochess/hdfsutil/internal/store"
)

func TestStore_fullPath(t *testing.T) {
	tests := []struct {
		base string
		name string
		want string
	}{
		{"", "/data/a.txt", "/data/a.txt"},
		{"/home/etl", "/data/a.txt", "/home/etl/data/a.txt"},
		{"/home/etl", "/", "/home/etl"},
		{"upload", "/x", "upload/x"},
	}

	for _, tt := range tests {
		s := &Store{basePath: tt.base}
		if got := s.fullPath(tt.name); got != tt.want {
			t.Errorf("fullPath(%q, %q) = %q, want %q", tt.base, tt.name, got, tt.want)
		}
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not exist", &fs.PathError{Op: "open", Path: "/x", Err: os.ErrNotExist}, store.ErrNotFound},
		{"connection lost", fmt.Errorf("read: %w", sftp.ErrSSHFxConnectionLost), store.ErrConnection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapError("op", "/x", tt.err); !errors.Is(got, tt.want) {
				t.Errorf("mapError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithPrivateKey_Invalid(t *testing.T) {
	_, err := New("127.0.0.1:1", "etl", WithPrivateKey([]byte("not a key")))
	if err == nil {
		t.Fatal("New() with invalid key should return error")
	}
	if errors.Is(err, store.ErrConnection) {
		t.Errorf("New() error = %v, want key error before dialing", err)
	}
}

func TestWithKnownHosts_Missing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "known_hosts")
	if _, err := New("127.0.0.1:1", "etl", WithKnownHosts(missing)); err == nil {
		t.Error("New() with missing known_hosts should return error")
	}
}
