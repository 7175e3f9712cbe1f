package hdfsutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/discochess/hdfsutil/internal/stats"
	"github.com/discochess/hdfsutil/internal/store/cachedstore"
	"github.com/discochess/hdfsutil/internal/store/diskstore"
	"github.com/discochess/hdfsutil/internal/store/memstore"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "hdfsutil.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadConfig(t *testing.T) {
	t.Setenv(EnvEndpoint, "")
	t.Setenv(EnvUser, "")

	p := writeConfig(t, `
backend: sftp
endpoint: files.example.com:22
user: etl
prefix: /srv/data
known_hosts: /etc/ssh/known_hosts
timeout: 30s
cache_size: 64
buffer_size: 8192
atomic_writes: true
`)

	cfg, err := LoadConfig(p)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	want := Config{
		Backend:      BackendSFTP,
		Endpoint:     "files.example.com:22",
		User:         "etl",
		Prefix:       "/srv/data",
		KnownHosts:   "/etc/ssh/known_hosts",
		Timeout:      30 * time.Second,
		CacheSize:    64,
		BufferSize:   8192,
		AtomicWrites: true,
	}
	if cfg != want {
		t.Errorf("LoadConfig() = %+v, want %+v", cfg, want)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv(EnvEndpoint, "nn1:8020,nn2:8020")
	t.Setenv(EnvUser, "hive")

	cfg, err := LoadConfig(writeConfig(t, "endpoint: namenode:8020\nuser: etl\n"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Endpoint != "nn1:8020,nn2:8020" {
		t.Errorf("Endpoint = %q, want env value", cfg.Endpoint)
	}
	if cfg.User != "hive" {
		t.Errorf("User = %q, want env value", cfg.User)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadConfig(missing) error = %v, want os.ErrNotExist", err)
	}
	if _, err := LoadConfig(writeConfig(t, "backend: [not, a, string]\n")); err == nil {
		t.Error("LoadConfig(invalid) should return error")
	}
}

func TestOpen_Backends(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  Config
		want func(any) bool
	}{
		{
			name: "memory",
			cfg:  Config{Backend: BackendMemory},
			want: func(s any) bool { _, ok := s.(*memstore.Store); return ok },
		},
		{
			name: "local",
			cfg:  Config{Backend: BackendLocal, Endpoint: dir},
			want: func(s any) bool { _, ok := s.(*diskstore.Store); return ok },
		},
		{
			name: "cached",
			cfg:  Config{Backend: BackendMemory, CacheSize: 8},
			want: func(s any) bool { _, ok := s.(*cachedstore.Store); return ok },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := Open(context.Background(), tt.cfg)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer client.Close()

			if !tt.want(client.Store()) {
				t.Errorf("Store() = %T", client.Store())
			}
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown backend", Config{Backend: "ftp"}},
		{"hdfs without endpoint", Config{Backend: BackendHDFS}},
		{"local missing root", Config{Backend: BackendLocal, Endpoint: filepath.Join(t.TempDir(), "nope")}},
		{"sftp missing key file", Config{Backend: BackendSFTP, Endpoint: "localhost:1", KeyFile: filepath.Join(t.TempDir(), "id_rsa")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(context.Background(), tt.cfg); err == nil {
				t.Error("Open() should return error")
			}
		})
	}

	_, err := Open(context.Background(), Config{Backend: "ftp"})
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open(ftp) error = %v, want ErrUnknownBackend", err)
	}
}

func TestOpen_AppliesConfigOptions(t *testing.T) {
	client, err := Open(context.Background(), Config{Backend: BackendMemory, AtomicWrites: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer client.Close()

	mem := client.Store().(*memstore.Store)
	mem.SetFile("/a.txt", []byte("abc"))
	if err := client.CompressFile(context.Background(), "gzip", "/a.txt", "/a.txt.gz"); err != nil {
		t.Fatalf("CompressFile() error = %v", err)
	}
	entries, _ := client.List(context.Background(), "/")
	if len(entries) != 2 {
		t.Errorf("List() = %v, want a.txt and a.txt.gz", entries)
	}
}

type countingStats struct {
	counters map[string]int64
}

func (s *countingStats) IncCounter(name string, delta int64) { s.counters[name] += delta }
func (s *countingStats) SetGauge(string, int64) {}
func (s *countingStats) ObserveHistogram(string, float64) {}

func TestOpen_UserOptions(t *testing.T) {
	collector := &countingStats{counters: map[string]int64{}}
	ignored := memstore.New()
	ignored.SetFile("/ignored.txt", []byte("x"))

	client, err := Open(context.Background(),
		Config{Backend: BackendMemory, CacheSize: 4, BufferSize: 8192},
		WithBufferSize(16), WithStats(collector), WithStore(ignored))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer client.Close()

	if ok, _ := client.Exists(context.Background(), "/ignored.txt"); ok {
		t.Error("Open() used the store from WithStore, want the configured backend")
	}
	if got := client.bufSize; got != 16 {
		t.Errorf("buffer size = %d, want 16 from WithBufferSize", got)
	}

	if err := client.CreateFileString(context.Background(), "/a.txt", "abc"); err != nil {
		t.Fatalf("CreateFileString() error = %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := client.ReadFile(context.Background(), "/a.txt"); err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
	}
	if collector.counters[stats.MetricCacheMisses] != 1 || collector.counters[stats.MetricCacheHits] != 1 {
		t.Errorf("cache counters = %v, want one miss and one hit on the WithStats collector", collector.counters)
	}
}
