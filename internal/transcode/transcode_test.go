package transcode

import (
	"bytes"
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/discochess/hdfsutil/internal/codec"
	"github.com/discochess/hdfsutil/internal/codec/builtin"
	"github.com/discochess/hdfsutil/internal/pipe"
	"github.com/discochess/hdfsutil/internal/stats"
	promstats "github.com/discochess/hdfsutil/internal/stats/prometheus"
	"github.com/discochess/hdfsutil/internal/store"
	"github.com/discochess/hdfsutil/internal/store/memstore"
)

func newTranscoder(t *testing.T, opts ...Option) (*Transcoder, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	return New(st, builtin.NewRegistry(), opts...), st
}

func listNames(t *testing.T, st store.Lister, dir string) []string {
	t.Helper()
	entries, err := st.List(context.Background(), dir)
	if err != nil {
		t.Fatalf("List(%s) error = %v", dir, err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names
}

func TestRoundTrip_AllCodecs(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	random := make([]byte, 64<<10)
	for i := range random {
		random[i] = byte(rng.IntN(256))
	}

	inputs := map[string][]byte{
		"empty":  {},
		"short":  []byte("hello hdfs"),
		"text":   []byte(strings.Repeat("region,amount\nemea,42\n", 5000)),
		"random": random,
	}

	tr, st := newTranscoder(t, WithBufferSize(1000))
	ctx := context.Background()

	for _, reg := range builtin.NewRegistry().Registrations() {
		for name, data := range inputs {
			t.Run(reg.Name+"/"+name, func(t *testing.T) {
				src := "/in/" + name
				dst := "/out/" + reg.Name + "/" + name
				st.SetFile(src, data)

				if err := tr.CompressFile(ctx, reg.Name, src, dst); err != nil {
					t.Fatalf("CompressFile() error = %v", err)
				}

				var out bytes.Buffer
				if err := tr.DecompressTo(ctx, reg.Name, dst, &out); err != nil {
					t.Fatalf("DecompressTo() error = %v", err)
				}
				if !bytes.Equal(out.Bytes(), data) {
					t.Errorf("round trip = %d bytes, want %d", out.Len(), len(data))
				}
			})
		}
	}
}

func TestCompressFile_HadoopAlias(t *testing.T) {
	tr, st := newTranscoder(t)
	ctx := context.Background()
	st.SetFile("/a.csv", []byte("a,b\n1,2\n"))

	if err := tr.CompressFile(ctx, "org.apache.hadoop.io.compress.GzipCodec", "/a.csv", "/a.csv.gz"); err != nil {
		t.Fatalf("CompressFile() error = %v", err)
	}
	dst, err := tr.DecompressByExtension(ctx, "/a.csv.gz")
	if err != nil {
		t.Fatalf("DecompressByExtension() error = %v", err)
	}
	if dst != "/a.csv" {
		t.Errorf("DecompressByExtension() = %q, want /a.csv", dst)
	}
}

func TestCompressFile_Errors(t *testing.T) {
	tr, st := newTranscoder(t)
	ctx := context.Background()
	st.SetFile("/in.txt", []byte("data"))

	err := tr.CompressFile(ctx, "rar", "/in.txt", "/out.rar")
	if !errors.Is(err, codec.ErrNotFound) {
		t.Errorf("CompressFile(unknown codec) error = %v, want ErrNotFound", err)
	}
	if _, ok := st.File("/out.rar"); ok {
		t.Error("output created for unknown codec")
	}

	err = tr.CompressFile(ctx, builtin.Gzip, "/missing.txt", "/out.gz")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("CompressFile(missing) error = %v, want store.ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "/missing.txt") || !strings.Contains(err.Error(), builtin.Gzip) {
		t.Errorf("error %q should name path and codec", err)
	}
}

func TestDecompressByExtension(t *testing.T) {
	tr, st := newTranscoder(t)
	ctx := context.Background()
	st.SetFile("/data/report.csv", []byte("x,y\n"))

	if err := tr.CompressFile(ctx, builtin.Zstd, "/data/report.csv", "/data/copy.csv.zst"); err != nil {
		t.Fatalf("CompressFile() error = %v", err)
	}

	dst, err := tr.DecompressByExtension(ctx, "/data/copy.csv.zst")
	if err != nil {
		t.Fatalf("DecompressByExtension() error = %v", err)
	}
	if dst != "/data/copy.csv" {
		t.Errorf("dst = %q, want /data/copy.csv", dst)
	}
	if data, _ := st.File(dst); string(data) != "x,y\n" {
		t.Errorf("output = %q, want %q", data, "x,y\n")
	}
}

func TestDecompressByExtension_NoCodec(t *testing.T) {
	tr, st := newTranscoder(t)
	st.SetFile("/data/report.csv", []byte("x"))
	before := listNames(t, st, "/data")

	_, err := tr.DecompressByExtension(context.Background(), "/data/report.csv")
	if !errors.Is(err, codec.ErrNoCodecForExtension) {
		t.Fatalf("DecompressByExtension() error = %v, want ErrNoCodecForExtension", err)
	}
	if after := listNames(t, st, "/data"); len(after) != len(before) {
		t.Errorf("files after = %v, want %v", after, before)
	}
}

func TestDecompressTo_CorruptInput(t *testing.T) {
	tr, st := newTranscoder(t)
	st.SetFile("/bad.gz", []byte("definitely not gzip"))

	var out bytes.Buffer
	if err := tr.DecompressTo(context.Background(), builtin.Gzip, "/bad.gz", &out); err == nil {
		t.Error("DecompressTo(corrupt) should return error")
	}
}

func TestDecompressFile(t *testing.T) {
	tr, st := newTranscoder(t)
	ctx := context.Background()
	st.SetFile("/a.txt", []byte("payload"))

	if err := tr.CompressFile(ctx, builtin.LZ4, "/a.txt", "/a.bin"); err != nil {
		t.Fatalf("CompressFile() error = %v", err)
	}
	if err := tr.DecompressFile(ctx, builtin.LZ4, "/a.bin", "/b.txt"); err != nil {
		t.Fatalf("DecompressFile() error = %v", err)
	}
	if data, _ := st.File("/b.txt"); string(data) != "payload" {
		t.Errorf("output = %q, want payload", data)
	}
}

func TestReadFailure_DirectWriteKeepsPartial(t *testing.T) {
	tr, st := newTranscoder(t, WithBufferSize(4))
	st.SetFile("/in.txt", []byte("0123456789"))
	st.FailReadAfter("/in.txt", 8, store.ErrConnection)

	err := tr.CompressFile(context.Background(), builtin.None, "/in.txt", "/out.txt")
	if !errors.Is(err, store.ErrConnection) {
		t.Fatalf("CompressFile() error = %v, want ErrConnection", err)
	}
	var pe *pipe.Error
	if !errors.As(err, &pe) || pe.Op != pipe.OpRead {
		t.Errorf("error = %v, want read-side pipe error", err)
	}
	if data, _ := st.File("/out.txt"); string(data) != "01234567" {
		t.Errorf("partial output = %q, want %q", data, "01234567")
	}
}

func TestAtomicWrites(t *testing.T) {
	tr, st := newTranscoder(t, WithAtomicWrites(), WithBufferSize(4))
	ctx := context.Background()
	st.SetFile("/dir/in.txt", []byte("0123456789"))

	if err := tr.CompressFile(ctx, builtin.Gzip, "/dir/in.txt", "/dir/in.txt.gz"); err != nil {
		t.Fatalf("CompressFile() error = %v", err)
	}
	if got := listNames(t, st, "/dir"); len(got) != 2 {
		t.Errorf("files = %v, want in.txt and in.txt.gz only", got)
	}

	st.FailReadAfter("/dir/in.txt", 5, store.ErrConnection)
	if err := tr.CompressFile(ctx, builtin.Gzip, "/dir/in.txt", "/dir/failed.gz"); err == nil {
		t.Fatal("CompressFile() should fail")
	}
	for _, name := range listNames(t, st, "/dir") {
		if strings.HasPrefix(name, "failed.gz") {
			t.Errorf("failed atomic write left %q", name)
		}
	}
}

type noRenameStore struct {
	store.Store
}

func TestAtomicWrites_RequiresRenamer(t *testing.T) {
	st := memstore.New()
	st.SetFile("/in.txt", []byte("x"))
	tr := New(noRenameStore{st}, builtin.NewRegistry(), WithAtomicWrites())

	err := tr.CompressFile(context.Background(), builtin.Gzip, "/in.txt", "/out.gz")
	if !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("CompressFile() error = %v, want ErrUnsupported", err)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	tr, st := newTranscoder(t, WithStats(promstats.New(reg)))
	ctx := context.Background()
	st.SetFile("/in.txt", []byte("0123456789"))

	if err := tr.CompressFile(ctx, builtin.Gzip, "/in.txt", "/in.txt.gz"); err != nil {
		t.Fatalf("CompressFile() error = %v", err)
	}
	tr.DecompressByExtension(ctx, "/in.txt")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	got := make(map[string]float64)
	for _, f := range families {
		got[f.GetName()] = f.GetMetric()[0].GetCounter().GetValue()
	}

	want := map[string]float64{
		stats.MetricTranscodeOps:      2,
		stats.MetricTranscodeFailures: 1,
		stats.MetricTranscodeBytes:    10,
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("%s = %v, want %v", name, got[name], v)
		}
	}
}
