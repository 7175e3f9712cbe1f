package main

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/discochess/hdfsutil/internal/stats"
	promstats "github.com/discochess/hdfsutil/internal/stats/prometheus"
)

func TestServeMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	promstats.New(reg).IncCounter(stats.MetricArchiveFiles, 3)

	addr, stop, err := serveMetrics("127.0.0.1:0", reg, zap.NewNop())
	if err != nil {
		t.Fatalf("serveMetrics() error = %v", err)
	}
	defer stop()

	resp, err := http.Get("http://" + addr.String() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), stats.MetricArchiveFiles+" 3") {
		t.Errorf("metrics body missing %s:\n%s", stats.MetricArchiveFiles, body)
	}
}

func TestNewCollector(t *testing.T) {
	metricsAddr = ""
	c, stop, err := newCollector(zap.NewNop())
	if err != nil {
		t.Fatalf("newCollector() error = %v", err)
	}
	stop()
	if _, ok := c.(*promstats.Collector); ok {
		t.Error("newCollector() without address should not use Prometheus")
	}

	metricsAddr = "127.0.0.1:0"
	defer func() { metricsAddr = "" }()
	c, stop, err = newCollector(zap.NewNop())
	if err != nil {
		t.Fatalf("newCollector() error = %v", err)
	}
	defer stop()
	if _, ok := c.(*promstats.Collector); !ok {
		t.Errorf("newCollector() = %T, want *prometheus.Collector", c)
	}
}

func TestArchive_WithMetricsAddr(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "data/a.txt", "a")

	out, err := execute(t, root, "--metrics-addr", "127.0.0.1:0", "archive", "/data", t.TempDir()+"/data.zip")
	if err != nil {
		t.Fatalf("archive error = %v", err)
	}
	if !strings.Contains(out, "Files:    1") {
		t.Errorf("archive output = %q", out)
	}
}
