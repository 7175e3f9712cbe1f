package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/discochess/hdfsutil/internal/stats"
)

func TestCollector_LogsMetrics(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := New(zap.New(core))

	c.IncCounter(stats.MetricArchiveFiles, 2)
	c.SetGauge(stats.MetricCacheSize, 7)
	c.ObserveHistogram(stats.MetricArchiveDuration, 1.5)

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("logged %d entries, want 3", len(entries))
	}

	want := []string{"counter", "gauge", "histogram"}
	for i, e := range entries {
		if e.Message != want[i] {
			t.Errorf("entry %d message = %q, want %q", i, e.Message, want[i])
		}
		if e.LoggerName != "stats" {
			t.Errorf("entry %d logger = %q, want %q", i, e.LoggerName, "stats")
		}
	}
	if got := entries[0].ContextMap()["metric"]; got != stats.MetricArchiveFiles {
		t.Errorf("metric field = %v, want %q", got, stats.MetricArchiveFiles)
	}
	if got := entries[0].ContextMap()["delta"]; got != int64(2) {
		t.Errorf("delta field = %v, want 2", got)
	}
}

func TestCollector_WithLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	New(zap.New(core)).IncCounter(stats.MetricArchiveFiles, 1)
	if logs.Len() != 0 {
		t.Errorf("debug metrics logged at info core: %d", logs.Len())
	}

	New(zap.New(core), WithLevel(zapcore.InfoLevel)).IncCounter(stats.MetricArchiveFiles, 1)
	if logs.Len() != 1 {
		t.Errorf("info metrics logged = %d, want 1", logs.Len())
	}
}

func TestNew_NilLogger(t *testing.T) {
	c := New(nil)
	c.IncCounter(stats.MetricArchiveFiles, 1)
}
