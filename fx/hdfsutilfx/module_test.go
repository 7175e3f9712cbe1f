package hdfsutilfx

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/discochess/hdfsutil"
	"github.com/discochess/hdfsutil/internal/stats"
)

func TestModule_ProvidesClient(t *testing.T) {
	var client *hdfsutil.Client
	app := fxtest.New(t,
		fx.Supply(zap.NewNop()),
		fx.Supply(hdfsutil.Config{Backend: hdfsutil.BackendLocal, Endpoint: t.TempDir()}),
		Module,
		fx.Populate(&client),
	)
	app.RequireStart()

	ctx := context.Background()
	if err := client.CreateFileString(ctx, "/in/a.txt", "hello"); err != nil {
		t.Fatalf("CreateFileString() error = %v", err)
	}
	got, err := client.ReadFile(ctx, "/in/a.txt")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got != "hello" {
		t.Errorf("ReadFile() = %q, want hello", got)
	}

	app.RequireStop()

	if err := client.Close(); !errors.Is(err, hdfsutil.ErrClosed) {
		t.Errorf("Close() after stop error = %v, want ErrClosed", err)
	}
}

func TestModule_UnknownBackend(t *testing.T) {
	var client *hdfsutil.Client
	app := fx.New(
		fx.NopLogger,
		fx.Supply(zap.NewNop()),
		fx.Supply(hdfsutil.Config{Backend: "ftp"}),
		Module,
		fx.Populate(&client),
	)
	if err := app.Err(); !errors.Is(err, hdfsutil.ErrUnknownBackend) {
		t.Errorf("app.Err() = %v, want ErrUnknownBackend", err)
	}
}

func TestModule_PrometheusRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()

	var client *hdfsutil.Client
	app := fxtest.New(t,
		fx.Supply(zap.NewNop()),
		fx.Supply(hdfsutil.Config{Backend: hdfsutil.BackendMemory}),
		fx.Provide(func() prometheus.Registerer { return reg }),
		Module,
		fx.Populate(&client),
	)
	app.RequireStart()
	defer app.RequireStop()

	ctx := context.Background()
	if err := client.CreateFileString(ctx, "/a.txt", "abc"); err != nil {
		t.Fatalf("CreateFileString() error = %v", err)
	}
	if err := client.CompressFile(ctx, "gzip", "/a.txt", "/a.txt.gz"); err != nil {
		t.Fatalf("CompressFile() error = %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, f := range families {
		if f.GetName() == stats.MetricTranscodeOps {
			if got := f.GetMetric()[0].GetCounter().GetValue(); got != 1 {
				t.Errorf("%s = %v, want 1", stats.MetricTranscodeOps, got)
			}
			return
		}
	}
	t.Errorf("metric %s not registered", stats.MetricTranscodeOps)
}
