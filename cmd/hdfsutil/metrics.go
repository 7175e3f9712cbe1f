package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/discochess/hdfsutil/internal/stats"
	"github.com/discochess/hdfsutil/internal/stats/logger"
	promstats "github.com/discochess/hdfsutil/internal/stats/prometheus"
)

var metricsAddr string

func init() {
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the command runs")
}

// newCollector returns the stats collector for a command and a func that
// releases it. With --metrics-addr the metrics are served over HTTP,
// otherwise they are logged at debug level.
func newCollector(log *zap.Logger) (stats.Collector, func(), error) {
	if metricsAddr == "" {
		return logger.New(log.Named("stats")), func() {}, nil
	}

	reg := prometheus.NewRegistry()
	_, stop, err := serveMetrics(metricsAddr, reg, log)
	if err != nil {
		return nil, nil, err
	}
	return promstats.New(reg, promstats.WithLogger(log.Named("stats"))), stop, nil
}

// serveMetrics exposes reg at /metrics on addr until stop is called.
func serveMetrics(addr string, reg *prometheus.Registry, log *zap.Logger) (net.Addr, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
	return ln.Addr(), stop, nil
}
