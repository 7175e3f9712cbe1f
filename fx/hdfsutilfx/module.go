// Package hdfsutilfx provides an fx module for a configured hdfsutil client.
package hdfsutilfx

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/hdfsutil"
	"github.com/discochess/hdfsutil/internal/stats"
	"github.com/discochess/hdfsutil/internal/stats/logger"
	promstats "github.com/discochess/hdfsutil/internal/stats/prometheus"
)

// Module provides a *hdfsutil.Client for the backend described by an
// hdfsutil.Config. Requires a *zap.Logger and an hdfsutil.Config to be
// provided. Metrics go to a prometheus.Registerer when one is provided.
var Module = fx.Module("hdfsutil",
	fx.Provide(
		newStatsCollector,
		newClient,
	),
)

// StatsParams holds dependencies for choosing the stats collector.
type StatsParams struct {
	fx.In

	Logger *zap.Logger

	// Registerer, when provided, switches metrics from log lines to
	// Prometheus.
	Registerer prometheus.Registerer `optional:"true"`
}

func newStatsCollector(p StatsParams) stats.Collector {
	if p.Registerer != nil {
		return promstats.New(p.Registerer, promstats.WithLogger(p.Logger.Named("hdfsutil.stats")))
	}
	return logger.New(p.Logger.Named("hdfsutil.stats"))
}

// Params holds dependencies for creating the client.
type Params struct {
	fx.In

	Config    hdfsutil.Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided client.
type Result struct {
	fx.Out

	Client *hdfsutil.Client
}

func newClient(p Params) (Result, error) {
	client, err := hdfsutil.Open(context.Background(), p.Config,
		hdfsutil.WithStats(p.Collector),
		hdfsutil.WithLogger(p.Logger.Named("hdfsutil")),
	)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return Result{Client: client}, nil
}
