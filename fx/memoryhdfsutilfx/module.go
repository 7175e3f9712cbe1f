// Package memoryhdfsutilfx provides an fx module for an in-memory hdfsutil client.
// Useful for testing.
package memoryhdfsutilfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/hdfsutil"
	"github.com/discochess/hdfsutil/internal/stats"
	"github.com/discochess/hdfsutil/internal/stats/logger"
	"github.com/discochess/hdfsutil/internal/store/memstore"
)

// Module provides an in-memory hdfsutil client for testing.
// Requires a *zap.Logger to be provided.
var Module = fx.Module("memoryhdfsutil",
	fx.Provide(
		newStatsCollector,
		newMemStore,
		newClient,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("hdfsutil.stats"))
}

func newMemStore() *memstore.Store {
	return memstore.New()
}

// Params holds dependencies for creating the client.
type Params struct {
	fx.In

	Logger    *zap.Logger
	Collector stats.Collector
	Store     *memstore.Store
	Lifecycle fx.Lifecycle
}

// Result holds the provided client.
type Result struct {
	fx.Out

	Client *hdfsutil.Client
}

func newClient(p Params) (Result, error) {
	client, err := hdfsutil.New(
		hdfsutil.WithStore(p.Store),
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
