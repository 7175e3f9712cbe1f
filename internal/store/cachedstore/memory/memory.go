// Package memory implements an in-memory cache backend.
package memory

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/discochess/hdfsutil/internal/stats"
	"github.com/discochess/hdfsutil/internal/store/cachedstore"
	"github.com/discochess/hdfsutil/internal/store/cachedstore/cachestrategy"
)

// Compile-time check that Backend implements cachedstore.Backend.
var _ cachedstore.Backend = (*Backend)(nil)

// Backend is a thread-safe in-memory cache backend.
type Backend struct {
	strategy  cachestrategy.Strategy
	collector stats.Collector

	// mu serializes strategy access; injected strategies need not be safe
	// for concurrent use.
	mu sync.Mutex

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a new memory backend with the given eviction strategy.
// The collector is optional; if nil, a no-op collector is used.
func New(strategy cachestrategy.Strategy, collector stats.Collector) *Backend {
	if collector == nil {
		collector = stats.NewNoop()
	}
	return &Backend{
		strategy:  strategy,
		collector: collector,
	}
}

// Get retrieves file content from the cache.
func (b *Backend) Get(key string) ([]byte, bool) {
	b.mu.Lock()
	val, ok := b.strategy.Get(key)
	b.mu.Unlock()

	if ok {
		b.hits.Add(1)
		b.collector.IncCounter(stats.MetricCacheHits, 1)
		return val, true
	}
	b.misses.Add(1)
	b.collector.IncCounter(stats.MetricCacheMisses, 1)
	return nil, false
}

// Set stores file content in the cache.
func (b *Backend) Set(key string, data []byte) {
	b.mu.Lock()
	b.strategy.Add(key, data)
	n := b.strategy.Len()
	b.mu.Unlock()

	b.collector.SetGauge(stats.MetricCacheSize, int64(n))
}

// Invalidate drops key and everything cached below it.
func (b *Backend) Invalidate(key string) {
	dirPrefix := strings.TrimSuffix(key, "/") + "/"

	b.mu.Lock()
	b.strategy.Remove(key)
	for _, k := range b.strategy.Keys() {
		if strings.HasPrefix(k, dirPrefix) {
			b.strategy.Remove(k)
		}
	}
	n := b.strategy.Len()
	b.mu.Unlock()

	b.collector.SetGauge(stats.MetricCacheSize, int64(n))
}

// Stats returns current cache statistics.
func (b *Backend) Stats() cachedstore.Stats {
	return cachedstore.Stats{
		Hits:   b.hits.Load(),
		Misses: b.misses.Load(),
		Size:   b.Len(),
	}
}

// Len returns the number of items in the cache.
func (b *Backend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.strategy.Len()
}
