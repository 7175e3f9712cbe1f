// Package prometheus provides a Prometheus-based stats collector.
package prometheus

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/discochess/hdfsutil/internal/stats"
)

// Collector implements stats.Collector using Prometheus metrics. Metrics are
// registered on first use.
type Collector struct {
	registry prometheus.Registerer
	buckets  []float64
	logger   *zap.Logger

	mu         sync.RWMutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
	failed     map[string]error
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// Option configures a Collector.
type Option func(*Collector)

// WithBuckets sets the histogram buckets. The default is prometheus.DefBuckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Collector) {
		c.buckets = buckets
	}
}

// WithLogger sets the logger that reports metrics which could not be
// registered. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Collector) {
		c.logger = l
	}
}

// New creates a new Prometheus collector.
// If registry is nil, prometheus.DefaultRegisterer is used.
func New(registry prometheus.Registerer, opts ...Option) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	c := &Collector{
		registry:   registry,
		buckets:    prometheus.DefBuckets,
		logger:     zap.NewNop(),
		failed:     make(map[string]error),
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IncCounter increments a counter metric.
func (c *Collector) IncCounter(name string, delta int64) {
	counter := getOrRegister(c, c.counters, name, func() prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: stats.Help(name)})
	})
	counter.Add(float64(delta))
}

// SetGauge sets a gauge metric.
func (c *Collector) SetGauge(name string, value int64) {
	gauge := getOrRegister(c, c.gauges, name, func() prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: stats.Help(name)})
	})
	gauge.Set(float64(value))
}

// ObserveHistogram records a value in a histogram.
func (c *Collector) ObserveHistogram(name string, value float64) {
	histogram := getOrRegister(c, c.histograms, name, func() prometheus.Histogram {
		return prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    name,
			Help:    stats.Help(name),
			Buckets: c.buckets,
		})
	})
	histogram.Observe(value)
}

// Err returns the registration failures seen so far, or nil.
func (c *Collector) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	errs := make([]error, 0, len(c.failed))
	for _, err := range c.failed {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// getOrRegister returns the metric cached under name, creating and
// registering it on first use. An identical metric registered elsewhere is
// adopted. When registration fails otherwise, for example because the
// registry holds the name with another help text, the metric is not cached:
// its values are dropped, the failure is logged once and reported by Err.
func getOrRegister[M prometheus.Collector](c *Collector, cache map[string]M, name string, create func() M) M {
	c.mu.RLock()
	m, ok := cache[name]
	c.mu.RUnlock()
	if ok {
		return m
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok = cache[name]; ok {
		return m
	}

	m = create()
	err := c.registry.Register(m)
	if err == nil {
		cache[name] = m
		return m
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(M); ok {
			cache[name] = existing
			return existing
		}
	}

	if _, seen := c.failed[name]; !seen {
		c.failed[name] = fmt.Errorf("registering %s: %w", name, err)
		c.logger.Warn("metric not registered, values are dropped",
			zap.String("metric", name),
			zap.Error(err),
		)
	}
	return m
}
