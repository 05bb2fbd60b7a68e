package workerpool

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vnykmshr/scriptflow/pkg/metrics"
)

// MetricsPool wraps a worker Pool with Prometheus metrics collection.
type MetricsPool struct {
	pool     Pool
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a worker pool whose gauges are published under name.
// When metricsConfig is disabled the plain pool is returned.
func NewWithMetrics(config Config, name string, metricsConfig metrics.Config) Pool {
	base := NewWithConfig(config)
	if !metricsConfig.Enabled {
		return base
	}
	return Instrument(base, name, metricsConfig)
}

// Instrument wraps an existing pool.
func Instrument(pool Pool, name string, metricsConfig metrics.Config) *MetricsPool {
	mp := &MetricsPool{pool: pool, name: name}
	_ = mp.EnableMetrics(metricsConfig)
	return mp
}

// InstrumentRegistry wraps pool and publishes into an existing registry.
func InstrumentRegistry(pool Pool, name string, registry *metrics.Registry) *MetricsPool {
	mp := &MetricsPool{pool: pool, name: name, registry: registry, enabled: registry != nil}
	mp.updateMetrics()
	return mp
}

func (mp *MetricsPool) updateMetrics() {
	if !mp.enabled {
		return
	}
	mp.registry.WorkerPoolSize.WithLabelValues(mp.name).Set(float64(mp.pool.Size()))
	mp.registry.WorkerPoolActive.WithLabelValues(mp.name).Set(float64(mp.pool.ActiveWorkers()))
}

// TrySubmit implements Pool.
func (mp *MetricsPool) TrySubmit(task Task) bool {
	if task == nil {
		return false
	}
	ok := mp.pool.TrySubmit(&metricsTask{original: task, pool: mp})
	if mp.enabled {
		if !ok {
			mp.registry.WorkerPoolRejected.WithLabelValues(mp.name).Inc()
		}
		mp.updateMetrics()
	}
	return ok
}

// Submit implements Pool.
func (mp *MetricsPool) Submit(ctx context.Context, task Task) error {
	if task == nil {
		return mp.pool.Submit(ctx, nil)
	}
	err := mp.pool.Submit(ctx, &metricsTask{original: task, pool: mp})
	mp.updateMetrics()
	return err
}

type metricsTask struct {
	original Task
	pool     *MetricsPool
}

func (mt *metricsTask) Execute(ctx context.Context) error {
	mt.pool.updateMetrics()
	defer mt.pool.updateMetrics()
	return mt.original.Execute(ctx)
}

func (mp *MetricsPool) Shutdown() <-chan struct{} { return mp.pool.Shutdown() }
func (mp *MetricsPool) Size() int                 { return mp.pool.Size() }
func (mp *MetricsPool) TotalSubmitted() int64     { return mp.pool.TotalSubmitted() }
func (mp *MetricsPool) TotalCompleted() int64     { return mp.pool.TotalCompleted() }
func (mp *MetricsPool) TotalRejected() int64      { return mp.pool.TotalRejected() }

// ActiveWorkers implements Pool and refreshes the active worker gauge.
func (mp *MetricsPool) ActiveWorkers() int {
	active := mp.pool.ActiveWorkers()
	if mp.enabled {
		mp.registry.WorkerPoolActive.WithLabelValues(mp.name).Set(float64(active))
	}
	return active
}

// EnableMetrics implements metrics.Instrumentable.
func (mp *MetricsPool) EnableMetrics(config metrics.Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	mp.enabled = config.Enabled
	switch {
	case config.Registry != nil:
		mp.registry = metrics.NewRegistryWithConfig(config)
	case mp.registry == nil:
		mp.registry = metrics.NewRegistry(prometheus.NewRegistry())
	}
	mp.updateMetrics()
	return nil
}

// DisableMetrics implements metrics.Instrumentable.
func (mp *MetricsPool) DisableMetrics() { mp.enabled = false }

// MetricsEnabled implements metrics.Instrumentable.
func (mp *MetricsPool) MetricsEnabled() bool { return mp.enabled }

var _ metrics.Instrumentable = (*MetricsPool)(nil)
