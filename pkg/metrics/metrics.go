package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace prefixes every scriptflow metric.
const DefaultNamespace = "scriptflow"

// Registry holds all metric instances for scriptflow components.
type Registry struct {
	// Execution queue
	QueueSubmitted  *prometheus.CounterVec
	QueueSuperseded *prometheus.CounterVec
	QueueDispatched *prometheus.CounterVec
	QueueSaturated  *prometheus.CounterVec
	QueueRequeued   *prometheus.CounterVec
	QueueSkipped    *prometheus.CounterVec
	QueueDepth      *prometheus.GaugeVec
	QueuePending    *prometheus.GaugeVec
	JobsCompleted   *prometheus.CounterVec
	JobsFailed      *prometheus.CounterVec
	JobDuration     *prometheus.HistogramVec
	Iteration       *prometheus.GaugeVec

	// Worker pool
	WorkerPoolSize     *prometheus.GaugeVec
	WorkerPoolActive   *prometheus.GaugeVec
	WorkerPoolRejected *prometheus.CounterVec

	// Scheduler
	SchedulerTicks   *prometheus.CounterVec
	SchedulerSkipped *prometheus.CounterVec

	// Rendering
	RenderCacheHits   *prometheus.CounterVec
	RenderCacheMisses *prometheus.CounterVec

	// Host sweeps
	Sweeps        *prometheus.CounterVec
	SweepScripts  *prometheus.GaugeVec
	SweepDuration *prometheus.HistogramVec
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry bound to prometheus.DefaultRegisterer.
// It is created on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return NewRegistryWithConfig(Config{Enabled: true, Registry: reg})
}

// NewRegistryWithConfig creates a registry honoring cfg.Namespace and cfg.Labels.
func NewRegistryWithConfig(cfg Config) *Registry {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ns := cfg.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	factory := promauto.With(reg)

	counter := func(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: cfg.Labels,
		}, labels)
	}
	gauge := func(subsystem, name, help string, labels ...string) *prometheus.GaugeVec {
		return factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: cfg.Labels,
		}, labels)
	}
	histogram := func(subsystem, name, help string, labels ...string) *prometheus.HistogramVec {
		return factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   subsystem,
			Name:        name,
			Help:        help,
			Buckets:     prometheus.DefBuckets,
			ConstLabels: cfg.Labels,
		}, labels)
	}

	return &Registry{
		QueueSubmitted:  counter("execqueue", "submitted_total", "Total number of script submissions", "queue"),
		QueueSuperseded: counter("execqueue", "superseded_total", "Submissions that replaced a pending payload", "queue"),
		QueueDispatched: counter("execqueue", "dispatched_total", "Identities handed to the worker pool", "queue"),
		QueueSaturated:  counter("execqueue", "saturated_total", "Dispatch attempts rejected by a saturated pool", "queue"),
		QueueRequeued:   counter("execqueue", "requeued_total", "Identities pushed back onto the dispatch queue", "queue"),
		QueueSkipped:    counter("execqueue", "skipped_total", "Placeholder or stale identities skipped", "queue"),
		QueueDepth:      gauge("execqueue", "depth", "Identities waiting in the dispatch queue", "queue"),
		QueuePending:    gauge("execqueue", "pending", "Identities in the pending set", "queue"),
		JobsCompleted:   counter("execqueue", "jobs_completed_total", "Script executions that succeeded", "queue"),
		JobsFailed:      counter("execqueue", "jobs_failed_total", "Script executions that failed", "queue"),
		JobDuration:     histogram("execqueue", "job_duration_seconds", "Time spent executing scripts", "queue"),
		Iteration:       gauge("execqueue", "iteration", "Current sweep iteration", "queue"),

		WorkerPoolSize:     gauge("workerpool", "size", "Current worker pool size", "pool_name"),
		WorkerPoolActive:   gauge("workerpool", "active_workers", "Number of active workers", "pool_name"),
		WorkerPoolRejected: counter("workerpool", "rejected_total", "Tasks rejected because every worker was busy", "pool_name"),

		SchedulerTicks:   counter("scheduler", "ticks_total", "Scheduled task firings", "scheduler_name"),
		SchedulerSkipped: counter("scheduler", "skipped_total", "Firings skipped because the pool was busy", "scheduler_name"),

		RenderCacheHits:   counter("render", "cache_hits_total", "Compiled template cache hits", "renderer"),
		RenderCacheMisses: counter("render", "cache_misses_total", "Compiled template cache misses", "renderer"),

		Sweeps:        counter("host", "sweeps_total", "Completed world sweeps", "engine"),
		SweepScripts:  gauge("host", "sweep_scripts", "Script devices discovered by the last sweep", "engine"),
		SweepDuration: histogram("host", "sweep_duration_seconds", "Time spent enumerating and submitting scripts", "engine"),
	}
}
