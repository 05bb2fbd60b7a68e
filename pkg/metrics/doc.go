// Package metrics provides Prometheus instrumentation for scriptflow components.
//
// A Registry groups every collector used by the execution queue, the worker
// pool, the sweep scheduler, the renderer and the host engine. Components take
// an optional *Registry and a name used as the metric label, so several
// instances can share one registry:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.NewRegistry(reg)
//	q, _ := execqueue.New(execqueue.Config[*script.Job]{
//		Name:    "lcd",
//		Runner:  runner,
//		Pool:    pool,
//		Metrics: m,
//	})
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// Default returns a registry bound to prometheus.DefaultRegisterer. Registering
// two registries on the same registerer panics, so tests use a fresh
// prometheus.NewRegistry each time.
package metrics
