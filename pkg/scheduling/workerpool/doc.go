/*
Package workerpool provides a fixed-size pool of goroutines with non-blocking admission.

The pool never queues work beyond its worker count. TrySubmit either hands the task
to an idle worker or reports false immediately, which lets callers such as the
script execution queue treat a saturated pool as a signal to retry later instead of
blocking the producer.

# Basic Usage

	pool := workerpool.New(4)
	defer func() { <-pool.Shutdown() }()

	ok := pool.TrySubmit(workerpool.TaskFunc(func(ctx context.Context) error {
		return render(ctx)
	}))
	if !ok {
		// every worker is busy
	}

Submit waits for a free worker and is meant for producers that can afford to block,
for example a scheduler tick with a deadline:

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	err := pool.Submit(ctx, task)

# Panics

A panicking task is recovered at the worker boundary. The panic is reported through
Config.PanicHandler when set, otherwise logged at error level, and the worker keeps
serving tasks.

# Metrics

MetricsPool wraps a Pool and publishes size, active worker and rejection metrics
through pkg/metrics:

	pool := workerpool.NewWithMetrics(workerpool.Config{WorkerCount: 4}, "render",
		metrics.Config{Enabled: true, Registry: prometheus.NewRegistry()})

InstrumentRegistry does the same with a *metrics.Registry shared with other
components.

# Shutdown

Shutdown stops admission, lets in-flight tasks finish and returns a channel that
closes once every worker has exited.
*/
package workerpool
