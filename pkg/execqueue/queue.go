package execqueue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	gferrors "github.com/vnykmshr/scriptflow/pkg/common/errors"
	"github.com/vnykmshr/scriptflow/pkg/logx"
	"github.com/vnykmshr/scriptflow/pkg/metrics"
	"github.com/vnykmshr/scriptflow/pkg/scheduling/workerpool"
)

// Runner executes one job payload.
type Runner[P any] interface {
	Execute(ctx context.Context, job P) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc[P any] func(ctx context.Context, job P) error

// Execute implements Runner.
func (f RunnerFunc[P]) Execute(ctx context.Context, job P) error { return f(ctx, job) }

// Placeholder is implemented by payloads that may stand in for a unit that
// must not run, such as a proxy entity. Such jobs are dropped silently.
type Placeholder interface {
	IsPlaceholder() bool
}

// Pool is the admission side of a bounded worker pool. TrySubmit must not
// block and must not run the task on the calling goroutine.
type Pool interface {
	TrySubmit(task workerpool.Task) bool
}

// Config configures a Queue.
type Config[P any] struct {
	// Name labels metrics and log lines.
	Name string

	Runner Runner[P]
	Pool   Pool

	Logger  logx.Logger
	Metrics *metrics.Registry

	// Clock defaults to the wall clock.
	Clock Clock

	// Progress is shared with other queues when set; otherwise the queue
	// owns a tracker built from Clock and MinIterationInterval.
	Progress *ProgressTracker

	// MinIterationInterval is the floor between iteration advances. Defaults to 1s.
	MinIterationInterval time.Duration

	// RequeueOnSaturation pushes an identity back to the tail of the dispatch
	// queue when the pool is full instead of dropping it.
	RequeueOnSaturation bool

	// SaturationLogInterval throttles the saturation debug line. Defaults to 5s.
	SaturationLogInterval time.Duration
}

type entry[P any] struct {
	job     P
	version uint64
	queued  bool
}

// Queue deduplicates jobs by identity and dispatches them FIFO onto a pool.
//
// Each identity is pending at most once. Submitting an identity that is still
// pending replaces its payload. An identity never runs on two workers at once;
// a resubmission that arrives while it runs is dispatched again after the
// running job finishes.
type Queue[P any] struct {
	name     string
	runner   Runner[P]
	pool     Pool
	clock    Clock
	progress *ProgressTracker
	log      logx.Logger
	metrics  *metrics.Registry
	satLog   *logx.Throttle
	requeue  atomic.Bool

	// Lock order: mu before statsMu.
	mu       sync.Mutex
	pending  map[string]*entry[P]
	inflight map[string]struct{}
	fifo     *ring

	statsMu    sync.RWMutex
	stats      map[string]RunInfo
	generation uint64
}

// New creates a Queue. It returns a validation error when Runner or Pool is missing.
func New[P any](cfg Config[P]) (*Queue[P], error) {
	if cfg.Runner == nil {
		return nil, gferrors.NewValidationError("execqueue", "Runner", nil, "cannot be nil")
	}
	if cfg.Pool == nil {
		return nil, gferrors.NewValidationError("execqueue", "Pool", nil, "cannot be nil").
			WithHint("pass a workerpool.Pool sized to the render concurrency")
	}
	if cfg.MinIterationInterval < 0 {
		return nil, gferrors.NewValidationError("execqueue", "MinIterationInterval",
			cfg.MinIterationInterval, "must not be negative")
	}

	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}
	if cfg.Progress == nil {
		cfg.Progress = NewProgressTracker(cfg.Clock, cfg.MinIterationInterval)
	}
	if cfg.SaturationLogInterval <= 0 {
		cfg.SaturationLogInterval = 5 * time.Second
	}

	q := &Queue[P]{
		name:     cfg.Name,
		runner:   cfg.Runner,
		pool:     cfg.Pool,
		clock:    cfg.Clock,
		progress: cfg.Progress,
		log:      cfg.Logger.With(logx.String("comp", "execqueue"), logx.String("queue", cfg.Name)),
		metrics:  cfg.Metrics,
		satLog:   logx.NewThrottle(cfg.SaturationLogInterval),
		pending:  make(map[string]*entry[P]),
		inflight: make(map[string]struct{}),
		fifo:     newRing(),
		stats:    make(map[string]RunInfo),
	}
	q.requeue.Store(cfg.RequeueOnSaturation)
	return q, nil
}

// Submit records job as the latest payload for id. A new identity is appended
// to the dispatch queue; a pending one only has its payload replaced. Submit
// never blocks on execution.
func (q *Queue[P]) Submit(id string, job P) error {
	if id == "" {
		return gferrors.NewValidationError("execqueue", "id", id, "cannot be empty")
	}

	q.mu.Lock()
	superseded := false
	if e, ok := q.pending[id]; ok {
		e.job = job
		e.version++
		superseded = true
	} else {
		e := &entry[P]{job: job, version: 1}
		q.pending[id] = e
		// An identity still running from before a Clear is queued when it finishes.
		if _, running := q.inflight[id]; !running {
			e.queued = true
			q.fifo.push(id)
		}
	}
	depth, pending := q.fifo.len(), len(q.pending)
	q.mu.Unlock()

	if q.metrics != nil {
		q.metrics.QueueSubmitted.WithLabelValues(q.name).Inc()
		if superseded {
			q.metrics.QueueSuperseded.WithLabelValues(q.name).Inc()
		}
		q.setGauges(depth, pending)
	}
	return nil
}

// TryDispatchOne pops the head of the dispatch queue and hands it to the pool.
// It returns false when the queue is empty or the pool is saturated. A
// saturated identity is dropped, and must be submitted again, unless
// RequeueOnSaturation is set.
func (q *Queue[P]) TryDispatchOne() bool {
	q.mu.Lock()

	var id string
	for {
		next, ok := q.fifo.pop()
		if !ok {
			q.mu.Unlock()
			return false
		}
		e := q.pending[next]
		if e == nil || !e.queued {
			q.countSkipped()
			continue
		}
		if _, running := q.inflight[next]; running {
			// Picked up again by the running job when it completes.
			e.queued = false
			q.countSkipped()
			continue
		}
		e.queued = false
		id = next
		break
	}

	q.inflight[id] = struct{}{}
	if q.pool.TrySubmit(q.task(id)) {
		depth, pending := q.fifo.len(), len(q.pending)
		q.mu.Unlock()

		if q.metrics != nil {
			q.metrics.QueueDispatched.WithLabelValues(q.name).Inc()
			q.setGauges(depth, pending)
		}
		return true
	}

	delete(q.inflight, id)
	requeue := q.requeue.Load()
	if requeue {
		q.pending[id].queued = true
		q.fifo.push(id)
	} else {
		delete(q.pending, id)
	}
	depth, pending := q.fifo.len(), len(q.pending)
	q.mu.Unlock()

	if q.metrics != nil {
		q.metrics.QueueSaturated.WithLabelValues(q.name).Inc()
		if requeue {
			q.metrics.QueueRequeued.WithLabelValues(q.name).Inc()
		}
		q.setGauges(depth, pending)
	}
	if ok, dropped := q.satLog.Allow(); ok {
		q.log.Debug("worker pool saturated",
			logx.String("id", id),
			logx.Bool("requeued", requeue),
			logx.Int64("suppressed", dropped))
	}
	return false
}

// Clear forgets all statistics and pending jobs and starts a fresh dispatch
// queue. Jobs already running finish but do not record statistics. Snapshot
// never observes a partially cleared queue.
func (q *Queue[P]) Clear() {
	q.mu.Lock()
	q.statsMu.Lock()
	q.pending = make(map[string]*entry[P])
	q.fifo = newRing()
	q.stats = make(map[string]RunInfo)
	q.generation++
	q.statsMu.Unlock()
	q.mu.Unlock()

	if q.metrics != nil {
		q.setGauges(0, 0)
	}
	q.log.Debug("queue cleared")
}

// Len returns the number of identities waiting in the dispatch queue.
func (q *Queue[P]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.fifo.len()
}

// Pending returns the number of identities with a pending payload, including
// those currently running.
func (q *Queue[P]) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Running returns the number of identities currently executing.
func (q *Queue[P]) Running() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inflight)
}

// SetRequeueOnSaturation switches between dropping and requeueing saturated identities.
func (q *Queue[P]) SetRequeueOnSaturation(on bool) { q.requeue.Store(on) }

// RequeueOnSaturation reports the current saturation mode.
func (q *Queue[P]) RequeueOnSaturation() bool { return q.requeue.Load() }

// Progress returns the tracker fed by this queue.
func (q *Queue[P]) Progress() *ProgressTracker { return q.progress }

// Iteration returns the number of completed sweeps.
func (q *Queue[P]) Iteration() int64 { return q.progress.Iteration() }

// CompletedCount returns completions counted toward the current sweep.
func (q *Queue[P]) CompletedCount() int64 { return q.progress.CompletedCount() }

// ExpectedPerCycle returns the sweep size used to gate iterations.
func (q *Queue[P]) ExpectedPerCycle() int64 { return q.progress.ExpectedPerCycle() }

// SetExpectedPerCycle sets the sweep size, normally once per sweep.
func (q *Queue[P]) SetExpectedPerCycle(n int64) { q.progress.SetExpectedPerCycle(n) }

func (q *Queue[P]) countSkipped() {
	if q.metrics != nil {
		q.metrics.QueueSkipped.WithLabelValues(q.name).Inc()
	}
}

func (q *Queue[P]) setGauges(depth, pending int) {
	q.metrics.QueueDepth.WithLabelValues(q.name).Set(float64(depth))
	q.metrics.QueuePending.WithLabelValues(q.name).Set(float64(pending))
}
