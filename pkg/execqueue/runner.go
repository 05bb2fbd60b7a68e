package execqueue

import (
	"context"
	"fmt"

	"github.com/vnykmshr/scriptflow/pkg/logx"
	"github.com/vnykmshr/scriptflow/pkg/scheduling/workerpool"
)

func (q *Queue[P]) task(id string) workerpool.Task {
	return workerpool.TaskFunc(func(ctx context.Context) error {
		q.run(ctx, id)
		return nil
	})
}

// run executes the latest payload for id. Nothing escapes it: runner errors
// and panics are logged and counted.
func (q *Queue[P]) run(ctx context.Context, id string) {
	q.mu.Lock()
	e := q.pending[id]
	if e == nil {
		// Cleared after dispatch.
		delete(q.inflight, id)
		q.mu.Unlock()
		q.countSkipped()
		return
	}
	job, version := e.job, e.version
	q.mu.Unlock()

	if p, ok := any(job).(Placeholder); ok && p.IsPlaceholder() {
		q.finish(id, e, version)
		q.countSkipped()
		return
	}

	start := q.clock.Now()
	q.statsMu.Lock()
	generation := q.generation
	info := q.stats[id]
	info.LastStart = start
	info.Count++
	q.stats[id] = info
	q.statsMu.Unlock()

	err := q.execute(ctx, job)

	elapsed := q.clock.Now().Sub(start)
	q.statsMu.Lock()
	if q.generation == generation {
		info := q.stats[id]
		info.ExecTime += elapsed
		q.stats[id] = info
	}
	q.statsMu.Unlock()

	q.finish(id, e, version)

	if q.metrics != nil {
		q.metrics.JobDuration.WithLabelValues(q.name).Observe(elapsed.Seconds())
		if err != nil {
			q.metrics.JobsFailed.WithLabelValues(q.name).Inc()
		} else {
			q.metrics.JobsCompleted.WithLabelValues(q.name).Inc()
		}
	}
	if err != nil {
		q.log.Debug("script execution failed", logx.String("id", id), logx.Err(err))
	}

	if q.progress.Complete() {
		iteration := q.progress.Iteration()
		if q.metrics != nil {
			q.metrics.Iteration.WithLabelValues(q.name).Set(float64(iteration))
		}
		q.log.Trace("iteration advanced", logx.Int64("iteration", iteration))
	}
}

func (q *Queue[P]) execute(ctx context.Context, job P) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("runner panicked: %v", r)
		}
	}()
	return q.runner.Execute(ctx, job)
}

// finish releases id after a run. The pending entry is removed unless it was
// resubmitted meanwhile, in which case it goes back on the dispatch queue.
func (q *Queue[P]) finish(id string, e *entry[P], version uint64) {
	q.mu.Lock()
	delete(q.inflight, id)

	requeued := false
	cur := q.pending[id]
	switch {
	case cur == nil:
	case cur == e && cur.version == version:
		delete(q.pending, id)
	case !cur.queued:
		cur.queued = true
		q.fifo.push(id)
		requeued = true
	}
	depth, pending := q.fifo.len(), len(q.pending)
	q.mu.Unlock()

	if q.metrics != nil {
		if requeued {
			q.metrics.QueueRequeued.WithLabelValues(q.name).Inc()
		}
		q.setGauges(depth, pending)
	}
}
