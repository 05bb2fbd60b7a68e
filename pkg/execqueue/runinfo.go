package execqueue

import "time"

// RunInfo holds execution statistics for one identity.
type RunInfo struct {
	Count     int
	LastStart time.Time
	ExecTime  time.Duration
}

// AverageExecTime returns ExecTime divided by Count.
func (r RunInfo) AverageExecTime() time.Duration {
	if r.Count == 0 {
		return 0
	}
	return r.ExecTime / time.Duration(r.Count)
}

// RunInfo returns the statistics for id. The boolean is false when id has
// not run since the last Clear.
func (q *Queue[P]) RunInfo(id string) (RunInfo, bool) {
	q.statsMu.RLock()
	defer q.statsMu.RUnlock()
	info, ok := q.stats[id]
	return info, ok
}

// RunInfos returns a snapshot of all statistics.
func (q *Queue[P]) RunInfos() map[string]RunInfo {
	q.statsMu.RLock()
	defer q.statsMu.RUnlock()
	return q.copyStats()
}

func (q *Queue[P]) copyStats() map[string]RunInfo {
	out := make(map[string]RunInfo, len(q.stats))
	for id, info := range q.stats {
		out[id] = info
	}
	return out
}

// Snapshot is a consistent view of queue sizes and statistics.
type Snapshot struct {
	Len     int
	Pending int
	Running int
	Runs    map[string]RunInfo
}

// Snapshot reads sizes and statistics under both locks.
func (q *Queue[P]) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.statsMu.RLock()
	defer q.statsMu.RUnlock()
	return Snapshot{
		Len:     q.fifo.len(),
		Pending: len(q.pending),
		Running: len(q.inflight),
		Runs:    q.copyStats(),
	}
}
