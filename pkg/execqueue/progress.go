package execqueue

import (
	"sync/atomic"
	"time"
)

// DefaultMinIterationInterval is the shortest time between two iteration advances.
const DefaultMinIterationInterval = time.Second

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// ProgressTracker turns job completions into a sweep counter.
//
// Every completion increments a counter. Once the counter exceeds the expected
// sweep size it is reset, and the iteration advances if it never has or at
// least the minimum interval has passed since the previous advance. Iteration
// never decreases.
type ProgressTracker struct {
	clock       Clock
	minInterval time.Duration

	completed   atomic.Int64
	expected    atomic.Int64
	iteration   atomic.Int64
	lastAdvance atomic.Int64 // unix nanos, 0 until the first advance
}

// NewProgressTracker creates a tracker. A nil clock means the wall clock and a
// non-positive minInterval means DefaultMinIterationInterval.
func NewProgressTracker(clock Clock, minInterval time.Duration) *ProgressTracker {
	if clock == nil {
		clock = SystemClock
	}
	if minInterval <= 0 {
		minInterval = DefaultMinIterationInterval
	}
	return &ProgressTracker{clock: clock, minInterval: minInterval}
}

// Complete records one finished job and reports whether the iteration advanced.
func (p *ProgressTracker) Complete() bool {
	if p.completed.Add(1) <= p.expected.Load() {
		return false
	}

	if p.completed.Swap(0) <= 0 {
		return false
	}

	now := p.clock.Now().UnixNano()
	last := p.lastAdvance.Load()
	if last != 0 && time.Duration(now-last) < p.minInterval {
		return false
	}
	if !p.lastAdvance.CompareAndSwap(last, now) {
		return false
	}
	p.iteration.Add(1)
	return true
}

// Iteration returns the number of completed sweeps.
func (p *ProgressTracker) Iteration() int64 { return p.iteration.Load() }

// CompletedCount returns completions since the last reset.
func (p *ProgressTracker) CompletedCount() int64 { return p.completed.Load() }

// ExpectedPerCycle returns the sweep size.
func (p *ProgressTracker) ExpectedPerCycle() int64 { return p.expected.Load() }

// SetExpectedPerCycle sets the sweep size, normally the number of identities
// submitted by the last sweep.
func (p *ProgressTracker) SetExpectedPerCycle(n int64) {
	if n < 0 {
		n = 0
	}
	p.expected.Store(n)
}

// LastAdvance returns when the iteration last advanced, or the zero time if
// it never has.
func (p *ProgressTracker) LastAdvance() time.Time {
	last := p.lastAdvance.Load()
	if last == 0 {
		return time.Time{}
	}
	return time.Unix(0, last)
}
