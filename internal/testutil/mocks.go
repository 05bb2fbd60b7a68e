package testutil

import (
	"sync"
	"time"
)

// MockClock is a manually driven clock satisfying execqueue.Clock. With a
// step set, every Now call advances it, which gives each measured interval a
// known length.
type MockClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewMockClock creates a clock at start, or at the wall clock when start is zero.
func NewMockClock(start time.Time) *MockClock {
	if start.IsZero() {
		start = time.Now()
	}
	return &MockClock{now: start}
}

// NewSteppingClock creates a clock that moves forward by step after each Now.
func NewSteppingClock(start time.Time, step time.Duration) *MockClock {
	c := NewMockClock(start)
	c.step = step
	return c
}

// Now returns the current time, then applies the step.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now
	m.now = m.now.Add(m.step)
	return now
}

func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Func returns Now as a plain function for configs that take func() time.Time.
func (m *MockClock) Func() func() time.Time { return m.Now }
