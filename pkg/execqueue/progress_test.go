package execqueue

import (
	"sync"
	"testing"
	"time"

	tu "github.com/vnykmshr/scriptflow/internal/testutil"
)

func TestProgressIterationGating(t *testing.T) {
	clock := tu.NewMockClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	p := NewProgressTracker(clock, time.Second)
	p.SetExpectedPerCycle(3)
	tu.AssertEqual(t, p.LastAdvance().IsZero(), true)

	for i := 0; i < 3; i++ {
		if p.Complete() {
			t.Fatalf("completion %d advanced the iteration", i+1)
		}
	}
	tu.AssertEqual(t, p.Iteration(), int64(0))
	tu.AssertEqual(t, p.CompletedCount(), int64(3))

	clock.Advance(time.Second)
	if !p.Complete() {
		t.Fatal("fourth completion should advance")
	}
	tu.AssertEqual(t, p.Iteration(), int64(1))
	tu.AssertEqual(t, p.CompletedCount(), int64(0))
	if !p.LastAdvance().Equal(clock.Now()) {
		t.Errorf("LastAdvance = %v, want %v", p.LastAdvance(), clock.Now())
	}
}

func TestProgressFirstSweepAdvances(t *testing.T) {
	clock := tu.NewMockClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	p := NewProgressTracker(clock, time.Second)
	p.SetExpectedPerCycle(3)

	clock.Advance(200 * time.Millisecond)
	for i := 0; i < 4; i++ {
		p.Complete()
	}
	tu.AssertEqual(t, p.Iteration(), int64(1))
	tu.AssertEqual(t, p.CompletedCount(), int64(0))
}

func TestProgressMinimumInterval(t *testing.T) {
	clock := tu.NewMockClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	p := NewProgressTracker(clock, time.Second)
	p.SetExpectedPerCycle(1)

	clock.Advance(500 * time.Millisecond)
	p.Complete()
	p.Complete()
	tu.AssertEqual(t, p.Iteration(), int64(1))

	// Count threshold reached again within a second of the advance: no
	// advance, but the counter still resets.
	clock.Advance(300 * time.Millisecond)
	p.Complete()
	p.Complete()
	tu.AssertEqual(t, p.Iteration(), int64(1))
	tu.AssertEqual(t, p.CompletedCount(), int64(0))

	clock.Advance(700 * time.Millisecond)
	p.Complete()
	p.Complete()
	tu.AssertEqual(t, p.Iteration(), int64(2))

	p.Complete()
	p.Complete()
	tu.AssertEqual(t, p.Iteration(), int64(2))
}

func TestProgressZeroExpected(t *testing.T) {
	clock := tu.NewMockClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	p := NewProgressTracker(clock, 0)

	if !p.Complete() {
		t.Fatal("with no expected size the first completion advances")
	}
	if p.Complete() {
		t.Fatal("second completion inside the floor advanced")
	}
	clock.Advance(DefaultMinIterationInterval)
	if !p.Complete() {
		t.Fatal("completion past the floor should advance")
	}

	p.SetExpectedPerCycle(-5)
	tu.AssertEqual(t, p.ExpectedPerCycle(), int64(0))
}

func TestProgressConcurrentMonotonic(t *testing.T) {
	clock := tu.NewMockClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	p := NewProgressTracker(clock, time.Millisecond)
	p.SetExpectedPerCycle(4)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			last := int64(0)
			for i := 0; i < 200; i++ {
				clock.Advance(time.Millisecond)
				p.Complete()
				cur := p.Iteration()
				if cur < last {
					t.Errorf("iteration went backwards: %d -> %d", last, cur)
					return
				}
				last = cur
			}
		}()
	}
	wg.Wait()

	if p.Iteration() == 0 {
		t.Error("iteration never advanced")
	}
}
