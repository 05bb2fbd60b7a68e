package concurrency

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/scriptflow/internal/testutil"
	"github.com/vnykmshr/scriptflow/pkg/common/errors"
)

func TestNewSafe(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		wantErr  bool
	}{
		{"valid capacity", 10, false},
		{"capacity one", 1, false},
		{"zero capacity", 0, true},
		{"negative capacity", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewSafe(tt.capacity)
			if tt.wantErr {
				testutil.AssertEqual(t, errors.IsValidationError(err), true)
				testutil.AssertEqual(t, l == nil, true)
				return
			}
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, l.Capacity(), tt.capacity)
			testutil.AssertEqual(t, l.Available(), tt.capacity)
			testutil.AssertEqual(t, l.InUse(), 0)
		})
	}
}

func TestTryAcquireUntilSaturated(t *testing.T) {
	l := New(2)

	testutil.AssertEqual(t, l.TryAcquire(), true)
	testutil.AssertEqual(t, l.TryAcquire(), true)
	testutil.AssertEqual(t, l.TryAcquire(), false)
	testutil.AssertEqual(t, l.Available(), 0)

	l.Release()
	testutil.AssertEqual(t, l.TryAcquire(), true)
	testutil.AssertEqual(t, l.InUse(), 2)
}

func TestReleaseWithoutAcquirePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	New(1).Release()
}

func TestAcquireWaitsForRelease(t *testing.T) {
	l := New(1)
	testutil.AssertEqual(t, l.TryAcquire(), true)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	var acquired atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := l.Acquire(ctx); err == nil {
			acquired.Store(true)
		}
	}()

	time.Sleep(20 * time.Millisecond)
	testutil.AssertEqual(t, acquired.Load(), false)

	l.Release()
	<-done
	testutil.AssertEqual(t, acquired.Load(), true)
	testutil.AssertEqual(t, l.InUse(), 1)
}

func TestAcquireCanceled(t *testing.T) {
	l := New(1)
	testutil.AssertEqual(t, l.TryAcquire(), true)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Acquire(ctx)
	testutil.AssertEqual(t, err, context.DeadlineExceeded)
	testutil.AssertEqual(t, l.InUse(), 1)

	// The canceled waiter must not block TryAcquire after release.
	l.Release()
	testutil.AssertEqual(t, l.TryAcquire(), true)
}

func TestSetCapacityGrantsWaiters(t *testing.T) {
	l := New(1)
	testutil.AssertEqual(t, l.TryAcquire(), true)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- l.Acquire(ctx) }()

	testutil.AssertEventually(t, func() bool {
		lim := l.(*limiter)
		lim.mu.Lock()
		defer lim.mu.Unlock()
		return len(lim.waiters) == 1
	})

	l.SetCapacity(2)
	testutil.AssertNoError(t, <-done)
	testutil.AssertEqual(t, l.InUse(), 2)
	testutil.AssertEqual(t, l.Available(), 0)
}

func TestConcurrentUseNeverExceedsCapacity(t *testing.T) {
	const capacity = 3
	l := New(capacity)

	var active, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), testutil.TestTimeout)
			defer cancel()
			if err := l.Acquire(ctx); err != nil {
				return
			}
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
			l.Release()
		}()
	}
	wg.Wait()

	if peak.Load() > capacity {
		t.Fatalf("peak concurrency %d exceeds capacity %d", peak.Load(), capacity)
	}
	testutil.AssertEqual(t, l.InUse(), 0)
}
