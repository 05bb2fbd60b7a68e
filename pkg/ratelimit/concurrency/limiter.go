package concurrency

import (
	"context"
	"sync"

	"github.com/vnykmshr/scriptflow/pkg/common/errors"
)

// Limiter bounds the number of operations that may run at the same time.
type Limiter interface {
	// TryAcquire takes one permit if available. It never blocks.
	TryAcquire() bool

	// Acquire blocks until a permit is available or ctx is done.
	Acquire(ctx context.Context) error

	// Release returns one permit. It panics if no permit is held.
	Release()

	// SetCapacity changes the number of permits. Shrinking below the current
	// usage takes effect as permits are released.
	SetCapacity(capacity int)

	Capacity() int
	Available() int
	InUse() int
}

type limiter struct {
	mu       sync.Mutex
	capacity int
	inUse    int
	waiters  []chan struct{}
}

// NewSafe creates a limiter with capacity permits.
// It returns a validation error instead of panicking on bad input.
func NewSafe(capacity int) (Limiter, error) {
	if capacity <= 0 {
		return nil, errors.NewValidationError("concurrency", "capacity", capacity, "capacity must be positive").
			WithHint("capacity determines how many concurrent operations are allowed")
	}
	return &limiter{capacity: capacity}, nil
}

// New is NewSafe that panics on invalid capacity.
func New(capacity int) Limiter {
	l, err := NewSafe(capacity)
	if err != nil {
		panic(err)
	}
	return l
}

func (l *limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Waiters are served first so TryAcquire cannot starve them.
	if len(l.waiters) > 0 || l.inUse >= l.capacity {
		return false
	}
	l.inUse++
	return true
}

func (l *limiter) Acquire(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	l.mu.Lock()
	if len(l.waiters) == 0 && l.inUse < l.capacity {
		l.inUse++
		l.mu.Unlock()
		return nil
	}
	ready := make(chan struct{})
	l.waiters = append(l.waiters, ready)
	l.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, w := range l.waiters {
			if w == ready {
				l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
				return ctx.Err()
			}
		}
		// Granted concurrently with cancellation: hand the permit back.
		l.inUse--
		l.grant()
		return ctx.Err()
	}
}

func (l *limiter) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inUse <= 0 {
		panic("concurrency: released more permits than acquired")
	}
	l.inUse--
	l.grant()
}

// grant hands free permits to waiters in FIFO order. Must be called with l.mu held.
func (l *limiter) grant() {
	for len(l.waiters) > 0 && l.inUse < l.capacity {
		w := l.waiters[0]
		l.waiters = l.waiters[1:]
		l.inUse++
		close(w)
	}
}

func (l *limiter) SetCapacity(capacity int) {
	if capacity <= 0 {
		panic("concurrency: capacity must be positive")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.capacity = capacity
	l.grant()
}

func (l *limiter) Capacity() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.capacity
}

func (l *limiter) Available() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inUse >= l.capacity {
		return 0
	}
	return l.capacity - l.inUse
}

func (l *limiter) InUse() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inUse
}
