package logx

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Throttle gates repetitive log lines: at most one line per interval, with
// the suppressed count reported on the next allowed line.
type Throttle struct {
	limiter    *rate.Limiter
	suppressed atomic.Int64
}

// NewThrottle allows one event per every. A non-positive every never throttles.
func NewThrottle(every time.Duration) *Throttle {
	if every <= 0 {
		return &Throttle{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Every(every), 1)}
}

// Allow reports whether a line may be written now. When it returns true it
// also returns how many lines were dropped since the previous allowed one.
func (t *Throttle) Allow() (bool, int64) {
	if t == nil {
		return true, 0
	}
	if !t.limiter.Allow() {
		t.suppressed.Add(1)
		return false, 0
	}
	return true, t.suppressed.Swap(0)
}
