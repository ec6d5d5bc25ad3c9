package resilience

import (
	"context"
	"sync"
	"time"
)

// SlidingWindowLimiter enforces "at most N requests per window" using a
// timestamp deque, matching the teacher's internal/ratelimit.RateLimiter
// idiom (a mutex-guarded slice of request timestamps pruned on each call)
// rather than golang.org/x/time/rate's token-bucket semantics: pricing
// sources in spec.md §4.3 are specified as a hard per-window request cap,
// not a bucket that can burst and refill continuously.
type SlidingWindowLimiter struct {
	mu       sync.Mutex
	requests []time.Time
	limit    int
	window   time.Duration
}

// NewSlidingWindowLimiter builds a limiter allowing at most limit calls
// in any rolling window-long interval.
func NewSlidingWindowLimiter(limit int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		limit:  limit,
		window: window,
	}
}

// Allow reports whether a call is permitted right now, recording it if so.
func (l *SlidingWindowLimiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.prune(now)

	if len(l.requests) >= l.limit {
		return false
	}
	l.requests = append(l.requests, now)
	return true
}

// Wait blocks until a call is permitted, the timeout elapses, or ctx is
// done, whichever first — so a stage timeout or overall-deadline
// cancellation interrupts the wait rather than running it to completion.
func (l *SlidingWindowLimiter) Wait(ctx context.Context, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()
	for {
		if l.Allow() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

func (l *SlidingWindowLimiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for ; i < len(l.requests); i++ {
		if l.requests[i].After(cutoff) {
			break
		}
	}
	l.requests = l.requests[i:]
}
