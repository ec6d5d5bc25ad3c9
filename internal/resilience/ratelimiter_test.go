package resilience

import (
	"context"
	"testing"
	"time"
)

func TestSlidingWindowLimiterAllowsWithinLimit(t *testing.T) {
	l := NewSlidingWindowLimiter(2, time.Minute)
	if !l.Allow() {
		t.Fatal("expected first call to be allowed")
	}
	if !l.Allow() {
		t.Fatal("expected second call to be allowed")
	}
	if l.Allow() {
		t.Fatal("expected third call to be denied")
	}
}

func TestSlidingWindowLimiterWaitReturnsOnCancellation(t *testing.T) {
	l := NewSlidingWindowLimiter(1, time.Minute)
	l.Allow() // exhaust the window

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	if l.Wait(ctx, 5*time.Second) {
		t.Fatal("expected Wait to report denial once ctx is canceled")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Wait did not return promptly after cancellation, took %v", elapsed)
	}
}

func TestSlidingWindowLimiterWaitTimesOutIndependently(t *testing.T) {
	l := NewSlidingWindowLimiter(1, time.Minute)
	l.Allow()

	if l.Wait(context.Background(), 50*time.Millisecond) {
		t.Fatal("expected Wait to report denial once the timeout elapses")
	}
}
