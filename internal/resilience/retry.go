// Package resilience collects the retry/backoff, rate-limiting, and
// circuit-breaking building blocks shared by the pipeline's external
// integrations, generalizing the teacher's internal/ai.gemini_retry.go
// (hand-rolled exponential backoff) onto github.com/cenkalti/backoff/v4.
package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy configures an exponential backoff retry loop.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultRetryPolicy mirrors the teacher's gemini_retry.go constants:
// a 1s initial backoff doubling up to 30s, bounded retry count.
func DefaultRetryPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:      maxRetries,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
	}
}

// Retryable is implemented by errors that know whether a retry is worthwhile.
// Non-retryable errors (bad input, content rejected) short-circuit the loop,
// just as the teacher's categorizeGeminiError steers retry decisions.
type Retryable interface {
	Retryable() bool
}

// RateLimited is implemented by errors that signal the failure was a
// rate-limit rejection specifically, letting a caller escalate to a more
// aggressive backoff base than an ordinary transient failure warrants.
type RateLimited interface {
	RateLimited() bool
}

// Do runs fn under the policy, retrying only errors that either don't
// implement Retryable (assumed transient) or report Retryable() true.
func Do(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialInterval
	b.MaxInterval = policy.MaxInterval
	b.Multiplier = policy.Multiplier
	b.MaxElapsedTime = 0 // bounded by MaxRetries below, not elapsed wall clock

	bctx := backoff.WithContext(b, ctx)

	attempt := 0
	op := func() error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if r, ok := err.(Retryable); ok && !r.Retryable() {
			return backoff.Permanent(err)
		}
		if attempt > policy.MaxRetries {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(op, bctx)
}
