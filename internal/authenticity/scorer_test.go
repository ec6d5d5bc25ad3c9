package authenticity

import (
	"context"
	"testing"
	"time"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/llm"
)

// nonRetryableErr implements resilience.Retryable with Retryable() == false.
type nonRetryableErr struct{}

func (nonRetryableErr) Error() string   { return "rejected" }
func (nonRetryableErr) Retryable() bool { return false }

// rateLimitedErr implements both resilience.Retryable and resilience.RateLimited.
type rateLimitedErr struct{}

func (rateLimitedErr) Error() string     { return "rate limited" }
func (rateLimitedErr) Retryable() bool   { return true }
func (rateLimitedErr) RateLimited() bool { return true }

type erroringClient struct {
	err error
}

func (c *erroringClient) Name() string { return "erroring" }
func (c *erroringClient) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return nil, c.err
}

func TestJudgeShortCircuitsOnNonRetryableError(t *testing.T) {
	s := NewScorer(&erroringClient{err: nonRetryableErr{}}, nil, Config{MaxRetries: 5})

	start := time.Now()
	_, err := s.judge(context.Background(), "Charizard", "Holo Rare", cardmodel.AuthenticitySignals{})
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected an error from a non-retryable failure")
	}
	if err.Error() != "rejected" {
		t.Fatalf("expected the non-retryable error to propagate unchanged, got %v", err)
	}
	if elapsed > 100*time.Millisecond {
		t.Fatalf("expected an immediate return with no backoff wait, took %v", elapsed)
	}
}

func TestJudgeObservesContextCancellationDuringBackoff(t *testing.T) {
	s := NewScorer(&erroringClient{err: rateLimitedErr{}}, nil, Config{MaxRetries: 5})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.judge(ctx, "Charizard", "Holo Rare", cardmodel.AuthenticitySignals{})
	elapsed := time.Since(start)

	if err != context.DeadlineExceeded {
		t.Fatalf("expected context.DeadlineExceeded once the deadline fires during backoff, got %v", err)
	}
	if elapsed > time.Second {
		t.Fatalf("expected the backoff wait to be interrupted promptly by ctx.Done(), took %v", elapsed)
	}
}
