package resilience

import (
	"time"

	"github.com/sony/gobreaker"
)

// NewSourceBreaker builds a per-pricing-source circuit breaker matching
// spec.md §4.3's "open after N consecutive failures, half-open after a
// cooldown" state machine, delegated to sony/gobreaker rather than
// hand-rolled, since gobreaker's three-state model (closed/open/half-open)
// is an exact fit.
func NewSourceBreaker(name string, failureThreshold uint32, cooldown time.Duration) *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
	}
	return gobreaker.NewCircuitBreaker(settings)
}
