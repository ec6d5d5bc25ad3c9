// Package idempotency gates duplicate pipeline runs for the same card
// submission and replays the prior result for one, a completion feature
// not spelled out in spec.md §9's Open Questions list but required by
// §8's idempotency law: a duplicate (requestId, userId, cardId)
// submission "MUST return the same result" rather than a fresh run or an
// error. Modeled on the teacher's in-memory maps guarded by sync.Mutex
// (internal/ratelimit, internal/ai both use the same pattern for shared
// mutable state).
package idempotency

import (
	"sync"
	"time"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
)

type status int

const (
	statusInFlight status = iota
	statusCompleted
)

type entry struct {
	status status
	expiry time.Time
	result *cardmodel.Card
}

// Ledger tracks which (cardID, requestID) pairs are running or have
// completed, and the completed ones' results, expiring entries after ttl
// so the map doesn't grow unbounded.
type Ledger struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
}

// NewLedger builds a ledger with the given retention window.
func NewLedger(ttl time.Duration) *Ledger {
	return &Ledger{
		entries: make(map[string]entry),
		ttl:     ttl,
	}
}

// Begin reports whether key has not been seen (or has expired) and, if
// so, records it as in-flight for ttl and returns (nil, true) — the
// caller should run the pipeline. If key already names a completed run,
// Begin returns its stored result and false: the caller must return that
// result rather than run again. If key names a run still in flight, Begin
// returns (nil, false): the caller should reject the duplicate, since no
// result exists yet to replay.
func (l *Ledger) Begin(key string) (*cardmodel.Card, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.evictLocked()

	if e, ok := l.entries[key]; ok {
		if e.status == statusCompleted {
			return e.result, false
		}
		return nil, false
	}

	l.entries[key] = entry{status: statusInFlight, expiry: time.Now().Add(l.ttl)}
	return nil, true
}

// Complete records key's successful result so a later duplicate
// submission within ttl can replay it instead of re-running the pipeline.
func (l *Ledger) Complete(key string, card *cardmodel.Card) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[key] = entry{status: statusCompleted, expiry: time.Now().Add(l.ttl), result: card}
}

// Release removes key early, e.g. after a run fails and should be retryable.
func (l *Ledger) Release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

func (l *Ledger) evictLocked() {
	now := time.Now()
	for k, e := range l.entries {
		if now.After(e.expiry) {
			delete(l.entries, k)
		}
	}
}
