package idempotency

import (
	"testing"
	"time"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
)

func TestBeginAllowsFirstSubmission(t *testing.T) {
	l := NewLedger(time.Minute)
	result, proceed := l.Begin("k1")
	if !proceed {
		t.Fatal("expected the first Begin for a key to proceed")
	}
	if result != nil {
		t.Fatalf("expected no prior result on first Begin, got %+v", result)
	}
}

func TestBeginRejectsInFlightDuplicateWithNoResult(t *testing.T) {
	l := NewLedger(time.Minute)
	l.Begin("k1")

	result, proceed := l.Begin("k1")
	if proceed {
		t.Fatal("expected a duplicate Begin while in flight to not proceed")
	}
	if result != nil {
		t.Fatalf("expected no result to replay for an in-flight duplicate, got %+v", result)
	}
}

func TestCompleteThenBeginReplaysResult(t *testing.T) {
	l := NewLedger(time.Minute)
	l.Begin("k1")
	card := &cardmodel.Card{CardID: "c1"}
	l.Complete("k1", card)

	result, proceed := l.Begin("k1")
	if proceed {
		t.Fatal("expected a duplicate Begin after completion to not proceed")
	}
	if result != card {
		t.Fatalf("expected the completed result to be replayed, got %+v", result)
	}
}

func TestReleaseAllowsRerun(t *testing.T) {
	l := NewLedger(time.Minute)
	l.Begin("k1")
	l.Release("k1")

	_, proceed := l.Begin("k1")
	if !proceed {
		t.Fatal("expected Begin to proceed again after Release")
	}
}

func TestCompletedEntryExpiresAfterTTL(t *testing.T) {
	l := NewLedger(time.Nanosecond)
	l.Begin("k1")
	l.Complete("k1", &cardmodel.Card{CardID: "c1"})

	time.Sleep(time.Millisecond)
	result, proceed := l.Begin("k1")
	if !proceed {
		t.Fatal("expected Begin to proceed once the completed entry's TTL has elapsed")
	}
	if result != nil {
		t.Fatalf("expected no result once the entry has expired, got %+v", result)
	}
}
