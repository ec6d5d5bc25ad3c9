package authenticity

import (
	"context"
	"testing"
	"time"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
)

type countingStore struct {
	calls int
	refs  []cardmodel.ReferenceHash
}

func (c *countingStore) ReferencesFor(ctx context.Context, cardName string) ([]cardmodel.ReferenceHash, error) {
	c.calls++
	return c.refs, nil
}

func TestCachingReferenceStoreReusesWithinTTL(t *testing.T) {
	inner := &countingStore{refs: []cardmodel.ReferenceHash{{CardName: "Charizard", Hash: "abc"}}}
	cache := NewCachingReferenceStore(inner, time.Minute)

	if _, err := cache.ReferencesFor(context.Background(), "Charizard"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cache.ReferencesFor(context.Background(), "Charizard"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected the inner store to be hit once, got %d calls", inner.calls)
	}
}

func TestCachingReferenceStoreReloadsAfterTTL(t *testing.T) {
	inner := &countingStore{}
	cache := NewCachingReferenceStore(inner, time.Nanosecond)

	if _, err := cache.ReferencesFor(context.Background(), "Charizard"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := cache.ReferencesFor(context.Background(), "Charizard"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("expected a reload after TTL expiry, got %d calls", inner.calls)
	}
}
