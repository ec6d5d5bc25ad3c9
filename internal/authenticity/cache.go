package authenticity

import (
	"context"
	"sync"
	"time"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
)

// referenceCacheEntry is one card name's cached reference-hash set, with
// the timestamp it was loaded at.
type referenceCacheEntry struct {
	refs     []cardmodel.ReferenceHash
	loadedAt time.Time
}

// CachingReferenceStore wraps a ReferenceStore with an in-memory,
// per-card-name TTL cache, generalizing the teacher's master-data cache
// (internal/storage's shop-scoped accounts/journals/creditors map, keyed
// by shop id with a 5-minute TTL) from per-shop master data to
// per-card-name reference hashes.
type CachingReferenceStore struct {
	inner ReferenceStore
	ttl   time.Duration

	mu      sync.RWMutex
	entries map[string]referenceCacheEntry
}

// NewCachingReferenceStore wraps inner with a cache of the given TTL.
func NewCachingReferenceStore(inner ReferenceStore, ttl time.Duration) *CachingReferenceStore {
	return &CachingReferenceStore{
		inner:   inner,
		ttl:     ttl,
		entries: make(map[string]referenceCacheEntry),
	}
}

// ReferencesFor returns the cached reference set for cardName, reloading
// from the wrapped store once the entry's TTL has elapsed.
func (c *CachingReferenceStore) ReferencesFor(ctx context.Context, cardName string) ([]cardmodel.ReferenceHash, error) {
	c.mu.RLock()
	entry, ok := c.entries[cardName]
	c.mu.RUnlock()
	if ok && time.Since(entry.loadedAt) < c.ttl {
		return entry.refs, nil
	}

	refs, err := c.inner.ReferencesFor(ctx, cardName)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[cardName] = referenceCacheEntry{refs: refs, loadedAt: time.Now()}
	c.mu.Unlock()

	return refs, nil
}
