package cache

import (
	"fmt"
	"time"

	"github.com/petal-labs/recordflow/core"
)

// DefaultNegativeTTL bounds how long a not-found result is remembered.
const DefaultNegativeTTL = 60 * time.Second

// NegativeCache remembers record IDs that recently returned 404 so
// repeated lookups for known-invalid IDs skip the round trip. It keeps its
// own namespace and TTL, separate from the positive-result cache.
type NegativeCache struct {
	svc *Service
	ttl time.Duration
}

// NewNegativeCache creates a negative-result cache with the given TTL;
// ttl <= 0 uses DefaultNegativeTTL.
func NewNegativeCache(ttl time.Duration) *NegativeCache {
	if ttl <= 0 {
		ttl = DefaultNegativeTTL
	}
	return &NegativeCache{
		svc: New(),
		ttl: ttl,
	}
}

// Cache404 records that resource/recordID returned not-found.
func (n *NegativeCache) Cache404(resource core.ResourceType, recordID string) {
	n.svc.Set(negativeKey(resource, recordID), true)
}

// Is404Cached reports whether resource/recordID recently returned
// not-found.
func (n *NegativeCache) Is404Cached(resource core.ResourceType, recordID string) bool {
	_, ok := n.svc.Get(negativeKey(resource, recordID), n.ttl)
	return ok
}

// Clear drops all remembered not-found results.
func (n *NegativeCache) Clear() {
	n.svc.Clear()
}

// ClearExpired sweeps out stale not-found entries.
func (n *NegativeCache) ClearExpired() int {
	return n.svc.ClearExpired(n.ttl)
}

// Stats exposes the underlying cache stats.
func (n *NegativeCache) Stats() Stats {
	return n.svc.Stats()
}

func negativeKey(resource core.ResourceType, recordID string) string {
	return fmt.Sprintf("%s:%s", resource, recordID)
}
