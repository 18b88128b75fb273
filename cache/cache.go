// Package cache provides the in-process TTL caches shared by the adapter
// layer: a positive-result key/value service with get-or-load, and a
// negative-result cache for IDs known to be invalid.
//
// Expiry is always computed at read time from the entry's stored-at
// timestamp, so callers can change TTLs without rewriting entries. Eviction
// is lazy (driven by reads) plus an explicit ClearExpired sweep; there is
// no background goroutine unless a Sweeper is started.
package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Entry holds a cached value with its storage timestamp.
type Entry struct {
	Value    any
	StoredAt time.Time
}

// Loader produces a value on a cache miss. Loader errors propagate to the
// caller and nothing is cached.
type Loader func(ctx context.Context) (any, error)

// Stats describes the cache contents for introspection and tests.
type Stats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

// Service is a TTL key/value cache. Set is last-write-wins; concurrent
// writers racing on the same key need no coordination beyond the map lock,
// the last Set to complete determines the stored value.
type Service struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// New creates an empty cache service.
func New() *Service {
	return &Service{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// Get returns the cached value for key if it was stored within ttl.
// An expired entry behaves as a miss but is not evicted; eviction stays
// lazy so a later read with a longer ttl can still see the entry.
func (s *Service) Get(key string, ttl time.Duration) (any, bool) {
	s.mu.RLock()
	entry, exists := s.entries[key]
	s.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if s.expired(entry, ttl) {
		return nil, false
	}
	return entry.Value, true
}

// Set stores a value under key, replacing any previous entry.
func (s *Service) Set(key string, value any) {
	entry := Entry{Value: value, StoredAt: s.now()}
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
}

// GetOrLoad returns the cached value when fresh, otherwise invokes loader,
// stores its result, and returns it. The second return reports whether the
// value came from cache. Loader failures are not cached.
func (s *Service) GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader Loader) (any, bool, error) {
	if value, ok := s.Get(key, ttl); ok {
		return value, true, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	value, err := loader(ctx)
	if err != nil {
		return nil, false, err
	}
	s.Set(key, value)
	return value, false, nil
}

// Delete removes a single entry.
func (s *Service) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Clear removes all entries.
func (s *Service) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]Entry)
	s.mu.Unlock()
}

// ClearExpired sweeps out entries older than ttl and returns how many
// were removed.
func (s *Service) ClearExpired(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if s.expired(entry, ttl) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Stats returns the cache size and sorted active keys. Purely
// observational; no behavioral significance.
func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return Stats{Size: len(s.entries), Keys: keys}
}

func (s *Service) expired(entry Entry, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return s.now().Sub(entry.StoredAt) > ttl
}
