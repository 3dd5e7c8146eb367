package gate

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is the single-process fallback backend. Counters live in a TTL
// cache whose janitor sweeps expired entries independently; the mutex makes
// the read-check-write transition atomic for concurrent callers.
type MemoryStore struct {
	mu      sync.Mutex
	entries *gocache.Cache
}

// NewMemoryStore creates an in-process admission store. sweepInterval
// controls how often fully-expired counters are evicted.
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: gocache.New(gocache.NoExpiration, sweepInterval),
	}
}

// Acquire implements Store.
func (s *MemoryStore) Acquire(_ context.Context, clientKey string, limit int, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	if value, found := s.entries.Get(clientKey); found {
		count = value.(int)
	}

	if count >= limit {
		return false, nil
	}

	s.entries.Set(clientKey, count+1, ttl)
	return true, nil
}

// Release implements Store.
func (s *MemoryStore) Release(_ context.Context, clientKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, found := s.entries.Get(clientKey)
	if !found {
		return nil
	}

	count := value.(int)
	if count <= 1 {
		s.entries.Delete(clientKey)
		return nil
	}

	// Keep the remaining expiry rather than extending it on release.
	_, expiry, _ := s.entries.GetWithExpiration(clientKey)
	s.entries.Set(clientKey, count-1, time.Until(expiry))
	return nil
}
