// Package dedup guards inbound webhook deliveries against duplicate
// processing. The gateway delivers at least once; a delivery key that has
// already been marked seen within the TTL is acknowledged without reprocessing.
package dedup

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is how long a delivery key is remembered.
const DefaultTTL = time.Hour

// SeenStore answers whether a delivery key was already processed.
//
// The in-memory implementation is correctness-sound only when the API runs as
// a single instance; multi-instance deployments must share a store (DynamoDB
// implementation below). Either way a miss is safe: the downstream payment
// transition is idempotent.
type SeenStore interface {
	Seen(ctx context.Context, key string) (bool, error)
	MarkSeen(ctx context.Context, key string) error
}

// MemorySeenStore keeps seen keys in process with lazy TTL eviction.
type MemorySeenStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
}

func NewMemorySeenStore(ttl time.Duration) *MemorySeenStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemorySeenStore{
		entries: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemorySeenStore) Seen(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	if s.now().Sub(at) > s.ttl {
		delete(s.entries, key)
		return false, nil
	}
	return true, nil
}

func (s *MemorySeenStore) MarkSeen(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.entries[key] = now
	// Lazy sweep of expired keys so the map stays bounded.
	for k, at := range s.entries {
		if now.Sub(at) > s.ttl {
			delete(s.entries, k)
		}
	}
	return nil
}
