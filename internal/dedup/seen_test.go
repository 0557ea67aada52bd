package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySeenStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySeenStore(time.Hour)

	seen, err := s.Seen(ctx, "req-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, s.MarkSeen(ctx, "req-1"))

	seen, err = s.Seen(ctx, "req-1")
	require.NoError(t, err)
	assert.True(t, seen)

	// Other keys are unaffected.
	seen, _ = s.Seen(ctx, "req-2")
	assert.False(t, seen)
}

func TestMemorySeenStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := NewMemorySeenStore(time.Hour)
	s.now = func() time.Time { return now }

	require.NoError(t, s.MarkSeen(ctx, "req-1"))

	// Just inside the TTL.
	now = now.Add(59 * time.Minute)
	seen, _ := s.Seen(ctx, "req-1")
	assert.True(t, seen)

	// Past the TTL the key is forgotten.
	now = now.Add(2 * time.Minute)
	seen, _ = s.Seen(ctx, "req-1")
	assert.False(t, seen)
}

func TestMemorySeenStore_SweepOnMark(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := NewMemorySeenStore(time.Minute)
	s.now = func() time.Time { return now }

	require.NoError(t, s.MarkSeen(ctx, "old-1"))
	require.NoError(t, s.MarkSeen(ctx, "old-2"))

	now = now.Add(2 * time.Minute)
	require.NoError(t, s.MarkSeen(ctx, "fresh"))

	// The sweep during MarkSeen evicted the expired keys.
	assert.Len(t, s.entries, 1)
}

func TestMemorySeenStore_DefaultTTL(t *testing.T) {
	s := NewMemorySeenStore(0)
	assert.Equal(t, DefaultTTL, s.ttl)
}
