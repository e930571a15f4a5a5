package router

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAllowWithinLimit(t *testing.T) {
	req := require.New(t)
	limiter := NewRateLimiter()

	for i := 0; i < 100; i++ {
		req.True(limiter.Allow("user-1"), "message %d should be allowed", i+1)
	}

	// The 101st message inside the window is refused.
	req.False(limiter.Allow("user-1"))
}

func TestLimitIsPerUser(t *testing.T) {
	req := require.New(t)
	limiter := NewRateLimiter()

	for i := 0; i < 100; i++ {
		limiter.Allow("user-1")
	}

	req.False(limiter.Allow("user-1"))
	req.True(limiter.Allow("user-2"))
}

func TestWindowResets(t *testing.T) {
	req := require.New(t)
	limiter := NewRateLimiter()

	for i := 0; i < 100; i++ {
		limiter.Allow("user-1")
	}
	req.False(limiter.Allow("user-1"))

	// Age the window past a minute instead of sleeping.
	limiter.mu.Lock()
	limiter.clients["user-1"].windowStart = time.Now().Add(-61 * time.Second)
	limiter.mu.Unlock()

	req.True(limiter.Allow("user-1"))
}

func TestCleanupRemovesIdleEntries(t *testing.T) {
	req := require.New(t)
	limiter := NewRateLimiter()

	limiter.Allow("user-idle")
	limiter.Allow("user-fresh")

	limiter.mu.Lock()
	limiter.clients["user-idle"].windowStart = time.Now().Add(-6 * time.Minute)
	limiter.mu.Unlock()

	limiter.Cleanup()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	req.NotContains(limiter.clients, "user-idle")
	req.Contains(limiter.clients, "user-fresh")
}
