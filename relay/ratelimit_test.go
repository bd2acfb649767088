package relay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	now := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(20, time.Second)
	rl.now = func() time.Time { return now }

	allowed := 0
	for i := 0; i < 21; i++ {
		if rl.Allow("conn-a") {
			allowed++
		}
	}
	assert.Equal(t, 20, allowed)
	assert.True(t, rl.Allow("conn-b"), "connections are limited independently")

	now = now.Add(time.Second)
	assert.False(t, rl.Allow("conn-a"), "window boundary is inclusive")

	now = now.Add(time.Millisecond)
	assert.True(t, rl.Allow("conn-a"))
}

func TestRateLimiter_Remove(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	assert.True(t, rl.Allow("conn-a"))
	assert.False(t, rl.Allow("conn-a"))
	assert.Equal(t, 1, rl.Len())

	rl.Remove("conn-a")
	assert.Equal(t, 0, rl.Len())
	assert.True(t, rl.Allow("conn-a"))
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)

	assert.Equal(t, DefaultRateMax, rl.max)
	assert.Equal(t, DefaultRateWindow, rl.window)
}
