package relay

import (
	"sync"
	"time"
)

// Default per-connection throttle
const (
	DefaultRateWindow = time.Second
	DefaultRateMax    = 20
)

type rateState struct {
	count       int
	windowStart time.Time
}

// RateLimiter caps the number of inbound events per connection in a fixed window
type RateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	states map[string]*rateState
	now    func() time.Time
}

// NewRateLimiter creates a limiter allowing max events per window per connection
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	if max <= 0 {
		max = DefaultRateMax
	}
	if window <= 0 {
		window = DefaultRateWindow
	}
	return &RateLimiter{
		window: window,
		max:    max,
		states: make(map[string]*rateState),
		now:    time.Now,
	}
}

// Allow records one event for connID and reports whether it fits in the current window
func (rl *RateLimiter) Allow(connID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	st, ok := rl.states[connID]
	if !ok {
		st = &rateState{windowStart: now}
		rl.states[connID] = st
	}
	if now.Sub(st.windowStart) > rl.window {
		st.count = 0
		st.windowStart = now
	}

	st.count++
	return st.count <= rl.max
}

// Remove drops the state of a disconnected connection
func (rl *RateLimiter) Remove(connID string) {
	rl.mu.Lock()
	delete(rl.states, connID)
	rl.mu.Unlock()
}

// Len returns the number of tracked connections
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.states)
}
