package server

import (
	"sync"
	"time"
)

// rateLimiter is a fixed-window counter keyed by client IP. It guards the
// write endpoints against runaway provisioning scripts; it is not a fairness
// mechanism.
type rateLimiter struct {
	limit  int
	window time.Duration
	mu     sync.Mutex
	items  map[string]*rateLimitEntry
}

type rateLimitEntry struct {
	windowStart time.Time
	count       int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:  limit,
		window: window,
		items:  make(map[string]*rateLimitEntry),
	}
}

func (r *rateLimiter) Allow(key string) bool {
	if key == "" {
		return false
	}

	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.items[key]
	if entry == nil || now.Sub(entry.windowStart) > r.window {
		r.pruneLocked(now)
		entry = &rateLimitEntry{windowStart: now}
		r.items[key] = entry
	}

	if entry.count >= r.limit {
		return false
	}

	entry.count++
	return true
}

// pruneLocked drops entries whose window has long passed so the map does not
// grow with every client ever seen. Called with the mutex held.
func (r *rateLimiter) pruneLocked(now time.Time) {
	cutoff := now.Add(-2 * r.window)
	for key, entry := range r.items {
		if entry.windowStart.Before(cutoff) {
			delete(r.items, key)
		}
	}
}
