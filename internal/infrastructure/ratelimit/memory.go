// Package ratelimit holds the in-process login throttle used when no Redis
// instance is configured.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryThrottle keeps a token bucket per email. Buckets refill at
// maxAttempts per window; a bucket idle for a whole window is full again and
// gets dropped on the next sweep.
type MemoryThrottle struct {
	mu        sync.Mutex
	entries   map[string]*entry
	limit     rate.Limit
	burst     int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryThrottle(maxAttempts int, window time.Duration) *MemoryThrottle {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &MemoryThrottle{
		entries:   make(map[string]*entry),
		limit:     rate.Every(window / time.Duration(maxAttempts)),
		burst:     maxAttempts,
		window:    window,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (t *MemoryThrottle) Allow(_ context.Context, email string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.sweep(now)

	e, ok := t.entries[email]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.entries[email] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1), nil
}

func (t *MemoryThrottle) Reset(_ context.Context, email string) error {
	t.mu.Lock()
	delete(t.entries, email)
	t.mu.Unlock()
	return nil
}

// sweep runs at most once per window. Caller holds mu.
func (t *MemoryThrottle) sweep(now time.Time) {
	if now.Sub(t.lastSweep) < t.window {
		return
	}
	for email, e := range t.entries {
		if now.Sub(e.lastSeen) >= t.window {
			delete(t.entries, email)
		}
	}
	t.lastSweep = now
}

// Len reports how many emails currently hold a bucket.
func (t *MemoryThrottle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
