package ratelimit

import (
	"sync"
	"time"
)

// Limiter is an in-memory sliding-window counter keyed per user.
// Process-local: tidak aman untuk horizontal scaling, scope-nya memang
// single instance.
type Limiter struct {
	mu        sync.Mutex
	max       int
	window    time.Duration
	hits      map[int64][]time.Time
	now       func() time.Time
	lastSweep time.Time
}

func New(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:    max,
		window: window,
		hits:   make(map[int64][]time.Time),
		now:    time.Now,
	}
}

// SetClock overrides the clock; untuk test.
func (l *Limiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Allow records an attempt and reports whether it fits the window.
func (l *Limiter) Allow(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	// user yang sudah lama diam tetap menahan entry di map; sapu paling
	// sering sekali per window supaya map tidak tumbuh terus
	if now.Sub(l.lastSweep) >= l.window {
		for id, ts := range l.hits {
			if len(ts) == 0 || !ts[len(ts)-1].After(cutoff) {
				delete(l.hits, id)
			}
		}
		l.lastSweep = now
	}

	kept := l.hits[userID][:0]
	for _, t := range l.hits[userID] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.max {
		l.hits[userID] = kept
		return false
	}

	l.hits[userID] = append(kept, now)
	return true
}
