package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// MemoryLimiter keeps one token bucket per rule key and identifier. Each
// bucket refills at Limit per Window and holds at most Limit tokens.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	idle    time.Duration
	now     func() time.Time
}

// NewMemoryLimiter returns a limiter that forgets buckets unused for idle.
func NewMemoryLimiter(idle time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		buckets: make(map[string]*bucket),
		idle:    idle,
		now:     time.Now,
	}
}

// Allow never returns an error.
func (m *MemoryLimiter) Allow(_ context.Context, identifier string, rule Rule) (bool, error) {
	key := rule.Key + identifier
	now := m.now()

	m.mu.Lock()
	b, ok := m.buckets[key]
	if !ok {
		every := rate.Every(rule.Window / time.Duration(max(rule.Limit, 1)))
		b = &bucket{lim: rate.NewLimiter(every, rule.Limit)}
		m.buckets[key] = b
	}
	b.seen = now
	m.mu.Unlock()

	return b.lim.AllowN(now, 1), nil
}

// Sweep drops buckets idle for longer than the configured duration. It
// returns the number removed.
func (m *MemoryLimiter) Sweep() int {
	cutoff := m.now().Add(-m.idle)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, b := range m.buckets {
		if b.seen.Before(cutoff) {
			delete(m.buckets, k)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (m *MemoryLimiter) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Sweep()
		}
	}
}
