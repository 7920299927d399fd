package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/depictapp/depict/internal/clock"
)

const defaultSweepInterval = time.Minute

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is the in-process fallback used when no redis backend is
// configured. It is correct only within a single process; that is an
// accepted limitation for local development, not a bug.
type MemoryLimiter struct {
	clock clock.Clock

	mu      sync.Mutex
	windows map[string]*window

	stop     chan struct{}
	stopOnce sync.Once
}

func NewMemoryLimiter(clk clock.Clock) *MemoryLimiter {
	l := &MemoryLimiter{
		clock:   clk,
		windows: make(map[string]*window),
		stop:    make(chan struct{}),
	}
	go l.sweep(defaultSweepInterval)
	return l
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string, windowDur time.Duration, max int) (Result, error) {
	if err := validate(key, windowDur, max); err != nil {
		return Result{}, err
	}

	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.windows[key]
	if !ok || now.After(entry.resetAt) {
		l.windows[key] = &window{count: 1, resetAt: now.Add(windowDur)}
		return Result{Allowed: true, Remaining: max - 1}, nil
	}

	if entry.count >= max {
		return Result{Allowed: false, Remaining: 0, RetryAfter: entry.resetAt.Sub(now)}, nil
	}

	entry.count++
	return Result{Allowed: true, Remaining: max - entry.count}, nil
}

// Close stops the background sweep.
func (l *MemoryLimiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// sweep reclaims expired windows without blocking Allow callers for
// longer than a map pass.
func (l *MemoryLimiter) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			now := l.clock.Now()
			l.mu.Lock()
			for key, entry := range l.windows {
				if now.After(entry.resetAt) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}
