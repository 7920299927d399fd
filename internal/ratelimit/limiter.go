package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Result reports a single admission decision.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter is a windowed counter keyed by an arbitrary string. Backends
// are selected at startup: the redis limiter is correct across service
// instances, the memory limiter only within one process.
type Limiter interface {
	Allow(ctx context.Context, key string, window time.Duration, max int) (Result, error)
}

var (
	ErrEmptyKey      = errors.New("rate limit key is empty")
	ErrInvalidWindow = errors.New("rate limit window must be positive")
	ErrInvalidMax    = errors.New("rate limit max must be positive")
)

func validate(key string, window time.Duration, max int) error {
	if key == "" {
		return ErrEmptyKey
	}
	if window <= 0 {
		return ErrInvalidWindow
	}
	if max <= 0 {
		return ErrInvalidMax
	}
	return nil
}
