package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/depictapp/depict/internal/clock"
	"github.com/depictapp/depict/internal/ratelimit"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	limiter := ratelimit.NewMemoryLimiter(clk)
	defer limiter.Close()

	window := time.Minute
	for want := 2; want >= 0; want-- {
		res, err := limiter.Allow(ctx, "generate:sub_1", window, 3)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("expected request %d to be allowed", 3-want)
		}
		if res.Remaining != want {
			t.Fatalf("expected remaining %d, got %d", want, res.Remaining)
		}
	}

	res, err := limiter.Allow(ctx, "generate:sub_1", window, 3)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if res.Allowed {
		t.Fatal("expected fourth request to be denied")
	}
	if res.RetryAfter != window {
		t.Fatalf("expected retry after %v, got %v", window, res.RetryAfter)
	}

	// Partway through the window the denial persists with a shorter hint.
	clk.Advance(40 * time.Second)
	res, err = limiter.Allow(ctx, "generate:sub_1", window, 3)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if res.Allowed {
		t.Fatal("expected denial inside the window")
	}
	if res.RetryAfter != 20*time.Second {
		t.Fatalf("expected retry after 20s, got %v", res.RetryAfter)
	}

	// Past the window the counter starts over.
	clk.Advance(21 * time.Second)
	res, err = limiter.Allow(ctx, "generate:sub_1", window, 3)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !res.Allowed || res.Remaining != 2 {
		t.Fatalf("expected fresh window, got %+v", res)
	}
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	limiter := ratelimit.NewMemoryLimiter(clk)
	defer limiter.Close()

	for i := 0; i < 3; i++ {
		if _, err := limiter.Allow(ctx, "generate:sub_1", time.Minute, 3); err != nil {
			t.Fatalf("allow: %v", err)
		}
	}
	res, err := limiter.Allow(ctx, "generate:sub_1", time.Minute, 3)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if res.Allowed {
		t.Fatal("expected sub_1 to be exhausted")
	}

	res, err = limiter.Allow(ctx, "generate:sub_2", time.Minute, 3)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !res.Allowed {
		t.Fatal("expected sub_2 to be unaffected by sub_1's window")
	}
}

func TestMemoryLimiterValidatesArguments(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFakeClock(time.Now())
	limiter := ratelimit.NewMemoryLimiter(clk)
	defer limiter.Close()

	if _, err := limiter.Allow(ctx, "", time.Minute, 3); !errors.Is(err, ratelimit.ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
	if _, err := limiter.Allow(ctx, "k", 0, 3); !errors.Is(err, ratelimit.ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
	if _, err := limiter.Allow(ctx, "k", time.Minute, 0); !errors.Is(err, ratelimit.ErrInvalidMax) {
		t.Fatalf("expected ErrInvalidMax, got %v", err)
	}
}
