package domain_test

import (
	"testing"
	"time"

	"github.com/depictapp/depict/internal/challenge/domain"
)

func TestLockedAtComparesCalendarDates(t *testing.T) {
	active := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	challenge := domain.Challenge{ActiveDate: active}

	cases := []struct {
		name   string
		now    time.Time
		locked bool
	}{
		{"day before", time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC), true},
		{"midnight of active day", time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), false},
		{"later that day", time.Date(2025, 6, 2, 18, 30, 0, 0, time.UTC), false},
		{"day after", time.Date(2025, 6, 3, 1, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		if got := challenge.LockedAt(tc.now); got != tc.locked {
			t.Fatalf("%s: expected locked=%v, got %v", tc.name, tc.locked, got)
		}
	}
}
