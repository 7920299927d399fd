package domain

import (
	"errors"
	"fmt"
	"time"
)

// Business rejections are expected outcomes and must stay distinguishable
// from infrastructure failures; the HTTP layer maps each to its own
// status and body.
var (
	ErrChallengeNotFound = errors.New("challenge_not_found")
	ErrChallengeLocked   = errors.New("challenge_locked")
	ErrRateLimited       = errors.New("rate_limited")

	// ErrGenerationFailed means a debit was taken and has been refunded.
	// Callers must tell the user so explicitly.
	ErrGenerationFailed = errors.New("generation_failed")

	// ErrStoreUnavailable is an infrastructure failure and must never be
	// converted into a business rejection such as insufficient funds.
	ErrStoreUnavailable = errors.New("store_unavailable")
)

// RateLimitedError adds the wait hint to ErrRateLimited so the HTTP
// layer can emit a Retry-After header.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

// ValidationError is a client mistake; it never reaches the rate limiter
// or the ledger.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s %s", e.Field, e.Code)
}

func NewValidationError(field, code, message string) error {
	return &ValidationError{Field: field, Code: code, Message: message}
}

// InsufficientFundsError carries the numbers the caller needs to offer a
// top-up. Nothing was debited when this is returned.
type InsufficientFundsError struct {
	Balance float64 `json:"balance"`
	Needed  float64 `json:"needed"`
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %.2f, needed %.2f", e.Balance, e.Needed)
}
