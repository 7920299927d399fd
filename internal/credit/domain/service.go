package domain

import (
	"context"
	"errors"
)

// DebitResult reports the outcome of a conditional debit. Success=false
// means insufficient funds, which is a normal outcome, not an error;
// store failures surface as errors instead.
type DebitResult struct {
	Success          bool    `json:"success"`
	RemainingBalance float64 `json:"remaining_balance"`
}

type Service interface {
	// GetBalance returns the sum of all ledger amounts for the subject.
	GetBalance(ctx context.Context, subjectID string) (float64, error)

	// TryDebit atomically checks the balance and appends a negative
	// transaction. Concurrent debits for the same subject serialize;
	// at most one can win a balance that only covers one.
	TryDebit(ctx context.Context, subjectID string, amount float64, relatedOperationID string) (DebitResult, error)

	// Credit appends a positive transaction. It has no precondition and
	// is used for signup bonuses, purchases, and refunds.
	Credit(ctx context.Context, subjectID string, amount float64, kind TransactionKind, relatedOperationID string) error
}

var (
	ErrInvalidSubject = errors.New("invalid_subject")
	ErrInvalidAmount  = errors.New("invalid_amount")
	ErrInvalidKind    = errors.New("invalid_kind")
)
