package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// TransactionKind classifies a ledger entry.
type TransactionKind string

const (
	KindSignupBonus TransactionKind = "signup_bonus"
	KindPurchase    TransactionKind = "purchase"
	KindDebit       TransactionKind = "debit"
	KindRefund      TransactionKind = "refund"
)

// Transaction is an immutable, append-only ledger fact. A subject's
// balance is always the sum of its transaction amounts; rows are never
// updated or deleted.
type Transaction struct {
	ID        snowflake.ID    `json:"id" gorm:"primaryKey"`
	SubjectID string          `json:"subject_id" gorm:"type:text;not null;index"`
	Amount    float64         `json:"amount" gorm:"not null"`
	Kind      TransactionKind `json:"kind" gorm:"type:text;not null"`

	// RelatedOperationID links a debit or refund to the generation
	// attempt it funded, and a purchase to its external payment id.
	RelatedOperationID *string   `json:"related_operation_id" gorm:"type:text;index"`
	CreatedAt          time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Transaction) TableName() string { return "credit_transactions" }

// ValidKind reports whether the kind is one of the known transaction kinds.
func ValidKind(kind TransactionKind) bool {
	switch kind {
	case KindSignupBonus, KindPurchase, KindDebit, KindRefund:
		return true
	default:
		return false
	}
}
