package domain

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Record marks an external payment as applied. The unique index on
// ExternalPaymentID is what makes crediting idempotent: the webhook and
// the verify-after-redirect fallback may both fire for the same payment,
// and only the first conditional insert wins.
type Record struct {
	ID                snowflake.ID `json:"id" gorm:"primaryKey"`
	ExternalPaymentID string       `json:"external_payment_id" gorm:"type:text;not null;uniqueIndex:ux_payment_records_external_id"`
	SubjectID         string       `json:"subject_id" gorm:"type:text;not null;index"`
	CreditsGranted    float64      `json:"credits_granted" gorm:"not null"`
	Provider          string       `json:"provider" gorm:"type:text;not null"`
	CreatedAt         time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Record) TableName() string { return "payment_records" }

// Event is the canonical "payment succeeded" event parsed by provider
// adapters from webhook payloads or checkout-session lookups.
type Event struct {
	Provider          string
	ExternalPaymentID string
	SubjectID         string
	Credits           float64
	RawPayload        []byte
}

// Recorder applies an external payment at most once.
type Recorder interface {
	// RecordPaymentIfNew grants credits for the payment unless it was
	// already applied. applied=false means a record for the external
	// payment id already existed and nothing was written.
	RecordPaymentIfNew(ctx context.Context, event Event) (applied bool, err error)
}

// Adapter verifies and parses provider webhook deliveries.
type Adapter interface {
	Provider() string
	Verify(ctx context.Context, payload []byte, headers http.Header) error
	Parse(ctx context.Context, payload []byte) (*Event, error)
}

// CheckoutClient resolves a checkout session against the provider API.
// It backs the client-initiated verify-on-redirect path, used where
// webhooks cannot be delivered (local development).
type CheckoutClient interface {
	Provider() string
	ResolveSession(ctx context.Context, sessionID string) (*Event, error)
}

var (
	ErrInvalidProvider  = errors.New("invalid_provider")
	ErrProviderNotFound = errors.New("provider_not_found")
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrInvalidPayload   = errors.New("invalid_payload")
	ErrInvalidEvent     = errors.New("invalid_event")
	ErrEventIgnored     = errors.New("event_ignored")
	ErrMissingMetadata  = errors.New("missing_metadata")
	ErrPaymentIncomplete = errors.New("payment_incomplete")
	ErrSessionMismatch  = errors.New("session_mismatch")
)
