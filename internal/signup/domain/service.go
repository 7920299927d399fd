package domain

import (
	"context"
	"errors"
	"time"
)

// User mirrors the identity provider's stable subject id. The row's
// existence is what makes the signup bonus one-time.
type User struct {
	SubjectID string    `json:"subject_id" gorm:"type:text;primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

type Service interface {
	// EnsureSubject creates the user row if it does not exist and grants
	// the signup bonus exactly once. Safe to call on every request; the
	// identity webhook and the request-path fallback may both hit it.
	EnsureSubject(ctx context.Context, subjectID string) error
}

var ErrInvalidSubject = errors.New("invalid_subject")
