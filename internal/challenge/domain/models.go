package domain

import (
	"context"
	"errors"
	"time"
)

type ChallengeStatus string

const (
	StatusDraft     ChallengeStatus = "draft"
	StatusScheduled ChallengeStatus = "scheduled"
	StatusActive    ChallengeStatus = "active"
	StatusArchived  ChallengeStatus = "archived"
)

// Challenge is the daily prompt a subject articulates against. Authoring
// lives elsewhere; the pipeline only reads these rows for validation and
// the reference image.
type Challenge struct {
	ID                string          `json:"id" gorm:"type:text;primaryKey"`
	Title             string          `json:"title" gorm:"type:text;not null"`
	ReferenceImageURL string          `json:"reference_image_url" gorm:"type:text;not null"`
	CharacterLimit    int             `json:"character_limit" gorm:"not null"`
	ActiveDate        time.Time       `json:"active_date" gorm:"not null;index"`
	Status            ChallengeStatus `json:"status" gorm:"type:text;not null"`
	CreatedAt         time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Challenge) TableName() string { return "challenges" }

// LockedAt reports whether the challenge is still locked at the given
// time (its active date is in the future).
func (c Challenge) LockedAt(now time.Time) bool {
	today := now.UTC().Truncate(24 * time.Hour)
	return c.ActiveDate.UTC().Truncate(24 * time.Hour).After(today)
}

type Repository interface {
	FindByID(ctx context.Context, id string) (*Challenge, error)
}

var ErrNotFound = errors.New("not_found")
