package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Attempt records one paid generation. A row exists only if the debit,
// both external calls, and the artifact write all succeeded; every other
// exit path refunds the debit and persists nothing.
type Attempt struct {
	ID               string         `json:"id" gorm:"type:text;primaryKey"`
	SubjectID        string         `json:"subject_id" gorm:"type:text;not null;index"`
	ChallengeID      string         `json:"challenge_id" gorm:"type:text;not null;index"`
	ArticulationText string         `json:"articulation_text" gorm:"type:text;not null"`
	CharacterCount   int            `json:"character_count" gorm:"not null"`
	CreditsSpent     float64        `json:"credits_spent" gorm:"not null"`
	ImageURL         string         `json:"image_url" gorm:"type:text;not null"`
	Score            int            `json:"score" gorm:"not null"`
	ScoreBreakdown   datatypes.JSON `json:"score_breakdown"`
	CreatedAt        time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Attempt) TableName() string { return "generation_attempts" }

// ScoreBreakdown is the per-dimension split returned by the scorer.
type ScoreBreakdown struct {
	Subject     int `json:"subject"`
	Composition int `json:"composition"`
	Color       int `json:"color"`
	Detail      int `json:"detail"`
}
