package domain

import "context"

type RunRequest struct {
	SubjectID        string
	ChallengeID      string
	ArticulationText string
}

type RunResult struct {
	Attempt          *Attempt        `json:"attempt"`
	Score            int             `json:"score"`
	ScoreBreakdown   *ScoreBreakdown `json:"score_breakdown,omitempty"`
	GeneratedImageURL string         `json:"generated_image_url"`
	CreditsSpent     float64         `json:"credits_spent"`
	RemainingBalance float64         `json:"remaining_balance"`
}

type Service interface {
	// Run executes the full paid pipeline: validate, admit, debit,
	// generate, score, persist. Any failure after the debit refunds it
	// before the error is returned.
	Run(ctx context.Context, req RunRequest) (*RunResult, error)

	// History returns the subject's most recent attempts.
	History(ctx context.Context, subjectID string, limit int) ([]Attempt, error)
}
