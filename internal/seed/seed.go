package seed

import (
	"context"
	"errors"
	"time"

	challengedomain "github.com/depictapp/depict/internal/challenge/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	sampleChallengeID    = "sample-sunset"
	sampleChallengeTitle = "Sunset over the harbor"
)

// EnsureSampleChallenge seeds one active challenge so a fresh local
// install can run the pipeline end to end without an authoring tool.
func EnsureSampleChallenge(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	challenge := &challengedomain.Challenge{
		ID:                sampleChallengeID,
		Title:             sampleChallengeTitle,
		ReferenceImageURL: "https://images.unsplash.com/photo-1507525428034-b723cf961d3e",
		CharacterLimit:    400,
		ActiveDate:        time.Now().UTC().Truncate(24 * time.Hour),
		Status:            challengedomain.StatusActive,
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(challenge).Error
}
