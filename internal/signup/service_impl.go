package signup

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/depictapp/depict/internal/config"
	creditdomain "github.com/depictapp/depict/internal/credit/domain"
	"github.com/depictapp/depict/internal/signup/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Cfg   config.Config
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	bonus float64
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("signup.service"),
		genID: p.GenID,
		bonus: p.Cfg.Credits.SignupBonus,
	}
}

func (s *Service) EnsureSubject(ctx context.Context, subjectID string) error {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return domain.ErrInvalidSubject
	}

	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject_id"}},
			DoNothing: true,
		}).Create(&domain.User{SubjectID: subjectID})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if s.bonus <= 0 {
			created = true
			return nil
		}
		bonus := &creditdomain.Transaction{
			ID:        s.genID.Generate(),
			SubjectID: subjectID,
			Amount:    s.bonus,
			Kind:      creditdomain.KindSignupBonus,
		}
		if err := tx.Create(bonus).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return err
	}

	if created {
		s.log.Info("subject provisioned with signup bonus",
			zap.String("subject_id", subjectID),
			zap.Float64("bonus", s.bonus),
		)
	}
	return nil
}
