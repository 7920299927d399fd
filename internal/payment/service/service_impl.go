package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	creditdomain "github.com/depictapp/depict/internal/credit/domain"
	paymentdomain "github.com/depictapp/depict/internal/payment/domain"
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
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) paymentdomain.Recorder {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("payment.service"),
		genID: p.GenID,
	}
}

// RecordPaymentIfNew writes the payment record and its purchase credit in
// one transaction. The conditional insert on the unique external payment
// id decides whether this delivery is the first; a lost race writes
// nothing and reports applied=false.
func (s *Service) RecordPaymentIfNew(ctx context.Context, event paymentdomain.Event) (bool, error) {
	externalPaymentID := strings.TrimSpace(event.ExternalPaymentID)
	subjectID := strings.TrimSpace(event.SubjectID)
	if externalPaymentID == "" || subjectID == "" {
		return false, paymentdomain.ErrInvalidEvent
	}
	if event.Credits <= 0 {
		return false, paymentdomain.ErrInvalidEvent
	}

	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := &paymentdomain.Record{
			ID:                s.genID.Generate(),
			ExternalPaymentID: externalPaymentID,
			SubjectID:         subjectID,
			CreditsGranted:    event.Credits,
			Provider:          strings.ToLower(strings.TrimSpace(event.Provider)),
		}
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_payment_id"}},
			DoNothing: true,
		}).Create(record)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		credit := &creditdomain.Transaction{
			ID:                 s.genID.Generate(),
			SubjectID:          subjectID,
			Amount:             event.Credits,
			Kind:               creditdomain.KindPurchase,
			RelatedOperationID: &externalPaymentID,
		}
		if err := tx.Create(credit).Error; err != nil {
			return err
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if applied {
		s.log.Info("payment applied",
			zap.String("provider", event.Provider),
			zap.String("external_payment_id", externalPaymentID),
			zap.Float64("credits", event.Credits),
		)
	} else {
		s.log.Info("payment already applied, skipping",
			zap.String("provider", event.Provider),
			zap.String("external_payment_id", externalPaymentID),
		)
	}
	return applied, nil
}
