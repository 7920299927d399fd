package service

import (
	"context"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
	creditdomain "github.com/depictapp/depict/internal/credit/domain"
	dbpkg "github.com/depictapp/depict/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
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

	// subjectLocks serializes check-and-debit per subject when the store
	// cannot do it itself (sqlite in dev and tests). On postgres the
	// advisory transaction lock carries this guarantee across instances
	// and these mutexes are never taken.
	mu           sync.Mutex
	subjectLocks map[string]*sync.Mutex
}

func New(p Params) creditdomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("credit.service"),
		genID:        p.GenID,
		subjectLocks: make(map[string]*sync.Mutex),
	}
}

func (s *Service) GetBalance(ctx context.Context, subjectID string) (float64, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return 0, creditdomain.ErrInvalidSubject
	}
	return s.balance(ctx, s.db, subjectID)
}

func (s *Service) TryDebit(ctx context.Context, subjectID string, amount float64, relatedOperationID string) (creditdomain.DebitResult, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return creditdomain.DebitResult{}, creditdomain.ErrInvalidSubject
	}
	if amount <= 0 {
		return creditdomain.DebitResult{}, creditdomain.ErrInvalidAmount
	}

	if !dbpkg.IsPostgres(s.db) {
		lock := s.lockFor(subjectID)
		lock.Lock()
		defer lock.Unlock()
	}

	var result creditdomain.DebitResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if dbpkg.IsPostgres(s.db) {
			if err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtext(?))`, subjectID).Error; err != nil {
				return err
			}
		}

		balance, err := s.balance(ctx, tx, subjectID)
		if err != nil {
			return err
		}
		if balance < amount {
			result = creditdomain.DebitResult{Success: false, RemainingBalance: balance}
			return nil
		}

		row := &creditdomain.Transaction{
			ID:                 s.genID.Generate(),
			SubjectID:          subjectID,
			Amount:             -amount,
			Kind:               creditdomain.KindDebit,
			RelatedOperationID: optional(relatedOperationID),
		}
		if err := tx.Create(row).Error; err != nil {
			return err
		}

		result = creditdomain.DebitResult{Success: true, RemainingBalance: balance - amount}
		return nil
	})
	if err != nil {
		return creditdomain.DebitResult{}, err
	}

	if !result.Success {
		s.log.Debug("debit rejected: insufficient funds",
			zap.String("subject_id", subjectID),
			zap.Float64("needed", amount),
			zap.Float64("balance", result.RemainingBalance),
		)
	}
	return result, nil
}

func (s *Service) Credit(ctx context.Context, subjectID string, amount float64, kind creditdomain.TransactionKind, relatedOperationID string) error {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return creditdomain.ErrInvalidSubject
	}
	if amount <= 0 {
		return creditdomain.ErrInvalidAmount
	}
	if !creditdomain.ValidKind(kind) || kind == creditdomain.KindDebit {
		return creditdomain.ErrInvalidKind
	}

	row := &creditdomain.Transaction{
		ID:                 s.genID.Generate(),
		SubjectID:          subjectID,
		Amount:             amount,
		Kind:               kind,
		RelatedOperationID: optional(relatedOperationID),
	}
	return s.db.WithContext(ctx).Create(row).Error
}

func (s *Service) balance(ctx context.Context, tx *gorm.DB, subjectID string) (float64, error) {
	var balance float64
	err := tx.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount), 0) FROM credit_transactions WHERE subject_id = ?`,
		subjectID,
	).Scan(&balance).Error
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *Service) lockFor(subjectID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.subjectLocks[subjectID]
	if !ok {
		lock = &sync.Mutex{}
		s.subjectLocks[subjectID] = lock
	}
	return lock
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
