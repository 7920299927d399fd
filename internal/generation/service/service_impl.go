package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	challengedomain "github.com/depictapp/depict/internal/challenge/domain"
	"github.com/depictapp/depict/internal/clock"
	"github.com/depictapp/depict/internal/config"
	creditdomain "github.com/depictapp/depict/internal/credit/domain"
	generationdomain "github.com/depictapp/depict/internal/generation/domain"
	obsmetrics "github.com/depictapp/depict/internal/observability/metrics"
	"github.com/depictapp/depict/internal/ratelimit"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	minArticulationChars = 10
	rateLimitKeyPrefix   = "generate:"
	historyDefaultLimit  = 20
	historyMaxLimit      = 100
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Cfg        config.Config
	Credits    creditdomain.Service
	Limiter    ratelimit.Limiter
	Challenges challengedomain.Repository
	Generator  generationdomain.Generator
	Scorer     generationdomain.Scorer
	Artifacts  generationdomain.ArtifactStore
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	cfg        config.Config
	credits    creditdomain.Service
	limiter    ratelimit.Limiter
	challenges challengedomain.Repository
	generator  generationdomain.Generator
	scorer     generationdomain.Scorer
	artifacts  generationdomain.ArtifactStore
	metrics    *obsmetrics.Metrics
}

func New(p Params) generationdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("generation.service"),
		clock:      p.Clock,
		cfg:        p.Cfg,
		credits:    p.Credits,
		limiter:    p.Limiter,
		challenges: p.Challenges,
		generator:  p.Generator,
		scorer:     p.Scorer,
		artifacts:  p.Artifacts,
		metrics:    p.Metrics,
	}
}

func (s *Service) Run(ctx context.Context, req generationdomain.RunRequest) (*generationdomain.RunResult, error) {
	subjectID := strings.TrimSpace(req.SubjectID)
	if subjectID == "" {
		return nil, s.reject("invalid_input", generationdomain.NewValidationError("subject_id", "missing", "subject is required"))
	}

	challenge, text, err := s.validate(ctx, req)
	if err != nil {
		outcome := "invalid_input"
		if errors.Is(err, generationdomain.ErrChallengeNotFound) {
			outcome = "challenge_not_found"
		} else if errors.Is(err, generationdomain.ErrChallengeLocked) {
			outcome = "challenge_locked"
		} else if errors.Is(err, generationdomain.ErrStoreUnavailable) {
			outcome = "store_unavailable"
		}
		return nil, s.reject(outcome, err)
	}

	if err := s.admit(ctx, subjectID); err != nil {
		return nil, s.reject("rate_limited", err)
	}

	cost := s.cfg.Credits.PerGeneration
	attemptID := uuid.NewString()

	debit, err := s.credits.TryDebit(ctx, subjectID, cost, attemptID)
	if err != nil {
		s.log.Error("debit failed", zap.String("subject_id", subjectID), zap.Error(err))
		return nil, s.reject("store_unavailable", generationdomain.ErrStoreUnavailable)
	}
	if !debit.Success {
		return nil, s.reject("insufficient_funds", &generationdomain.InsufficientFundsError{
			Balance: debit.RemainingBalance,
			Needed:  cost,
		})
	}

	// A debit has been taken. Every exit below that is not full success
	// must issue exactly one compensating refund before returning.
	result, runErr := s.execute(ctx, subjectID, attemptID, challenge, text, cost)
	if runErr != nil {
		s.refund(ctx, subjectID, attemptID, cost)
		return nil, s.reject("failed", generationdomain.ErrGenerationFailed)
	}

	s.record("success")
	return result, nil
}

// validate fails fast on client mistakes with no side effects.
func (s *Service) validate(ctx context.Context, req generationdomain.RunRequest) (*challengedomain.Challenge, string, error) {
	challengeID := strings.TrimSpace(req.ChallengeID)
	if challengeID == "" {
		return nil, "", generationdomain.NewValidationError("challenge_id", "missing", "challenge is required")
	}

	text := strings.TrimSpace(req.ArticulationText)
	if len(text) < minArticulationChars {
		return nil, "", generationdomain.NewValidationError("articulation_text", "too_short",
			fmt.Sprintf("articulation must be at least %d characters", minArticulationChars))
	}

	challenge, err := s.challenges.FindByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, challengedomain.ErrNotFound) {
			return nil, "", generationdomain.ErrChallengeNotFound
		}
		s.log.Error("challenge lookup failed", zap.String("challenge_id", challengeID), zap.Error(err))
		return nil, "", generationdomain.ErrStoreUnavailable
	}

	if challenge.LockedAt(s.clock.Now()) {
		return nil, "", generationdomain.ErrChallengeLocked
	}

	if challenge.CharacterLimit > 0 && len(text) > challenge.CharacterLimit {
		return nil, "", generationdomain.NewValidationError("articulation_text", "too_long",
			fmt.Sprintf("articulation exceeds %d character limit", challenge.CharacterLimit))
	}

	return challenge, text, nil
}

// admit consults the rate limiter. A transport error to the limiter
// backend fails open with a warning: it protects against abuse, not
// correctness, and must not take the pipeline down with it.
func (s *Service) admit(ctx context.Context, subjectID string) error {
	res, err := s.limiter.Allow(ctx, rateLimitKeyPrefix+subjectID, s.cfg.RateLimit.GenerateWindow, s.cfg.RateLimit.GenerateMax)
	if err != nil {
		s.log.Warn("rate limiter unavailable, allowing request", zap.String("subject_id", subjectID), zap.Error(err))
		return nil
	}
	if !res.Allowed {
		if s.metrics != nil {
			s.metrics.RecordRateLimitDenied("generate")
		}
		return &generationdomain.RateLimitedError{RetryAfter: res.RetryAfter}
	}
	return nil
}

// execute runs the post-debit stages. It never refunds itself; the
// caller owns the single compensation on error.
func (s *Service) execute(
	ctx context.Context,
	subjectID, attemptID string,
	challenge *challengedomain.Challenge,
	text string,
	cost float64,
) (*generationdomain.RunResult, error) {
	imageBytes, err := s.withTimeout(ctx, func(callCtx context.Context) ([]byte, error) {
		return s.generator.Generate(callCtx, text)
	})
	if err != nil {
		s.log.Error("image generation failed",
			zap.String("subject_id", subjectID),
			zap.String("attempt_id", attemptID),
			zap.Error(err),
		)
		return nil, err
	}

	imageURL, err := s.artifacts.Save(ctx, fmt.Sprintf("%s/%s.png", subjectID, attemptID), imageBytes)
	if err != nil {
		s.log.Error("artifact save failed", zap.String("attempt_id", attemptID), zap.Error(err))
		return nil, err
	}

	var score generationdomain.ScoreResult
	score, err = s.withTimeoutScore(ctx, challenge.ReferenceImageURL, imageURL, text)
	if err != nil {
		s.log.Error("scoring failed",
			zap.String("subject_id", subjectID),
			zap.String("attempt_id", attemptID),
			zap.Error(err),
		)
		return nil, err
	}

	attempt := &generationdomain.Attempt{
		ID:               attemptID,
		SubjectID:        subjectID,
		ChallengeID:      challenge.ID,
		ArticulationText: text,
		CharacterCount:   len(text),
		CreditsSpent:     cost,
		ImageURL:         imageURL,
		Score:            score.Total,
	}
	if score.Breakdown != nil {
		if raw, marshalErr := json.Marshal(score.Breakdown); marshalErr == nil {
			attempt.ScoreBreakdown = datatypes.JSON(raw)
		}
	}

	if err := s.db.WithContext(ctx).Create(attempt).Error; err != nil {
		s.log.Error("attempt persist failed", zap.String("attempt_id", attemptID), zap.Error(err))
		return nil, err
	}

	// Re-read instead of computing locally, so concurrent activity on
	// the same account is reflected.
	balance, err := s.credits.GetBalance(ctx, subjectID)
	if err != nil {
		s.log.Warn("balance re-read failed after success", zap.String("subject_id", subjectID), zap.Error(err))
		balance = 0
	}

	return &generationdomain.RunResult{
		Attempt:           attempt,
		Score:             score.Total,
		ScoreBreakdown:    score.Breakdown,
		GeneratedImageURL: imageURL,
		CreditsSpent:      cost,
		RemainingBalance:  balance,
	}, nil
}

// refund issues the single compensating credit for a failed attempt. It
// runs detached from the request's cancellation so a caller timeout
// cannot strand the user's credits.
func (s *Service) refund(ctx context.Context, subjectID, attemptID string, cost float64) {
	refundCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.credits.Credit(refundCtx, subjectID, cost, creditdomain.KindRefund, attemptID); err != nil {
		// Unrecoverable inline; operators reconcile from the log.
		s.log.Error("refund failed",
			zap.String("subject_id", subjectID),
			zap.String("attempt_id", attemptID),
			zap.Float64("amount", cost),
			zap.Error(err),
		)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordRefund()
	}
}

func (s *Service) withTimeout(ctx context.Context, call func(context.Context) ([]byte, error)) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Providers.CallTimeout)
	defer cancel()
	return call(callCtx)
}

func (s *Service) withTimeoutScore(ctx context.Context, referenceURL, generatedURL, text string) (generationdomain.ScoreResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Providers.CallTimeout)
	defer cancel()
	return s.scorer.Score(callCtx, referenceURL, generatedURL, text)
}

func (s *Service) History(ctx context.Context, subjectID string, limit int) ([]generationdomain.Attempt, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, generationdomain.NewValidationError("subject_id", "missing", "subject is required")
	}
	if limit <= 0 {
		limit = historyDefaultLimit
	}
	if limit > historyMaxLimit {
		limit = historyMaxLimit
	}

	var attempts []generationdomain.Attempt
	err := s.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at DESC").
		Limit(limit).
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

func (s *Service) reject(outcome string, err error) error {
	s.record(outcome)
	return err
}

func (s *Service) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordGeneration(outcome)
	}
}
