package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	certaintydomain "github.com/reclaimhq/reclaim/internal/certainty/domain"
	claimdomain "github.com/reclaimhq/reclaim/internal/claim/domain"
	"github.com/reclaimhq/reclaim/internal/clock"
	"github.com/reclaimhq/reclaim/internal/config"
	journaldomain "github.com/reclaimhq/reclaim/internal/journal/domain"
	"github.com/reclaimhq/reclaim/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Config    config.Config
	Scorer    certaintydomain.Scorer
	ClaimRepo claimdomain.Repository
	Journal   journaldomain.Service
	Metrics   *metrics.Metrics
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	threshold float64
	scorer    certaintydomain.Scorer
	claimRepo claimdomain.Repository
	journal   journaldomain.Service
	metrics   *metrics.Metrics
}

func NewService(p Params) certaintydomain.Service {
	threshold := p.Config.Scorer.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = 0.75
	}
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("certainty.service"),
		clock:     p.Clock,
		threshold: threshold,
		scorer:    p.Scorer,
		claimRepo: p.ClaimRepo,
		journal:   p.Journal,
		metrics:   p.Metrics,
	}
}

func (s *Service) ScoreClaim(ctx context.Context, claimID snowflake.ID) (*certaintydomain.ScoreResult, error) {
	claim, err := s.claimRepo.FindByID(ctx, s.db, claimID)
	if err != nil {
		return nil, err
	}

	score, err := s.scorer.Score(ctx, claim)
	if err != nil {
		return nil, err
	}
	if score.Certainty < 0 || score.Certainty > 1 {
		return nil, certaintydomain.ErrScoreOutOfRange
	}

	flagged := score.Certainty >= s.threshold
	var flaggedAt = claim.FlaggedAt
	if flagged {
		now := s.clock.Now()
		flaggedAt = &now
	}
	if err := s.claimRepo.UpdateCertainty(ctx, s.db, claimID, score.Certainty, flaggedAt); err != nil {
		return nil, err
	}

	s.recordJournal(ctx, claimID, journaldomain.ClaimRiskScoredPayload{
		Certainty: score.Certainty,
		Model:     score.Model,
	})

	outcome := "scored"
	if flagged {
		outcome = "flagged"
		s.recordJournal(ctx, claimID, journaldomain.ClaimFlaggedPayload{
			Certainty: score.Certainty,
			Threshold: s.threshold,
			Model:     score.Model,
		})
	}
	if s.metrics != nil {
		s.metrics.RecordClaimScored(ctx, outcome)
	}

	s.log.Info("claim scored",
		zap.String("claim_id", claimID.String()),
		zap.Float64("certainty", score.Certainty),
		zap.Bool("flagged", flagged),
		zap.String("model", score.Model),
	)

	return &certaintydomain.ScoreResult{
		ClaimID:   claimID,
		Certainty: score.Certainty,
		Threshold: s.threshold,
		Flagged:   flagged,
		Model:     score.Model,
	}, nil
}

func (s *Service) recordJournal(ctx context.Context, claimID snowflake.ID, payload journaldomain.Payload) {
	if s.journal == nil {
		return
	}
	if _, err := s.journal.Record(ctx, journaldomain.RecordRequest{
		EntityID: claimID.String(),
		Payload:  payload,
	}); err != nil {
		s.log.Warn("failed to journal scoring event",
			zap.String("claim_id", claimID.String()),
			zap.Error(err),
		)
	}
}
