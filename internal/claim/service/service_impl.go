package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	claimdomain "github.com/reclaimhq/reclaim/internal/claim/domain"
	"github.com/reclaimhq/reclaim/internal/clock"
	journaldomain "github.com/reclaimhq/reclaim/internal/journal/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    claimdomain.Repository
	Journal journaldomain.Service
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    claimdomain.Repository
	journal journaldomain.Service
}

func NewService(p Params) claimdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("claim.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		journal: p.Journal,
	}
}

func (s *Service) Create(ctx context.Context, req claimdomain.CreateClaimRequest) (*claimdomain.Claim, error) {
	if req.UserID == 0 {
		return nil, claimdomain.ErrInvalidOwner
	}
	if req.AmountCents <= 0 {
		return nil, claimdomain.ErrInvalidAmount
	}
	caseNumber := strings.TrimSpace(req.CaseNumber)
	if caseNumber == "" {
		return nil, claimdomain.ErrInvalidCase
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}
	if len(currency) != 3 {
		return nil, claimdomain.ErrInvalidCurrency
	}

	now := s.clock.Now()
	claim := &claimdomain.Claim{
		ID:          s.genID.Generate(),
		UserID:      req.UserID,
		CaseNumber:  caseNumber,
		Description: strings.TrimSpace(req.Description),
		AmountCents: req.AmountCents,
		Currency:    currency,
		Status:      claimdomain.ClaimStatusOpen,
		Metadata:    datatypes.JSONMap(req.Metadata),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, claim); err != nil {
		return nil, err
	}

	s.recordJournal(ctx, claim.ID, journaldomain.ClaimCreatedPayload{
		CaseNumber:  claim.CaseNumber,
		AmountCents: claim.AmountCents,
		Currency:    claim.Currency,
	})

	return claim, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*claimdomain.Claim, error) {
	return s.repo.FindByID(ctx, s.db, id)
}

func (s *Service) ListByUser(ctx context.Context, userID snowflake.ID, limit int) ([]*claimdomain.Claim, error) {
	if userID == 0 {
		return nil, claimdomain.ErrInvalidOwner
	}
	return s.repo.ListByUser(ctx, s.db, userID, limit)
}

func (s *Service) MarkPaid(ctx context.Context, id snowflake.ID) error {
	return s.repo.UpdateStatus(ctx, s.db, id, claimdomain.ClaimStatusPaid)
}

func (s *Service) recordJournal(ctx context.Context, claimID snowflake.ID, payload journaldomain.ClaimCreatedPayload) {
	if s.journal == nil {
		return
	}
	if _, err := s.journal.Record(ctx, journaldomain.RecordRequest{
		TxType:   journaldomain.TxTypeClaimCreated,
		EntityID: claimID.String(),
		Payload:  payload,
	}); err != nil {
		s.log.Warn("failed to journal claim creation",
			zap.String("claim_id", claimID.String()),
			zap.Error(err),
		)
	}
}
