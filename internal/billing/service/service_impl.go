package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/reclaimhq/reclaim/internal/billing/domain"
	"github.com/reclaimhq/reclaim/internal/clock"
	journaldomain "github.com/reclaimhq/reclaim/internal/journal/domain"
	"github.com/reclaimhq/reclaim/internal/observability/metrics"
	"github.com/reclaimhq/reclaim/pkg/db"
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
	Repo    billingdomain.Repository
	Journal journaldomain.Service
	Metrics *metrics.Metrics
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    billingdomain.Repository
	journal journaldomain.Service
	metrics *metrics.Metrics
}

func NewService(p Params) billingdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("billing.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		journal: p.Journal,
		metrics: p.Metrics,
	}
}

func (s *Service) RecordCommission(ctx context.Context, req billingdomain.RecordCommissionRequest) (*billingdomain.BillingEvent, bool, error) {
	caseID := strings.TrimSpace(req.CaseID)
	if caseID == "" {
		return nil, false, billingdomain.ErrInvalidCase
	}

	eventType := req.EventType
	if eventType == "" {
		eventType = billingdomain.EventTypeCommissionCharged
	}
	switch eventType {
	case billingdomain.EventTypeCommissionCharged, billingdomain.EventTypeCommissionFailed:
	default:
		return nil, false, billingdomain.ErrInvalidEventType
	}

	payload := map[string]any{
		"status": req.Status,
	}
	for key, value := range req.Metadata {
		if key == "" {
			continue
		}
		payload[key] = value
	}

	key := billingdomain.CommissionKey(caseID, req.Status)
	event := billingdomain.BillingEvent{
		ID:             s.genID.Generate(),
		UserID:         strings.TrimSpace(req.UserID),
		CaseID:         caseID,
		EventType:      eventType,
		AmountCents:    req.AmountCents,
		Currency:       req.Currency,
		IdempotencyKey: key,
		PaymentRef:     req.PaymentRef,
		Payload:        datatypes.JSONMap(payload),
		CreatedAt:      s.clock.Now(),
	}

	if err := s.repo.Insert(ctx, s.db, &event); err != nil {
		if db.IsDuplicateKeyErr(err) {
			// Re-delivery of a transition we already charged for. Return
			// the existing event so callers can proceed as on success.
			s.log.Debug("billing event already recorded",
				zap.String("case_id", caseID),
				zap.String("idempotency_key", key),
			)
			existing, findErr := s.repo.FindByKey(ctx, s.db, key)
			if findErr != nil {
				return nil, false, findErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	if s.metrics != nil {
		s.metrics.RecordBillingEvent(ctx, string(eventType))
	}
	s.recordJournal(ctx, &event)
	return &event, true, nil
}

func (s *Service) recordJournal(ctx context.Context, event *billingdomain.BillingEvent) {
	if s.journal == nil {
		return
	}
	payload := journaldomain.CommissionPayload{
		Charged:        event.EventType == billingdomain.EventTypeCommissionCharged,
		AmountCents:    event.AmountCents,
		Currency:       event.Currency,
		IdempotencyKey: event.IdempotencyKey,
	}
	if event.PaymentRef != nil {
		payload.PaymentRef = *event.PaymentRef
	}
	if _, err := s.journal.Record(ctx, journaldomain.RecordRequest{
		EntityID: event.CaseID,
		Payload:  payload,
	}); err != nil {
		s.log.Warn("failed to journal billing event",
			zap.String("case_id", event.CaseID),
			zap.Error(err),
		)
	}
}
