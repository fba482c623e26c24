package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/reclaimhq/reclaim/internal/clock"
	journaldomain "github.com/reclaimhq/reclaim/internal/journal/domain"
	"github.com/reclaimhq/reclaim/internal/submission/domain"
	"github.com/reclaimhq/reclaim/pkg/db/pagination"
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
	Repo    domain.Repository
	Journal journaldomain.Service
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	journal journaldomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("submission.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		journal: p.Journal,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateSubmissionRequest) (*domain.SubmissionRecord, error) {
	if req.CaseID == 0 || req.UserID == 0 {
		return nil, domain.ErrInvalidCase
	}
	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	if provider == "" {
		return nil, domain.ErrInvalidProvider
	}

	now := s.clock.Now()
	record := domain.SubmissionRecord{
		ID:        s.genID.Generate(),
		CaseID:    req.CaseID,
		UserID:    req.UserID,
		Provider:  provider,
		Status:    domain.StatusPending,
		Attempts:  0,
		Metadata:  datatypes.JSONMap(req.Metadata),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.SubmissionRecord, error) {
	return s.repo.FindByID(ctx, s.db, id)
}

func (s *Service) List(ctx context.Context, req domain.ListSubmissionsRequest) (domain.ListSubmissionsResponse, error) {
	if status := strings.TrimSpace(req.Status); status != "" {
		switch domain.Status(status) {
		case domain.StatusPending, domain.StatusAcknowledged, domain.StatusPaid, domain.StatusFailed:
		default:
			return domain.ListSubmissionsResponse{}, domain.ErrInvalidStatus
		}
	}

	var cursor *domain.RecordCursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListSubmissionsResponse{}, domain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return domain.ListSubmissionsResponse{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return domain.ListSubmissionsResponse{}, domain.ErrInvalidPageToken
		}
		cursor = &domain.RecordCursor{
			ID:        id,
			CreatedAt: createdAt,
		}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		CaseID:   req.CaseID,
		UserID:   req.UserID,
		Provider: req.Provider,
		Status:   domain.Status(strings.TrimSpace(req.Status)),
		Cursor:   cursor,
		Limit:    int(pageSize),
	})
	if err != nil {
		return domain.ListSubmissionsResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *domain.SubmissionRecord) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	submissions := make([]domain.SubmissionRecord, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		submissions = append(submissions, *item)
	}

	resp := domain.ListSubmissionsResponse{Submissions: submissions}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

// Reset returns a failed record to rotation. The worker never self-heals a
// record past the attempt cap, so this is the only path back.
func (s *Service) Reset(ctx context.Context, id snowflake.ID) (*domain.SubmissionRecord, error) {
	record, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if record.Status != domain.StatusFailed {
		return nil, domain.ErrNotParked
	}

	if err := s.repo.Reset(ctx, s.db, id); err != nil {
		return nil, err
	}

	if s.journal != nil {
		if _, err := s.journal.Record(ctx, journaldomain.RecordRequest{
			EntityID: record.CaseID.String(),
			Payload: journaldomain.IntegratedRecoveryPayload{
				Source:    "manual_reset",
				Reference: record.ID.String(),
				Note:      "submission returned to rotation",
			},
		}); err != nil {
			s.log.Warn("failed to journal submission reset",
				zap.String("submission_id", record.ID.String()),
				zap.Error(err),
			)
		}
	}

	return s.repo.FindByID(ctx, s.db, id)
}
