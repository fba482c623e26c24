package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/reclaimhq/reclaim/internal/clock"
	journaldomain "github.com/reclaimhq/reclaim/internal/journal/domain"
	"github.com/reclaimhq/reclaim/internal/obscontext"
	"github.com/reclaimhq/reclaim/internal/observability/metrics"
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
	Repo    journaldomain.Repository
	Metrics *metrics.Metrics
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    journaldomain.Repository
	metrics *metrics.Metrics
}

func NewService(p Params) journaldomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("journal.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) Record(ctx context.Context, req journaldomain.RecordRequest) (*journaldomain.Entry, error) {
	txType := req.TxType
	if txType == "" && req.Payload != nil {
		txType = req.Payload.JournalTxType()
	}
	if !journaldomain.KnownTxType(txType) {
		return nil, journaldomain.ErrUnknownTxType
	}

	entityID := strings.TrimSpace(req.EntityID)
	if entityID == "" {
		return nil, journaldomain.ErrInvalidEntity
	}

	fields := map[string]any{}
	if req.Payload != nil {
		var err error
		fields, err = req.Payload.Fields()
		if err != nil {
			return nil, err
		}
	}
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		fields["request_id"] = requestID
	}

	timestamp := s.clock.Now()

	entry := journaldomain.Entry{
		ID:        s.genID.Generate(),
		TxType:    txType,
		EntityID:  entityID,
		ActorID:   s.resolveActor(ctx, req.ActorID),
		Payload:   datatypes.JSONMap(fields),
		Hash:      journaldomain.ComputeHash(fields, timestamp),
		Timestamp: timestamp,
		CreatedAt: timestamp,
	}

	if err := s.repo.Insert(ctx, s.db, &entry); err != nil {
		s.log.Warn("failed to write journal entry",
			zap.String("tx_type", string(txType)),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordJournalEntry(ctx, string(txType))
	}
	return &entry, nil
}

func (s *Service) Query(ctx context.Context, req journaldomain.QueryRequest) (journaldomain.QueryResponse, error) {
	if req.Since != nil && req.Until != nil && req.Since.After(*req.Until) {
		return journaldomain.QueryResponse{}, journaldomain.ErrInvalidTimeRange
	}

	var cursor *journaldomain.EntryCursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return journaldomain.QueryResponse{}, journaldomain.ErrInvalidPageToken
		}
		timestamp, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return journaldomain.QueryResponse{}, journaldomain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return journaldomain.QueryResponse{}, journaldomain.ErrInvalidPageToken
		}
		cursor = &journaldomain.EntryCursor{
			ID:        id,
			Timestamp: timestamp,
		}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	items, err := s.repo.List(ctx, s.db, journaldomain.ListFilter{
		TxType:   journaldomain.TxType(strings.TrimSpace(req.TxType)),
		EntityID: req.EntityID,
		ActorID:  req.ActorID,
		Since:    req.Since,
		Until:    req.Until,
		Cursor:   cursor,
		Limit:    int(pageSize),
	})
	if err != nil {
		return journaldomain.QueryResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *journaldomain.Entry) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.Timestamp.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	entries := make([]journaldomain.Entry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entries = append(entries, *item)
	}

	resp := journaldomain.QueryResponse{Entries: entries}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) resolveActor(ctx context.Context, actorID string) string {
	actorID = strings.TrimSpace(actorID)
	if actorID != "" {
		return actorID
	}
	if _, ctxID := obscontext.ActorFromContext(ctx); ctxID != "" {
		return ctxID
	}
	return "system"
}
