// Package domain contains the append-only audit journal model. Entries are
// written once by the component that performed the action and are never
// updated or deleted.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/reclaimhq/reclaim/pkg/db/pagination"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TxType string

const (
	TxTypeClaimCreated              TxType = "claim_created"
	TxTypeClaimFlaggedWithCertainty TxType = "claim_flagged_with_certainty"
	TxTypeClaimRiskScored           TxType = "claim_risk_scored"
	TxTypeModelTraining             TxType = "model_training"
	TxTypeIntegratedRecoveryEvent   TxType = "integrated_recovery_event"
	TxTypeClaimSubmitted            TxType = "claim_submitted"
	TxTypeSubmissionStatusChanged   TxType = "submission_status_changed"
	TxTypeSubmissionFailed          TxType = "submission_failed"
	TxTypeCommissionCharged         TxType = "commission_charged"
	TxTypeCommissionFailed          TxType = "commission_failed"
)

var knownTxTypes = map[TxType]struct{}{
	TxTypeClaimCreated:              {},
	TxTypeClaimFlaggedWithCertainty: {},
	TxTypeClaimRiskScored:           {},
	TxTypeModelTraining:             {},
	TxTypeIntegratedRecoveryEvent:   {},
	TxTypeClaimSubmitted:            {},
	TxTypeSubmissionStatusChanged:   {},
	TxTypeSubmissionFailed:          {},
	TxTypeCommissionCharged:         {},
	TxTypeCommissionFailed:          {},
}

// KnownTxType reports whether txType belongs to the closed event vocabulary.
func KnownTxType(txType TxType) bool {
	_, ok := knownTxTypes[txType]
	return ok
}

// Entry is one immutable journal record. Hash is the full content-integrity
// digest; DisplayHash() is the truncated form surfaced to callers.
type Entry struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	TxType    TxType            `gorm:"type:text;not null;index" json:"tx_type"`
	EntityID  string            `gorm:"type:text;not null;index" json:"entity_id"`
	ActorID   string            `gorm:"type:text;not null" json:"actor_id"`
	Payload   datatypes.JSONMap `gorm:"type:jsonb;not null" json:"payload"`
	Hash      string            `gorm:"type:text;not null" json:"-"`
	Timestamp time.Time         `gorm:"not null;index" json:"timestamp"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (Entry) TableName() string { return "journal_entries" }

// DisplayHash returns the truncated digest used in API responses.
func (e Entry) DisplayHash() string {
	return TruncateHash(e.Hash)
}

type EntryCursor struct {
	ID        snowflake.ID
	Timestamp time.Time
}

type ListFilter struct {
	TxType   TxType
	EntityID string
	ActorID  string
	Since    *time.Time
	Until    *time.Time
	Cursor   *EntryCursor
	Limit    int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *Entry) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Entry, error)
}

// RecordRequest describes one domain event to append.
type RecordRequest struct {
	TxType   TxType
	EntityID string
	ActorID  string
	Payload  Payload
}

type QueryRequest struct {
	pagination.Pagination
	TxType   string
	EntityID string
	ActorID  string
	Since    *time.Time
	Until    *time.Time
}

type QueryResponse struct {
	pagination.PageInfo
	Entries []Entry `json:"entries"`
}

type Service interface {
	Record(ctx context.Context, req RecordRequest) (*Entry, error)
	Query(ctx context.Context, req QueryRequest) (QueryResponse, error)
}

var (
	ErrUnknownTxType    = errors.New("unknown_tx_type")
	ErrInvalidEntity    = errors.New("invalid_entity")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
)
