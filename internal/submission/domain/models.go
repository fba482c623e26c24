// Package domain contains the submission record model and the partner status
// reconciliation rules. A submission record tracks one claim's journey through
// an external reimbursement partner's lifecycle.
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

type Status string

const (
	StatusPending      Status = "pending"
	StatusAcknowledged Status = "acknowledged"
	StatusPaid         Status = "paid"
	StatusFailed       Status = "failed"
)

// SubmissionRecord is one claim's submission to an external partner.
// ExternalID is nil until the first successful submit call; a record with
// Attempts at the configured cap is parked and excluded from polling.
type SubmissionRecord struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	CaseID     snowflake.ID      `gorm:"not null;index" json:"case_id"`
	UserID     snowflake.ID      `gorm:"not null;index" json:"user_id"`
	Provider   string            `gorm:"type:text;not null;index" json:"provider"`
	ExternalID *string           `gorm:"type:text" json:"external_id,omitempty"`
	Status     Status            `gorm:"type:text;not null;default:pending" json:"status"`
	Attempts   int               `gorm:"not null;default:0" json:"attempts"`
	LastError  *string           `gorm:"type:text" json:"last_error,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (SubmissionRecord) TableName() string { return "submission_records" }

type RecordCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	CaseID   snowflake.ID
	UserID   snowflake.ID
	Provider string
	Status   Status
	Cursor   *RecordCursor
	Limit    int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *SubmissionRecord) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*SubmissionRecord, error)
	// ListPending returns records eligible for a worker iteration: the given
	// provider, status pending or failed, attempts below the cap, oldest
	// created first.
	ListPending(ctx context.Context, db *gorm.DB, provider string, maxAttempts, limit int) ([]*SubmissionRecord, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*SubmissionRecord, error)
	UpdateSubmitted(ctx context.Context, db *gorm.DB, id snowflake.ID, externalID string, status Status, attempts int) error
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status) error
	UpdateFailure(ctx context.Context, db *gorm.DB, id snowflake.ID, attempts int, lastError string) error
	// Reset returns a parked record to rotation: status pending, attempts
	// zero, last error cleared. The external id is kept so the next
	// iteration polls instead of re-submitting.
	Reset(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}

type CreateSubmissionRequest struct {
	CaseID   snowflake.ID
	UserID   snowflake.ID
	Provider string
	Metadata map[string]any
}

type ListSubmissionsRequest struct {
	pagination.Pagination
	CaseID   snowflake.ID
	UserID   snowflake.ID
	Provider string
	Status   string
}

type ListSubmissionsResponse struct {
	pagination.PageInfo
	Submissions []SubmissionRecord `json:"submissions"`
}

type Service interface {
	Create(ctx context.Context, req CreateSubmissionRequest) (*SubmissionRecord, error)
	Get(ctx context.Context, id snowflake.ID) (*SubmissionRecord, error)
	List(ctx context.Context, req ListSubmissionsRequest) (ListSubmissionsResponse, error)
	// Reset is the manual recovery path for records parked at the attempt
	// cap. It clears the retry state and journals the intervention.
	Reset(ctx context.Context, id snowflake.ID) (*SubmissionRecord, error)
}

var (
	ErrRecordNotFound   = errors.New("submission_not_found")
	ErrInvalidCase      = errors.New("invalid_case")
	ErrInvalidProvider  = errors.New("invalid_provider")
	ErrInvalidStatus    = errors.New("invalid_status")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrNotParked        = errors.New("submission_not_parked")
)
