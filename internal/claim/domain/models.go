// Package domain contains persistence models for reimbursement claims.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ClaimStatus string

const (
	ClaimStatusOpen      ClaimStatus = "open"
	ClaimStatusSubmitted ClaimStatus = "submitted"
	ClaimStatusPaid      ClaimStatus = "paid"
	ClaimStatusDenied    ClaimStatus = "denied"
)

// Claim is a seller's reimbursement case against a fulfillment partner.
type Claim struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID      snowflake.ID      `gorm:"not null;index" json:"user_id"`
	CaseNumber  string            `gorm:"type:text;not null" json:"case_number"`
	Description string            `gorm:"type:text" json:"description"`
	AmountCents int64             `gorm:"not null" json:"amount_cents"`
	Currency    string            `gorm:"type:text;not null;default:USD" json:"currency"`
	Status      ClaimStatus       `gorm:"type:text;not null;default:open" json:"status"`
	Certainty   *float64          `gorm:"" json:"certainty,omitempty"`
	FlaggedAt   *time.Time        `gorm:"" json:"flagged_at,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb" json:"metadata"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Claim) TableName() string { return "claims" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, claim *Claim) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Claim, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, limit int) ([]*Claim, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status ClaimStatus) error
	UpdateCertainty(ctx context.Context, db *gorm.DB, id snowflake.ID, certainty float64, flaggedAt *time.Time) error
}

type CreateClaimRequest struct {
	UserID      snowflake.ID
	CaseNumber  string
	Description string
	AmountCents int64
	Currency    string
	Metadata    map[string]any
}

type Service interface {
	Create(ctx context.Context, req CreateClaimRequest) (*Claim, error)
	Get(ctx context.Context, id snowflake.ID) (*Claim, error)
	ListByUser(ctx context.Context, userID snowflake.ID, limit int) ([]*Claim, error)
	MarkPaid(ctx context.Context, id snowflake.ID) error
}

var (
	ErrClaimNotFound    = errors.New("claim_not_found")
	ErrInvalidAmount    = errors.New("invalid_amount")
	ErrInvalidCurrency  = errors.New("invalid_currency")
	ErrInvalidCase      = errors.New("invalid_case_number")
	ErrInvalidOwner     = errors.New("invalid_owner")
)
