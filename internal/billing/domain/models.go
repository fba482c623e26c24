// Package domain contains the commission billing event model. Events are an
// idempotent side-channel: the unique idempotency key makes re-delivery of the
// same status transition a no-op instead of a double charge.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EventType string

const (
	EventTypeCommissionCharged EventType = "commission_charged"
	EventTypeCommissionFailed  EventType = "commission_failed"
)

// BillingEvent captures one commission outcome for a claim.
type BillingEvent struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID         string            `gorm:"type:text;not null;index" json:"user_id"`
	CaseID         string            `gorm:"type:text;not null;index" json:"case_id"`
	EventType      EventType         `gorm:"type:text;not null" json:"event_type"`
	AmountCents    int64             `gorm:"not null" json:"amount_cents"`
	Currency       string            `gorm:"type:text;not null" json:"currency"`
	IdempotencyKey string            `gorm:"type:text;not null;uniqueIndex:ux_billing_event_idempotency" json:"idempotency_key"`
	PaymentRef     *string           `gorm:"type:text" json:"payment_ref,omitempty"`
	Payload        datatypes.JSONMap `gorm:"type:jsonb;not null" json:"payload"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (BillingEvent) TableName() string { return "billing_events" }

// CommissionKey derives the idempotency key for a status transition. The same
// (caseID, status) pair always produces the same key, so a transition that is
// observed twice charges at most once.
func CommissionKey(caseID, status string) string {
	return fmt.Sprintf("commission:%s:%s", caseID, status)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, event *BillingEvent) error
	FindByKey(ctx context.Context, db *gorm.DB, key string) (*BillingEvent, error)
}

// RecordCommissionRequest describes one commission to record. Status is the
// submission status transition that triggered the charge.
type RecordCommissionRequest struct {
	UserID      string
	CaseID      string
	Status      string
	EventType   EventType
	AmountCents int64
	Currency    string
	PaymentRef  *string
	Metadata    map[string]any
}

type Service interface {
	// RecordCommission appends a billing event. The returned bool is false
	// when an event with the same idempotency key already exists, in which
	// case the existing event is returned and no new row is written.
	RecordCommission(ctx context.Context, req RecordCommissionRequest) (*BillingEvent, bool, error)
}

var (
	ErrInvalidEventType = errors.New("invalid_event_type")
	ErrInvalidCase      = errors.New("invalid_case")
	ErrEventNotFound    = errors.New("billing_event_not_found")
)
