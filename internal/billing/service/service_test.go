package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/reclaimhq/reclaim/internal/billing/domain"
	"github.com/reclaimhq/reclaim/internal/billing/repository"
	"github.com/reclaimhq/reclaim/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupBillingDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	db.Exec(`CREATE TABLE IF NOT EXISTS billing_events (
		id BIGINT PRIMARY KEY,
		user_id TEXT NOT NULL,
		case_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		amount_cents BIGINT NOT NULL,
		currency TEXT NOT NULL,
		idempotency_key TEXT NOT NULL UNIQUE,
		payment_ref TEXT,
		payload TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)

	return db
}

func newBillingService(t *testing.T, db *gorm.DB) domain.Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
}

func TestRecordCommissionIdempotent(t *testing.T) {
	db := setupBillingDB(t)
	svc := newBillingService(t, db)
	ctx := context.Background()

	req := domain.RecordCommissionRequest{
		UserID:      "42",
		CaseID:      "case-1",
		Status:      "paid",
		EventType:   domain.EventTypeCommissionCharged,
		AmountCents: 1299,
		Currency:    "USD",
	}

	first, created, err := svc.RecordCommission(ctx, req)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "commission:case-1:paid", first.IdempotencyKey)
	assert.Equal(t, time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), first.CreatedAt)

	// Re-delivery of the same transition is a no-op, not an error.
	second, created, err := svc.RecordCommission(ctx, req)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	db.Model(&domain.BillingEvent{}).
		Where("idempotency_key = ?", first.IdempotencyKey).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRecordCommissionDistinctTransitions(t *testing.T) {
	db := setupBillingDB(t)
	svc := newBillingService(t, db)
	ctx := context.Background()

	_, created, err := svc.RecordCommission(ctx, domain.RecordCommissionRequest{
		CaseID: "case-2", Status: "paid", AmountCents: 100, Currency: "USD",
	})
	require.NoError(t, err)
	assert.True(t, created)

	// A different case with the same status is a separate charge.
	_, created, err = svc.RecordCommission(ctx, domain.RecordCommissionRequest{
		CaseID: "case-3", Status: "paid", AmountCents: 100, Currency: "USD",
	})
	require.NoError(t, err)
	assert.True(t, created)

	var count int64
	db.Model(&domain.BillingEvent{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestRecordCommissionValidation(t *testing.T) {
	db := setupBillingDB(t)
	svc := newBillingService(t, db)
	ctx := context.Background()

	_, _, err := svc.RecordCommission(ctx, domain.RecordCommissionRequest{
		CaseID: "  ", Status: "paid",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCase)

	_, _, err = svc.RecordCommission(ctx, domain.RecordCommissionRequest{
		CaseID: "case-4", Status: "paid", EventType: domain.EventType("bogus"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidEventType)
}
