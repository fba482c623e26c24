package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	claimdomain "github.com/reclaimhq/reclaim/internal/claim/domain"
	"github.com/reclaimhq/reclaim/internal/claim/repository"
	"github.com/reclaimhq/reclaim/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupClaimService(t *testing.T) (claimdomain.Service, *snowflake.Node) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	db.Exec(`CREATE TABLE IF NOT EXISTS claims (
		id BIGINT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		case_number TEXT NOT NULL,
		description TEXT,
		amount_cents BIGINT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'USD',
		status TEXT NOT NULL DEFAULT 'open',
		certainty REAL,
		flagged_at TIMESTAMP,
		metadata TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
	return svc, node
}

func TestCreateClaim(t *testing.T) {
	svc, node := setupClaimService(t)
	ctx := context.Background()

	claim, err := svc.Create(ctx, claimdomain.CreateClaimRequest{
		UserID:      node.Generate(),
		CaseNumber:  "  FBA-300  ",
		Description: "Two units lost in transit",
		AmountCents: 4200,
		Currency:    "usd",
	})
	require.NoError(t, err)
	assert.Equal(t, "FBA-300", claim.CaseNumber)
	assert.Equal(t, "USD", claim.Currency)
	assert.Equal(t, claimdomain.ClaimStatusOpen, claim.Status)
	assert.NotZero(t, claim.ID)
	assert.Equal(t, time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), claim.CreatedAt)
	assert.Equal(t, claim.CreatedAt, claim.UpdatedAt)

	fetched, err := svc.Get(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, claim.CaseNumber, fetched.CaseNumber)
}

func TestCreateClaimValidation(t *testing.T) {
	svc, node := setupClaimService(t)
	ctx := context.Background()
	userID := node.Generate()

	_, err := svc.Create(ctx, claimdomain.CreateClaimRequest{
		CaseNumber: "FBA-1", AmountCents: 100,
	})
	assert.ErrorIs(t, err, claimdomain.ErrInvalidOwner)

	_, err = svc.Create(ctx, claimdomain.CreateClaimRequest{
		UserID: userID, CaseNumber: "FBA-1", AmountCents: 0,
	})
	assert.ErrorIs(t, err, claimdomain.ErrInvalidAmount)

	_, err = svc.Create(ctx, claimdomain.CreateClaimRequest{
		UserID: userID, CaseNumber: "   ", AmountCents: 100,
	})
	assert.ErrorIs(t, err, claimdomain.ErrInvalidCase)

	_, err = svc.Create(ctx, claimdomain.CreateClaimRequest{
		UserID: userID, CaseNumber: "FBA-1", AmountCents: 100, Currency: "usdollar",
	})
	assert.ErrorIs(t, err, claimdomain.ErrInvalidCurrency)
}

func TestListByUser(t *testing.T) {
	svc, node := setupClaimService(t)
	ctx := context.Background()
	owner := node.Generate()
	other := node.Generate()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, claimdomain.CreateClaimRequest{
			UserID: owner, CaseNumber: "FBA-1", AmountCents: 100,
		})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, claimdomain.CreateClaimRequest{
		UserID: other, CaseNumber: "FBA-2", AmountCents: 100,
	})
	require.NoError(t, err)

	claims, err := svc.ListByUser(ctx, owner, 10)
	require.NoError(t, err)
	assert.Len(t, claims, 3)

	_, err = svc.ListByUser(ctx, 0, 10)
	assert.ErrorIs(t, err, claimdomain.ErrInvalidOwner)
}

func TestMarkPaid(t *testing.T) {
	svc, node := setupClaimService(t)
	ctx := context.Background()

	claim, err := svc.Create(ctx, claimdomain.CreateClaimRequest{
		UserID: node.Generate(), CaseNumber: "FBA-9", AmountCents: 100,
	})
	require.NoError(t, err)

	require.NoError(t, svc.MarkPaid(ctx, claim.ID))
	fetched, err := svc.Get(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, claimdomain.ClaimStatusPaid, fetched.Status)

	err = svc.MarkPaid(ctx, node.Generate())
	assert.ErrorIs(t, err, claimdomain.ErrClaimNotFound)
}
