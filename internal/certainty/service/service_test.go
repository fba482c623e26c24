package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	certaintydomain "github.com/reclaimhq/reclaim/internal/certainty/domain"
	claimdomain "github.com/reclaimhq/reclaim/internal/claim/domain"
	claimrepo "github.com/reclaimhq/reclaim/internal/claim/repository"
	"github.com/reclaimhq/reclaim/internal/clock"
	"github.com/reclaimhq/reclaim/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixedScorer struct {
	certainty float64
	model     string
	err       error
}

func (f *fixedScorer) Score(_ context.Context, _ *claimdomain.Claim) (certaintydomain.Score, error) {
	return certaintydomain.Score{Certainty: f.certainty, Model: f.model}, f.err
}

func setupCertainty(t *testing.T, scorer certaintydomain.Scorer, threshold float64) (certaintydomain.Service, *gorm.DB, *snowflake.Node) {
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

	cfg := config.Config{}
	cfg.Scorer.Threshold = threshold

	svc := NewService(Params{
		DB:        db,
		Log:       zap.NewNop(),
		Clock:     clock.NewFakeClock(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)),
		Config:    cfg,
		Scorer:    scorer,
		ClaimRepo: claimrepo.Provide(),
	})
	return svc, db, node
}

func seedClaim(t *testing.T, db *gorm.DB, node *snowflake.Node) snowflake.ID {
	t.Helper()
	id := node.Generate()
	err := db.Exec(`INSERT INTO claims
		(id, user_id, case_number, amount_cents, currency, status, created_at, updated_at)
		VALUES (?, ?, 'FBA-200', 4200, 'USD', 'open', ?, ?)`,
		id.Int64(), node.Generate().Int64(),
		time.Now().UTC(), time.Now().UTC()).Error
	require.NoError(t, err)
	return id
}

func TestScoreClaimBelowThreshold(t *testing.T) {
	svc, db, node := setupCertainty(t, &fixedScorer{certainty: 0.4, model: "test-v1"}, 0.75)
	claimID := seedClaim(t, db, node)

	result, err := svc.ScoreClaim(context.Background(), claimID)
	require.NoError(t, err)
	assert.Equal(t, 0.4, result.Certainty)
	assert.Equal(t, 0.75, result.Threshold)
	assert.False(t, result.Flagged)

	claim, err := claimrepo.Provide().FindByID(context.Background(), db, claimID)
	require.NoError(t, err)
	require.NotNil(t, claim.Certainty)
	assert.Equal(t, 0.4, *claim.Certainty)
	assert.Nil(t, claim.FlaggedAt)
}

func TestScoreClaimFlagsAtThreshold(t *testing.T) {
	svc, db, node := setupCertainty(t, &fixedScorer{certainty: 0.75, model: "test-v1"}, 0.75)
	claimID := seedClaim(t, db, node)

	result, err := svc.ScoreClaim(context.Background(), claimID)
	require.NoError(t, err)
	assert.True(t, result.Flagged)

	claim, err := claimrepo.Provide().FindByID(context.Background(), db, claimID)
	require.NoError(t, err)
	require.NotNil(t, claim.FlaggedAt)
}

func TestScoreClaimRejectsOutOfRange(t *testing.T) {
	svc, db, node := setupCertainty(t, &fixedScorer{certainty: 1.2, model: "test-v1"}, 0.75)
	claimID := seedClaim(t, db, node)

	_, err := svc.ScoreClaim(context.Background(), claimID)
	assert.ErrorIs(t, err, certaintydomain.ErrScoreOutOfRange)

	claim, err := claimrepo.Provide().FindByID(context.Background(), db, claimID)
	require.NoError(t, err)
	assert.Nil(t, claim.Certainty)
}

func TestScoreClaimMissingClaim(t *testing.T) {
	svc, _, node := setupCertainty(t, &fixedScorer{certainty: 0.5}, 0.75)

	_, err := svc.ScoreClaim(context.Background(), node.Generate())
	assert.ErrorIs(t, err, claimdomain.ErrClaimNotFound)
}

func TestScoreClaimDefaultThreshold(t *testing.T) {
	svc, db, node := setupCertainty(t, &fixedScorer{certainty: 0.8, model: "test-v1"}, 0)
	claimID := seedClaim(t, db, node)

	result, err := svc.ScoreClaim(context.Background(), claimID)
	require.NoError(t, err)
	assert.Equal(t, 0.75, result.Threshold)
	assert.True(t, result.Flagged)
}
