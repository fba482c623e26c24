package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/reclaimhq/reclaim/internal/submission/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupSubmissionDB(t *testing.T) (*gorm.DB, *snowflake.Node) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	db.Exec(`CREATE TABLE IF NOT EXISTS submission_records (
		id BIGINT PRIMARY KEY,
		case_id BIGINT NOT NULL,
		user_id BIGINT NOT NULL,
		provider TEXT NOT NULL,
		external_id TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		attempts INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		metadata TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return db, node
}

func seedRecord(t *testing.T, db *gorm.DB, node *snowflake.Node, status domain.Status, attempts int, createdAt time.Time) snowflake.ID {
	t.Helper()
	id := node.Generate()
	err := db.Exec(`INSERT INTO submission_records
		(id, case_id, user_id, provider, status, attempts, created_at, updated_at)
		VALUES (?, ?, ?, 'amazon', ?, ?, ?, ?)`,
		id.Int64(), node.Generate().Int64(), node.Generate().Int64(),
		status, attempts, createdAt, createdAt).Error
	require.NoError(t, err)
	return id
}

func TestListPendingAttemptCap(t *testing.T) {
	db, node := setupSubmissionDB(t)
	repo := Provide()
	ctx := context.Background()
	now := time.Now().UTC()

	eligible := seedRecord(t, db, node, domain.StatusPending, 0, now)
	retryable := seedRecord(t, db, node, domain.StatusFailed, 4, now.Add(time.Second))
	seedRecord(t, db, node, domain.StatusFailed, 5, now.Add(2*time.Second))
	seedRecord(t, db, node, domain.StatusPaid, 0, now.Add(3*time.Second))
	seedRecord(t, db, node, domain.StatusAcknowledged, 1, now.Add(4*time.Second))

	records, err := repo.ListPending(ctx, db, "amazon", 5, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, eligible, records[0].ID)
	assert.Equal(t, retryable, records[1].ID)
}

func TestListPendingParkedRecordNeverReturned(t *testing.T) {
	db, node := setupSubmissionDB(t)
	repo := Provide()
	ctx := context.Background()

	// attempts == maxAttempts excludes the record regardless of status.
	seedRecord(t, db, node, domain.StatusPending, 5, time.Now().UTC())
	seedRecord(t, db, node, domain.StatusFailed, 5, time.Now().UTC())

	records, err := repo.ListPending(ctx, db, "amazon", 5, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestListPendingFIFO(t *testing.T) {
	db, node := setupSubmissionDB(t)
	repo := Provide()
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	third := seedRecord(t, db, node, domain.StatusPending, 0, base.Add(3*time.Minute))
	first := seedRecord(t, db, node, domain.StatusPending, 0, base)
	second := seedRecord(t, db, node, domain.StatusFailed, 1, base.Add(time.Minute))

	records, err := repo.ListPending(ctx, db, "amazon", 5, 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, first, records[0].ID)
	assert.Equal(t, second, records[1].ID)
	assert.Equal(t, third, records[2].ID)
}

func TestListPendingBatchLimit(t *testing.T) {
	db, node := setupSubmissionDB(t)
	repo := Provide()
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	for i := 0; i < 15; i++ {
		seedRecord(t, db, node, domain.StatusPending, 0, base.Add(time.Duration(i)*time.Second))
	}

	records, err := repo.ListPending(ctx, db, "amazon", 5, 10)
	require.NoError(t, err)
	assert.Len(t, records, 10)
}

func TestUpdateLifecycle(t *testing.T) {
	db, node := setupSubmissionDB(t)
	repo := Provide()
	ctx := context.Background()
	id := seedRecord(t, db, node, domain.StatusPending, 0, time.Now().UTC())

	require.NoError(t, repo.UpdateSubmitted(ctx, db, id, "ext-1", domain.StatusPending, 1))
	record, err := repo.FindByID(ctx, db, id)
	require.NoError(t, err)
	require.NotNil(t, record.ExternalID)
	assert.Equal(t, "ext-1", *record.ExternalID)
	assert.Equal(t, 1, record.Attempts)

	require.NoError(t, repo.UpdateFailure(ctx, db, id, 2, "partner timeout"))
	record, err = repo.FindByID(ctx, db, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, record.Status)
	require.NotNil(t, record.LastError)
	assert.Equal(t, "partner timeout", *record.LastError)

	require.NoError(t, repo.Reset(ctx, db, id))
	record, err = repo.FindByID(ctx, db, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, record.Status)
	assert.Equal(t, 0, record.Attempts)
	assert.Nil(t, record.LastError)
	// The external id survives a reset so the next iteration polls.
	require.NotNil(t, record.ExternalID)
}

func TestUpdateMissingRecord(t *testing.T) {
	db, node := setupSubmissionDB(t)
	repo := Provide()
	ctx := context.Background()

	err := repo.UpdateStatus(ctx, db, node.Generate(), domain.StatusPaid)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	_, err = repo.FindByID(ctx, db, node.Generate())
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}
