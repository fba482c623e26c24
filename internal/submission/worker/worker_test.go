package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	billingrepo "github.com/reclaimhq/reclaim/internal/billing/repository"
	billingservice "github.com/reclaimhq/reclaim/internal/billing/service"
	claimdomain "github.com/reclaimhq/reclaim/internal/claim/domain"
	claimrepo "github.com/reclaimhq/reclaim/internal/claim/repository"
	"github.com/reclaimhq/reclaim/internal/clock"
	"github.com/reclaimhq/reclaim/internal/observability/metrics"
	"github.com/reclaimhq/reclaim/internal/submission/domain"
	submissionrepo "github.com/reclaimhq/reclaim/internal/submission/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakePartner struct {
	submitResult  domain.SubmitResult
	submitErr     error
	statusResult  domain.PartnerStatus
	statusErr     error
	submitCalls   int
	statusCalls   int
	lastSubmitted domain.SubmitPayload
}

func (f *fakePartner) Provider() string { return "amazon" }

func (f *fakePartner) Submit(_ context.Context, payload domain.SubmitPayload) (domain.SubmitResult, error) {
	f.submitCalls++
	f.lastSubmitted = payload
	return f.submitResult, f.submitErr
}

func (f *fakePartner) GetStatus(_ context.Context, _ string) (domain.PartnerStatus, error) {
	f.statusCalls++
	return f.statusResult, f.statusErr
}

type workerFixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	partner  *fakePartner
	worker   *Worker
	clock    *clock.FakeClock
	registry *prometheus.Registry
}

func swapPrometheusRegistry(registry *prometheus.Registry) func() {
	oldRegisterer := prometheus.DefaultRegisterer
	oldGatherer := prometheus.DefaultGatherer
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
	return func() {
		prometheus.DefaultRegisterer = oldRegisterer
		prometheus.DefaultGatherer = oldGatherer
		metrics.ResetSubmitterMetricsForTest()
	}
}

func setupWorker(t *testing.T) *workerFixture {
	t.Helper()
	registry := prometheus.NewRegistry()
	t.Cleanup(swapPrometheusRegistry(registry))
	metrics.ResetSubmitterMetricsForTest()

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
	db.Exec(`CREATE TABLE IF NOT EXISTS billing_events (
		id BIGINT PRIMARY KEY,
		user_id TEXT NOT NULL,
		case_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		amount_cents BIGINT NOT NULL,
		currency TEXT NOT NULL,
		idempotency_key TEXT NOT NULL UNIQUE,
		payment_ref TEXT,
		payload TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	partner := &fakePartner{
		submitResult: domain.SubmitResult{SubmissionID: "ext-1", Status: domain.PartnerStatusSubmitted},
		statusResult: domain.PartnerStatusPending,
	}

	fake := clock.NewFakeClock(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))

	billing := billingservice.NewService(billingservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  billingrepo.Provide(),
	})

	w := NewWorker(Params{
		DB:        db,
		Log:       zap.NewNop(),
		Clock:     fake,
		Repo:      submissionrepo.Provide(),
		ClaimRepo: claimrepo.Provide(),
		Partner:   partner,
		Billing:   billing,
		Config: Config{
			Provider:    "amazon",
			BatchSize:   10,
			MaxAttempts: 5,
		},
	})

	return &workerFixture{db: db, node: node, partner: partner, worker: w, clock: fake, registry: registry}
}

func getCounterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	metricFamilies, err := registry.Gather()
	require.NoError(t, err)
	for _, mf := range metricFamilies {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if metricMatchesLabels(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func metricMatchesLabels(m *dto.Metric, labels map[string]string) bool {
	seen := map[string]string{}
	for _, pair := range m.GetLabel() {
		seen[pair.GetName()] = pair.GetValue()
	}
	for k, v := range labels {
		if seen[k] != v {
			return false
		}
	}
	return true
}

func (f *workerFixture) seedClaim(t *testing.T, status claimdomain.ClaimStatus) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	err := f.db.Exec(`INSERT INTO claims
		(id, user_id, case_number, amount_cents, currency, status, created_at, updated_at)
		VALUES (?, ?, 'FBA-100', 4200, 'USD', ?, ?, ?)`,
		id.Int64(), f.node.Generate().Int64(), status,
		time.Now().UTC(), time.Now().UTC()).Error
	require.NoError(t, err)
	return id
}

func (f *workerFixture) seedSubmission(t *testing.T, caseID snowflake.ID, externalID *string, status domain.Status, attempts int) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	err := f.db.Exec(`INSERT INTO submission_records
		(id, case_id, user_id, provider, external_id, status, attempts, created_at, updated_at)
		VALUES (?, ?, ?, 'amazon', ?, ?, ?, ?, ?)`,
		id.Int64(), caseID.Int64(), f.node.Generate().Int64(),
		externalID, status, attempts,
		time.Now().UTC(), time.Now().UTC()).Error
	require.NoError(t, err)
	return id
}

func (f *workerFixture) fetch(t *testing.T, id snowflake.ID) *domain.SubmissionRecord {
	t.Helper()
	record, err := submissionrepo.Provide().FindByID(context.Background(), f.db, id)
	require.NoError(t, err)
	return record
}

func TestWorkerSubmitsNewRecord(t *testing.T) {
	f := setupWorker(t)
	caseID := f.seedClaim(t, claimdomain.ClaimStatusSubmitted)
	recordID := f.seedSubmission(t, caseID, nil, domain.StatusPending, 0)

	require.NoError(t, f.worker.RunOnce(context.Background()))

	record := f.fetch(t, recordID)
	require.NotNil(t, record.ExternalID)
	assert.Equal(t, "ext-1", *record.ExternalID)
	assert.Equal(t, domain.StatusPending, record.Status)
	assert.Equal(t, 1, record.Attempts)
	assert.Nil(t, record.LastError)

	assert.Equal(t, 1, f.partner.submitCalls)
	assert.Equal(t, caseID.String(), f.partner.lastSubmitted.CaseID)
	assert.Equal(t, "FBA-100", f.partner.lastSubmitted.CaseNumber)
	assert.Equal(t, int64(4200), f.partner.lastSubmitted.AmountCents)
}

func TestWorkerReconcilesPaidAndCascades(t *testing.T) {
	f := setupWorker(t)
	caseID := f.seedClaim(t, claimdomain.ClaimStatusSubmitted)
	extID := "ext-42"
	recordID := f.seedSubmission(t, caseID, &extID, domain.StatusAcknowledged, 1)
	f.partner.statusResult = domain.PartnerStatusPaid

	require.NoError(t, f.worker.RunOnce(context.Background()))

	record := f.fetch(t, recordID)
	assert.Equal(t, domain.StatusPaid, record.Status)

	claim, err := claimrepo.Provide().FindByID(context.Background(), f.db, caseID)
	require.NoError(t, err)
	assert.Equal(t, claimdomain.ClaimStatusPaid, claim.Status)

	var count int64
	f.db.Table("billing_events").Where("case_id = ?", caseID.String()).Count(&count)
	assert.Equal(t, int64(1), count)

	var event struct{ CreatedAt time.Time }
	f.db.Table("billing_events").Select("created_at").Where("case_id = ?", caseID.String()).Scan(&event)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestWorkerPaidCascadeChargesOnce(t *testing.T) {
	f := setupWorker(t)
	caseID := f.seedClaim(t, claimdomain.ClaimStatusSubmitted)
	extID := "ext-42"
	f.seedSubmission(t, caseID, &extID, domain.StatusAcknowledged, 1)
	f.partner.statusResult = domain.PartnerStatusPaid

	require.NoError(t, f.worker.RunOnce(context.Background()))

	// Simulate the transition being observed again on a later day after a
	// manual reset.
	f.db.Exec(`UPDATE submission_records SET status = 'acknowledged'`)
	f.clock.Set(time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC))
	require.NoError(t, f.worker.RunOnce(context.Background()))

	var count int64
	f.db.Table("billing_events").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestWorkerUnchangedStatusIsNoOp(t *testing.T) {
	f := setupWorker(t)
	caseID := f.seedClaim(t, claimdomain.ClaimStatusSubmitted)
	extID := "ext-7"
	recordID := f.seedSubmission(t, caseID, &extID, domain.StatusPending, 2)
	f.partner.statusResult = domain.PartnerStatusSubmitted // reconciles to pending

	require.NoError(t, f.worker.RunOnce(context.Background()))

	record := f.fetch(t, recordID)
	assert.Equal(t, domain.StatusPending, record.Status)
	assert.Equal(t, 2, record.Attempts)
	assert.Equal(t, 1, f.partner.statusCalls)
}

func TestWorkerFailureIncrementsAttempts(t *testing.T) {
	f := setupWorker(t)
	caseID := f.seedClaim(t, claimdomain.ClaimStatusSubmitted)
	recordID := f.seedSubmission(t, caseID, nil, domain.StatusPending, 0)
	f.partner.submitErr = errors.New("partner unavailable")

	for i := 0; i < 3; i++ {
		require.NoError(t, f.worker.RunOnce(context.Background()))
	}

	record := f.fetch(t, recordID)
	assert.Equal(t, domain.StatusFailed, record.Status)
	assert.Equal(t, 3, record.Attempts)
	require.NotNil(t, record.LastError)
	assert.Equal(t, "partner unavailable", *record.LastError)
	assert.Nil(t, record.ExternalID)

	failedCount := getCounterValue(t, f.registry, "reclaim_submitter_records_total", map[string]string{
		"provider": "amazon",
		"outcome":  metrics.SubmitterOutcomeFailed,
	})
	assert.Equal(t, float64(3), failedCount)

	// Still below the cap, so the next iteration retries it.
	f.partner.submitErr = nil
	require.NoError(t, f.worker.RunOnce(context.Background()))
	record = f.fetch(t, recordID)
	assert.Equal(t, 4, record.Attempts)
	require.NotNil(t, record.ExternalID)
}

func TestWorkerParksAtAttemptCap(t *testing.T) {
	f := setupWorker(t)
	caseID := f.seedClaim(t, claimdomain.ClaimStatusSubmitted)
	recordID := f.seedSubmission(t, caseID, nil, domain.StatusFailed, 4)
	f.partner.submitErr = errors.New("still broken")

	require.NoError(t, f.worker.RunOnce(context.Background()))

	record := f.fetch(t, recordID)
	assert.Equal(t, 5, record.Attempts)
	assert.Equal(t, domain.StatusFailed, record.Status)
	parked := getCounterValue(t, f.registry, "reclaim_submitter_records_parked_total", nil)
	assert.Equal(t, float64(1), parked)

	// The record is now out of rotation.
	require.NoError(t, f.worker.RunOnce(context.Background()))
	assert.Equal(t, 1, f.partner.submitCalls)
}

func TestWorkerSkipsParkedRecords(t *testing.T) {
	f := setupWorker(t)
	caseID := f.seedClaim(t, claimdomain.ClaimStatusSubmitted)
	recordID := f.seedSubmission(t, caseID, nil, domain.StatusFailed, 5)

	require.NoError(t, f.worker.RunOnce(context.Background()))

	record := f.fetch(t, recordID)
	assert.Equal(t, domain.StatusFailed, record.Status)
	assert.Equal(t, 5, record.Attempts)
	assert.Equal(t, 0, f.partner.submitCalls)
	assert.Equal(t, 0, f.partner.statusCalls)
}

func TestWorkerIsolatesPerRecordFailures(t *testing.T) {
	f := setupWorker(t)
	failingCase := f.seedClaim(t, claimdomain.ClaimStatusSubmitted)
	healthyCase := f.seedClaim(t, claimdomain.ClaimStatusSubmitted)

	// The failing record is older, so it is processed first.
	failingID := f.seedSubmission(t, failingCase, nil, domain.StatusPending, 0)
	extID := "ext-9"
	healthyID := f.seedSubmission(t, healthyCase, &extID, domain.StatusPending, 1)
	f.db.Exec(`UPDATE submission_records SET created_at = ? WHERE id = ?`,
		time.Now().UTC().Add(-time.Hour), failingID.Int64())

	f.partner.submitErr = errors.New("boom")
	f.partner.statusResult = domain.PartnerStatusAcknowledged

	require.NoError(t, f.worker.RunOnce(context.Background()))

	failed := f.fetch(t, failingID)
	assert.Equal(t, domain.StatusFailed, failed.Status)
	assert.Equal(t, 1, failed.Attempts)

	healthy := f.fetch(t, healthyID)
	assert.Equal(t, domain.StatusAcknowledged, healthy.Status)
}
