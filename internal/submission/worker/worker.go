// Package worker runs the background loop that drives submission records
// through the external partner's lifecycle: new records are submitted,
// in-flight ones are polled, and terminal outcomes cascade to the owning
// claim.
package worker

import (
	"context"
	"time"

	billingdomain "github.com/reclaimhq/reclaim/internal/billing/domain"
	claimdomain "github.com/reclaimhq/reclaim/internal/claim/domain"
	"github.com/reclaimhq/reclaim/internal/clock"
	journaldomain "github.com/reclaimhq/reclaim/internal/journal/domain"
	"github.com/reclaimhq/reclaim/internal/lock"
	"github.com/reclaimhq/reclaim/internal/observability/metrics"
	"github.com/reclaimhq/reclaim/internal/submission/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Repo      domain.Repository
	ClaimRepo claimdomain.Repository
	Partner   domain.PartnerClient
	Billing   billingdomain.Service
	Journal   journaldomain.Service
	Locker    *lock.Locker `optional:"true"`
	Config    Config       `optional:"true"`
}

type Worker struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	repo      domain.Repository
	claimRepo claimdomain.Repository
	partner   domain.PartnerClient
	billing   billingdomain.Service
	journal   journaldomain.Service
	locker    *lock.Locker
	cfg       Config
}

func NewWorker(p Params) *Worker {
	cfg := p.Config.withDefaults()
	if provider := p.Partner.Provider(); provider != "" {
		cfg.Provider = provider
	}
	return &Worker{
		db:        p.DB,
		log:       p.Log.Named("submission.worker"),
		clock:     p.Clock,
		repo:      p.Repo,
		claimRepo: p.ClaimRepo,
		partner:   p.Partner,
		billing:   p.Billing,
		journal:   p.Journal,
		locker:    p.Locker,
		cfg:       cfg,
	}
}

// RunForever polls until ctx is cancelled. Cancellation takes effect between
// iterations, never mid-record.
func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("submission run failed", zap.Error(err))
			metrics.Submitter().IncIterationError()
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce processes a single batch. A failure fetching the batch aborts the
// iteration; a failure on an individual record does not.
func (w *Worker) RunOnce(parentCtx context.Context) error {
	ctx, cancel := context.WithTimeout(parentCtx, w.cfg.RunTimeout)
	defer cancel()

	if w.locker != nil {
		key := "submitter:" + w.cfg.Provider
		token, ok, err := w.locker.TryLock(ctx, key, w.cfg.RunTimeout)
		if err != nil {
			w.log.Warn("worker lease unavailable, proceeding unguarded", zap.Error(err))
		} else if !ok {
			w.log.Debug("worker lease held elsewhere, skipping iteration")
			return nil
		} else {
			defer func() {
				if err := w.locker.Release(ctx, key, token); err != nil {
					w.log.Warn("failed to release worker lease", zap.Error(err))
				}
			}()
		}
	}

	started := w.clock.Now()
	metrics.Submitter().IncIteration()
	defer func() {
		metrics.Submitter().ObserveIterationDuration(w.clock.Now().Sub(started))
	}()

	_, err := w.processBatch(ctx)
	return err
}

func (w *Worker) processBatch(ctx context.Context) (int, error) {
	records, err := w.repo.ListPending(ctx, w.db, w.cfg.Provider, w.cfg.MaxAttempts, w.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	processed := 0
	for _, record := range records {
		if record == nil {
			continue
		}

		var err error
		if record.ExternalID == nil {
			err = w.submitRecord(ctx, record)
		} else {
			err = w.pollRecord(ctx, record)
		}
		if err != nil {
			w.recordFailure(ctx, record, err)
			continue
		}
		processed++
	}
	return processed, nil
}

// submitRecord drives a record that has never reached the partner: build the
// payload from the owning claim, submit, persist the returned external id and
// the reconciled status.
func (w *Worker) submitRecord(ctx context.Context, record *domain.SubmissionRecord) error {
	claim, err := w.claimRepo.FindByID(ctx, w.db, record.CaseID)
	if err != nil {
		return err
	}

	payload := domain.SubmitPayload{
		CaseID:      record.CaseID.String(),
		UserID:      record.UserID.String(),
		CaseNumber:  claim.CaseNumber,
		AmountCents: claim.AmountCents,
		Currency:    claim.Currency,
		Description: "Reimbursement claim submission",
	}

	callStarted := w.clock.Now()
	result, err := w.partner.Submit(ctx, payload)
	metrics.Submitter().ObservePartnerCall(w.cfg.Provider, "submit", w.clock.Now().Sub(callStarted))
	if err != nil {
		return err
	}

	status := domain.Reconcile(result.Status)
	attempts := record.Attempts + 1
	if err := w.repo.UpdateSubmitted(ctx, w.db, record.ID, result.SubmissionID, status, attempts); err != nil {
		return err
	}

	w.recordJournal(ctx, record.CaseID.String(), journaldomain.ClaimSubmittedPayload{
		Provider:    w.cfg.Provider,
		ExternalID:  result.SubmissionID,
		AmountCents: claim.AmountCents,
		Currency:    claim.Currency,
	})

	w.log.Info("submission created",
		zap.String("submission_id", record.ID.String()),
		zap.String("external_id", result.SubmissionID),
		zap.String("status", string(status)),
	)
	metrics.Submitter().IncRecordProcessed(w.cfg.Provider, metrics.SubmitterOutcomeSubmitted)

	if status == domain.StatusPaid {
		return w.cascadePaid(ctx, record)
	}
	return nil
}

// pollRecord re-checks an in-flight record's external status and persists the
// reconciled result when it changed.
func (w *Worker) pollRecord(ctx context.Context, record *domain.SubmissionRecord) error {
	callStarted := w.clock.Now()
	partnerStatus, err := w.partner.GetStatus(ctx, *record.ExternalID)
	metrics.Submitter().ObservePartnerCall(w.cfg.Provider, "get_status", w.clock.Now().Sub(callStarted))
	if err != nil {
		return err
	}

	status := domain.Reconcile(partnerStatus)
	if status == record.Status {
		metrics.Submitter().IncRecordProcessed(w.cfg.Provider, metrics.SubmitterOutcomeUnchanged)
		return nil
	}

	if err := w.repo.UpdateStatus(ctx, w.db, record.ID, status); err != nil {
		return err
	}

	w.recordJournal(ctx, record.CaseID.String(), journaldomain.SubmissionStatusChangedPayload{
		Provider:   w.cfg.Provider,
		ExternalID: *record.ExternalID,
		From:       string(record.Status),
		To:         string(status),
		Attempts:   record.Attempts,
	})

	w.log.Info("submission status changed",
		zap.String("submission_id", record.ID.String()),
		zap.String("from", string(record.Status)),
		zap.String("to", string(status)),
	)
	metrics.Submitter().IncRecordProcessed(w.cfg.Provider, metrics.SubmitterOutcomeReconciled)

	if status == domain.StatusPaid {
		return w.cascadePaid(ctx, record)
	}
	return nil
}

// cascadePaid propagates a paid submission to the owning claim and records
// the commission. The billing layer deduplicates on (case, status), so a
// transition observed twice charges at most once.
func (w *Worker) cascadePaid(ctx context.Context, record *domain.SubmissionRecord) error {
	if err := w.claimRepo.UpdateStatus(ctx, w.db, record.CaseID, claimdomain.ClaimStatusPaid); err != nil {
		return err
	}

	claim, err := w.claimRepo.FindByID(ctx, w.db, record.CaseID)
	if err != nil {
		return err
	}

	_, _, err = w.billing.RecordCommission(ctx, billingdomain.RecordCommissionRequest{
		UserID:      record.UserID.String(),
		CaseID:      record.CaseID.String(),
		Status:      string(domain.StatusPaid),
		EventType:   billingdomain.EventTypeCommissionCharged,
		AmountCents: claim.AmountCents,
		Currency:    claim.Currency,
	})
	if err != nil {
		return err
	}

	w.log.Info("claim paid",
		zap.String("case_id", record.CaseID.String()),
		zap.String("submission_id", record.ID.String()),
	)
	metrics.Submitter().IncRecordProcessed(w.cfg.Provider, metrics.SubmitterOutcomePaid)
	return nil
}

// recordFailure applies the per-record failure path: bump attempts, park the
// record as failed with the error message, and keep going. The record stays
// eligible for retry until attempts reaches the cap.
func (w *Worker) recordFailure(ctx context.Context, record *domain.SubmissionRecord, cause error) {
	attempts := record.Attempts + 1

	if err := w.repo.UpdateFailure(ctx, w.db, record.ID, attempts, cause.Error()); err != nil {
		w.log.Warn("failed to persist submission failure",
			zap.String("submission_id", record.ID.String()),
			zap.Error(err),
		)
		return
	}

	w.recordJournal(ctx, record.CaseID.String(), journaldomain.SubmissionFailedPayload{
		Provider: w.cfg.Provider,
		Attempts: attempts,
		Error:    cause.Error(),
	})

	w.log.Warn("submission attempt failed",
		zap.String("submission_id", record.ID.String()),
		zap.Int("attempts", attempts),
		zap.Error(cause),
	)
	metrics.Submitter().IncRecordProcessed(w.cfg.Provider, metrics.SubmitterOutcomeFailed)
	if attempts >= w.cfg.MaxAttempts {
		metrics.Submitter().IncRecordParked()
	}
}

func (w *Worker) recordJournal(ctx context.Context, entityID string, payload journaldomain.Payload) {
	if w.journal == nil {
		return
	}
	if _, err := w.journal.Record(ctx, journaldomain.RecordRequest{
		EntityID: entityID,
		Payload:  payload,
	}); err != nil {
		w.log.Warn("failed to journal submission event",
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}
