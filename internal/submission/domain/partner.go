package domain

import "context"

// PartnerStatus is the status vocabulary reported by external reimbursement
// partners. Values outside this set can still arrive on the wire; Reconcile
// maps them conservatively.
type PartnerStatus string

const (
	PartnerStatusPending      PartnerStatus = "pending"
	PartnerStatusSubmitted    PartnerStatus = "submitted"
	PartnerStatusAcknowledged PartnerStatus = "acknowledged"
	PartnerStatusPaid         PartnerStatus = "paid"
	PartnerStatusFailed       PartnerStatus = "failed"
	PartnerStatusRejected     PartnerStatus = "rejected"
	PartnerStatusPartial      PartnerStatus = "partial"
)

// SubmitPayload is the request body for a new partner submission. Amounts are
// in minor units.
type SubmitPayload struct {
	CaseID      string `json:"case_id"`
	UserID      string `json:"user_id"`
	CaseNumber  string `json:"case_number"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

type SubmitResult struct {
	SubmissionID string        `json:"submission_id"`
	Status       PartnerStatus `json:"status"`
}

// PartnerClient talks to one external reimbursement partner.
type PartnerClient interface {
	Provider() string
	Submit(ctx context.Context, payload SubmitPayload) (SubmitResult, error)
	GetStatus(ctx context.Context, submissionID string) (PartnerStatus, error)
}
