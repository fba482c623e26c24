package domain

import (
	"encoding/json"
	"fmt"
)

// Payload is the tagged union of per-event payload shapes. Each variant knows
// its tx type; Fields() flattens it to the open key/value form that is stored
// and hashed.
type Payload interface {
	JournalTxType() TxType
	Fields() (map[string]any, error)
}

func structFields(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode journal payload: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode journal payload: %w", err)
	}
	return out, nil
}

type ClaimCreatedPayload struct {
	CaseNumber  string `json:"case_number"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

func (ClaimCreatedPayload) JournalTxType() TxType { return TxTypeClaimCreated }

func (p ClaimCreatedPayload) Fields() (map[string]any, error) { return structFields(p) }

type ClaimFlaggedPayload struct {
	Certainty float64 `json:"certainty"`
	Threshold float64 `json:"threshold"`
	Model     string  `json:"model"`
}

func (ClaimFlaggedPayload) JournalTxType() TxType { return TxTypeClaimFlaggedWithCertainty }

func (p ClaimFlaggedPayload) Fields() (map[string]any, error) { return structFields(p) }

type ClaimRiskScoredPayload struct {
	Certainty float64 `json:"certainty"`
	Model     string  `json:"model"`
}

func (ClaimRiskScoredPayload) JournalTxType() TxType { return TxTypeClaimRiskScored }

func (p ClaimRiskScoredPayload) Fields() (map[string]any, error) { return structFields(p) }

type ModelTrainingPayload struct {
	Model       string `json:"model"`
	SampleCount int    `json:"sample_count"`
	Trigger     string `json:"trigger"`
}

func (ModelTrainingPayload) JournalTxType() TxType { return TxTypeModelTraining }

func (p ModelTrainingPayload) Fields() (map[string]any, error) { return structFields(p) }

type IntegratedRecoveryPayload struct {
	Source    string `json:"source"`
	Reference string `json:"reference"`
	Note      string `json:"note,omitempty"`
}

func (IntegratedRecoveryPayload) JournalTxType() TxType { return TxTypeIntegratedRecoveryEvent }

func (p IntegratedRecoveryPayload) Fields() (map[string]any, error) { return structFields(p) }

type ClaimSubmittedPayload struct {
	Provider    string `json:"provider"`
	ExternalID  string `json:"external_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

func (ClaimSubmittedPayload) JournalTxType() TxType { return TxTypeClaimSubmitted }

func (p ClaimSubmittedPayload) Fields() (map[string]any, error) { return structFields(p) }

type SubmissionStatusChangedPayload struct {
	Provider   string `json:"provider"`
	ExternalID string `json:"external_id"`
	From       string `json:"from"`
	To         string `json:"to"`
	Attempts   int    `json:"attempts"`
}

func (SubmissionStatusChangedPayload) JournalTxType() TxType { return TxTypeSubmissionStatusChanged }

func (p SubmissionStatusChangedPayload) Fields() (map[string]any, error) { return structFields(p) }

type SubmissionFailedPayload struct {
	Provider string `json:"provider"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error"`
}

func (SubmissionFailedPayload) JournalTxType() TxType { return TxTypeSubmissionFailed }

func (p SubmissionFailedPayload) Fields() (map[string]any, error) { return structFields(p) }

type CommissionPayload struct {
	Charged        bool   `json:"charged"`
	AmountCents    int64  `json:"amount_cents"`
	Currency       string `json:"currency"`
	IdempotencyKey string `json:"idempotency_key"`
	PaymentRef     string `json:"payment_ref,omitempty"`
}

func (p CommissionPayload) JournalTxType() TxType {
	if p.Charged {
		return TxTypeCommissionCharged
	}
	return TxTypeCommissionFailed
}

func (p CommissionPayload) Fields() (map[string]any, error) { return structFields(p) }

// GenericPayload carries events whose shape is not modeled as a variant.
// The tx type must still belong to the closed vocabulary.
type GenericPayload struct {
	Type TxType
	Data map[string]any
}

func (p GenericPayload) JournalTxType() TxType { return p.Type }

func (p GenericPayload) Fields() (map[string]any, error) {
	out := make(map[string]any, len(p.Data))
	for k, v := range p.Data {
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out, nil
}
