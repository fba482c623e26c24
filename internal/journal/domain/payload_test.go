package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayloadFields(t *testing.T) {
	p := ClaimSubmittedPayload{
		Provider:    "amazon",
		ExternalID:  "ext-1",
		AmountCents: 1299,
		Currency:    "USD",
	}

	fields, err := p.Fields()
	assert.NoError(t, err)
	assert.Equal(t, "amazon", fields["provider"])
	assert.Equal(t, "ext-1", fields["external_id"])
	assert.Equal(t, float64(1299), fields["amount_cents"])
}

func TestCommissionPayloadTxType(t *testing.T) {
	assert.Equal(t, TxTypeCommissionCharged, CommissionPayload{Charged: true}.JournalTxType())
	assert.Equal(t, TxTypeCommissionFailed, CommissionPayload{Charged: false}.JournalTxType())
}

func TestKnownTxType(t *testing.T) {
	assert.True(t, KnownTxType(TxTypeClaimFlaggedWithCertainty))
	assert.True(t, KnownTxType(TxTypeIntegratedRecoveryEvent))
	assert.False(t, KnownTxType(TxType("made_up_event")))
	assert.False(t, KnownTxType(TxType("")))
}
