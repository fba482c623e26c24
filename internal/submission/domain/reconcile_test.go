package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcile(t *testing.T) {
	cases := []struct {
		partner PartnerStatus
		want    Status
	}{
		{PartnerStatusPending, StatusPending},
		{PartnerStatusSubmitted, StatusPending},
		{PartnerStatusAcknowledged, StatusAcknowledged},
		{PartnerStatusPaid, StatusPaid},
		{PartnerStatusFailed, StatusFailed},
		{PartnerStatusRejected, StatusFailed},
		{PartnerStatusPartial, StatusFailed},
		{PartnerStatus("anything-else"), StatusPending},
		{PartnerStatus(""), StatusPending},
		{PartnerStatus("PAID"), StatusPending},
	}

	for _, tc := range cases {
		t.Run(string(tc.partner), func(t *testing.T) {
			assert.Equal(t, tc.want, Reconcile(tc.partner))
		})
	}
}

func TestReconcileDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.Equal(t, StatusPaid, Reconcile(PartnerStatusPaid))
		assert.Equal(t, StatusPending, Reconcile(PartnerStatus("garbage")))
	}
}
