package domain

// Reconcile maps a partner-reported status to the internal submission status.
// The mapping is total: an unrecognized partner status resolves to pending so
// that an unknown signal never marks a record paid or permanently failed.
func Reconcile(partnerStatus PartnerStatus) Status {
	switch partnerStatus {
	case PartnerStatusPending, PartnerStatusSubmitted:
		return StatusPending
	case PartnerStatusAcknowledged:
		return StatusAcknowledged
	case PartnerStatusPaid:
		return StatusPaid
	case PartnerStatusFailed, PartnerStatusRejected, PartnerStatusPartial:
		return StatusFailed
	default:
		return StatusPending
	}
}
