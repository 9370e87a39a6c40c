package domain

const (
	CanonicalEventClassDomain        = "domain"
	CanonicalEventClassAnalyticsOnly = "analytics_only"
)

const (
	// Consumed.
	EventMerchantResponseReceived = "merchant.response.received"
	EventRecheckDue               = "chargeback.recheck.due"
	// Published.
	EventDecisionRecorded     = "chargeback.decision.recorded"
	EventChargebackFiled      = "chargeback.filed"
	EventCreditIssued         = "credit.issued"
	EventCreditReversed       = "credit.reversed"
	EventRepresentmentUpdated = "representment.updated"
)

func CanonicalEventClass(eventType string) string {
	switch eventType {
	case EventMerchantResponseReceived, EventRecheckDue, EventDecisionRecorded,
		EventChargebackFiled, EventCreditIssued, EventCreditReversed:
		return CanonicalEventClassDomain
	case EventRepresentmentUpdated:
		return CanonicalEventClassAnalyticsOnly
	default:
		return ""
	}
}

func CanonicalPartitionKeyPath(eventType string) string {
	if CanonicalEventClass(eventType) == "" {
		return ""
	}
	return "data.transaction_id"
}

func IsCanonicalInputEvent(eventType string) bool {
	switch eventType {
	case EventMerchantResponseReceived, EventRecheckDue:
		return true
	default:
		return false
	}
}
