package contracts

import (
	"encoding/json"
	"time"
)

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	EventClass       string          `json:"event_class,omitempty"`
	OccurredAt       time.Time       `json:"occurred_at"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    string          `json:"schema_version"`
	Data             json.RawMessage `json:"data"`
}

// MerchantResponsePayload arrives when the acquirer relays the merchant's
// answer to a filed chargeback.
type MerchantResponsePayload struct {
	TransactionID string `json:"transaction_id"`
	ContestIntent bool   `json:"contest_intent"`
	Reason        string `json:"reason,omitempty"`
	EvidenceRef   string `json:"evidence_ref,omitempty"`
	ReceivedAt    string `json:"received_at"`
}

// RecheckDuePayload re-triggers evaluation for a transaction that was
// waiting on settlement.
type RecheckDuePayload struct {
	TransactionID string `json:"transaction_id"`
	ScheduledAt   string `json:"scheduled_at"`
}

type DecisionRecordedPayload struct {
	TransactionID string   `json:"transaction_id"`
	DisputeID     string   `json:"dispute_id"`
	DecisionKind  string   `json:"decision_kind"`
	PolicyCode    string   `json:"policy_code"`
	Fingerprint   string   `json:"input_fingerprint"`
	Flags         []string `json:"flags,omitempty"`
	RecordedAt    string   `json:"recorded_at"`
}

type ChargebackFiledPayload struct {
	TransactionID string  `json:"transaction_id"`
	DisputeID     string  `json:"dispute_id"`
	Network       string  `json:"network"`
	AmountUSD     float64 `json:"amount_usd"`
	FiledAt       string  `json:"filed_at"`
}

type CreditEventPayload struct {
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	CreditRef     string  `json:"credit_ref,omitempty"`
	Permanent     bool    `json:"permanent"`
	OccurredAt    string  `json:"occurred_at"`
}

type RepresentmentUpdatedPayload struct {
	TransactionID string `json:"transaction_id"`
	FromStatus    string `json:"from_status"`
	ToStatus      string `json:"to_status"`
	PerformedBy   string `json:"performed_by,omitempty"`
	UpdatedAt     string `json:"updated_at"`
}

type DLQRecord struct {
	OriginalEvent EventEnvelope `json:"original_event"`
	ErrorSummary  string        `json:"error_summary"`
	RetryCount    int           `json:"retry_count"`
	FirstSeenAt   time.Time     `json:"first_seen_at"`
	LastErrorAt   time.Time     `json:"last_error_at"`
	SourceTopic   string        `json:"source_topic,omitempty"`
	DLQTopic      string        `json:"dlq_topic,omitempty"`
	TraceID       string        `json:"trace_id,omitempty"`
}
