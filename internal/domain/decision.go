package domain

import "time"

// DecisionKind is the closed set of outcomes the policy table can produce.
type DecisionKind string

const (
	DecisionFileChargeback           DecisionKind = "FILE_CHARGEBACK"
	DecisionFileChargebackTempCredit DecisionKind = "FILE_CHARGEBACK_WITH_TEMP_CREDIT"
	DecisionDeclineNotEligible       DecisionKind = "DECLINE_NOT_ELIGIBLE"
	DecisionManualReview             DecisionKind = "MANUAL_REVIEW"
	DecisionWaitForSettlement        DecisionKind = "WAIT_FOR_SETTLEMENT"
	DecisionRequestMerchantRefund    DecisionKind = "REQUEST_REFUND_FROM_MERCHANT"
	DecisionApproveWriteoff          DecisionKind = "APPROVE_WRITEOFF"
)

// ActionKind is the closed set of side-effect requests a Decision can carry.
// The dispatcher switches over this set exhaustively.
type ActionKind string

const (
	ActionCreateDispute        ActionKind = "create_dispute"
	ActionIssueTempCredit      ActionKind = "issue_temp_credit"
	ActionIssuePermanentCredit ActionKind = "issue_permanent_credit"
	ActionEnqueueManualReview  ActionKind = "enqueue_manual_review"
	ActionRequestDocuments     ActionKind = "request_documents"
	ActionScheduleRecheck      ActionKind = "schedule_recheck"
	ActionMerchantRefundTask   ActionKind = "create_merchant_refund_task"
	ActionFileWithNetwork      ActionKind = "file_with_network"
	ActionLogActivity          ActionKind = "log_activity"
)

// DecisionAudit is the rationale block persisted with every decision.
type DecisionAudit struct {
	MatchedRuleID    string   `json:"matched_rule_id"`
	EvaluatedRuleIDs []string `json:"evaluated_rule_ids"`
	InputFingerprint string   `json:"input_fingerprint"`
	FactsSnapshot    Facts    `json:"facts_snapshot"`
}

// Decision is immutable once persisted; exactly one non-superseded Decision
// exists per (transaction_id, input_fingerprint).
type Decision struct {
	DecisionID         string        `json:"decision_id"`
	TransactionID      string        `json:"transaction_id"`
	DisputeID          string        `json:"dispute_id"`
	Kind               DecisionKind  `json:"decision_kind"`
	PolicyCode         string        `json:"policy_code"`
	ReasonSummary      string        `json:"reason_summary"`
	Flags              []string      `json:"flags,omitempty"`
	NextActions        []ActionKind  `json:"next_actions"`
	MissingDocuments   []string      `json:"missing_documents,omitempty"`
	BaseAmountUSD      *float64      `json:"base_amount_usd"`
	RemainingAmountUSD float64       `json:"remaining_amount_usd"`
	InputFingerprint   string        `json:"input_fingerprint"`
	Audit              DecisionAudit `json:"audit"`
	CreatedAt          time.Time     `json:"created_at"`
}
