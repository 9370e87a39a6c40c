package domain

import (
	"strings"
	"time"
)

// Dispute lifecycle statuses carried on the transaction row. Only the engine
// and bank staff move a transaction between these.
const (
	DisputeStatusNone                  = "none"
	DisputeStatusEvaluated             = "evaluated"
	DisputeStatusChargebackFiled       = "chargeback_filed"
	DisputeStatusManualReview          = "manual_review"
	DisputeStatusAwaitingSettlement    = "awaiting_settlement"
	DisputeStatusRefundRequested       = "refund_requested"
	DisputeStatusDeclined              = "declined"
	DisputeStatusWrittenOff            = "written_off"
	DisputeStatusResolvedWon           = "resolved_won"
	DisputeStatusResolvedLost          = "resolved_lost"
	DisputeStatusAwaitingCustomerInfo  = "awaiting_customer_info"
	DisputeStatusPrearbitrationPending = "prearbitration_pending"
)

// Dispute reason codes accepted from the customer-facing flow.
const (
	ReasonUnauthorized          = "UNAUTHORIZED"
	ReasonNotReceived           = "NOT_RECEIVED"
	ReasonQualityIssue          = "QUALITY_ISSUE"
	ReasonDuplicate             = "DUPLICATE"
	ReasonIncorrectAmount       = "INCORRECT_AMOUNT"
	ReasonSubscriptionCancelled = "SUBSCRIPTION_CANCELLED"
)

// Transaction is the immutable charge record plus the dispute/credit status
// fields the engine is allowed to mutate.
type Transaction struct {
	TransactionID      string     `json:"transaction_id"`
	CustomerID         string     `json:"customer_id"`
	CardLastFour       string     `json:"card_last_four"`
	Amount             float64    `json:"amount"`
	Currency           string     `json:"currency"`
	LocalAmount        float64    `json:"local_amount"`
	LocalCurrency      string     `json:"local_currency"`
	MerchantName       string     `json:"merchant_name"`
	MerchantCategory   string     `json:"merchant_category_code"`
	Acquirer           string     `json:"acquirer"`
	Network            string     `json:"network"`
	POSEntryMode       string     `json:"pos_entry_mode"`
	IsWallet           bool       `json:"is_wallet"`
	WalletType         string     `json:"wallet_type,omitempty"`
	SecuredIndication  string     `json:"secured_indication,omitempty"`
	Settled            bool       `json:"settled"`
	SettledAt          *time.Time `json:"settled_at,omitempty"`
	RefundReceived     bool       `json:"refund_received"`
	RefundAmount       float64    `json:"refund_amount,omitempty"`
	OccurredAt         time.Time  `json:"occurred_at"`
	DisputeStatus      string     `json:"dispute_status"`
	TempCreditIssuedAt *time.Time `json:"temp_credit_issued_at,omitempty"`
	TempCreditRef      string     `json:"temp_credit_ref,omitempty"`
	CreditReversedAt   *time.Time `json:"credit_reversed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Dispute is a customer's chargeback request against one transaction.
type Dispute struct {
	DisputeID     string         `json:"dispute_id"`
	TransactionID string         `json:"transaction_id"`
	CustomerID    string         `json:"customer_id"`
	ReasonCode    string         `json:"reason_code"`
	CustomReason  string         `json:"custom_reason,omitempty"`
	Evidence      []EvidenceItem `json:"evidence,omitempty"`
	Status        string         `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// AuditEntry is append-only. Nil/empty PerformedBy means the engine itself.
type AuditEntry struct {
	AuditID       string    `json:"audit_id"`
	TransactionID string    `json:"transaction_id"`
	Action        string    `json:"action"`
	PerformedBy   string    `json:"performed_by,omitempty"`
	PerformedAt   time.Time `json:"performed_at"`
	Note          string    `json:"note,omitempty"`
	Network       string    `json:"network,omitempty"`
}

// Task is a queued unit of human or scheduled work produced by dispatch.
const (
	TaskKindManualReview    = "manual_review"
	TaskKindDocumentRequest = "document_request"
	TaskKindMerchantRefund  = "merchant_refund"
	TaskKindFailedAction    = "failed_action"
)

type Task struct {
	TaskID        string    `json:"task_id"`
	TransactionID string    `json:"transaction_id"`
	Kind          string    `json:"kind"`
	Detail        string    `json:"detail,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func NormalizeReasonCode(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case ReasonUnauthorized:
		return ReasonUnauthorized
	case ReasonNotReceived:
		return ReasonNotReceived
	case ReasonQualityIssue:
		return ReasonQualityIssue
	case ReasonDuplicate:
		return ReasonDuplicate
	case ReasonIncorrectAmount:
		return ReasonIncorrectAmount
	case ReasonSubscriptionCancelled:
		return ReasonSubscriptionCancelled
	default:
		return ""
	}
}

func NormalizeRole(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "customer":
		return "customer"
	case "agent":
		return "agent"
	case "bank_admin":
		return "bank_admin"
	case "admin":
		return "admin"
	default:
		return ""
	}
}

// IsBankAdminRole gates the representment transitions reserved for bank staff.
func IsBankAdminRole(role string) bool {
	switch NormalizeRole(role) {
	case "bank_admin", "admin":
		return true
	default:
		return false
	}
}
