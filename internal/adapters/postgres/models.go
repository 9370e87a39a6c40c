package postgres

import "time"

type transactionModel struct {
	TransactionID      string     `gorm:"column:transaction_id;primaryKey"`
	CustomerID         string     `gorm:"column:customer_id"`
	CardLastFour       string     `gorm:"column:card_last_four"`
	Amount             float64    `gorm:"column:amount"`
	Currency           string     `gorm:"column:currency"`
	LocalAmount        float64    `gorm:"column:local_amount"`
	LocalCurrency      string     `gorm:"column:local_currency"`
	MerchantName       string     `gorm:"column:merchant_name"`
	MerchantCategory   string     `gorm:"column:merchant_category"`
	Acquirer           string     `gorm:"column:acquirer"`
	Network            string     `gorm:"column:network"`
	POSEntryMode       string     `gorm:"column:pos_entry_mode"`
	IsWallet           bool       `gorm:"column:is_wallet"`
	WalletType         string     `gorm:"column:wallet_type"`
	SecuredIndication  string     `gorm:"column:secured_indication"`
	Settled            bool       `gorm:"column:settled"`
	SettledAt          *time.Time `gorm:"column:settled_at"`
	RefundReceived     bool       `gorm:"column:refund_received"`
	RefundAmount       float64    `gorm:"column:refund_amount"`
	OccurredAt         time.Time  `gorm:"column:occurred_at"`
	DisputeStatus      string     `gorm:"column:dispute_status"`
	TempCreditIssuedAt *time.Time `gorm:"column:temp_credit_issued_at"`
	TempCreditRef      string     `gorm:"column:temp_credit_ref"`
	CreditReversedAt   *time.Time `gorm:"column:credit_reversed_at"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (transactionModel) TableName() string { return "transactions" }

type disputeModel struct {
	DisputeID     string    `gorm:"column:dispute_id;primaryKey"`
	TransactionID string    `gorm:"column:transaction_id"`
	CustomerID    string    `gorm:"column:customer_id"`
	ReasonCode    string    `gorm:"column:reason_code"`
	CustomReason  string    `gorm:"column:custom_reason"`
	Evidence      string    `gorm:"column:evidence"`
	Status        string    `gorm:"column:status"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (disputeModel) TableName() string { return "disputes" }

type decisionModel struct {
	DecisionID         string    `gorm:"column:decision_id;primaryKey"`
	TransactionID      string    `gorm:"column:transaction_id;uniqueIndex:uq_decisions_txn_fingerprint"`
	DisputeID          string    `gorm:"column:dispute_id"`
	DecisionKind       string    `gorm:"column:decision_kind"`
	PolicyCode         string    `gorm:"column:policy_code"`
	ReasonSummary      string    `gorm:"column:reason_summary"`
	Flags              string    `gorm:"column:flags"`
	NextActions        string    `gorm:"column:next_actions"`
	MissingDocuments   string    `gorm:"column:missing_documents"`
	BaseAmountUSD      *float64  `gorm:"column:base_amount_usd"`
	RemainingAmountUSD float64   `gorm:"column:remaining_amount_usd"`
	InputFingerprint   string    `gorm:"column:input_fingerprint;uniqueIndex:uq_decisions_txn_fingerprint"`
	Audit              string    `gorm:"column:audit"`
	CreatedAt          time.Time `gorm:"column:created_at"`
}

func (decisionModel) TableName() string { return "decisions" }

type representmentModel struct {
	TransactionID       string     `gorm:"column:transaction_id;primaryKey"`
	Status              string     `gorm:"column:status"`
	MerchantReason      string     `gorm:"column:merchant_reason"`
	MerchantEvidenceRef string     `gorm:"column:merchant_evidence_ref"`
	NeedsAttention      bool       `gorm:"column:needs_attention"`
	CreditReversedAt    *time.Time `gorm:"column:credit_reversed_at"`
	CreatedAt           time.Time  `gorm:"column:created_at"`
	UpdatedAt           time.Time  `gorm:"column:updated_at"`
}

func (representmentModel) TableName() string { return "representments" }

type auditEntryModel struct {
	AuditID       string    `gorm:"column:audit_id;primaryKey"`
	TransactionID string    `gorm:"column:transaction_id"`
	Action        string    `gorm:"column:action"`
	PerformedBy   string    `gorm:"column:performed_by"`
	PerformedAt   time.Time `gorm:"column:performed_at"`
	Note          string    `gorm:"column:note"`
	Network       string    `gorm:"column:network"`
}

func (auditEntryModel) TableName() string { return "dispute_audit_log" }

type taskModel struct {
	TaskID        string    `gorm:"column:task_id;primaryKey"`
	TransactionID string    `gorm:"column:transaction_id"`
	Kind          string    `gorm:"column:kind"`
	Detail        string    `gorm:"column:detail"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (taskModel) TableName() string { return "work_queue_tasks" }

type outboxModel struct {
	RecordID   string     `gorm:"column:record_id;primaryKey"`
	EventClass string     `gorm:"column:event_class"`
	Envelope   string     `gorm:"column:envelope"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	SentAt     *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string { return "event_outbox" }
