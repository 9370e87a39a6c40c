package ports

import "context"

// CreditLedger issues and reverses customer credits. Calls must be safe to
// invoke at most once per decision; retries are the dispatcher's concern.
type CreditLedger interface {
	IssueTemporaryCredit(ctx context.Context, transactionID string, amount float64, currency string) (creditRef string, err error)
	ReverseTemporaryCredit(ctx context.Context, transactionID, creditRef string) error
	IssuePermanentCredit(ctx context.Context, transactionID string, amount float64, currency string) error
}

// FilingRequest is the case payload handed to a card network.
type FilingRequest struct {
	TransactionID string
	DisputeID     string
	Network       string
	ReasonCode    string
	AmountUSD     float64
	Currency      string
	PolicyCode    string
}

// NetworkFiler is the card-network boundary. The real integration is
// external to this engine; implementations must be idempotent via their own
// request identifiers.
type NetworkFiler interface {
	FileChargeback(ctx context.Context, req FilingRequest) error
	FilePrearbitration(ctx context.Context, req FilingRequest) error
}
