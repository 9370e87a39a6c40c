package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/ports"
)

// CreditLedger records ledger calls for assertions and can be told to fail.
type CreditLedger struct {
	mu        sync.Mutex
	fail      bool
	Issued    []string
	Reversed  []string
	Permanent []string
}

func NewCreditLedger() *CreditLedger { return &CreditLedger{} }

func (l *CreditLedger) Fail(fail bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fail = fail
}

func (l *CreditLedger) IssueTemporaryCredit(_ context.Context, transactionID string, _ float64, _ string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail {
		return "", errors.New("ledger unavailable")
	}
	ref := "tmpcr-" + transactionID
	l.Issued = append(l.Issued, transactionID)
	return ref, nil
}

func (l *CreditLedger) ReverseTemporaryCredit(_ context.Context, transactionID, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail {
		return errors.New("ledger unavailable")
	}
	l.Reversed = append(l.Reversed, transactionID)
	return nil
}

func (l *CreditLedger) IssuePermanentCredit(_ context.Context, transactionID string, _ float64, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail {
		return errors.New("ledger unavailable")
	}
	l.Permanent = append(l.Permanent, transactionID)
	return nil
}

func (l *CreditLedger) ReversalCount(transactionID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, id := range l.Reversed {
		if id == transactionID {
			n++
		}
	}
	return n
}

// NetworkFiler records filings for assertions.
type NetworkFiler struct {
	mu              sync.Mutex
	fail            bool
	Filed           []ports.FilingRequest
	Prearbitrations []ports.FilingRequest
}

func NewNetworkFiler() *NetworkFiler { return &NetworkFiler{} }

func (f *NetworkFiler) Fail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func (f *NetworkFiler) FileChargeback(_ context.Context, req ports.FilingRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("network gateway unavailable")
	}
	f.Filed = append(f.Filed, req)
	return nil
}

func (f *NetworkFiler) FilePrearbitration(_ context.Context, req ports.FilingRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("network gateway unavailable")
	}
	f.Prearbitrations = append(f.Prearbitrations, req)
	return nil
}

func (f *NetworkFiler) FiledCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Filed)
}

var (
	_ ports.CreditLedger = (*CreditLedger)(nil)
	_ ports.NetworkFiler = (*NetworkFiler)(nil)
)
