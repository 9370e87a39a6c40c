package domain

import (
	"testing"
	"time"
)

func TestDeriveFactsUSDNormalization(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		txn  Transaction
		want *float64
	}{
		{
			name: "transaction currency USD",
			txn:  Transaction{Amount: 42.5, Currency: "usd", LocalAmount: 99, LocalCurrency: "EUR"},
			want: usd(42.5),
		},
		{
			name: "local currency USD fallback",
			txn:  Transaction{Amount: 3600, Currency: "INR", LocalAmount: 43.2, LocalCurrency: "USD"},
			want: usd(43.2),
		},
		{
			name: "no USD amount available",
			txn:  Transaction{Amount: 3600, Currency: "INR", LocalAmount: 50, LocalCurrency: "EUR"},
			want: nil,
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := DeriveFacts(tc.txn, now)
			switch {
			case tc.want == nil && f.BaseAmountUSD != nil:
				t.Fatalf("BaseAmountUSD = %v, want nil", *f.BaseAmountUSD)
			case tc.want != nil && (f.BaseAmountUSD == nil || *f.BaseAmountUSD != *tc.want):
				t.Fatalf("BaseAmountUSD = %v, want %v", f.BaseAmountUSD, *tc.want)
			}
		})
	}
}

func TestDeriveFactsRemainingAmountClampsAtZero(t *testing.T) {
	t.Parallel()

	f := DeriveFacts(Transaction{
		Amount: 50, Currency: "USD",
		RefundReceived: true, RefundAmount: 80,
	}, time.Now())
	if f.RemainingAmountUSD != 0 {
		t.Fatalf("RemainingAmountUSD = %v, want 0", f.RemainingAmountUSD)
	}

	f = DeriveFacts(Transaction{
		Amount: 50, Currency: "USD",
		RefundReceived: true, RefundAmount: 20,
	}, time.Now())
	if f.RemainingAmountUSD != 30 {
		t.Fatalf("RemainingAmountUSD = %v, want 30", f.RemainingAmountUSD)
	}
}

func TestDeriveFactsDayCounts(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	settled := now.AddDate(0, 0, -4)
	txn := Transaction{
		Currency:   "USD",
		OccurredAt: now.AddDate(0, 0, -9),
		Settled:    true,
		SettledAt:  &settled,
	}
	f := DeriveFacts(txn, now)
	if f.DaysSinceTransaction != 9 {
		t.Fatalf("DaysSinceTransaction = %d", f.DaysSinceTransaction)
	}
	if f.DaysSinceSettlement == nil || *f.DaysSinceSettlement != 4 {
		t.Fatalf("DaysSinceSettlement = %v", f.DaysSinceSettlement)
	}

	// A future-dated timestamp never produces a negative age.
	f = DeriveFacts(Transaction{OccurredAt: now.AddDate(0, 0, 3)}, now)
	if f.DaysSinceTransaction != 0 {
		t.Fatalf("future OccurredAt: DaysSinceTransaction = %d", f.DaysSinceTransaction)
	}
}

func TestDeriveFactsSecuredIndication(t *testing.T) {
	t.Parallel()

	tests := []struct {
		indication    string
		wantSecured   bool
		wantUnsecured bool
	}{
		{"OTP_VERIFIED", true, false},
		{"3ds_authenticated", true, false},
		{"3DS2_FRICTIONLESS", true, false},
		{"PIN_VERIFIED", true, false},
		{"", false, true},
		{"NONE", false, true},
		{"3DS_ATTEMPTED", false, true},
		{"SOMETHING_ELSE", false, false},
	}
	for _, tc := range tests {
		f := DeriveFacts(Transaction{SecuredIndication: tc.indication}, time.Now())
		if f.IsSecuredOTP != tc.wantSecured || f.IsUnsecured != tc.wantUnsecured {
			t.Fatalf("%q: secured=%v unsecured=%v", tc.indication, f.IsSecuredOTP, f.IsUnsecured)
		}
	}
}

func TestDeriveFactsEntryModes(t *testing.T) {
	t.Parallel()

	for _, mode := range []string{"01", "02", "80", "90"} {
		if f := DeriveFacts(Transaction{POSEntryMode: mode}, time.Now()); !f.IsMagstripe {
			t.Fatalf("entry mode %q not classified as magstripe", mode)
		}
	}
	if f := DeriveFacts(Transaction{POSEntryMode: "05"}, time.Now()); !f.IsChip {
		t.Fatalf("entry mode 05 not classified as chip")
	}
	if f := DeriveFacts(Transaction{POSEntryMode: "07"}, time.Now()); !f.IsContactless {
		t.Fatalf("entry mode 07 not classified as contactless")
	}
}

func TestDeriveFactsBlockedWalletRequiresWalletFlag(t *testing.T) {
	t.Parallel()

	f := DeriveFacts(Transaction{IsWallet: true, WalletType: "apple_pay"}, time.Now())
	if !f.IsBlockedWalletType {
		t.Fatalf("apple_pay wallet not flagged")
	}
	// Wallet type without the wallet flag is stale data, not a block.
	f = DeriveFacts(Transaction{IsWallet: false, WalletType: "APPLE_PAY"}, time.Now())
	if f.IsBlockedWalletType {
		t.Fatalf("blocked wallet flagged on a non-wallet transaction")
	}
}

func TestDeriveFactsRestrictedMCC(t *testing.T) {
	t.Parallel()

	if f := DeriveFacts(Transaction{MerchantCategory: "7995"}, time.Now()); !f.IsRestrictedMCC {
		t.Fatalf("gambling MCC not restricted")
	}
	if f := DeriveFacts(Transaction{MerchantCategory: "5411"}, time.Now()); f.IsRestrictedMCC {
		t.Fatalf("grocery MCC restricted")
	}
}

func TestRefundPolicyForMerchant(t *testing.T) {
	t.Parallel()

	policy, ok := RefundPolicyForMerchant("META PLATFORMS IRELAND")
	if !ok {
		t.Fatalf("meta descriptor not matched")
	}
	if policy.RefundWindowDays != 7 {
		t.Fatalf("RefundWindowDays = %d", policy.RefundWindowDays)
	}
	if _, ok := RefundPolicyForMerchant(""); ok {
		t.Fatalf("empty merchant name matched a refund policy")
	}
	if !IsRefundReliableMerchant("facebook ads") {
		t.Fatalf("facebook descriptor not matched")
	}
}
