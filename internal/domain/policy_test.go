package domain

import (
	"strings"
	"testing"
	"time"
)

func usd(v float64) *float64 { return &v }

func baseInput() PolicyInput {
	return PolicyInput{
		TransactionID: "txn-1",
		DisputeID:     "dsp-1",
		Facts: Facts{
			BaseAmountUSD:        usd(180),
			RemainingAmountUSD:   180,
			DaysSinceTransaction: 10,
			Settled:              true,
		},
		ReasonCode:  ReasonNotReceived,
		Evidence:    EvidenceCheck{Sufficient: true},
		Fingerprint: "fp-test",
	}
}

func TestEvaluateWriteoffOutranksHardBlocks(t *testing.T) {
	t.Parallel()

	// A minor amount closes with a permanent credit even when a hard
	// block would otherwise apply.
	in := baseInput()
	in.Facts.BaseAmountUSD = usd(12.50)
	in.Facts.RemainingAmountUSD = 0
	in.Facts.RefundReceived = true
	in.Facts.DaysSinceTransaction = 400

	d := Evaluate(in)
	if d.Kind != DecisionApproveWriteoff {
		t.Fatalf("Kind = %q, want %q", d.Kind, DecisionApproveWriteoff)
	}
	if d.Audit.MatchedRuleID != "R01_writeoff_minor_amount" {
		t.Fatalf("MatchedRuleID = %q", d.Audit.MatchedRuleID)
	}
	if !hasAction(d, ActionIssuePermanentCredit) {
		t.Fatalf("actions %v missing permanent credit", d.NextActions)
	}
}

func TestEvaluateHardBlocks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(*PolicyInput)
		wantRule string
	}{
		{
			name: "fully refunded",
			mutate: func(in *PolicyInput) {
				in.Facts.RefundReceived = true
				in.Facts.RemainingAmountUSD = 0
			},
			wantRule: "B01_fully_refunded",
		},
		{
			name: "secured wallet",
			mutate: func(in *PolicyInput) {
				in.Facts.IsWallet = true
				in.Facts.IsBlockedWalletType = true
				in.Facts.IsSecuredOTP = true
			},
			wantRule: "B02_secured_wallet",
		},
		{
			name: "filing window expired",
			mutate: func(in *PolicyInput) {
				in.Facts.DaysSinceTransaction = MaxDisputeAgeDays + 1
			},
			wantRule: "B03_filing_window_expired",
		},
		{
			name: "unsettled and stale",
			mutate: func(in *PolicyInput) {
				in.Facts.Settled = false
				in.Facts.DaysSinceTransaction = MaxUnsettledAgeDays + 1
			},
			wantRule: "B04_unsettled_stale",
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			in := baseInput()
			tc.mutate(&in)
			d := Evaluate(in)
			if d.Kind != DecisionDeclineNotEligible {
				t.Fatalf("Kind = %q, want decline", d.Kind)
			}
			if d.Audit.MatchedRuleID != tc.wantRule {
				t.Fatalf("MatchedRuleID = %q, want %q", d.Audit.MatchedRuleID, tc.wantRule)
			}
			if hasAction(d, ActionFileWithNetwork) || hasAction(d, ActionIssueTempCredit) {
				t.Fatalf("decline must not file or credit: %v", d.NextActions)
			}
		})
	}
}

func TestEvaluateWaitForSettlement(t *testing.T) {
	t.Parallel()

	in := baseInput()
	in.Facts.Settled = false
	in.Facts.DaysSinceTransaction = 2

	d := Evaluate(in)
	if d.Kind != DecisionWaitForSettlement {
		t.Fatalf("Kind = %q", d.Kind)
	}
	if !hasAction(d, ActionScheduleRecheck) {
		t.Fatalf("actions %v missing schedule_recheck", d.NextActions)
	}
}

func TestEvaluateMerchantRefundFirst(t *testing.T) {
	t.Parallel()

	in := baseInput()
	in.MerchantName = "FACEBOOK ADS *9X2"
	in.Facts.IsRefundReliable = true
	days := 3
	in.Facts.DaysSinceSettlement = &days

	d := Evaluate(in)
	if d.Kind != DecisionRequestMerchantRefund {
		t.Fatalf("Kind = %q", d.Kind)
	}
	if !hasAction(d, ActionMerchantRefundTask) {
		t.Fatalf("actions = %v", d.NextActions)
	}

	// Outside the per-merchant window the rule no longer applies.
	stale := 30
	in.Facts.DaysSinceSettlement = &stale
	d = Evaluate(in)
	if d.Kind == DecisionRequestMerchantRefund {
		t.Fatalf("refund-first applied outside the window")
	}
}

func TestEvaluateRestrictedMCCWithholdsTempCredit(t *testing.T) {
	t.Parallel()

	in := baseInput()
	in.Facts.IsRestrictedMCC = true

	d := Evaluate(in)
	if d.Kind != DecisionFileChargeback {
		t.Fatalf("Kind = %q", d.Kind)
	}
	if hasAction(d, ActionIssueTempCredit) {
		t.Fatalf("restricted MCC must not receive temporary credit")
	}

	in.Evidence = EvidenceCheck{Sufficient: false, Missing: []string{DocInvoice}}
	d = Evaluate(in)
	if d.Kind != DecisionManualReview {
		t.Fatalf("insufficient evidence: Kind = %q", d.Kind)
	}
}

func TestEvaluateSecuredOTPUnauthorizedConflict(t *testing.T) {
	t.Parallel()

	in := baseInput()
	in.Facts.IsSecuredOTP = true
	in.ReasonCode = ReasonUnauthorized

	d := Evaluate(in)
	if d.Kind != DecisionManualReview {
		t.Fatalf("Kind = %q, want manual review", d.Kind)
	}
	if !hasFlag(d, "otp_conflict") {
		t.Fatalf("flags = %v, want otp_conflict", d.Flags)
	}
	if hasAction(d, ActionFileWithNetwork) {
		t.Fatalf("conflicting signals must never auto-file")
	}
}

func TestEvaluateSecuredOTPFilesWithTempCredit(t *testing.T) {
	t.Parallel()

	in := baseInput()
	in.Facts.IsSecuredOTP = true

	d := Evaluate(in)
	if d.Kind != DecisionFileChargebackTempCredit {
		t.Fatalf("Kind = %q", d.Kind)
	}
	for _, want := range []ActionKind{ActionCreateDispute, ActionIssueTempCredit, ActionFileWithNetwork} {
		if !hasAction(d, want) {
			t.Fatalf("actions %v missing %q", d.NextActions, want)
		}
	}
}

func TestEvaluateWalletBranches(t *testing.T) {
	t.Parallel()

	in := baseInput()
	in.Facts.IsWallet = true
	d := Evaluate(in)
	if d.Kind != DecisionFileChargeback {
		t.Fatalf("unsecured wallet: Kind = %q", d.Kind)
	}
	if hasAction(d, ActionIssueTempCredit) {
		t.Fatalf("unsecured wallet must not receive temporary credit")
	}

	// Secured wallet that escaped the B02 provider list still earns credit,
	// but only when the reason is not unauthorized (R05 runs first).
	in.Facts.IsSecuredOTP = true
	in.Facts.IsBlockedWalletType = false
	d = Evaluate(in)
	if d.Kind != DecisionFileChargebackTempCredit {
		t.Fatalf("secured wallet: Kind = %q (rule %s)", d.Kind, d.Audit.MatchedRuleID)
	}
}

func TestEvaluateSubscriptionGraceWindow(t *testing.T) {
	t.Parallel()

	in := baseInput()
	in.ReasonCode = ReasonSubscriptionCancelled
	in.EvidenceItems = []EvidenceItem{{Key: DocCancellationProof, IsValid: true}}
	in.Facts.DaysSinceTransaction = 10

	d := Evaluate(in)
	if d.Kind != DecisionFileChargebackTempCredit {
		t.Fatalf("inside grace window: Kind = %q", d.Kind)
	}

	in.Facts.DaysSinceTransaction = CancellationGraceDays + 1
	d = Evaluate(in)
	if d.Kind != DecisionFileChargeback {
		t.Fatalf("outside grace window: Kind = %q", d.Kind)
	}
	if hasAction(d, ActionIssueTempCredit) {
		t.Fatalf("no temporary credit outside the grace window")
	}
}

func TestEvaluateDocumentRequestCarriesMissingList(t *testing.T) {
	t.Parallel()

	in := baseInput()
	in.ReasonCode = ReasonNotReceived
	in.Evidence = EvidenceCheck{Sufficient: false, Missing: []string{DocInvoice, DocTrackingProof}}

	d := Evaluate(in)
	if d.Kind != DecisionManualReview {
		t.Fatalf("Kind = %q", d.Kind)
	}
	if !hasAction(d, ActionRequestDocuments) {
		t.Fatalf("actions = %v", d.NextActions)
	}
	if len(d.MissingDocuments) != 2 || d.MissingDocuments[0] != DocInvoice {
		t.Fatalf("MissingDocuments = %v", d.MissingDocuments)
	}
}

func TestEvaluateDefaultManualReview(t *testing.T) {
	t.Parallel()

	in := baseInput()
	in.ReasonCode = "" // unrecognized reason falls through every reason rule
	d := Evaluate(in)
	if d.Kind != DecisionManualReview {
		t.Fatalf("Kind = %q", d.Kind)
	}
	if d.Audit.MatchedRuleID != "R99_default_manual_review" {
		t.Fatalf("MatchedRuleID = %q", d.Audit.MatchedRuleID)
	}
}

func TestEvaluatePolicyCodeAndAuditTrail(t *testing.T) {
	t.Parallel()

	in := baseInput()
	in.Facts.IsSecuredOTP = true
	d := Evaluate(in)

	wantPrefix := PolicyEngineVersion + "/"
	if !strings.HasPrefix(d.PolicyCode, wantPrefix) {
		t.Fatalf("PolicyCode = %q, want prefix %q", d.PolicyCode, wantPrefix)
	}
	if d.Audit.InputFingerprint != in.Fingerprint {
		t.Fatalf("audit fingerprint = %q", d.Audit.InputFingerprint)
	}
	// The trail records every rule considered up to and including the match.
	last := d.Audit.EvaluatedRuleIDs[len(d.Audit.EvaluatedRuleIDs)-1]
	if last != d.Audit.MatchedRuleID {
		t.Fatalf("trail ends with %q, matched %q", last, d.Audit.MatchedRuleID)
	}
}

func TestPolicyRulesDefaultAlwaysMatches(t *testing.T) {
	t.Parallel()

	rules := PolicyRules()
	last := rules[len(rules)-1]
	if last.ID != "R99_default_manual_review" {
		t.Fatalf("last rule = %q", last.ID)
	}
	if !last.When(PolicyInput{}) {
		t.Fatalf("default rule must match every input")
	}
}

func TestDeriveFactsFeedsEvaluate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	txn := Transaction{
		TransactionID:     "txn-otp",
		Amount:            180,
		Currency:          "USD",
		SecuredIndication: "OTP_VERIFIED",
		Settled:           true,
		OccurredAt:        now.AddDate(0, 0, -10),
	}
	facts := DeriveFacts(txn, now)
	in := baseInput()
	in.Facts = facts

	d := Evaluate(in)
	if d.Kind != DecisionFileChargebackTempCredit {
		t.Fatalf("Kind = %q (rule %s)", d.Kind, d.Audit.MatchedRuleID)
	}
}

func hasAction(d Decision, want ActionKind) bool {
	for _, a := range d.NextActions {
		if a == want {
			return true
		}
	}
	return false
}

func hasFlag(d Decision, want string) bool {
	for _, f := range d.Flags {
		if f == want {
			return true
		}
	}
	return false
}
