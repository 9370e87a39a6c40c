package domain

import "fmt"

// PolicyEngineVersion prefixes every policy code so persisted decisions stay
// attributable to the rule table that produced them.
const PolicyEngineVersion = "CBE-v1"

// Thresholds used by the rule table. Amounts are USD, ages are whole days.
const (
	// WriteoffThresholdUSD is a cost-of-collection bar, not an eligibility
	// judgment; it outranks everything including hard blocks.
	WriteoffThresholdUSD = 25.0
	// MaxDisputeAgeDays is the network filing window.
	MaxDisputeAgeDays = 120
	// MaxUnsettledAgeDays declines transactions that never settled and are
	// past the point where settlement could still arrive.
	MaxUnsettledAgeDays = 15
	// WaitForSettlementDays is the fresh-transaction window during which the
	// engine schedules a recheck instead of deciding.
	WaitForSettlementDays = 5
	// CancellationGraceDays is the window after a cancelled subscription
	// charge during which temporary credit is granted up front.
	CancellationGraceDays = 30
)

// PolicyInput is everything the rule table sees. Evaluation is a pure
// function of this value; persistence and idempotency are the caller's job.
type PolicyInput struct {
	TransactionID string
	DisputeID     string
	MerchantName  string
	Facts         Facts
	ReasonCode    string
	CustomReason  string
	Evidence      EvidenceCheck
	EvidenceItems []EvidenceItem
	Fingerprint   string
}

// PolicyRule is one row of the decision table. Rules run top to bottom and
// the first matching rule wins; later rules may assume earlier ones did not
// match. Keeping the order in a slice makes it visible and testable instead
// of buried in control flow.
type PolicyRule struct {
	ID    string
	When  func(in PolicyInput) bool
	Build func(in PolicyInput) Decision
}

// PolicyRules returns the ordered rule table. The final rule always matches.
func PolicyRules() []PolicyRule {
	return []PolicyRule{
		{
			// Cost-of-collection writeoff. Evaluated before the hard blocks
			// on purpose: a minor amount is closed with a permanent credit
			// no matter what else is true of the transaction.
			ID: "R01_writeoff_minor_amount",
			When: func(in PolicyInput) bool {
				return in.Facts.BaseAmountUSD != nil && *in.Facts.BaseAmountUSD < WriteoffThresholdUSD
			},
			Build: func(in PolicyInput) Decision {
				return build(in, DecisionApproveWriteoff,
					fmt.Sprintf("amount below %.2f USD writeoff threshold; issuing permanent credit and closing", WriteoffThresholdUSD),
					[]string{"writeoff"},
					ActionIssuePermanentCredit, ActionLogActivity)
			},
		},
		{
			ID: "B01_fully_refunded",
			When: func(in PolicyInput) bool {
				return in.Facts.RefundReceived && in.Facts.BaseAmountUSD != nil && in.Facts.RemainingAmountUSD == 0
			},
			Build: func(in PolicyInput) Decision {
				return build(in, DecisionDeclineNotEligible,
					"merchant refund already covers the full amount; nothing remains owed",
					[]string{"hard_block", "fully_refunded"},
					ActionLogActivity)
			},
		},
		{
			ID: "B02_secured_wallet",
			When: func(in PolicyInput) bool {
				return in.Facts.IsBlockedWalletType && in.Facts.IsSecuredOTP
			},
			Build: func(in PolicyInput) Decision {
				return build(in, DecisionDeclineNotEligible,
					"wallet transaction carried cardholder-present authentication, which undermines the dispute basis",
					[]string{"hard_block", "secured_wallet"},
					ActionLogActivity)
			},
		},
		{
			ID: "B03_filing_window_expired",
			When: func(in PolicyInput) bool {
				return in.Facts.DaysSinceTransaction > MaxDisputeAgeDays
			},
			Build: func(in PolicyInput) Decision {
				return build(in, DecisionDeclineNotEligible,
					fmt.Sprintf("transaction is older than the %d day filing window", MaxDisputeAgeDays),
					[]string{"hard_block", "too_old"},
					ActionLogActivity)
			},
		},
		{
			ID: "B04_unsettled_stale",
			When: func(in PolicyInput) bool {
				return !in.Facts.Settled && in.Facts.DaysSinceTransaction > MaxUnsettledAgeDays
			},
			Build: func(in PolicyInput) Decision {
				return build(in, DecisionDeclineNotEligible,
					fmt.Sprintf("unsettled for more than %d days; authorization will expire on its own", MaxUnsettledAgeDays),
					[]string{"hard_block", "unsettled_stale"},
					ActionLogActivity)
			},
		},
		{
			ID: "R02_wait_for_settlement",
			When: func(in PolicyInput) bool {
				return !in.Facts.Settled && in.Facts.DaysSinceTransaction <= WaitForSettlementDays
			},
			Build: func(in PolicyInput) Decision {
				return build(in, DecisionWaitForSettlement,
					"transaction has not settled yet; rechecking after the settlement window",
					[]string{"pending_settlement"},
					ActionScheduleRecheck, ActionLogActivity)
			},
		},
		{
			ID: "R03_merchant_refund_first",
			When: func(in PolicyInput) bool {
				if !in.Facts.IsRefundReliable || !in.Facts.Settled || in.Facts.DaysSinceSettlement == nil {
					return false
				}
				// Window length comes from the per-merchant policy table.
				policy, ok := RefundPolicyForMerchant(in.MerchantName)
				if !ok {
					return false
				}
				return *in.Facts.DaysSinceSettlement <= policy.RefundWindowDays
			},
			Build: func(in PolicyInput) Decision {
				return build(in, DecisionRequestMerchantRefund,
					"merchant reliably refunds on direct request inside its settlement window; requesting refund before filing",
					[]string{"refund_reliable_merchant"},
					ActionMerchantRefundTask, ActionLogActivity)
			},
		},
		{
			ID: "R04_restricted_mcc",
			When: func(in PolicyInput) bool {
				return in.Facts.IsRestrictedMCC
			},
			Build: func(in PolicyInput) Decision {
				if !in.Evidence.Sufficient {
					return buildManual(in, "high-risk merchant category with insufficient evidence", []string{"restricted_mcc"})
				}
				return build(in, DecisionFileChargeback,
					"high-risk merchant category; filing without temporary credit",
					[]string{"restricted_mcc", "no_temp_credit"},
					ActionCreateDispute, ActionFileWithNetwork, ActionLogActivity)
			},
		},
		{
			ID: "R05_secured_otp",
			When: func(in PolicyInput) bool {
				return in.Facts.IsSecuredOTP
			},
			Build: func(in PolicyInput) Decision {
				if in.ReasonCode == ReasonUnauthorized {
					// An OTP-verified charge claimed as unauthorized is a
					// logical contradiction; it must never auto-file.
					return buildManual(in, "OTP-verified transaction disputed as unauthorized; conflicting signals require review", []string{"otp_conflict"})
				}
				if !in.Evidence.Sufficient {
					return buildManual(in, "secured transaction with insufficient evidence", []string{"secured"})
				}
				return build(in, DecisionFileChargebackTempCredit,
					"secured transaction with sufficient evidence; filing with temporary credit",
					[]string{"secured"},
					ActionCreateDispute, ActionIssueTempCredit, ActionFileWithNetwork, ActionLogActivity)
			},
		},
		{
			ID: "R06_manual_entry",
			When: func(in PolicyInput) bool {
				return in.Facts.IsMagstripe
			},
			Build: func(in PolicyInput) Decision {
				if !in.Evidence.Sufficient {
					return buildManual(in, "magstripe or key-entered transaction with insufficient evidence", []string{"manual_entry"})
				}
				return build(in, DecisionFileChargeback,
					"magstripe or key-entered transaction; filing without temporary credit",
					[]string{"manual_entry", "no_temp_credit"},
					ActionCreateDispute, ActionFileWithNetwork, ActionLogActivity)
			},
		},
		{
			ID: "R07_wallet",
			When: func(in PolicyInput) bool {
				return in.Facts.IsWallet
			},
			Build: func(in PolicyInput) Decision {
				if !in.Evidence.Sufficient {
					return buildManual(in, "wallet transaction with insufficient evidence", []string{"wallet"})
				}
				// Secured wallets that were not hard-blocked still carry the
				// stronger authorization signal and earn temporary credit.
				if in.Facts.IsSecuredOTP {
					return build(in, DecisionFileChargebackTempCredit,
						"secured wallet transaction; filing with temporary credit",
						[]string{"wallet", "secured"},
						ActionCreateDispute, ActionIssueTempCredit, ActionFileWithNetwork, ActionLogActivity)
				}
				return build(in, DecisionFileChargeback,
					"wallet transaction without secured indication; filing without temporary credit",
					[]string{"wallet", "no_temp_credit"},
					ActionCreateDispute, ActionFileWithNetwork, ActionLogActivity)
			},
		},
		{
			ID: "R08_subscription_cancelled",
			When: func(in PolicyInput) bool {
				return in.ReasonCode == ReasonSubscriptionCancelled &&
					HasValidEvidence(in.EvidenceItems, DocCancellationProof, DocRefundPromise)
			},
			Build: func(in PolicyInput) Decision {
				if in.Facts.DaysSinceTransaction <= CancellationGraceDays {
					return build(in, DecisionFileChargebackTempCredit,
						"charge after documented cancellation inside the grace window; filing with temporary credit",
						[]string{"subscription"},
						ActionCreateDispute, ActionIssueTempCredit, ActionFileWithNetwork, ActionLogActivity)
				}
				return build(in, DecisionFileChargeback,
					"charge after documented cancellation outside the grace window; filing without temporary credit",
					[]string{"subscription", "no_temp_credit"},
					ActionCreateDispute, ActionFileWithNetwork, ActionLogActivity)
			},
		},
		{
			ID: "R09_not_received",
			When: func(in PolicyInput) bool {
				return in.ReasonCode == ReasonNotReceived
			},
			Build: func(in PolicyInput) Decision {
				if !in.Evidence.Sufficient {
					return buildDocumentRequest(in, "goods-not-received claim missing required documents")
				}
				return build(in, DecisionFileChargebackTempCredit,
					"goods not received with invoice and tracking proof; filing with temporary credit",
					[]string{"not_received"},
					ActionCreateDispute, ActionIssueTempCredit, ActionFileWithNetwork, ActionLogActivity)
			},
		},
		{
			ID: "R10_quality_issue",
			When: func(in PolicyInput) bool {
				return in.ReasonCode == ReasonQualityIssue
			},
			Build: func(in PolicyInput) Decision {
				if !in.Evidence.Sufficient {
					return buildDocumentRequest(in, "quality-issue claim missing required documents")
				}
				return build(in, DecisionFileChargebackTempCredit,
					"documented quality issue; filing with temporary credit",
					[]string{"quality_issue"},
					ActionCreateDispute, ActionIssueTempCredit, ActionFileWithNetwork, ActionLogActivity)
			},
		},
		{
			ID: "R11_duplicate_or_incorrect_amount",
			When: func(in PolicyInput) bool {
				return in.ReasonCode == ReasonDuplicate || in.ReasonCode == ReasonIncorrectAmount
			},
			Build: func(in PolicyInput) Decision {
				if !in.Evidence.Sufficient {
					return buildDocumentRequest(in, "duplicate or incorrect-amount claim missing required documents")
				}
				return build(in, DecisionFileChargeback,
					"documented duplicate or incorrect amount; filing without temporary credit",
					[]string{"billing_error", "no_temp_credit"},
					ActionCreateDispute, ActionFileWithNetwork, ActionLogActivity)
			},
		},
		{
			ID: "R12_unauthorized",
			When: func(in PolicyInput) bool {
				return in.ReasonCode == ReasonUnauthorized
			},
			Build: func(in PolicyInput) Decision {
				if !in.Evidence.Sufficient {
					return buildManual(in, "unauthorized claim without supporting declaration", []string{"unauthorized"})
				}
				return build(in, DecisionFileChargebackTempCredit,
					"unauthorized transaction without secured indication; filing with temporary credit",
					[]string{"unauthorized"},
					ActionCreateDispute, ActionIssueTempCredit, ActionFileWithNetwork, ActionLogActivity)
			},
		},
		{
			ID:   "R99_default_manual_review",
			When: func(PolicyInput) bool { return true },
			Build: func(in PolicyInput) Decision {
				return buildManual(in, "no policy rule matched; routing to manual review", nil)
			},
		},
	}
}

// Evaluate runs the ordered table and returns the first match's decision
// with the rationale trail of every rule considered along the way.
func Evaluate(in PolicyInput) Decision {
	evaluated := make([]string, 0, 8)
	for _, rule := range PolicyRules() {
		evaluated = append(evaluated, rule.ID)
		if !rule.When(in) {
			continue
		}
		decision := rule.Build(in)
		decision.PolicyCode = PolicyEngineVersion + "/" + rule.ID
		decision.Audit = DecisionAudit{
			MatchedRuleID:    rule.ID,
			EvaluatedRuleIDs: evaluated,
			InputFingerprint: in.Fingerprint,
			FactsSnapshot:    in.Facts,
		}
		return decision
	}
	// Unreachable: the default rule always matches.
	panic("policy table has no matching rule")
}

func build(in PolicyInput, kind DecisionKind, summary string, flags []string, actions ...ActionKind) Decision {
	return Decision{
		TransactionID:      in.TransactionID,
		DisputeID:          in.DisputeID,
		Kind:               kind,
		ReasonSummary:      summary,
		Flags:              flags,
		NextActions:        actions,
		BaseAmountUSD:      in.Facts.BaseAmountUSD,
		RemainingAmountUSD: in.Facts.RemainingAmountUSD,
		InputFingerprint:   in.Fingerprint,
	}
}

func buildManual(in PolicyInput, summary string, flags []string) Decision {
	return build(in, DecisionManualReview, summary, append(flags, "manual_review"),
		ActionEnqueueManualReview, ActionLogActivity)
}

func buildDocumentRequest(in PolicyInput, summary string) Decision {
	d := build(in, DecisionManualReview, summary, []string{"insufficient_evidence", "manual_review"},
		ActionRequestDocuments, ActionEnqueueManualReview, ActionLogActivity)
	d.MissingDocuments = in.Evidence.Missing
	return d
}
