package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/domain"
)

// Evaluate runs the policy table over a disputed transaction. Re-evaluating
// an identical input set returns the already-persisted decision and performs
// no side effects.
func (s *Service) Evaluate(ctx context.Context, actor Actor, input EvaluateInput) (domain.Decision, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.Decision{}, domain.ErrUnauthorized
	}
	txnID := strings.TrimSpace(input.TransactionID)
	disputeID := strings.TrimSpace(input.DisputeID)
	if txnID == "" || disputeID == "" {
		return domain.Decision{}, domain.ErrInvalidInput
	}
	for _, item := range input.EvidenceItems {
		if !domain.IsKnownDocumentKey(item.Key) {
			return domain.Decision{}, domain.ErrUnknownDocumentKey
		}
	}

	txn, err := s.transactions.GetByID(ctx, txnID)
	if err != nil {
		return domain.Decision{}, err
	}
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return domain.Decision{}, err
	}
	if dispute.TransactionID != txn.TransactionID {
		return domain.Decision{}, domain.ErrInvalidInput
	}
	now := s.nowFn()
	facts := domain.DeriveFacts(txn, now)
	check := domain.CheckEvidence(dispute.ReasonCode, input.EvidenceItems)
	fingerprint := domain.FingerprintInputs(facts, dispute.ReasonCode, dispute.CustomReason, input.EvidenceItems, check)

	if existing, err := s.decisions.GetByFingerprint(ctx, txnID, fingerprint); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Decision{}, err
	}

	decision := domain.Evaluate(domain.PolicyInput{
		TransactionID: txnID,
		DisputeID:     disputeID,
		MerchantName:  txn.MerchantName,
		Facts:         facts,
		ReasonCode:    domain.NormalizeReasonCode(dispute.ReasonCode),
		CustomReason:  dispute.CustomReason,
		Evidence:      check,
		EvidenceItems: input.EvidenceItems,
		Fingerprint:   fingerprint,
	})
	decision.DecisionID = uuid.NewString()
	decision.CreatedAt = now

	if err := s.decisions.Insert(ctx, decision); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Lost the race against a concurrent identical evaluation; the
			// winner's row is the decision and its side effects are theirs.
			return s.decisions.GetByFingerprint(ctx, txnID, fingerprint)
		}
		return domain.Decision{}, err
	}

	// Snapshot the evidence on the dispute so scheduled rechecks can re-run
	// the same evaluation without a fresh submission.
	dispute.Evidence = input.EvidenceItems
	dispute.Status = disputeStatusForDecision(decision.Kind)
	dispute.UpdatedAt = now
	if err := s.disputes.Update(ctx, dispute); err != nil {
		s.recordFailedAction(ctx, txnID, "persist_dispute_status", err)
	}

	s.appendAudit(ctx, txnID, "decision_recorded", actor.SubjectID, decision.PolicyCode+": "+decision.ReasonSummary, txn.Network, now)
	_ = s.enqueueDecisionRecorded(ctx, actor, decision)

	s.dispatchActions(ctx, actor, txn, dispute, decision)
	return decision, nil
}

// Reevaluate re-runs evaluation from the dispute's stored evidence snapshot.
// Used by scheduled rechecks and consumed recheck events.
func (s *Service) Reevaluate(ctx context.Context, transactionID string) (domain.Decision, error) {
	dispute, err := s.disputes.GetActiveByTransactionID(ctx, strings.TrimSpace(transactionID))
	if err != nil {
		return domain.Decision{}, err
	}
	return s.Evaluate(ctx, Actor{SubjectID: "system", Role: "admin"}, EvaluateInput{
		TransactionID: transactionID,
		DisputeID:     dispute.DisputeID,
		EvidenceItems: dispute.Evidence,
	})
}

// ListDecisions returns the persisted decision history for a transaction.
func (s *Service) ListDecisions(ctx context.Context, actor Actor, transactionID string) ([]domain.Decision, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return nil, domain.ErrUnauthorized
	}
	if strings.TrimSpace(transactionID) == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.decisions.ListByTransaction(ctx, strings.TrimSpace(transactionID))
}

func disputeStatusForDecision(kind domain.DecisionKind) string {
	switch kind {
	case domain.DecisionFileChargeback, domain.DecisionFileChargebackTempCredit:
		return domain.DisputeStatusChargebackFiled
	case domain.DecisionManualReview:
		return domain.DisputeStatusManualReview
	case domain.DecisionWaitForSettlement:
		return domain.DisputeStatusAwaitingSettlement
	case domain.DecisionRequestMerchantRefund:
		return domain.DisputeStatusRefundRequested
	case domain.DecisionApproveWriteoff:
		return domain.DisputeStatusWrittenOff
	case domain.DecisionDeclineNotEligible:
		return domain.DisputeStatusDeclined
	default:
		return domain.DisputeStatusEvaluated
	}
}

func (s *Service) appendAudit(ctx context.Context, transactionID, action, performedBy, note, network string, at time.Time) {
	if s.auditLogs == nil {
		return
	}
	if performedBy == "system" {
		performedBy = ""
	}
	_ = s.auditLogs.Append(ctx, domain.AuditEntry{
		AuditID:       uuid.NewString(),
		TransactionID: transactionID,
		Action:        action,
		PerformedBy:   performedBy,
		PerformedAt:   at,
		Note:          note,
		Network:       network,
	})
}
