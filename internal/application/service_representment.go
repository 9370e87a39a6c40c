package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/ports"
)

// MerchantContested moves a filed chargeback into representment when the
// merchant fights back. The record is flagged for attention until an admin
// acts on it.
func (s *Service) MerchantContested(ctx context.Context, transactionID, merchantReason, evidenceRef string) error {
	txn, rec, err := s.loadRepresentment(ctx, transactionID)
	if err != nil {
		return err
	}
	if txn.DisputeStatus != domain.DisputeStatusChargebackFiled {
		return domain.ErrInvalidStateTransition
	}
	if err := domain.ValidateRepresentmentTransition(rec.Status, domain.RepresentmentPending); err != nil {
		return err
	}
	from := rec.Status
	now := s.nowFn()
	rec.Status = domain.RepresentmentPending
	rec.MerchantReason = strings.TrimSpace(merchantReason)
	rec.MerchantEvidenceRef = strings.TrimSpace(evidenceRef)
	rec.NeedsAttention = true
	rec.UpdatedAt = now
	if err := s.representments.UpdateFromStatus(ctx, rec, from); err != nil {
		return err
	}
	actor := Actor{SubjectID: "system"}
	s.appendAudit(ctx, txn.TransactionID, "representment_opened", "", rec.MerchantReason, txn.Network, now)
	_ = s.enqueueRepresentmentUpdated(ctx, actor, txn.TransactionID, from, rec.Status)
	return nil
}

// MerchantAccepted closes the case in the customer's favor when the merchant
// concedes instead of contesting. No representment ever opens; any temporary
// credit silently becomes final.
func (s *Service) MerchantAccepted(ctx context.Context, transactionID string) error {
	txn, rec, err := s.loadRepresentment(ctx, transactionID)
	if err != nil {
		return err
	}
	if rec.Status != domain.RepresentmentNone {
		return domain.TransitionError(rec.Status, domain.RepresentmentNone)
	}
	now := s.nowFn()
	rec.NeedsAttention = false
	rec.UpdatedAt = now
	if err := s.representments.UpdateFromStatus(ctx, rec, domain.RepresentmentNone); err != nil {
		return err
	}
	txn.DisputeStatus = domain.DisputeStatusResolvedWon
	txn.UpdatedAt = now
	if err := s.transactions.Update(ctx, txn); err != nil {
		return err
	}
	s.appendAudit(ctx, txn.TransactionID, "merchant_accepted", "", "merchant accepted the chargeback; case closed in customer's favor", txn.Network, now)
	return nil
}

// AcceptRepresentment is the bank-admin decision that the merchant's evidence
// wins. The status swap happens first so that a raced second accept fails the
// compare-and-swap before it can touch the ledger; the credit reversal then
// runs exactly once.
func (s *Service) AcceptRepresentment(ctx context.Context, actor Actor, transactionID string) (domain.RepresentmentRecord, error) {
	txn, rec, err := s.requireBankAdmin(ctx, actor, transactionID)
	if err != nil {
		return domain.RepresentmentRecord{}, err
	}
	if err := domain.ValidateRepresentmentTransition(rec.Status, domain.RepresentmentAcceptedByBank); err != nil {
		return domain.RepresentmentRecord{}, err
	}
	from := rec.Status
	now := s.nowFn()
	rec.Status = domain.RepresentmentAcceptedByBank
	rec.NeedsAttention = false
	rec.UpdatedAt = now
	if err := s.representments.UpdateFromStatus(ctx, rec, from); err != nil {
		return domain.RepresentmentRecord{}, err
	}
	if err := s.reverseTempCreditOnce(ctx, actor, &txn, &rec); err != nil {
		// The acceptance stands; the reversal failure is queued for an
		// operator rather than rolled back.
		s.recordFailedAction(ctx, txn.TransactionID, "reverse_temp_credit", err)
	} else if rec.CreditReversedAt != nil {
		_ = s.representments.UpdateFromStatus(ctx, rec, rec.Status)
	}
	txn.DisputeStatus = domain.DisputeStatusResolvedLost
	txn.UpdatedAt = now
	if err := s.transactions.Update(ctx, txn); err != nil {
		// The status swap has already committed; queue the stranded
		// transaction row for an operator instead of failing the call.
		s.recordFailedAction(ctx, txn.TransactionID, "persist_dispute_status", err)
	}
	s.appendAudit(ctx, txn.TransactionID, "representment_accepted", actor.SubjectID, rec.MerchantReason, txn.Network, now)
	_ = s.enqueueRepresentmentUpdated(ctx, actor, txn.TransactionID, from, rec.Status)
	return rec, nil
}

// RejectRepresentment is the bank-admin decision that the merchant's evidence
// loses. Temporary credit, if any, stays with the customer.
func (s *Service) RejectRepresentment(ctx context.Context, actor Actor, transactionID string) (domain.RepresentmentRecord, error) {
	txn, rec, err := s.requireBankAdmin(ctx, actor, transactionID)
	if err != nil {
		return domain.RepresentmentRecord{}, err
	}
	if err := domain.ValidateRepresentmentTransition(rec.Status, domain.RepresentmentRejectedByBank); err != nil {
		return domain.RepresentmentRecord{}, err
	}
	from := rec.Status
	now := s.nowFn()
	rec.Status = domain.RepresentmentRejectedByBank
	rec.NeedsAttention = false
	rec.UpdatedAt = now
	if err := s.representments.UpdateFromStatus(ctx, rec, from); err != nil {
		return domain.RepresentmentRecord{}, err
	}
	txn.DisputeStatus = domain.DisputeStatusResolvedWon
	txn.UpdatedAt = now
	if err := s.transactions.Update(ctx, txn); err != nil {
		s.recordFailedAction(ctx, txn.TransactionID, "persist_dispute_status", err)
	}
	s.appendAudit(ctx, txn.TransactionID, "representment_rejected", actor.SubjectID, "", txn.Network, now)
	_ = s.enqueueRepresentmentUpdated(ctx, actor, txn.TransactionID, from, rec.Status)
	return rec, nil
}

// RequestCustomerInfo parks a pending representment while the customer is
// asked to counter the merchant's evidence.
func (s *Service) RequestCustomerInfo(ctx context.Context, actor Actor, transactionID, notes string) (domain.RepresentmentRecord, error) {
	txn, rec, err := s.requireBankAdmin(ctx, actor, transactionID)
	if err != nil {
		return domain.RepresentmentRecord{}, err
	}
	if err := domain.ValidateRepresentmentTransition(rec.Status, domain.RepresentmentAwaitingCustomerInfo); err != nil {
		return domain.RepresentmentRecord{}, err
	}
	from := rec.Status
	now := s.nowFn()
	rec.Status = domain.RepresentmentAwaitingCustomerInfo
	rec.NeedsAttention = false
	rec.UpdatedAt = now
	if err := s.representments.UpdateFromStatus(ctx, rec, from); err != nil {
		return domain.RepresentmentRecord{}, err
	}
	txn.DisputeStatus = domain.DisputeStatusAwaitingCustomerInfo
	txn.UpdatedAt = now
	if err := s.transactions.Update(ctx, txn); err != nil {
		s.recordFailedAction(ctx, txn.TransactionID, "persist_dispute_status", err)
	}
	s.appendAudit(ctx, txn.TransactionID, "customer_info_requested", actor.SubjectID, strings.TrimSpace(notes), txn.Network, now)
	_ = s.enqueueRepresentmentUpdated(ctx, actor, txn.TransactionID, from, rec.Status)
	return rec, nil
}

// SubmitCustomerEvidence stores the customer's counter-evidence and renders
// an advisory sufficiency verdict. It never transitions the representment by
// itself; an admin decides whether to accept or escalate.
func (s *Service) SubmitCustomerEvidence(ctx context.Context, actor Actor, transactionID string, input CustomerEvidenceInput) (domain.EvidenceCheck, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.EvidenceCheck{}, domain.ErrUnauthorized
	}
	for _, item := range input.EvidenceItems {
		if !domain.IsKnownDocumentKey(item.Key) {
			return domain.EvidenceCheck{}, domain.ErrUnknownDocumentKey
		}
	}
	txn, rec, err := s.loadRepresentment(ctx, transactionID)
	if err != nil {
		return domain.EvidenceCheck{}, err
	}
	if rec.Status != domain.RepresentmentAwaitingCustomerInfo {
		return domain.EvidenceCheck{}, fmt.Errorf("%w: customer evidence is accepted only in %q, record is %q",
			domain.ErrInvalidStateTransition, domain.RepresentmentAwaitingCustomerInfo, rec.Status)
	}
	dispute, err := s.disputes.GetActiveByTransactionID(ctx, txn.TransactionID)
	if err != nil {
		return domain.EvidenceCheck{}, err
	}
	now := s.nowFn()
	dispute.Evidence = mergeEvidence(dispute.Evidence, input.EvidenceItems)
	dispute.UpdatedAt = now
	if err := s.disputes.Update(ctx, dispute); err != nil {
		return domain.EvidenceCheck{}, err
	}
	check := domain.CheckEvidence(dispute.ReasonCode, dispute.Evidence)
	verdict := "customer evidence sufficient"
	if !check.Sufficient {
		verdict = "customer evidence still missing: " + strings.Join(check.Missing, ",")
	}
	s.appendAudit(ctx, txn.TransactionID, "customer_evidence_received", actor.SubjectID, verdict, txn.Network, now)
	s.createTask(ctx, txn.TransactionID, domain.TaskKindManualReview, "review customer counter-evidence: "+verdict, now)
	return check, nil
}

// ProceedToPrearbitration escalates to the network after the customer's
// counter-evidence has been reviewed.
func (s *Service) ProceedToPrearbitration(ctx context.Context, actor Actor, transactionID string) (domain.RepresentmentRecord, error) {
	txn, rec, err := s.requireBankAdmin(ctx, actor, transactionID)
	if err != nil {
		return domain.RepresentmentRecord{}, err
	}
	if err := domain.ValidateRepresentmentTransition(rec.Status, domain.RepresentmentPrearbitrationFiled); err != nil {
		return domain.RepresentmentRecord{}, err
	}
	dispute, err := s.disputes.GetActiveByTransactionID(ctx, txn.TransactionID)
	if err != nil {
		return domain.RepresentmentRecord{}, err
	}
	from := rec.Status
	now := s.nowFn()
	rec.Status = domain.RepresentmentPrearbitrationFiled
	rec.NeedsAttention = false
	rec.UpdatedAt = now
	if err := s.representments.UpdateFromStatus(ctx, rec, from); err != nil {
		return domain.RepresentmentRecord{}, err
	}
	if s.filer != nil {
		err := s.callExternal(ctx, func(callCtx context.Context) error {
			return s.filer.FilePrearbitration(callCtx, ports.FilingRequest{
				TransactionID: txn.TransactionID,
				DisputeID:     dispute.DisputeID,
				Network:       txn.Network,
				ReasonCode:    dispute.ReasonCode,
				AmountUSD:     txn.Amount,
				Currency:      txn.Currency,
			})
		})
		if err != nil {
			s.recordFailedAction(ctx, txn.TransactionID, "file_prearbitration", err)
		}
	}
	txn.DisputeStatus = domain.DisputeStatusPrearbitrationPending
	txn.UpdatedAt = now
	if err := s.transactions.Update(ctx, txn); err != nil {
		s.recordFailedAction(ctx, txn.TransactionID, "persist_dispute_status", err)
	}
	s.appendAudit(ctx, txn.TransactionID, "prearbitration_filed", actor.SubjectID, "", txn.Network, now)
	_ = s.enqueueRepresentmentUpdated(ctx, actor, txn.TransactionID, from, rec.Status)
	return rec, nil
}

// GetRepresentment returns the workflow record for a transaction.
func (s *Service) GetRepresentment(ctx context.Context, actor Actor, transactionID string) (domain.RepresentmentRecord, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.RepresentmentRecord{}, domain.ErrUnauthorized
	}
	_, rec, err := s.loadRepresentment(ctx, transactionID)
	return rec, err
}

// ListAuditTrail returns the append-only history for a transaction.
func (s *Service) ListAuditTrail(ctx context.Context, actor Actor, transactionID string, limit int) ([]domain.AuditEntry, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return nil, domain.ErrUnauthorized
	}
	if strings.TrimSpace(transactionID) == "" {
		return nil, domain.ErrInvalidInput
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.auditLogs.ListByTransaction(ctx, strings.TrimSpace(transactionID), limit)
}

// reverseTempCreditOnce undoes the provisional payout at most once per
// transaction. No credit issued is not an error here: filing without
// temporary credit is a normal path.
func (s *Service) reverseTempCreditOnce(ctx context.Context, actor Actor, txn *domain.Transaction, rec *domain.RepresentmentRecord) error {
	if txn.TempCreditIssuedAt == nil {
		return nil
	}
	if txn.CreditReversedAt != nil {
		return domain.ErrCreditAlreadyReversed
	}
	if s.ledger == nil {
		return nil
	}
	err := s.callExternal(ctx, func(callCtx context.Context) error {
		return s.ledger.ReverseTemporaryCredit(callCtx, txn.TransactionID, txn.TempCreditRef)
	})
	if err != nil {
		return err
	}
	now := s.nowFn()
	txn.CreditReversedAt = &now
	rec.CreditReversedAt = &now
	s.appendAudit(ctx, txn.TransactionID, "temp_credit_reversed", actor.SubjectID, txn.TempCreditRef, txn.Network, now)
	_ = s.enqueueCreditReversed(ctx, actor, txn.TransactionID, txn.Amount, txn.Currency, txn.TempCreditRef)
	return nil
}

func (s *Service) requireBankAdmin(ctx context.Context, actor Actor, transactionID string) (domain.Transaction, domain.RepresentmentRecord, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.Transaction{}, domain.RepresentmentRecord{}, domain.ErrUnauthorized
	}
	if !domain.IsBankAdminRole(actor.Role) {
		return domain.Transaction{}, domain.RepresentmentRecord{}, domain.ErrForbidden
	}
	return s.loadRepresentment(ctx, transactionID)
}

func (s *Service) loadRepresentment(ctx context.Context, transactionID string) (domain.Transaction, domain.RepresentmentRecord, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return domain.Transaction{}, domain.RepresentmentRecord{}, domain.ErrInvalidInput
	}
	txn, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return domain.Transaction{}, domain.RepresentmentRecord{}, err
	}
	rec, err := s.representments.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return domain.Transaction{}, domain.RepresentmentRecord{}, err
	}
	return txn, rec, nil
}

// mergeEvidence overlays new items on the stored snapshot by document key.
func mergeEvidence(existing, incoming []domain.EvidenceItem) []domain.EvidenceItem {
	merged := make([]domain.EvidenceItem, 0, len(existing)+len(incoming))
	seen := make(map[string]int, len(existing))
	for _, item := range existing {
		seen[item.Key] = len(merged)
		merged = append(merged, item)
	}
	for _, item := range incoming {
		if idx, ok := seen[item.Key]; ok {
			merged[idx] = item
			continue
		}
		seen[item.Key] = len(merged)
		merged = append(merged, item)
	}
	return merged
}
