package application

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/ports"
)

// dispatchActions executes a decision's side-effect requests in order. A
// failing action is recorded and surfaced to a human queue; it never
// retracts or delays the decision itself, and each action runs at most once
// per decision because decisions are fingerprint-unique.
func (s *Service) dispatchActions(ctx context.Context, actor Actor, txn domain.Transaction, dispute domain.Dispute, decision domain.Decision) {
	now := s.nowFn()
	for _, action := range decision.NextActions {
		switch action {
		case domain.ActionCreateDispute:
			s.dispatchCreateDispute(ctx, &txn, decision, now)
		case domain.ActionIssueTempCredit:
			s.dispatchTempCredit(ctx, actor, &txn, decision, now)
		case domain.ActionIssuePermanentCredit:
			s.dispatchPermanentCredit(ctx, actor, &txn, decision, now)
		case domain.ActionEnqueueManualReview:
			s.createTask(ctx, txn.TransactionID, domain.TaskKindManualReview, decision.ReasonSummary, now)
		case domain.ActionRequestDocuments:
			s.createTask(ctx, txn.TransactionID, domain.TaskKindDocumentRequest,
				"missing: "+strings.Join(decision.MissingDocuments, ","), now)
		case domain.ActionScheduleRecheck:
			if s.rechecks != nil {
				if err := s.rechecks.Schedule(ctx, txn.TransactionID, now.Add(s.cfg.RecheckDelay)); err != nil {
					s.recordFailedAction(ctx, txn.TransactionID, string(action), err)
				}
			}
		case domain.ActionMerchantRefundTask:
			s.createTask(ctx, txn.TransactionID, domain.TaskKindMerchantRefund,
				"request direct refund from "+txn.MerchantName, now)
		case domain.ActionFileWithNetwork:
			s.dispatchNetworkFiling(ctx, actor, txn, dispute, decision, now)
		case domain.ActionLogActivity:
			s.appendAudit(ctx, txn.TransactionID, "policy_action", actor.SubjectID, decision.ReasonSummary, txn.Network, now)
		}
	}
}

func (s *Service) dispatchCreateDispute(ctx context.Context, txn *domain.Transaction, decision domain.Decision, now time.Time) {
	txn.DisputeStatus = domain.DisputeStatusChargebackFiled
	txn.UpdatedAt = now
	if err := s.transactions.Update(ctx, *txn); err != nil {
		s.recordFailedAction(ctx, txn.TransactionID, string(domain.ActionCreateDispute), err)
		return
	}
	// The representment record is created lazily here, the first time this
	// transaction reaches chargeback-filed status.
	if s.representments != nil {
		if _, err := s.representments.GetByTransactionID(ctx, txn.TransactionID); err != nil {
			_ = s.representments.Create(ctx, domain.RepresentmentRecord{
				TransactionID: txn.TransactionID,
				Status:        domain.RepresentmentNone,
				CreatedAt:     now,
				UpdatedAt:     now,
			})
		}
	}
	s.appendAudit(ctx, txn.TransactionID, "chargeback_filed", "", decision.PolicyCode, txn.Network, now)
}

func (s *Service) dispatchTempCredit(ctx context.Context, actor Actor, txn *domain.Transaction, decision domain.Decision, now time.Time) {
	if s.ledger == nil {
		return
	}
	if txn.TempCreditIssuedAt != nil {
		// Already issued for this transaction; issuing again would double-pay.
		return
	}
	var creditRef string
	err := s.callExternal(ctx, func(callCtx context.Context) error {
		ref, issueErr := s.ledger.IssueTemporaryCredit(callCtx, txn.TransactionID, decision.RemainingAmountUSD, txn.Currency)
		creditRef = ref
		return issueErr
	})
	if err != nil {
		s.recordFailedAction(ctx, txn.TransactionID, string(domain.ActionIssueTempCredit), err)
		return
	}
	txn.TempCreditIssuedAt = &now
	txn.TempCreditRef = creditRef
	txn.UpdatedAt = now
	if err := s.transactions.Update(ctx, *txn); err != nil {
		s.recordFailedAction(ctx, txn.TransactionID, string(domain.ActionIssueTempCredit), err)
		return
	}
	s.appendAudit(ctx, txn.TransactionID, "temp_credit_issued", "", creditRef, txn.Network, now)
	_ = s.enqueueCreditEvent(ctx, actor, txn.TransactionID, decision.RemainingAmountUSD, txn.Currency, creditRef, false)
}

func (s *Service) dispatchPermanentCredit(ctx context.Context, actor Actor, txn *domain.Transaction, decision domain.Decision, now time.Time) {
	if s.ledger == nil {
		return
	}
	err := s.callExternal(ctx, func(callCtx context.Context) error {
		return s.ledger.IssuePermanentCredit(callCtx, txn.TransactionID, decision.RemainingAmountUSD, txn.Currency)
	})
	if err != nil {
		s.recordFailedAction(ctx, txn.TransactionID, string(domain.ActionIssuePermanentCredit), err)
		return
	}
	txn.DisputeStatus = domain.DisputeStatusWrittenOff
	txn.UpdatedAt = now
	if err := s.transactions.Update(ctx, *txn); err != nil {
		s.recordFailedAction(ctx, txn.TransactionID, string(domain.ActionIssuePermanentCredit), err)
		return
	}
	s.appendAudit(ctx, txn.TransactionID, "writeoff_credit_issued", "", decision.PolicyCode, txn.Network, now)
	_ = s.enqueueCreditEvent(ctx, actor, txn.TransactionID, decision.RemainingAmountUSD, txn.Currency, "", true)
}

func (s *Service) dispatchNetworkFiling(ctx context.Context, actor Actor, txn domain.Transaction, dispute domain.Dispute, decision domain.Decision, now time.Time) {
	if s.filer == nil {
		return
	}
	req := ports.FilingRequest{
		TransactionID: txn.TransactionID,
		DisputeID:     dispute.DisputeID,
		Network:       txn.Network,
		ReasonCode:    dispute.ReasonCode,
		AmountUSD:     decision.RemainingAmountUSD,
		Currency:      txn.Currency,
		PolicyCode:    decision.PolicyCode,
	}
	err := s.callExternal(ctx, func(callCtx context.Context) error {
		return s.filer.FileChargeback(callCtx, req)
	})
	if err != nil {
		s.recordFailedAction(ctx, txn.TransactionID, string(domain.ActionFileWithNetwork), err)
		return
	}
	s.appendAudit(ctx, txn.TransactionID, "network_filing_requested", "", txn.Network, txn.Network, now)
	_ = s.enqueueChargebackFiled(ctx, actor, txn, dispute, decision)
}

// callExternal bounds every downstream call with a timeout and retries with
// linear backoff. On exhaustion the last error is returned for the caller to
// record; evaluation latency stays independent of downstream latency.
func (s *Service) callExternal(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.DispatchRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * s.cfg.DispatchBackoff):
			}
		}
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.DispatchTimeout)
		lastErr = fn(callCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (s *Service) createTask(ctx context.Context, transactionID, kind, detail string, now time.Time) {
	if s.tasks == nil {
		return
	}
	if err := s.tasks.Create(ctx, domain.Task{
		TaskID:        uuid.NewString(),
		TransactionID: transactionID,
		Kind:          kind,
		Detail:        detail,
		CreatedAt:     now,
	}); err != nil {
		s.recordFailedAction(ctx, transactionID, "create_task_"+kind, err)
	}
}

// recordFailedAction is the surfacing path for permanent dispatch failures:
// an audit entry plus a task in the human queue. Nothing is silently dropped.
func (s *Service) recordFailedAction(ctx context.Context, transactionID, action string, cause error) {
	now := s.nowFn()
	s.appendAudit(ctx, transactionID, "action_failed", "", action+": "+cause.Error(), "", now)
	if s.tasks == nil {
		return
	}
	_ = s.tasks.Create(ctx, domain.Task{
		TaskID:        uuid.NewString(),
		TransactionID: transactionID,
		Kind:          domain.TaskKindFailedAction,
		Detail:        action + ": " + cause.Error(),
		CreatedAt:     now,
	})
}
