package application

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/contracts"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/domain"
)

// HandleCanonicalEvent routes one consumed envelope. Processing is
// idempotent per event_id; a replayed envelope is acknowledged and dropped.
func (s *Service) HandleCanonicalEvent(ctx context.Context, envelope contracts.EventEnvelope) error {
	if err := validateEnvelope(envelope); err != nil {
		return err
	}
	if err := validatePartitionKeyInvariant(envelope); err != nil {
		return err
	}
	if !domain.IsCanonicalInputEvent(envelope.EventType) {
		return domain.ErrUnsupportedEventType
	}
	if s.eventDedup != nil {
		dup, err := s.eventDedup.IsDuplicate(ctx, envelope.EventID, s.nowFn())
		if err != nil {
			return err
		}
		if dup {
			return nil
		}
		if err := s.eventDedup.MarkProcessed(ctx, envelope.EventID, envelope.EventType, s.nowFn().Add(s.cfg.EventDedupTTL)); err != nil {
			return err
		}
	}
	switch envelope.EventType {
	case domain.EventMerchantResponseReceived:
		return s.handleMerchantResponse(ctx, envelope)
	case domain.EventRecheckDue:
		return s.handleRecheckDue(ctx, envelope)
	default:
		return domain.ErrUnsupportedEventType
	}
}

func (s *Service) handleMerchantResponse(ctx context.Context, envelope contracts.EventEnvelope) error {
	var payload contracts.MerchantResponsePayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		return domain.ErrInvalidEnvelope
	}
	if strings.TrimSpace(payload.TransactionID) == "" {
		return domain.ErrInvalidEnvelope
	}
	if payload.ContestIntent {
		return s.MerchantContested(ctx, payload.TransactionID, payload.Reason, payload.EvidenceRef)
	}
	return s.MerchantAccepted(ctx, payload.TransactionID)
}

func (s *Service) handleRecheckDue(ctx context.Context, envelope contracts.EventEnvelope) error {
	var payload contracts.RecheckDuePayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		return domain.ErrInvalidEnvelope
	}
	if strings.TrimSpace(payload.TransactionID) == "" {
		return domain.ErrInvalidEnvelope
	}
	return s.recheckTransaction(ctx, payload.TransactionID)
}

// ProcessDueRechecks is the worker-loop path for self-scheduled rechecks;
// the consumed recheck event covers externally triggered ones.
func (s *Service) ProcessDueRechecks(ctx context.Context) (int, error) {
	if s.rechecks == nil {
		return 0, nil
	}
	due, err := s.rechecks.Due(ctx, s.nowFn(), s.cfg.RecheckBatchSize)
	if err != nil {
		return 0, err
	}
	processed := 0
	for _, transactionID := range due {
		if err := s.recheckTransaction(ctx, transactionID); err != nil {
			s.recordFailedAction(ctx, transactionID, "recheck", err)
			continue
		}
		processed++
	}
	return processed, nil
}

func (s *Service) recheckTransaction(ctx context.Context, transactionID string) error {
	decision, err := s.Reevaluate(ctx, transactionID)
	if err != nil {
		return err
	}
	// A decision that still waits on settlement has rescheduled itself; any
	// other outcome retires the queue entry.
	if s.rechecks != nil && decision.Kind != domain.DecisionWaitForSettlement {
		_ = s.rechecks.Remove(ctx, transactionID)
	}
	return nil
}
