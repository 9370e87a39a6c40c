package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/contracts"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/ports"
)

// FlushOutbox drains pending records to the publishers. Domain events that
// fail to publish go to the DLQ and stop the batch; analytics publishing is
// best effort and never blocks the flush.
func (s *Service) FlushOutbox(ctx context.Context) error {
	if s.outbox == nil {
		return nil
	}
	pending, err := s.outbox.ListPending(ctx, s.cfg.OutboxFlushBatchSize)
	if err != nil {
		return err
	}
	for _, rec := range pending {
		now := s.nowFn()
		switch rec.EventClass {
		case domain.CanonicalEventClassDomain:
			if s.domainEvents != nil {
				if err := s.domainEvents.PublishDomain(ctx, rec.Envelope); err != nil {
					if s.dlq != nil {
						n := s.nowFn()
						_ = s.dlq.PublishDLQ(ctx, contracts.DLQRecord{OriginalEvent: rec.Envelope, ErrorSummary: err.Error(), RetryCount: 1, FirstSeenAt: n, LastErrorAt: n, SourceTopic: rec.Envelope.EventType, DLQTopic: "chargeback-engine.dlq", TraceID: rec.Envelope.TraceID})
					}
					return err
				}
			}
		case domain.CanonicalEventClassAnalyticsOnly:
			if s.analytics != nil {
				_ = s.analytics.PublishAnalytics(ctx, rec.Envelope)
			}
		default:
			return fmt.Errorf("%w: %s", domain.ErrUnsupportedEventClass, rec.EventClass)
		}
		if err := s.outbox.MarkSent(ctx, rec.RecordID, now); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) enqueueEvent(ctx context.Context, eventType, traceID string, data any, transactionID string, now time.Time) error {
	if s.outbox == nil {
		return nil
	}
	class := domain.CanonicalEventClass(eventType)
	if class == "" {
		return domain.ErrUnsupportedEventType
	}
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return domain.ErrInvalidInput
	}
	b, err := json.Marshal(data)
	if err != nil {
		return domain.ErrInvalidInput
	}
	if strings.TrimSpace(traceID) == "" {
		traceID = uuid.NewString()
	}
	env := contracts.EventEnvelope{
		EventID:          uuid.NewString(),
		EventType:        eventType,
		EventClass:       class,
		OccurredAt:       now,
		PartitionKeyPath: domain.CanonicalPartitionKeyPath(eventType),
		PartitionKey:     transactionID,
		SourceService:    s.cfg.ServiceName,
		TraceID:          traceID,
		SchemaVersion:    "v1",
		Data:             b,
	}
	return s.outbox.Enqueue(ctx, ports.OutboxRecord{RecordID: uuid.NewString(), EventClass: env.EventClass, Envelope: env, CreatedAt: now})
}

func (s *Service) enqueueDecisionRecorded(ctx context.Context, actor Actor, decision domain.Decision) error {
	return s.enqueueEvent(ctx, domain.EventDecisionRecorded, actor.RequestID, contracts.DecisionRecordedPayload{
		TransactionID: decision.TransactionID,
		DisputeID:     decision.DisputeID,
		DecisionKind:  string(decision.Kind),
		PolicyCode:    decision.PolicyCode,
		Fingerprint:   decision.InputFingerprint,
		Flags:         decision.Flags,
		RecordedAt:    decision.CreatedAt.UTC().Format(time.RFC3339),
	}, decision.TransactionID, decision.CreatedAt)
}

func (s *Service) enqueueChargebackFiled(ctx context.Context, actor Actor, txn domain.Transaction, dispute domain.Dispute, decision domain.Decision) error {
	now := s.nowFn()
	return s.enqueueEvent(ctx, domain.EventChargebackFiled, actor.RequestID, contracts.ChargebackFiledPayload{
		TransactionID: txn.TransactionID,
		DisputeID:     dispute.DisputeID,
		Network:       txn.Network,
		AmountUSD:     decision.RemainingAmountUSD,
		FiledAt:       now.UTC().Format(time.RFC3339),
	}, txn.TransactionID, now)
}

func (s *Service) enqueueCreditEvent(ctx context.Context, actor Actor, transactionID string, amount float64, currency, creditRef string, permanent bool) error {
	now := s.nowFn()
	return s.enqueueEvent(ctx, domain.EventCreditIssued, actor.RequestID, contracts.CreditEventPayload{
		TransactionID: transactionID,
		Amount:        amount,
		Currency:      currency,
		CreditRef:     creditRef,
		Permanent:     permanent,
		OccurredAt:    now.UTC().Format(time.RFC3339),
	}, transactionID, now)
}

func (s *Service) enqueueCreditReversed(ctx context.Context, actor Actor, transactionID string, amount float64, currency, creditRef string) error {
	now := s.nowFn()
	return s.enqueueEvent(ctx, domain.EventCreditReversed, actor.RequestID, contracts.CreditEventPayload{
		TransactionID: transactionID,
		Amount:        amount,
		Currency:      currency,
		CreditRef:     creditRef,
		OccurredAt:    now.UTC().Format(time.RFC3339),
	}, transactionID, now)
}

func (s *Service) enqueueRepresentmentUpdated(ctx context.Context, actor Actor, transactionID string, from, to domain.RepresentmentStatus) error {
	now := s.nowFn()
	return s.enqueueEvent(ctx, domain.EventRepresentmentUpdated, actor.RequestID, contracts.RepresentmentUpdatedPayload{
		TransactionID: transactionID,
		FromStatus:    string(from),
		ToStatus:      string(to),
		PerformedBy:   actor.SubjectID,
		UpdatedAt:     now.UTC().Format(time.RFC3339),
	}, transactionID, now)
}

func validateEnvelope(event contracts.EventEnvelope) error {
	if strings.TrimSpace(event.EventID) == "" || strings.TrimSpace(event.EventType) == "" || event.OccurredAt.IsZero() {
		return domain.ErrInvalidEnvelope
	}
	if strings.TrimSpace(event.SourceService) == "" || strings.TrimSpace(event.TraceID) == "" || strings.TrimSpace(event.SchemaVersion) == "" {
		return domain.ErrInvalidEnvelope
	}
	if strings.TrimSpace(event.PartitionKeyPath) == "" || strings.TrimSpace(event.PartitionKey) == "" {
		return domain.ErrInvalidEnvelope
	}
	if len(event.Data) == 0 {
		return domain.ErrInvalidEnvelope
	}
	return nil
}

// validatePartitionKeyInvariant checks that the declared key path and the
// materialized key agree with the payload they claim to describe.
func validatePartitionKeyInvariant(event contracts.EventEnvelope) error {
	if event.PartitionKeyPath != "data.transaction_id" {
		return domain.ErrInvalidEnvelope
	}
	var payload struct {
		TransactionID string `json:"transaction_id"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return domain.ErrInvalidEnvelope
	}
	if strings.TrimSpace(payload.TransactionID) == "" || payload.TransactionID != event.PartitionKey {
		return domain.ErrInvalidEnvelope
	}
	return nil
}
