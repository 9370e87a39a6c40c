package ports

import (
	"context"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/contracts"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/domain"
)

type TransactionRepository interface {
	GetByID(ctx context.Context, transactionID string) (domain.Transaction, error)
	Update(ctx context.Context, row domain.Transaction) error
}

type DisputeRepository interface {
	GetByID(ctx context.Context, disputeID string) (domain.Dispute, error)
	GetActiveByTransactionID(ctx context.Context, transactionID string) (domain.Dispute, error)
	Update(ctx context.Context, row domain.Dispute) error
}

// DecisionRepository enforces the at-most-one-decision guarantee: Insert must
// fail with domain.ErrConflict when a row for the same
// (transaction_id, input_fingerprint) already exists, and the loser of a race
// reads back the winner via GetByFingerprint.
type DecisionRepository interface {
	Insert(ctx context.Context, row domain.Decision) error
	GetByFingerprint(ctx context.Context, transactionID, fingerprint string) (domain.Decision, error)
	ListByTransaction(ctx context.Context, transactionID string) ([]domain.Decision, error)
}

// RepresentmentRepository applies status changes as a compare-and-swap on the
// previous status so two admins cannot concurrently accept and reject the
// same record. A stale swap returns domain.ErrConflict and changes nothing.
type RepresentmentRepository interface {
	Create(ctx context.Context, row domain.RepresentmentRecord) error
	GetByTransactionID(ctx context.Context, transactionID string) (domain.RepresentmentRecord, error)
	UpdateFromStatus(ctx context.Context, row domain.RepresentmentRecord, expected domain.RepresentmentStatus) error
}

// AuditLogRepository is append-only; entries are never mutated or deleted.
type AuditLogRepository interface {
	Append(ctx context.Context, row domain.AuditEntry) error
	ListByTransaction(ctx context.Context, transactionID string, limit int) ([]domain.AuditEntry, error)
}

type TaskRepository interface {
	Create(ctx context.Context, row domain.Task) error
	ListByKind(ctx context.Context, kind string, limit int) ([]domain.Task, error)
}

type EventDedupRepository interface {
	IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error
}

type OutboxRecord struct {
	RecordID   string
	EventClass string
	Envelope   contracts.EventEnvelope
	CreatedAt  time.Time
	SentAt     *time.Time
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, record OutboxRecord) error
	ListPending(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkSent(ctx context.Context, recordID string, at time.Time) error
}

// RecheckQueue schedules deferred re-evaluations (WAIT_FOR_SETTLEMENT). A
// worker polls Due and re-invokes the same stateless evaluation.
type RecheckQueue interface {
	Schedule(ctx context.Context, transactionID string, dueAt time.Time) error
	Due(ctx context.Context, now time.Time, limit int) ([]string, error)
	Remove(ctx context.Context, transactionID string) error
}
