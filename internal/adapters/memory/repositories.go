package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/ports"
)

// Repositories is the in-memory adapter set used by tests and local mode.
// Semantics mirror the postgres adapter, including conflict behavior.
type Repositories struct {
	Transactions   *TransactionRepository
	Disputes       *DisputeRepository
	Decisions      *DecisionRepository
	Representments *RepresentmentRepository
	AuditLogs      *AuditLogRepository
	Tasks          *TaskRepository
	EventDedup     *EventDedupRepository
	Outbox         *OutboxRepository
	Rechecks       *RecheckQueue
}

func NewRepositories() *Repositories {
	return &Repositories{
		Transactions:   &TransactionRepository{rows: map[string]domain.Transaction{}},
		Disputes:       &DisputeRepository{rows: map[string]domain.Dispute{}},
		Decisions:      &DecisionRepository{byFingerprint: map[string]domain.Decision{}},
		Representments: &RepresentmentRepository{rows: map[string]domain.RepresentmentRecord{}},
		AuditLogs:      &AuditLogRepository{},
		Tasks:          &TaskRepository{},
		EventDedup:     &EventDedupRepository{seen: map[string]time.Time{}},
		Outbox:         &OutboxRepository{},
		Rechecks:       &RecheckQueue{due: map[string]time.Time{}},
	}
}

type TransactionRepository struct {
	mu   sync.RWMutex
	rows map[string]domain.Transaction
}

func (r *TransactionRepository) Seed(rows ...domain.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		r.rows[row.TransactionID] = row
	}
}

func (r *TransactionRepository) GetByID(_ context.Context, transactionID string) (domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[transactionID]
	if !ok {
		return domain.Transaction{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *TransactionRepository) Update(_ context.Context, row domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[row.TransactionID]; !ok {
		return domain.ErrNotFound
	}
	r.rows[row.TransactionID] = row
	return nil
}

type DisputeRepository struct {
	mu   sync.RWMutex
	rows map[string]domain.Dispute
}

func (r *DisputeRepository) Seed(rows ...domain.Dispute) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		r.rows[row.DisputeID] = row
	}
}

func (r *DisputeRepository) GetByID(_ context.Context, disputeID string) (domain.Dispute, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[disputeID]
	if !ok {
		return domain.Dispute{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *DisputeRepository) GetActiveByTransactionID(_ context.Context, transactionID string) (domain.Dispute, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *domain.Dispute
	for _, row := range r.rows {
		if row.TransactionID != transactionID {
			continue
		}
		candidate := row
		if latest == nil || candidate.CreatedAt.After(latest.CreatedAt) {
			latest = &candidate
		}
	}
	if latest == nil {
		return domain.Dispute{}, domain.ErrNotFound
	}
	return *latest, nil
}

func (r *DisputeRepository) Update(_ context.Context, row domain.Dispute) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[row.DisputeID]; !ok {
		return domain.ErrNotFound
	}
	r.rows[row.DisputeID] = row
	return nil
}

type DecisionRepository struct {
	mu            sync.RWMutex
	byFingerprint map[string]domain.Decision
	ordered       []domain.Decision
}

func decisionKey(transactionID, fingerprint string) string {
	return transactionID + "|" + fingerprint
}

func (r *DecisionRepository) Insert(_ context.Context, row domain.Decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := decisionKey(row.TransactionID, row.InputFingerprint)
	if _, ok := r.byFingerprint[key]; ok {
		return domain.ErrConflict
	}
	r.byFingerprint[key] = row
	r.ordered = append(r.ordered, row)
	return nil
}

func (r *DecisionRepository) GetByFingerprint(_ context.Context, transactionID, fingerprint string) (domain.Decision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.byFingerprint[decisionKey(transactionID, fingerprint)]
	if !ok {
		return domain.Decision{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *DecisionRepository) ListByTransaction(_ context.Context, transactionID string) ([]domain.Decision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Decision, 0, 4)
	for _, row := range r.ordered {
		if row.TransactionID == transactionID {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type RepresentmentRepository struct {
	mu   sync.RWMutex
	rows map[string]domain.RepresentmentRecord
}

func (r *RepresentmentRepository) Create(_ context.Context, row domain.RepresentmentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[row.TransactionID]; ok {
		return domain.ErrConflict
	}
	r.rows[row.TransactionID] = row
	return nil
}

func (r *RepresentmentRepository) GetByTransactionID(_ context.Context, transactionID string) (domain.RepresentmentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[transactionID]
	if !ok {
		return domain.RepresentmentRecord{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *RepresentmentRepository) UpdateFromStatus(_ context.Context, row domain.RepresentmentRecord, expected domain.RepresentmentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.rows[row.TransactionID]
	if !ok {
		return domain.ErrNotFound
	}
	if current.Status != expected {
		return domain.ErrConflict
	}
	r.rows[row.TransactionID] = row
	return nil
}

type AuditLogRepository struct {
	mu   sync.RWMutex
	rows []domain.AuditEntry
}

func (r *AuditLogRepository) Append(_ context.Context, row domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, row)
	return nil
}

func (r *AuditLogRepository) ListByTransaction(_ context.Context, transactionID string, limit int) ([]domain.AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.AuditEntry, 0, limit)
	for i := len(r.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if r.rows[i].TransactionID == transactionID {
			out = append(out, r.rows[i])
		}
	}
	return out, nil
}

// All returns every entry; test helper.
func (r *AuditLogRepository) All() []domain.AuditEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.AuditEntry, len(r.rows))
	copy(out, r.rows)
	return out
}

type TaskRepository struct {
	mu   sync.RWMutex
	rows []domain.Task
}

func (r *TaskRepository) Create(_ context.Context, row domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, row)
	return nil
}

func (r *TaskRepository) ListByKind(_ context.Context, kind string, limit int) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Task, 0, limit)
	for _, row := range r.rows {
		if row.Kind != kind {
			continue
		}
		out = append(out, row)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type EventDedupRepository struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func (r *EventDedupRepository) IsDuplicate(_ context.Context, eventID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	expiresAt, ok := r.seen[eventID]
	return ok && expiresAt.After(now), nil
}

func (r *EventDedupRepository) MarkProcessed(_ context.Context, eventID, _ string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[eventID] = expiresAt
	return nil
}

type OutboxRepository struct {
	mu   sync.Mutex
	rows []ports.OutboxRecord
}

func (r *OutboxRepository) Enqueue(_ context.Context, record ports.OutboxRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, record)
	return nil
}

func (r *OutboxRepository) ListPending(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ports.OutboxRecord, 0, limit)
	for _, row := range r.rows {
		if row.SentAt != nil {
			continue
		}
		out = append(out, row)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *OutboxRepository) MarkSent(_ context.Context, recordID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].RecordID == recordID {
			sent := at
			r.rows[i].SentAt = &sent
			return nil
		}
	}
	return domain.ErrNotFound
}

type RecheckQueue struct {
	mu  sync.Mutex
	due map[string]time.Time
}

func (q *RecheckQueue) Schedule(_ context.Context, transactionID string, dueAt time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.due[transactionID] = dueAt
	return nil
}

func (q *RecheckQueue) Due(_ context.Context, now time.Time, limit int) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, 0, limit)
	for id, at := range q.due {
		if !at.After(now) {
			out = append(out, id)
			if len(out) == limit {
				break
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (q *RecheckQueue) Remove(_ context.Context, transactionID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.due, transactionID)
	return nil
}

var (
	_ ports.TransactionRepository   = (*TransactionRepository)(nil)
	_ ports.DisputeRepository       = (*DisputeRepository)(nil)
	_ ports.DecisionRepository      = (*DecisionRepository)(nil)
	_ ports.RepresentmentRepository = (*RepresentmentRepository)(nil)
	_ ports.AuditLogRepository      = (*AuditLogRepository)(nil)
	_ ports.TaskRepository          = (*TaskRepository)(nil)
	_ ports.EventDedupRepository    = (*EventDedupRepository)(nil)
	_ ports.OutboxRepository        = (*OutboxRepository)(nil)
	_ ports.RecheckQueue            = (*RecheckQueue)(nil)
)
