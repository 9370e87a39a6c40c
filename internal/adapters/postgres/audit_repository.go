package postgres

import (
	"context"

	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/ports"
	"gorm.io/gorm"
)

type auditLogRepository struct {
	db *gorm.DB
}

func (r *auditLogRepository) Append(ctx context.Context, row domain.AuditEntry) error {
	rec := auditEntryModel{
		AuditID:       row.AuditID,
		TransactionID: row.TransactionID,
		Action:        row.Action,
		PerformedBy:   row.PerformedBy,
		PerformedAt:   row.PerformedAt,
		Note:          row.Note,
		Network:       row.Network,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *auditLogRepository) ListByTransaction(ctx context.Context, transactionID string, limit int) ([]domain.AuditEntry, error) {
	var rows []auditEntryModel
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("performed_at desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.AuditEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.AuditEntry{
			AuditID:       row.AuditID,
			TransactionID: row.TransactionID,
			Action:        row.Action,
			PerformedBy:   row.PerformedBy,
			PerformedAt:   row.PerformedAt,
			Note:          row.Note,
			Network:       row.Network,
		})
	}
	return out, nil
}

var _ ports.AuditLogRepository = (*auditLogRepository)(nil)

type taskRepository struct {
	db *gorm.DB
}

func (r *taskRepository) Create(ctx context.Context, row domain.Task) error {
	rec := taskModel{
		TaskID:        row.TaskID,
		TransactionID: row.TransactionID,
		Kind:          row.Kind,
		Detail:        row.Detail,
		CreatedAt:     row.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *taskRepository) ListByKind(ctx context.Context, kind string, limit int) ([]domain.Task, error) {
	var rows []taskModel
	err := r.db.WithContext(ctx).
		Where("kind = ?", kind).
		Order("created_at asc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Task{
			TaskID:        row.TaskID,
			TransactionID: row.TransactionID,
			Kind:          row.Kind,
			Detail:        row.Detail,
			CreatedAt:     row.CreatedAt,
		})
	}
	return out, nil
}

var _ ports.TaskRepository = (*taskRepository)(nil)
