package postgres

import (
	"context"
	"errors"

	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/ports"
	"gorm.io/gorm"
)

type decisionRepository struct {
	db *gorm.DB
}

// Insert relies on the (transaction_id, input_fingerprint) unique constraint
// to keep decisions immutable and unique per input set.
func (r *decisionRepository) Insert(ctx context.Context, row domain.Decision) error {
	rec := toDecisionModel(row)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *decisionRepository) GetByFingerprint(ctx context.Context, transactionID, fingerprint string) (domain.Decision, error) {
	var rec decisionModel
	err := r.db.WithContext(ctx).
		Where("transaction_id = ? AND input_fingerprint = ?", transactionID, fingerprint).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Decision{}, domain.ErrNotFound
		}
		return domain.Decision{}, err
	}
	return toDomainDecision(rec), nil
}

func (r *decisionRepository) ListByTransaction(ctx context.Context, transactionID string) ([]domain.Decision, error) {
	var rows []decisionModel
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Decision, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainDecision(row))
	}
	return out, nil
}

var _ ports.DecisionRepository = (*decisionRepository)(nil)
