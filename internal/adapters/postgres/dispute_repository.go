package postgres

import (
	"context"
	"errors"

	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/ports"
	"gorm.io/gorm"
)

type disputeRepository struct {
	db *gorm.DB
}

func (r *disputeRepository) GetByID(ctx context.Context, disputeID string) (domain.Dispute, error) {
	var rec disputeModel
	if err := r.db.WithContext(ctx).Where("dispute_id = ?", disputeID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Dispute{}, domain.ErrNotFound
		}
		return domain.Dispute{}, err
	}
	return toDomainDispute(rec), nil
}

func (r *disputeRepository) GetActiveByTransactionID(ctx context.Context, transactionID string) (domain.Dispute, error) {
	var rec disputeModel
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at desc").
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Dispute{}, domain.ErrNotFound
		}
		return domain.Dispute{}, err
	}
	return toDomainDispute(rec), nil
}

func (r *disputeRepository) Update(ctx context.Context, row domain.Dispute) error {
	rec := toDisputeModel(row)
	res := r.db.WithContext(ctx).Model(&disputeModel{}).
		Where("dispute_id = ?", row.DisputeID).
		Updates(map[string]any{
			"evidence":   rec.Evidence,
			"status":     rec.Status,
			"updated_at": rec.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ ports.DisputeRepository = (*disputeRepository)(nil)
