package postgres

import (
	"context"
	"errors"

	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/ports"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

func (r *transactionRepository) GetByID(ctx context.Context, transactionID string) (domain.Transaction, error) {
	var rec transactionModel
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Transaction{}, domain.ErrNotFound
		}
		return domain.Transaction{}, err
	}
	return toDomainTransaction(rec), nil
}

func (r *transactionRepository) Update(ctx context.Context, row domain.Transaction) error {
	rec := toTransactionModel(row)
	res := r.db.WithContext(ctx).Model(&transactionModel{}).
		Where("transaction_id = ?", row.TransactionID).
		Updates(map[string]any{
			"dispute_status":        rec.DisputeStatus,
			"temp_credit_issued_at": rec.TempCreditIssuedAt,
			"temp_credit_ref":       rec.TempCreditRef,
			"credit_reversed_at":    rec.CreditReversedAt,
			"updated_at":            rec.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ ports.TransactionRepository = (*transactionRepository)(nil)
