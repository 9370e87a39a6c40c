package postgres

import (
	"context"
	"errors"

	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/ports"
	"gorm.io/gorm"
)

type representmentRepository struct {
	db *gorm.DB
}

func (r *representmentRepository) Create(ctx context.Context, row domain.RepresentmentRecord) error {
	rec := toRepresentmentModel(row)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *representmentRepository) GetByTransactionID(ctx context.Context, transactionID string) (domain.RepresentmentRecord, error) {
	var rec representmentModel
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RepresentmentRecord{}, domain.ErrNotFound
		}
		return domain.RepresentmentRecord{}, err
	}
	return toDomainRepresentment(rec), nil
}

// UpdateFromStatus is a compare-and-swap on the previous status. A write that
// matches zero rows means another actor moved the record first.
func (r *representmentRepository) UpdateFromStatus(ctx context.Context, row domain.RepresentmentRecord, expected domain.RepresentmentStatus) error {
	rec := toRepresentmentModel(row)
	res := r.db.WithContext(ctx).Model(&representmentModel{}).
		Where("transaction_id = ? AND status = ?", row.TransactionID, string(expected)).
		Updates(map[string]any{
			"status":                rec.Status,
			"merchant_reason":       rec.MerchantReason,
			"merchant_evidence_ref": rec.MerchantEvidenceRef,
			"needs_attention":       rec.NeedsAttention,
			"credit_reversed_at":    rec.CreditReversedAt,
			"updated_at":            rec.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

var _ ports.RepresentmentRepository = (*representmentRepository)(nil)
