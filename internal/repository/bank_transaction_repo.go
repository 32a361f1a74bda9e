package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"split-reconciliation-backend/internal/apperr"
	"split-reconciliation-backend/internal/models"
)

type BankTransactionRepository struct {
	db *gorm.DB
}

func NewBankTransactionRepository(db *gorm.DB) *BankTransactionRepository {
	return &BankTransactionRepository{db: db}
}

func (r *BankTransactionRepository) Create(ctx context.Context, tx *models.BankTransaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return apperr.Internal(err, "create bank transaction")
	}
	return nil
}

func (r *BankTransactionRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.BankTransaction, error) {
	var tx models.BankTransaction
	err := r.db.WithContext(ctx).First(&tx, "id = ? AND tenant_id = ?", id, tenantID).Error
	if err != nil {
		return nil, translate(err, "bank transaction %s", id)
	}
	return &tx, nil
}

func (r *BankTransactionRepository) MarkStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error {
	err := r.db.WithContext(ctx).Model(&models.BankTransaction{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Update("status", status).Error
	if err != nil {
		return apperr.Internal(err, "update bank transaction %s", id)
	}
	return nil
}
