package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"split-reconciliation-backend/internal/apperr"
	"split-reconciliation-backend/internal/models"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) CreatePayment(ctx context.Context, p *models.Payment) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return apperr.Internal(err, "create payment for invoice %s", p.InvoiceID)
	}
	return nil
}

func (r *PaymentRepository) ListBySplitMatch(ctx context.Context, tenantID, splitMatchID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND split_match_id = ?", tenantID, splitMatchID).
		Order("amount_cents DESC").Order("invoice_id").
		Find(&payments).Error
	if err != nil {
		return nil, apperr.Internal(err, "list payments of split match %s", splitMatchID)
	}
	return payments, nil
}
