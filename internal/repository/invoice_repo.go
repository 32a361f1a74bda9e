package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"split-reconciliation-backend/internal/apperr"
	"split-reconciliation-backend/internal/models"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *models.Invoice) error {
	if err := r.db.WithContext(ctx).Create(inv).Error; err != nil {
		return apperr.Internal(err, "create invoice %s", inv.InvoiceNumber)
	}
	return nil
}

// ListOutstanding returns the tenant's invoices that still have a balance,
// largest balance first.
func (r *InvoiceRepository) ListOutstanding(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]models.Invoice, error) {
	var invoices []models.Invoice

	q := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Where("status IN ?", models.OutstandingInvoiceStatuses).
		Where("amount_paid_cents < total_cents")

	if query := strings.TrimSpace(filter.CustomerQuery); query != "" {
		q = q.Where("LOWER(customer_name) LIKE ?", "%"+strings.ToLower(query)+"%")
	}
	if len(filter.ExcludeIDs) > 0 {
		q = q.Where("id NOT IN ?", filter.ExcludeIDs)
	}

	err := q.Order("total_cents - amount_paid_cents DESC").Order("id").Find(&invoices).Error
	if err != nil {
		return nil, apperr.Internal(err, "list outstanding invoices")
	}
	return invoices, nil
}

// GetByIDs loads the invoices among ids that belong to the tenant. Missing
// or foreign ids are simply absent from the result.
func (r *InvoiceRepository) GetByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Invoice, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&invoices).Error
	if err != nil {
		return nil, apperr.Internal(err, "load invoices")
	}
	return invoices, nil
}

func (r *InvoiceRepository) ApplyPayment(ctx context.Context, tenantID, invoiceID uuid.UUID, amountCents int64, at time.Time) (*models.Invoice, error) {
	var inv models.Invoice
	err := r.db.WithContext(ctx).
		First(&inv, "id = ? AND tenant_id = ?", invoiceID, tenantID).Error
	if err != nil {
		return nil, translate(err, "invoice %s", invoiceID)
	}

	if amountCents > inv.OutstandingCents() {
		return nil, apperr.Conflict("payment of %d exceeds outstanding balance %d on invoice %s",
			amountCents, inv.OutstandingCents(), inv.InvoiceNumber).
			With("invoice_id", invoiceID.String())
	}

	previousPaid := inv.AmountPaidCents
	inv.ApplyPayment(amountCents, at)

	// Guarded on the paid total read above so concurrent payments cannot
	// both succeed against the same balance.
	res := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("id = ? AND tenant_id = ? AND amount_paid_cents = ?", invoiceID, tenantID, previousPaid).
		Updates(map[string]interface{}{
			"amount_paid_cents": inv.AmountPaidCents,
			"status":            inv.Status,
			"paid_at":           inv.PaidAt,
			"updated_at":        at,
		})
	if res.Error != nil {
		return nil, apperr.Internal(res.Error, "apply payment to invoice %s", invoiceID)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Conflict("invoice %s changed while applying payment", inv.InvoiceNumber).
			With("invoice_id", invoiceID.String())
	}
	inv.UpdatedAt = at
	return &inv, nil
}
