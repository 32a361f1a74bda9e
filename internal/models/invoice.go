package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	InvoiceStatusSent          = "sent"
	InvoiceStatusOverdue       = "overdue"
	InvoiceStatusPartiallyPaid = "partially_paid"
	InvoiceStatusPaid          = "paid"
)

// OutstandingInvoiceStatuses are the statuses eligible for split matching.
var OutstandingInvoiceStatuses = []string{
	InvoiceStatusSent,
	InvoiceStatusOverdue,
	InvoiceStatusPartiallyPaid,
}

type Invoice struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_invoice_tenant_number"`
	InvoiceNumber   string    `gorm:"uniqueIndex:idx_invoice_tenant_number"`
	CustomerName    string    `gorm:"index"`
	CustomerEmail   string
	TotalCents      int64
	AmountPaidCents int64
	Status          string `gorm:"index"`
	DueDate         time.Time
	PaidAt          *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OutstandingCents is what is still owed on the invoice.
func (i *Invoice) OutstandingCents() int64 {
	return i.TotalCents - i.AmountPaidCents
}

// ApplyPayment adds amountCents to the paid total and recomputes the status.
func (i *Invoice) ApplyPayment(amountCents int64, at time.Time) {
	i.AmountPaidCents += amountCents
	if i.AmountPaidCents >= i.TotalCents {
		i.Status = InvoiceStatusPaid
		paidAt := at
		i.PaidAt = &paidAt
		return
	}
	i.Status = InvoiceStatusPartiallyPaid
}
