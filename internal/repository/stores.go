package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"split-reconciliation-backend/internal/models"
)

// InvoiceFilter narrows the outstanding invoices offered to the search.
type InvoiceFilter struct {
	// CustomerQuery is a case-insensitive substring of the customer name.
	CustomerQuery string
	ExcludeIDs    []uuid.UUID
}

type InvoiceStore interface {
	Create(ctx context.Context, inv *models.Invoice) error
	ListOutstanding(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]models.Invoice, error)
	GetByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Invoice, error)
	// ApplyPayment adds amountCents to the invoice's paid total. It fails
	// with a conflict when the amount exceeds the outstanding balance or the
	// invoice changed underneath the caller.
	ApplyPayment(ctx context.Context, tenantID, invoiceID uuid.UUID, amountCents int64, at time.Time) (*models.Invoice, error)
}

type PaymentLedger interface {
	CreatePayment(ctx context.Context, p *models.Payment) error
	ListBySplitMatch(ctx context.Context, tenantID, splitMatchID uuid.UUID) ([]models.Payment, error)
}

type BankTransactionStore interface {
	Create(ctx context.Context, tx *models.BankTransaction) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.BankTransaction, error)
	MarkStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error
}

// SplitMatchFilter selects split matches for listing. Empty fields are
// ignored.
type SplitMatchFilter struct {
	Status            string
	MatchType         string
	BankTransactionID *uuid.UUID
	Offset            int
	Limit             int
}

type SplitMatchStore interface {
	// Create inserts the split match together with its components.
	Create(ctx context.Context, m *models.SplitMatch) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.SplitMatch, error)
	List(ctx context.Context, tenantID uuid.UUID, filter SplitMatchFilter) ([]models.SplitMatch, int64, error)
	ListPending(ctx context.Context, tenantID, bankTransactionID uuid.UUID) ([]models.SplitMatch, error)
	Stats(ctx context.Context, tenantID uuid.UUID) ([]StatusTotals, error)
	ReplaceComponents(ctx context.Context, m *models.SplitMatch, components []models.SplitMatchComponent) error
	SetComponentPayment(ctx context.Context, componentID, paymentID uuid.UUID) error
	// LeavePending writes the decision columns of m, but only while the
	// stored row is still PENDING. Zero affected rows is a conflict.
	LeavePending(ctx context.Context, m *models.SplitMatch) error
}

type AuditLog interface {
	Record(ctx context.Context, entry *models.MatchAuditLog) error
	ListBySplitMatch(ctx context.Context, tenantID, splitMatchID uuid.UUID) ([]models.MatchAuditLog, error)
}

type SettingsStore interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*models.TenantMatchSettings, error)
	Upsert(ctx context.Context, settings *models.TenantMatchSettings) error
}

// Stores groups the repositories bound to one connection or transaction.
type Stores interface {
	Invoices() InvoiceStore
	Payments() PaymentLedger
	BankTransactions() BankTransactionStore
	SplitMatches() SplitMatchStore
	Audit() AuditLog
	Settings() SettingsStore
}

// Tx is a unit of work in progress. Its stores all run inside the same
// database transaction.
type Tx interface {
	Stores
	Commit() error
	Rollback() error
}

// UnitOfWork hands out non-transactional stores and starts transactions.
type UnitOfWork interface {
	Stores
	Begin(ctx context.Context) (Tx, error)
}
