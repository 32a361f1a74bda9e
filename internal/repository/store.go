package repository

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"split-reconciliation-backend/internal/apperr"
)

// Store is the gorm-backed UnitOfWork.
type Store struct {
	db               *gorm.DB
	invoices         *InvoiceRepository
	payments         *PaymentRepository
	bankTransactions *BankTransactionRepository
	splitMatches     *SplitMatchRepository
	audit            *AuditRepository
	settings         *SettingsRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:               db,
		invoices:         NewInvoiceRepository(db),
		payments:         NewPaymentRepository(db),
		bankTransactions: NewBankTransactionRepository(db),
		splitMatches:     NewSplitMatchRepository(db),
		audit:            NewAuditRepository(db),
		settings:         NewSettingsRepository(db),
	}
}

func (s *Store) Invoices() InvoiceStore                 { return s.invoices }
func (s *Store) Payments() PaymentLedger                { return s.payments }
func (s *Store) BankTransactions() BankTransactionStore { return s.bankTransactions }
func (s *Store) SplitMatches() SplitMatchStore          { return s.splitMatches }
func (s *Store) Audit() AuditLog                        { return s.audit }
func (s *Store) Settings() SettingsStore                { return s.settings }

// DB exposes the underlying connection for migrations and seeding.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Begin(ctx context.Context) (Tx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, apperr.Internal(tx.Error, "begin transaction")
	}
	return &gormTx{Store: NewStore(tx)}, nil
}

type gormTx struct {
	*Store
}

func (t *gormTx) Commit() error {
	if err := t.db.Commit().Error; err != nil {
		return apperr.Internal(err, "commit transaction")
	}
	return nil
}

func (t *gormTx) Rollback() error {
	err := t.db.Rollback().Error
	if err != nil && !errors.Is(err, gorm.ErrInvalidTransaction) {
		return apperr.Internal(err, "rollback transaction")
	}
	return nil
}

// WithinTx runs fn in a transaction. It commits when fn succeeds and rolls
// back when fn returns an error or panics.
func WithinTx(ctx context.Context, uow UnitOfWork, fn func(tx Tx) error) (err error) {
	tx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// translate maps gorm errors onto the application error kinds.
func translate(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(err, apperr.KindNotFound, format, args...)
	}
	return apperr.Internal(err, format, args...)
}
