// Package testutil provides in-memory databases and fixtures for tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"split-reconciliation-backend/internal/models"
)

// NewDB opens a private in-memory sqlite database with every model
// migrated. A single connection is used, so concurrent transactions
// serialize instead of failing with "database is locked".
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// Invoice inserts an outstanding invoice with the given balance.
func Invoice(t testing.TB, db *gorm.DB, tenantID uuid.UUID, number string, totalCents int64) models.Invoice {
	t.Helper()

	inv := models.Invoice{
		TenantID:      tenantID,
		InvoiceNumber: number,
		CustomerName:  "Customer " + number,
		CustomerEmail: number + "@example.com",
		TotalCents:    totalCents,
		Status:        models.InvoiceStatusSent,
		DueDate:       time.Now().AddDate(0, 0, 14),
	}
	require.NoError(t, db.Create(&inv).Error)
	return inv
}

// BankTransaction inserts a pending bank transaction.
func BankTransaction(t testing.TB, db *gorm.DB, tenantID uuid.UUID, amountCents int64) models.BankTransaction {
	t.Helper()

	tx := models.BankTransaction{
		TenantID:        tenantID,
		TransactionDate: time.Now(),
		Description:     "TRANSFER",
		AmountCents:     amountCents,
		ReferenceNumber: "REF-" + uuid.NewString()[:8],
		Status:          models.TransactionStatusPending,
	}
	require.NoError(t, db.Create(&tx).Error)
	return tx
}

// ReloadInvoice reads the invoice back from the database.
func ReloadInvoice(t testing.TB, db *gorm.DB, id uuid.UUID) models.Invoice {
	t.Helper()

	var inv models.Invoice
	require.NoError(t, db.First(&inv, "id = ?", id).Error)
	return inv
}
