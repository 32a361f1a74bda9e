package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TransactionStatusPending   = "pending"
	TransactionStatusUnmatched = "unmatched"
	TransactionStatusMatched   = "matched"
)

type BankTransaction struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID `gorm:"type:uuid;index"`
	TransactionDate time.Time `gorm:"column:transaction_date"`
	Description     string
	AmountCents     int64 `gorm:"index"`
	ReferenceNumber string
	Status          string `gorm:"index"`
	CreatedAt       time.Time
}
