package models

import (
	"time"

	"github.com/google/uuid"
)

const PaymentSourceSplitMatch = "bank_split_match"

type Payment struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID          uuid.UUID  `gorm:"type:uuid;index"`
	InvoiceID         uuid.UUID  `gorm:"type:uuid;index"`
	BankTransactionID uuid.UUID  `gorm:"type:uuid;index"`
	SplitMatchID      *uuid.UUID `gorm:"type:uuid;index"`
	AmountCents       int64
	Source            string
	Reference         string
	PaidAt            time.Time
	CreatedAt         time.Time
}
