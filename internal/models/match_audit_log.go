package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	AuditActionSuggested  = "suggested"
	AuditActionConfirmed  = "confirmed"
	AuditActionRejected   = "rejected"
	AuditActionSuperseded = "superseded"
)

type MatchAuditLog struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID          uuid.UUID `gorm:"type:uuid;index"`
	SplitMatchID      uuid.UUID `gorm:"type:uuid;index"`
	BankTransactionID uuid.UUID `gorm:"type:uuid;index"`
	Action            string
	PerformedBy       string
	Reason            string
	Details           datatypes.JSON
	CreatedAt         time.Time
}
