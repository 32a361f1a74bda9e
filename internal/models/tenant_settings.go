package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantMatchSettings overrides the service-wide search defaults for one
// tenant. ToleranceCents always applies once a row exists; a zero
// MaxComponents falls back to the configured default.
type TenantMatchSettings struct {
	TenantID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	ToleranceCents int64
	MaxComponents  int
	UpdatedAt      time.Time
}
