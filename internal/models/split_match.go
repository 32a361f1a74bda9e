package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	SplitMatchStatusPending   = "PENDING"
	SplitMatchStatusConfirmed = "CONFIRMED"
	SplitMatchStatusRejected  = "REJECTED"
)

const (
	// MatchTypeOneToMany is one bank transaction paying several invoices.
	MatchTypeOneToMany = "ONE_TO_MANY"
	// MatchTypeManyToOne is several bank transactions paying one invoice.
	// Not produced by the search engine.
	MatchTypeManyToOne = "MANY_TO_ONE"
)

// SplitMatch is a proposed or decided allocation of one bank transaction
// across several invoices.
type SplitMatch struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID           uuid.UUID `gorm:"type:uuid;index"`
	BankTransactionID  uuid.UUID `gorm:"type:uuid;index"`
	MatchType          string    `gorm:"index"`
	TotalAmountCents   int64
	MatchedAmountCents int64
	RemainderCents     int64
	Status             string `gorm:"index"`
	Rank               int
	ConfirmedBy        *string
	ConfirmedAt        *time.Time
	RejectedReason     *string
	RejectedAt         *time.Time
	SearchDetails      datatypes.JSON
	Components         []SplitMatchComponent `gorm:"foreignKey:SplitMatchID"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsTerminal reports whether the split match can no longer change state.
func (m *SplitMatch) IsTerminal() bool {
	return m.Status == SplitMatchStatusConfirmed || m.Status == SplitMatchStatusRejected
}

// Recompute derives the matched and remainder amounts from the components.
func (m *SplitMatch) Recompute() {
	var matched int64
	for _, c := range m.Components {
		matched += c.AmountCents
	}
	m.MatchedAmountCents = matched
	m.RemainderCents = AbsCents(m.TotalAmountCents - matched)
}

// InvoiceIDs lists the component invoices in component order.
func (m *SplitMatch) InvoiceIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m.Components))
	for _, c := range m.Components {
		ids = append(ids, c.InvoiceID)
	}
	return ids
}

type SplitMatchComponent struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	SplitMatchID uuid.UUID  `gorm:"type:uuid;index;uniqueIndex:idx_component_match_invoice"`
	InvoiceID    uuid.UUID  `gorm:"type:uuid;index;uniqueIndex:idx_component_match_invoice"`
	PaymentID    *uuid.UUID `gorm:"type:uuid"`
	AmountCents  int64
	CreatedAt    time.Time
}

func AbsCents(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
