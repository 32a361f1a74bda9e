package splitmatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"split-reconciliation-backend/internal/apperr"
	"split-reconciliation-backend/internal/models"
	"split-reconciliation-backend/internal/repository"
)

// ComponentInput is one line of a human-edited allocation.
type ComponentInput struct {
	InvoiceID   uuid.UUID
	AmountCents int64
}

// ConfirmInput confirms a split match. A non-nil Components replaces the
// suggested allocation entirely.
type ConfirmInput struct {
	SplitMatchID uuid.UUID
	Components   []ComponentInput
}

type ConfirmResult struct {
	SplitMatch      *models.SplitMatch
	PaymentsCreated int
}

// Confirm commits a PENDING split match: one payment per component, invoice
// balances updated, status CONFIRMED. Other PENDING suggestions for the same
// bank transaction are rejected as superseded. Everything happens in one
// transaction; on failure the split match stays PENDING and nothing is paid.
func (s *Service) Confirm(ctx context.Context, tenantID uuid.UUID, in ConfirmInput, actorID string) (*ConfirmResult, error) {
	log := s.log.WithFields(logrus.Fields{
		"tenant_id":      tenantID,
		"split_match_id": in.SplitMatchID,
	})

	if strings.TrimSpace(actorID) == "" {
		return nil, apperr.Validation("actor is required to confirm a split match")
	}

	var result *ConfirmResult
	err := repository.WithinTx(ctx, s.uow, func(tx repository.Tx) error {
		m, err := loadPending(ctx, tx, tenantID, in.SplitMatchID)
		if err != nil {
			return err
		}

		components, err := effectiveComponents(ctx, tx, m, in.Components)
		if err != nil {
			return err
		}
		if in.Components != nil {
			if err := tx.SplitMatches().ReplaceComponents(ctx, m, components); err != nil {
				return err
			}
		}

		now := s.now()
		paidAt, reference := now, m.BankTransactionID.String()
		bankTx, err := tx.BankTransactions().GetByID(ctx, tenantID, m.BankTransactionID)
		switch {
		case err == nil:
			paidAt = bankTx.TransactionDate
			if bankTx.ReferenceNumber != "" {
				reference = bankTx.ReferenceNumber
			}
		case !apperr.IsNotFound(err):
			return err
		}

		for i := range m.Components {
			c := &m.Components[i]
			payment := &models.Payment{
				TenantID:          tenantID,
				InvoiceID:         c.InvoiceID,
				BankTransactionID: m.BankTransactionID,
				SplitMatchID:      &m.ID,
				AmountCents:       c.AmountCents,
				Source:            models.PaymentSourceSplitMatch,
				Reference:         reference,
				PaidAt:            paidAt,
			}
			if err := tx.Payments().CreatePayment(ctx, payment); err != nil {
				return err
			}
			if _, err := tx.Invoices().ApplyPayment(ctx, tenantID, c.InvoiceID, c.AmountCents, now); err != nil {
				return err
			}
			if err := tx.SplitMatches().SetComponentPayment(ctx, c.ID, payment.ID); err != nil {
				return err
			}
			c.PaymentID = &payment.ID
		}

		m.Recompute()
		m.Status = models.SplitMatchStatusConfirmed
		m.ConfirmedBy = &actorID
		m.ConfirmedAt = &now
		if err := tx.SplitMatches().LeavePending(ctx, m); err != nil {
			return err
		}

		superseded, err := supersedeSiblings(ctx, tx, m, actorID, now)
		if err != nil {
			return err
		}

		if bankTx != nil {
			if err := tx.BankTransactions().MarkStatus(ctx, tenantID, bankTx.ID, models.TransactionStatusMatched); err != nil {
				return err
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"payments_created":     len(m.Components),
			"matched_amount_cents": m.MatchedAmountCents,
			"remainder_cents":      m.RemainderCents,
			"overridden":           in.Components != nil,
			"superseded":           superseded,
		})
		if err := tx.Audit().Record(ctx, &models.MatchAuditLog{
			TenantID:          tenantID,
			SplitMatchID:      m.ID,
			BankTransactionID: m.BankTransactionID,
			Action:            models.AuditActionConfirmed,
			PerformedBy:       actorID,
			Details:           details,
		}); err != nil {
			return err
		}

		result = &ConfirmResult{SplitMatch: m, PaymentsCreated: len(m.Components)}
		return nil
	})
	if err != nil {
		log.WithError(err).Warn("confirm failed")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"payments_created":     result.PaymentsCreated,
		"matched_amount_cents": result.SplitMatch.MatchedAmountCents,
		"remainder_cents":      result.SplitMatch.RemainderCents,
	}).Info("split match confirmed")
	return result, nil
}

// Reject closes a PENDING split match without touching invoices or payments.
func (s *Service) Reject(ctx context.Context, tenantID, splitMatchID uuid.UUID, reason, actorID string) (*models.SplitMatch, error) {
	var rejected *models.SplitMatch
	err := repository.WithinTx(ctx, s.uow, func(tx repository.Tx) error {
		m, err := loadPending(ctx, tx, tenantID, splitMatchID)
		if err != nil {
			return err
		}

		now := s.now()
		m.Status = models.SplitMatchStatusRejected
		m.RejectedAt = &now
		if reason = strings.TrimSpace(reason); reason != "" {
			m.RejectedReason = &reason
		}
		if err := tx.SplitMatches().LeavePending(ctx, m); err != nil {
			return err
		}

		if err := tx.Audit().Record(ctx, &models.MatchAuditLog{
			TenantID:          tenantID,
			SplitMatchID:      m.ID,
			BankTransactionID: m.BankTransactionID,
			Action:            models.AuditActionRejected,
			PerformedBy:       actorID,
			Reason:            reason,
		}); err != nil {
			return err
		}

		rejected = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"tenant_id":      tenantID,
		"split_match_id": splitMatchID,
	}).Info("split match rejected")
	return rejected, nil
}

func loadPending(ctx context.Context, tx repository.Tx, tenantID, id uuid.UUID) (*models.SplitMatch, error) {
	m, err := tx.SplitMatches().GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if m.Status != models.SplitMatchStatusPending {
		return nil, apperr.Conflict("split match %s is already %s", m.ID, m.Status).
			With("split_match_id", m.ID.String()).
			With("status", m.Status)
	}
	return m, nil
}

// effectiveComponents validates the allocation that will be paid: the
// override when one is given, the stored components otherwise. It runs
// before any write.
func effectiveComponents(ctx context.Context, tx repository.Tx, m *models.SplitMatch, override []ComponentInput) ([]models.SplitMatchComponent, error) {
	components := m.Components
	if override != nil {
		if len(override) == 0 {
			return nil, apperr.Validation("override must contain at least one component")
		}
		components = make([]models.SplitMatchComponent, 0, len(override))
		for _, in := range override {
			components = append(components, models.SplitMatchComponent{
				InvoiceID:   in.InvoiceID,
				AmountCents: in.AmountCents,
			})
		}
	}
	if len(components) == 0 {
		return nil, apperr.Validation("split match %s has no components", m.ID)
	}

	seen := make(map[uuid.UUID]bool, len(components))
	ids := make([]uuid.UUID, 0, len(components))
	for _, c := range components {
		if c.AmountCents <= 0 {
			return nil, apperr.Validation("component amount must be positive, got %d for invoice %s", c.AmountCents, c.InvoiceID).
				With("invoice_id", c.InvoiceID.String())
		}
		if seen[c.InvoiceID] {
			return nil, apperr.Validation("invoice %s appears more than once", c.InvoiceID).
				With("invoice_id", c.InvoiceID.String())
		}
		seen[c.InvoiceID] = true
		ids = append(ids, c.InvoiceID)
	}

	invoices, err := tx.Invoices().GetByIDs(ctx, m.TenantID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Invoice, len(invoices))
	for _, inv := range invoices {
		byID[inv.ID] = inv
	}

	for _, c := range components {
		inv, ok := byID[c.InvoiceID]
		if !ok {
			return nil, apperr.Validation("invoice %s does not belong to the tenant", c.InvoiceID).
				With("invoice_id", c.InvoiceID.String())
		}
		if c.AmountCents > inv.OutstandingCents() {
			return nil, apperr.Conflict("component of %d exceeds outstanding balance %d on invoice %s",
				c.AmountCents, inv.OutstandingCents(), inv.InvoiceNumber).
				With("invoice_id", c.InvoiceID.String())
		}
	}
	return components, nil
}

// supersedeSiblings rejects the other PENDING suggestions for the same bank
// transaction and returns their ids.
func supersedeSiblings(ctx context.Context, tx repository.Tx, confirmed *models.SplitMatch, actorID string, now time.Time) ([]string, error) {
	siblings, err := tx.SplitMatches().ListPending(ctx, confirmed.TenantID, confirmed.BankTransactionID)
	if err != nil {
		return nil, err
	}

	reason := fmt.Sprintf("superseded by %s", confirmed.ID)
	ids := make([]string, 0, len(siblings))
	for i := range siblings {
		sib := &siblings[i]
		if sib.ID == confirmed.ID {
			continue
		}
		sib.Status = models.SplitMatchStatusRejected
		sib.RejectedReason = &reason
		sib.RejectedAt = &now
		if err := tx.SplitMatches().LeavePending(ctx, sib); err != nil {
			return nil, err
		}
		if err := tx.Audit().Record(ctx, &models.MatchAuditLog{
			TenantID:          sib.TenantID,
			SplitMatchID:      sib.ID,
			BankTransactionID: sib.BankTransactionID,
			Action:            models.AuditActionSuperseded,
			PerformedBy:       actorID,
			Reason:            reason,
		}); err != nil {
			return nil, err
		}
		ids = append(ids, sib.ID.String())
	}
	return ids, nil
}
