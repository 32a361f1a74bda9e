package handler

import (
	"encoding/json"
	"time"

	"split-reconciliation-backend/internal/models"
	"split-reconciliation-backend/internal/money"
	"split-reconciliation-backend/internal/services/splitmatch"
)

type componentResponse struct {
	ID          string  `json:"id"`
	InvoiceID   string  `json:"invoice_id"`
	PaymentID   *string `json:"payment_id"`
	AmountCents int64   `json:"amount_cents"`
	Amount      string  `json:"amount"`
}

type splitMatchResponse struct {
	ID                 string              `json:"id"`
	BankTransactionID  string              `json:"bank_transaction_id"`
	MatchType          string              `json:"match_type"`
	Status             string              `json:"status"`
	Rank               int                 `json:"rank"`
	TotalAmountCents   int64               `json:"total_amount_cents"`
	MatchedAmountCents int64               `json:"matched_amount_cents"`
	RemainderCents     int64               `json:"remainder_cents"`
	TotalAmount        string              `json:"total_amount"`
	MatchedAmount      string              `json:"matched_amount"`
	Remainder          string              `json:"remainder"`
	ConfirmedBy        *string             `json:"confirmed_by"`
	ConfirmedAt        *time.Time          `json:"confirmed_at"`
	RejectedReason     *string             `json:"rejected_reason"`
	RejectedAt         *time.Time          `json:"rejected_at"`
	SearchDetails      json.RawMessage     `json:"search_details,omitempty"`
	Components         []componentResponse `json:"components"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

func toSplitMatchResponse(m *models.SplitMatch) splitMatchResponse {
	resp := splitMatchResponse{
		ID:                 m.ID.String(),
		BankTransactionID:  m.BankTransactionID.String(),
		MatchType:          m.MatchType,
		Status:             m.Status,
		Rank:               m.Rank,
		TotalAmountCents:   m.TotalAmountCents,
		MatchedAmountCents: m.MatchedAmountCents,
		RemainderCents:     m.RemainderCents,
		TotalAmount:        money.Format(m.TotalAmountCents),
		MatchedAmount:      money.Format(m.MatchedAmountCents),
		Remainder:          money.Format(m.RemainderCents),
		ConfirmedBy:        m.ConfirmedBy,
		ConfirmedAt:        m.ConfirmedAt,
		RejectedReason:     m.RejectedReason,
		RejectedAt:         m.RejectedAt,
		Components:         make([]componentResponse, 0, len(m.Components)),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	if len(m.SearchDetails) > 0 {
		resp.SearchDetails = json.RawMessage(m.SearchDetails)
	}
	for _, c := range m.Components {
		cr := componentResponse{
			ID:          c.ID.String(),
			InvoiceID:   c.InvoiceID.String(),
			AmountCents: c.AmountCents,
			Amount:      money.Format(c.AmountCents),
		}
		if c.PaymentID != nil {
			id := c.PaymentID.String()
			cr.PaymentID = &id
		}
		resp.Components = append(resp.Components, cr)
	}
	return resp
}

func toSplitMatchResponses(matches []models.SplitMatch) []splitMatchResponse {
	out := make([]splitMatchResponse, 0, len(matches))
	for i := range matches {
		out = append(out, toSplitMatchResponse(&matches[i]))
	}
	return out
}

type auditEntryResponse struct {
	Action      string          `json:"action"`
	PerformedBy string          `json:"performed_by"`
	Reason      string          `json:"reason,omitempty"`
	Details     json.RawMessage `json:"details,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toAuditResponses(entries []models.MatchAuditLog) []auditEntryResponse {
	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		r := auditEntryResponse{
			Action:      e.Action,
			PerformedBy: e.PerformedBy,
			Reason:      e.Reason,
			CreatedAt:   e.CreatedAt,
		}
		if len(e.Details) > 0 {
			r.Details = json.RawMessage(e.Details)
		}
		out = append(out, r)
	}
	return out
}

type statusSummaryResponse struct {
	Count      int64  `json:"count"`
	TotalCents int64  `json:"total_cents"`
	Total      string `json:"total"`
}

func toStatsResponse(stats map[string]splitmatch.StatusSummary) map[string]statusSummaryResponse {
	out := make(map[string]statusSummaryResponse, len(stats))
	for status, s := range stats {
		out[status] = statusSummaryResponse{
			Count:      s.Count,
			TotalCents: s.TotalCents,
			Total:      money.Format(s.TotalCents),
		}
	}
	return out
}

type settingsResponse struct {
	ToleranceCents int64  `json:"tolerance_cents"`
	Tolerance      string `json:"tolerance"`
	MaxComponents  int    `json:"max_components"`
}

func toSettingsResponse(s *models.TenantMatchSettings) settingsResponse {
	return settingsResponse{
		ToleranceCents: s.ToleranceCents,
		Tolerance:      money.Format(s.ToleranceCents),
		MaxComponents:  s.MaxComponents,
	}
}
