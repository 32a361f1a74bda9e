package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"split-reconciliation-backend/internal/money"
	"split-reconciliation-backend/internal/services/splitmatch"
)

type SplitMatchHandler struct {
	service *splitmatch.Service
}

func NewSplitMatchHandler(s *splitmatch.Service) *SplitMatchHandler {
	return &SplitMatchHandler{service: s}
}

type suggestRequest struct {
	BankTransactionID string   `json:"bank_transaction_id" binding:"required"`
	AmountCents       int64    `json:"amount_cents"`
	Amount            string   `json:"amount"` // decimal alternative to amount_cents, e.g. "800.50"
	ToleranceCents    *int64   `json:"tolerance_cents"`
	MaxComponents     int      `json:"max_components"`
	MaxResults        int      `json:"max_results"`
	AllowSingle       bool     `json:"allow_single_invoice"`
	CustomerQuery     string   `json:"customer_query"`
	ExcludeInvoiceIDs []string `json:"exclude_invoice_ids"`
}

func (h *SplitMatchHandler) Suggest(c *gin.Context) {
	var payload suggestRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	bankTxID, err := uuid.Parse(payload.BankTransactionID)
	if err != nil {
		badRequest(c, "invalid bank transaction ID")
		return
	}

	amountCents := payload.AmountCents
	if payload.Amount != "" {
		if amountCents, err = money.ParseCents(payload.Amount); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	exclude, err := parseIDs(payload.ExcludeInvoiceIDs)
	if err != nil {
		badRequest(c, "invalid invoice ID in exclude_invoice_ids")
		return
	}

	res, err := h.service.Suggest(c.Request.Context(), tenantFrom(c), splitmatch.SuggestInput{
		BankTransactionID:  bankTxID,
		AmountCents:        amountCents,
		ToleranceCents:     payload.ToleranceCents,
		MaxComponents:      payload.MaxComponents,
		MaxResults:         payload.MaxResults,
		AllowSingleInvoice: payload.AllowSingle,
		CustomerQuery:      payload.CustomerQuery,
		ExcludeInvoiceIDs:  exclude,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":            toSplitMatchResponses(res.SplitMatches),
		"candidate_count": res.CandidateCount,
		"nodes_visited":   res.NodesVisited,
		"budget_exceeded": res.BudgetExceeded,
	})
}

type confirmRequest struct {
	Components []struct {
		InvoiceID   string `json:"invoice_id"`
		AmountCents int64  `json:"amount_cents"`
	} `json:"components"`
}

func (h *SplitMatchHandler) Confirm(c *gin.Context) {
	id, ok := splitMatchID(c)
	if !ok {
		return
	}

	var payload confirmRequest
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid payload")
		return
	}

	input := splitmatch.ConfirmInput{SplitMatchID: id}
	if payload.Components != nil {
		input.Components = make([]splitmatch.ComponentInput, 0, len(payload.Components))
		for _, comp := range payload.Components {
			invoiceID, err := uuid.Parse(comp.InvoiceID)
			if err != nil {
				badRequest(c, "invalid invoice ID")
				return
			}
			input.Components = append(input.Components, splitmatch.ComponentInput{
				InvoiceID:   invoiceID,
				AmountCents: comp.AmountCents,
			})
		}
	}

	res, err := h.service.Confirm(c.Request.Context(), tenantFrom(c), input, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"split_match":      toSplitMatchResponse(res.SplitMatch),
		"payments_created": res.PaymentsCreated,
	})
}

func (h *SplitMatchHandler) Reject(c *gin.Context) {
	id, ok := splitMatchID(c)
	if !ok {
		return
	}

	var payload struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid payload")
		return
	}

	m, err := h.service.Reject(c.Request.Context(), tenantFrom(c), id, payload.Reason, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSplitMatchResponse(m))
}

func (h *SplitMatchHandler) List(c *gin.Context) {
	page, err := intQuery(c, "page")
	if err != nil {
		badRequest(c, "invalid page")
		return
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		badRequest(c, "invalid limit")
		return
	}

	filter := splitmatch.ListFilter{
		Status:    c.Query("status"),
		MatchType: c.Query("match_type"),
		Page:      page,
		Limit:     limit,
	}
	if raw := c.Query("bank_transaction_id"); raw != "" {
		bankTxID, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, "invalid bank transaction ID")
			return
		}
		filter.BankTransactionID = &bankTxID
	}

	res, err := h.service.List(c.Request.Context(), tenantFrom(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":        toSplitMatchResponses(res.Data),
		"total":       res.Total,
		"page":        res.Page,
		"limit":       res.Limit,
		"total_pages": res.TotalPages,
	})
}

func (h *SplitMatchHandler) Get(c *gin.Context) {
	id, ok := splitMatchID(c)
	if !ok {
		return
	}

	m, err := h.service.Get(c.Request.Context(), tenantFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSplitMatchResponse(m))
}

func (h *SplitMatchHandler) History(c *gin.Context) {
	id, ok := splitMatchID(c)
	if !ok {
		return
	}

	entries, err := h.service.History(c.Request.Context(), tenantFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toAuditResponses(entries)})
}

func (h *SplitMatchHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), tenantFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStatsResponse(stats))
}

func (h *SplitMatchHandler) GetSettings(c *gin.Context) {
	settings, err := h.service.MatchSettings(c.Request.Context(), tenantFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSettingsResponse(settings))
}

func (h *SplitMatchHandler) UpdateSettings(c *gin.Context) {
	var payload struct {
		ToleranceCents int64 `json:"tolerance_cents"`
		MaxComponents  int   `json:"max_components"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	settings, err := h.service.UpdateMatchSettings(c.Request.Context(), tenantFrom(c), payload.ToleranceCents, payload.MaxComponents)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSettingsResponse(settings))
}

func splitMatchID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid split match ID")
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
