package splitmatch

import (
	"context"

	"github.com/google/uuid"

	"split-reconciliation-backend/internal/apperr"
	"split-reconciliation-backend/internal/models"
	"split-reconciliation-backend/internal/repository"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type ListFilter struct {
	Status            string
	MatchType         string
	BankTransactionID *uuid.UUID
	Page              int
	Limit             int
}

type Page struct {
	Data       []models.SplitMatch
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// StatusSummary counts split matches in one status. TotalCents is the sum
// of their matched amounts.
type StatusSummary struct {
	Count      int64
	TotalCents int64
}

// List pages through the tenant's split matches, newest first.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) (*Page, error) {
	switch filter.Status {
	case "", models.SplitMatchStatusPending, models.SplitMatchStatusConfirmed, models.SplitMatchStatusRejected:
	default:
		return nil, apperr.Validation("unknown status %q", filter.Status)
	}
	switch filter.MatchType {
	case "", models.MatchTypeOneToMany, models.MatchTypeManyToOne:
	default:
		return nil, apperr.Validation("unknown match type %q", filter.MatchType)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	matches, total, err := s.uow.SplitMatches().List(ctx, tenantID, repository.SplitMatchFilter{
		Status:            filter.Status,
		MatchType:         filter.MatchType,
		BankTransactionID: filter.BankTransactionID,
		Offset:            (page - 1) * limit,
		Limit:             limit,
	})
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []models.SplitMatch{}
	}

	return &Page{
		Data:       matches,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.SplitMatch, error) {
	return s.uow.SplitMatches().GetByID(ctx, tenantID, id)
}

// History returns the audit trail of a split match, oldest first.
func (s *Service) History(ctx context.Context, tenantID, id uuid.UUID) ([]models.MatchAuditLog, error) {
	if _, err := s.uow.SplitMatches().GetByID(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return s.uow.Audit().ListBySplitMatch(ctx, tenantID, id)
}

// Stats summarises the tenant's split matches per status. Every status is
// present, with zero counts when unused.
func (s *Service) Stats(ctx context.Context, tenantID uuid.UUID) (map[string]StatusSummary, error) {
	rows, err := s.uow.SplitMatches().Stats(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	stats := map[string]StatusSummary{
		models.SplitMatchStatusPending:   {},
		models.SplitMatchStatusConfirmed: {},
		models.SplitMatchStatusRejected:  {},
	}
	for _, row := range rows {
		stats[row.Status] = StatusSummary{Count: row.Count, TotalCents: row.TotalCents}
	}
	return stats, nil
}
