package splitmatch

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"split-reconciliation-backend/internal/apperr"
	"split-reconciliation-backend/internal/models"
	"split-reconciliation-backend/internal/repository"
	"split-reconciliation-backend/internal/services/matching"
)

// SuggestInput asks for split matches of one bank transaction. AmountCents
// defaults to the absolute amount of the stored transaction; when it is set
// the transaction does not have to be stored.
type SuggestInput struct {
	BankTransactionID  uuid.UUID
	AmountCents        int64
	ToleranceCents     *int64
	MaxComponents      int
	MaxResults         int
	AllowSingleInvoice bool
	CustomerQuery      string
	ExcludeInvoiceIDs  []uuid.UUID
}

type SuggestResult struct {
	SplitMatches   []models.SplitMatch
	CandidateCount int
	NodesVisited   int64
	BudgetExceeded bool
}

type searchDetails struct {
	TargetCents    int64 `json:"target_cents"`
	ToleranceCents int64 `json:"tolerance_cents"`
	MaxComponents  int   `json:"max_components"`
	MinComponents  int   `json:"min_components"`
	CandidateCount int   `json:"candidate_count"`
	NodesVisited   int64 `json:"nodes_visited"`
	BudgetExceeded bool  `json:"budget_exceeded"`
}

// Suggest searches the tenant's outstanding invoices for combinations that
// pay the bank transaction and stores each one as a PENDING split match.
// Finding nothing is not an error.
func (s *Service) Suggest(ctx context.Context, tenantID uuid.UUID, in SuggestInput) (*SuggestResult, error) {
	log := s.log.WithFields(logrus.Fields{
		"tenant_id":           tenantID,
		"bank_transaction_id": in.BankTransactionID,
	})

	if in.BankTransactionID == uuid.Nil {
		return nil, apperr.Validation("bank transaction id is required")
	}
	if in.AmountCents < 0 {
		return nil, apperr.Validation("amount must not be negative, got %d", in.AmountCents)
	}

	target, err := s.resolveTarget(ctx, tenantID, in)
	if err != nil {
		return nil, err
	}

	opts, err := s.searchOptions(ctx, tenantID, in)
	if err != nil {
		return nil, err
	}
	if err := opts.Validate(target); err != nil {
		return nil, err
	}

	invoices, err := s.selectCandidates(ctx, tenantID, target, opts, repository.InvoiceFilter{
		CustomerQuery: in.CustomerQuery,
		ExcludeIDs:    in.ExcludeInvoiceIDs,
	})
	if err != nil {
		return nil, err
	}
	result := &SuggestResult{SplitMatches: []models.SplitMatch{}, CandidateCount: len(invoices)}
	if len(invoices) == 0 {
		log.Debug("no candidate pool can reach the target, search skipped")
		return result, nil
	}

	byID := make(map[string]models.Invoice, len(invoices))
	candidates := make([]matching.Candidate, 0, len(invoices))
	for _, inv := range invoices {
		byID[inv.ID.String()] = inv
		candidates = append(candidates, matching.Candidate{ID: inv.ID.String(), AmountCents: inv.OutstandingCents()})
	}

	searchCtx := ctx
	if s.defaults.SearchTimeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, s.defaults.SearchTimeout)
		defer cancel()
	}

	found, err := matching.Search(searchCtx, target, candidates, opts)
	if err != nil {
		return nil, err
	}
	result.NodesVisited = found.NodesVisited
	result.BudgetExceeded = found.BudgetExceeded
	if found.BudgetExceeded {
		log.WithError(found.StopErr).Warn("search stopped early, returning partial results")
	}
	if len(found.Combinations) == 0 {
		log.WithField("nodes_visited", found.NodesVisited).Info("no combination within tolerance")
		return result, nil
	}

	details, err := json.Marshal(searchDetails{
		TargetCents:    target,
		ToleranceCents: opts.ToleranceCents,
		MaxComponents:  opts.MaxComponents,
		MinComponents:  opts.MinComponents,
		CandidateCount: len(candidates),
		NodesVisited:   found.NodesVisited,
		BudgetExceeded: found.BudgetExceeded,
	})
	if err != nil {
		return nil, apperr.Internal(err, "encode search details")
	}

	matches := make([]models.SplitMatch, 0, len(found.Combinations))
	for rank, combo := range found.Combinations {
		matches = append(matches, materialize(tenantID, in.BankTransactionID, target, rank, combo, byID, details))
	}

	err = repository.WithinTx(ctx, s.uow, func(tx repository.Tx) error {
		for i := range matches {
			if err := tx.SplitMatches().Create(ctx, &matches[i]); err != nil {
				return err
			}
			if err := tx.Audit().Record(ctx, &models.MatchAuditLog{
				TenantID:          tenantID,
				SplitMatchID:      matches[i].ID,
				BankTransactionID: in.BankTransactionID,
				Action:            models.AuditActionSuggested,
				PerformedBy:       "system",
				Details:           details,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.SplitMatches = matches
	log.WithFields(logrus.Fields{
		"suggestions":   len(matches),
		"nodes_visited": found.NodesVisited,
	}).Info("split matches suggested")
	return result, nil
}

// resolveTarget picks the amount to match. A stored transaction that is
// already matched cannot receive new suggestions.
func (s *Service) resolveTarget(ctx context.Context, tenantID uuid.UUID, in SuggestInput) (int64, error) {
	bankTx, err := s.uow.BankTransactions().GetByID(ctx, tenantID, in.BankTransactionID)
	switch {
	case apperr.IsNotFound(err):
		if in.AmountCents == 0 {
			return 0, err
		}
		return in.AmountCents, nil
	case err != nil:
		return 0, err
	}

	if bankTx.Status == models.TransactionStatusMatched {
		return 0, apperr.Conflict("bank transaction %s is already matched", bankTx.ID).
			With("bank_transaction_id", bankTx.ID.String())
	}
	if in.AmountCents > 0 {
		return in.AmountCents, nil
	}
	return models.AbsCents(bankTx.AmountCents), nil
}

// searchOptions layers per-call options over tenant settings over the
// service defaults.
func (s *Service) searchOptions(ctx context.Context, tenantID uuid.UUID, in SuggestInput) (matching.Options, error) {
	opts := matching.Options{
		ToleranceCents: s.defaults.ToleranceCents,
		MaxComponents:  s.defaults.MaxComponents,
		MinComponents:  matching.DefaultMinComponents,
		MaxResults:     s.defaults.MaxResults,
		NodeBudget:     s.defaults.NodeBudget,
		Workers:        s.defaults.Workers,
	}

	settings, err := s.uow.Settings().Get(ctx, tenantID)
	switch {
	case err == nil:
		opts.ToleranceCents = settings.ToleranceCents
		if settings.MaxComponents > 0 {
			opts.MaxComponents = settings.MaxComponents
		}
	case !apperr.IsNotFound(err):
		return opts, err
	}

	if in.ToleranceCents != nil {
		opts.ToleranceCents = *in.ToleranceCents
	}
	if in.MaxComponents != 0 {
		opts.MaxComponents = in.MaxComponents
	}
	if in.MaxResults != 0 {
		opts.MaxResults = in.MaxResults
	}
	if in.AllowSingleInvoice {
		opts.MinComponents = 1
	}
	return opts.WithDefaults(), nil
}

// selectCandidates returns the outstanding invoices to search, or nothing
// when the pool is too small or cannot reach the lower bound of the window.
func (s *Service) selectCandidates(ctx context.Context, tenantID uuid.UUID, target int64, opts matching.Options, filter repository.InvoiceFilter) ([]models.Invoice, error) {
	invoices, err := s.uow.Invoices().ListOutstanding(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	if len(invoices) < opts.MinComponents {
		return nil, nil
	}

	var total int64
	for _, inv := range invoices {
		total += inv.OutstandingCents()
	}
	if total < target-opts.ToleranceCents {
		return nil, nil
	}
	return invoices, nil
}

func materialize(tenantID, bankTxID uuid.UUID, target int64, rank int, combo matching.Combination, byID map[string]models.Invoice, details datatypes.JSON) models.SplitMatch {
	m := models.SplitMatch{
		ID:                uuid.New(),
		TenantID:          tenantID,
		BankTransactionID: bankTxID,
		MatchType:         models.MatchTypeOneToMany,
		TotalAmountCents:  target,
		Status:            models.SplitMatchStatusPending,
		Rank:              rank,
		SearchDetails:     details,
		Components:        make([]models.SplitMatchComponent, 0, combo.Size()),
	}
	for _, cand := range combo.Candidates {
		inv := byID[cand.ID]
		m.Components = append(m.Components, models.SplitMatchComponent{
			ID:           uuid.New(),
			SplitMatchID: m.ID,
			InvoiceID:    inv.ID,
			AmountCents:  cand.AmountCents,
		})
	}
	m.Recompute()
	return m
}
