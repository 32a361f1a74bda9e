package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"split-reconciliation-backend/internal/apperr"
	"split-reconciliation-backend/internal/models"
)

type SplitMatchRepository struct {
	db *gorm.DB
}

func NewSplitMatchRepository(db *gorm.DB) *SplitMatchRepository {
	return &SplitMatchRepository{db: db}
}

// componentOrder lists components the way the search ranks them.
func componentOrder(db *gorm.DB) *gorm.DB {
	return db.Order("amount_cents DESC").Order("invoice_id")
}

var listOrder = clause.OrderBy{Columns: []clause.OrderByColumn{
	{Column: clause.Column{Name: "created_at"}, Desc: true},
	{Column: clause.Column{Name: "rank"}},
	{Column: clause.Column{Name: "id"}},
}}

func (r *SplitMatchRepository) Create(ctx context.Context, m *models.SplitMatch) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return apperr.Internal(err, "create split match for bank transaction %s", m.BankTransactionID)
	}
	return nil
}

func (r *SplitMatchRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.SplitMatch, error) {
	var m models.SplitMatch
	err := r.db.WithContext(ctx).
		Preload("Components", componentOrder).
		First(&m, "id = ? AND tenant_id = ?", id, tenantID).Error
	if err != nil {
		return nil, translate(err, "split match %s", id)
	}
	return &m, nil
}

func (r *SplitMatchRepository) List(ctx context.Context, tenantID uuid.UUID, filter SplitMatchFilter) ([]models.SplitMatch, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.SplitMatch{}).Where("tenant_id = ?", tenantID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.MatchType != "" {
		q = q.Where("match_type = ?", filter.MatchType)
	}
	if filter.BankTransactionID != nil {
		q = q.Where("bank_transaction_id = ?", *filter.BankTransactionID)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err, "count split matches")
	}

	var matches []models.SplitMatch
	err := q.Preload("Components", componentOrder).
		Clauses(listOrder).
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&matches).Error
	if err != nil {
		return nil, 0, apperr.Internal(err, "list split matches")
	}
	return matches, total, nil
}

// StatusTotals is the number and matched sum of split matches in one status.
type StatusTotals struct {
	Status     string
	Count      int64
	TotalCents int64
}

// Stats groups the tenant's split matches by status.
func (r *SplitMatchRepository) Stats(ctx context.Context, tenantID uuid.UUID) ([]StatusTotals, error) {
	var rows []StatusTotals
	err := r.db.WithContext(ctx).Model(&models.SplitMatch{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(matched_amount_cents), 0) AS total_cents").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Order("status").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Internal(err, "aggregate split matches")
	}
	return rows, nil
}

// ListPending returns the PENDING split matches proposed for a bank
// transaction.
func (r *SplitMatchRepository) ListPending(ctx context.Context, tenantID, bankTransactionID uuid.UUID) ([]models.SplitMatch, error) {
	var matches []models.SplitMatch
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND bank_transaction_id = ? AND status = ?",
			tenantID, bankTransactionID, models.SplitMatchStatusPending).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "rank"}}).
		Find(&matches).Error
	if err != nil {
		return nil, apperr.Internal(err, "list pending split matches of bank transaction %s", bankTransactionID)
	}
	return matches, nil
}

// ReplaceComponents swaps the stored components of m for components and
// points m at the new set.
func (r *SplitMatchRepository) ReplaceComponents(ctx context.Context, m *models.SplitMatch, components []models.SplitMatchComponent) error {
	db := r.db.WithContext(ctx)

	if err := db.Where("split_match_id = ?", m.ID).Delete(&models.SplitMatchComponent{}).Error; err != nil {
		return apperr.Internal(err, "remove components of split match %s", m.ID)
	}

	for i := range components {
		components[i].SplitMatchID = m.ID
	}
	if len(components) > 0 {
		if err := db.Create(&components).Error; err != nil {
			return apperr.Internal(err, "store components of split match %s", m.ID)
		}
	}

	m.Components = components
	return nil
}

func (r *SplitMatchRepository) SetComponentPayment(ctx context.Context, componentID, paymentID uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&models.SplitMatchComponent{}).
		Where("id = ?", componentID).
		Update("payment_id", paymentID).Error
	if err != nil {
		return apperr.Internal(err, "link payment to component %s", componentID)
	}
	return nil
}

func (r *SplitMatchRepository) LeavePending(ctx context.Context, m *models.SplitMatch) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.SplitMatch{}).
		Where("id = ? AND tenant_id = ? AND status = ?", m.ID, m.TenantID, models.SplitMatchStatusPending).
		Updates(map[string]interface{}{
			"status":               m.Status,
			"matched_amount_cents": m.MatchedAmountCents,
			"remainder_cents":      m.RemainderCents,
			"confirmed_by":         m.ConfirmedBy,
			"confirmed_at":         m.ConfirmedAt,
			"rejected_reason":      m.RejectedReason,
			"rejected_at":          m.RejectedAt,
			"updated_at":           now,
		})
	if res.Error != nil {
		return apperr.Internal(res.Error, "update split match %s", m.ID)
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("split match %s is no longer pending", m.ID).
			With("split_match_id", m.ID.String())
	}
	m.UpdatedAt = now
	return nil
}
