package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"split-reconciliation-backend/internal/apperr"
	"split-reconciliation-backend/internal/models"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Record(ctx context.Context, entry *models.MatchAuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return apperr.Internal(err, "record %s audit entry", entry.Action)
	}
	return nil
}

// ListBySplitMatch returns the audit trail of a split match, oldest first.
func (r *AuditRepository) ListBySplitMatch(ctx context.Context, tenantID, splitMatchID uuid.UUID) ([]models.MatchAuditLog, error) {
	var entries []models.MatchAuditLog
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND split_match_id = ?", tenantID, splitMatchID).
		Order("created_at").
		Find(&entries).Error
	if err != nil {
		return nil, apperr.Internal(err, "list audit entries of split match %s", splitMatchID)
	}
	return entries, nil
}
