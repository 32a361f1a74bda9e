package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"split-reconciliation-backend/internal/apperr"
	"split-reconciliation-backend/internal/models"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the tenant's match settings, or a not-found error when the
// tenant never customised them.
func (r *SettingsRepository) Get(ctx context.Context, tenantID uuid.UUID) (*models.TenantMatchSettings, error) {
	var settings models.TenantMatchSettings
	err := r.db.WithContext(ctx).First(&settings, "tenant_id = ?", tenantID).Error
	if err != nil {
		return nil, translate(err, "match settings of tenant %s", tenantID)
	}
	return &settings, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.TenantMatchSettings) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"tolerance_cents", "max_components", "updated_at"}),
		}).
		Create(settings).Error
	if err != nil {
		return apperr.Internal(err, "save match settings of tenant %s", settings.TenantID)
	}
	return nil
}
