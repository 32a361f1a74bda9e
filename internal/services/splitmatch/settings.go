package splitmatch

import (
	"context"

	"github.com/google/uuid"

	"split-reconciliation-backend/internal/apperr"
	"split-reconciliation-backend/internal/models"
)

// MatchSettings returns the tenant's stored settings, or the service
// defaults when the tenant has none.
func (s *Service) MatchSettings(ctx context.Context, tenantID uuid.UUID) (*models.TenantMatchSettings, error) {
	settings, err := s.uow.Settings().Get(ctx, tenantID)
	if apperr.IsNotFound(err) {
		return &models.TenantMatchSettings{
			TenantID:       tenantID,
			ToleranceCents: s.defaults.ToleranceCents,
			MaxComponents:  s.defaults.MaxComponents,
		}, nil
	}
	return settings, err
}

func (s *Service) UpdateMatchSettings(ctx context.Context, tenantID uuid.UUID, toleranceCents int64, maxComponents int) (*models.TenantMatchSettings, error) {
	if toleranceCents < 0 {
		return nil, apperr.Validation("tolerance must not be negative, got %d", toleranceCents)
	}
	if maxComponents < 0 {
		return nil, apperr.Validation("max components must not be negative, got %d", maxComponents)
	}

	settings := &models.TenantMatchSettings{
		TenantID:       tenantID,
		ToleranceCents: toleranceCents,
		MaxComponents:  maxComponents,
		UpdatedAt:      s.now(),
	}
	if err := s.uow.Settings().Upsert(ctx, settings); err != nil {
		return nil, err
	}

	s.log.WithField("tenant_id", tenantID).Info("match settings updated")
	return settings, nil
}
