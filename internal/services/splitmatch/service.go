// Package splitmatch proposes, confirms and rejects split matches: the
// allocation of one bank transaction across several outstanding invoices.
package splitmatch

import (
	"time"

	"github.com/sirupsen/logrus"

	"split-reconciliation-backend/internal/config"
	"split-reconciliation-backend/internal/logger"
	"split-reconciliation-backend/internal/repository"
	"split-reconciliation-backend/internal/services/matching"
)

// Defaults are the service-wide search settings. Tenant settings and
// per-call options take precedence, in that order.
type Defaults struct {
	ToleranceCents int64
	MaxComponents  int
	MaxResults     int
	NodeBudget     int64
	SearchTimeout  time.Duration
	Workers        int
}

func DefaultsFromConfig(cfg config.MatchingConfig) Defaults {
	return Defaults{
		ToleranceCents: cfg.ToleranceCents,
		MaxComponents:  cfg.MaxComponents,
		MaxResults:     cfg.MaxResults,
		NodeBudget:     cfg.NodeBudget,
		SearchTimeout:  cfg.SearchTimeout,
		Workers:        cfg.Workers,
	}
}

func DefaultDefaults() Defaults {
	return Defaults{
		ToleranceCents: matching.DefaultToleranceCents,
		MaxComponents:  matching.DefaultMaxComponents,
		MaxResults:     matching.DefaultMaxResults,
		NodeBudget:     matching.DefaultNodeBudget,
		SearchTimeout:  2 * time.Second,
		Workers:        1,
	}
}

type Service struct {
	uow      repository.UnitOfWork
	defaults Defaults
	log      *logrus.Entry
	now      func() time.Time
}

func NewService(uow repository.UnitOfWork, defaults Defaults, log logrus.FieldLogger) *Service {
	return &Service{
		uow:      uow,
		defaults: defaults,
		log:      logger.WithComponent(log, "splitmatch"),
		now:      time.Now,
	}
}
