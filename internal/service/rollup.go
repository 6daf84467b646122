package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Couks/projeto-tfc-sub000/internal/repository"
)

// defaultRefreshDays is the window refreshed when the caller omits bounds.
const defaultRefreshDays = 90

// RollupService triggers recomputation of the daily rollups. This is a
// coarse maintenance operation; analyzer reads against an unrefreshed
// window silently see zero rows.
type RollupService struct {
	rollups repository.RollupRepository
	log     *zap.Logger
	now     func() time.Time
}

// NewRollupService creates a new rollup service
func NewRollupService(rollups repository.RollupRepository, log *zap.Logger) *RollupService {
	return &RollupService{
		rollups: rollups,
		log:     log,
		now:     time.Now,
	}
}

// Refresh recomputes the rollup window. Zero-value bounds default to the
// last 90 days.
func (s *RollupService) Refresh(ctx context.Context, from, to time.Time) error {
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -defaultRefreshDays)
	}

	s.log.Info("Refreshing rollup window",
		zap.Time("from", from),
		zap.Time("to", to))

	if err := s.rollups.Refresh(ctx, from, to); err != nil {
		return fmt.Errorf("failed to refresh rollups: %w", err)
	}
	return nil
}
