package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/kupe-dashboard/analytics-engine/internal/reports"
	"github.com/kupe-dashboard/analytics-engine/internal/storage"
)

// Scheduler keeps the hot dashboard cache warm and prunes stale exports so
// interactive requests rarely pay the full assembly cost.
type Scheduler struct {
	cron          *cron.Cron
	engine        *reports.Engine
	cache         *storage.Cache
	exports       *storage.ExportStore
	retentionDays int
	logger        *zap.Logger
}

func New(
	engine *reports.Engine,
	cache *storage.Cache,
	exports *storage.ExportStore,
	retentionDays int,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		cron:          cron.New(cron.WithSeconds()),
		engine:        engine,
		cache:         cache,
		exports:       exports,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	// Dashboard cache warm-up every 5 minutes
	_, err := s.cron.AddFunc("0 */5 * * * *", func() {
		s.warmDashboardCache(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule cache warm-up: %w", err)
	}

	// Export retention sweep daily at 03:00 UTC
	_, err = s.cron.AddFunc("0 0 3 * * *", func() {
		s.cleanupExports(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule export cleanup: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))

	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) warmDashboardCache(ctx context.Context) {
	data, err := s.engine.Dashboard(ctx)
	if err != nil {
		s.logger.Error("failed to warm dashboard cache", zap.Error(err))
		return
	}
	if data.Degraded {
		s.logger.Warn("dashboard partially degraded, cache not refreshed")
		return
	}

	s.cache.SetJSON(ctx, reports.DashboardCacheKey, data)
	s.logger.Debug("dashboard cache warmed")
}

func (s *Scheduler) cleanupExports(ctx context.Context) {
	if s.retentionDays <= 0 {
		return
	}

	deleted, err := s.exports.CleanupOldExports(ctx, s.retentionDays)
	if err != nil {
		s.logger.Error("export cleanup failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		s.logger.Info("stale exports removed", zap.Int("count", deleted))
	}
}
