package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/himilaisan-astr/elts-backend/internal/dto"
	appErrors "github.com/himilaisan-astr/elts-backend/pkg/errors"
)

type dashboardRepository interface {
	Stats(ctx context.Context, monthStart time.Time) (*dto.DashboardStats, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService computes admin statistics, served from cache when enabled.
type DashboardService struct {
	repo    dashboardRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
	cfg     DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(repo dashboardRepository, cache *CacheService, metrics *MetricsService, cfg DashboardServiceConfig, logger *zap.Logger) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, cache: cache, metrics: metrics, logger: logger, now: time.Now, cfg: cfg}
}

// Stats returns the dashboard counters and whether they came from cache.
func (s *DashboardService) Stats(ctx context.Context) (*dto.DashboardStats, bool, error) {
	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	key := "dash:stats:" + monthStart.Format("2006-01")

	var cached dto.DashboardStats
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	start := time.Now()
	stats, err := s.repo.Stats(ctx, monthStart)
	s.metrics.ObserveDBQuery("dashboard_stats", time.Since(start))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute dashboard stats")
	}

	if err := s.cache.Set(ctx, key, stats, s.cfg.CacheTTL); err != nil {
		s.logger.Debug("dashboard cache write skipped", zap.Error(err))
	}
	return stats, false, nil
}
