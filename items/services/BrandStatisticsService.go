package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"elasticsearch-demo-backend/cache"
	item_repositories "elasticsearch-demo-backend/items/repositories"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const brandStatsResource = "item_brand_stats"

// BrandStatisticsService serves the brands aggregation through a
// cache-aside layer. A failing cache never fails the request.
type BrandStatisticsService struct {
	repo   item_repositories.ItemRepository
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewBrandStatisticsService(repo item_repositories.ItemRepository, c cache.Cache, ttl time.Duration, logger *zap.Logger) *BrandStatisticsService {
	if c == nil {
		c = cache.Noop{}
	}
	return &BrandStatisticsService{repo: repo, cache: c, ttl: ttl, logger: logger}
}

func cacheParams(withPriceAvg bool) map[string]string {
	return map[string]string{"price_avg": strconv.FormatBool(withPriceAvg)}
}

func (s *BrandStatisticsService) Get(ctx context.Context, withPriceAvg bool) ([]item_repositories.BrandStat, error) {
	params := cacheParams(withPriceAvg)

	var cached []item_repositories.BrandStat
	found, err := s.cache.Get(ctx, brandStatsResource, params, &cached)
	if err != nil {
		s.logger.Warn("Brand statistics cache read failed", zap.Error(err))
	}
	if found {
		return cached, nil
	}

	stats, err := s.repo.BrandStatistics(ctx, withPriceAvg)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, brandStatsResource, params, stats, s.ttl); err != nil {
		s.logger.Warn("Brand statistics cache write failed", zap.Error(err))
	}
	return stats, nil
}

// Invalidate drops every cached variant. Called after item writes.
func (s *BrandStatisticsService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, brandStatsResource); err != nil {
		s.logger.Warn("Brand statistics cache invalidation failed", zap.Error(err))
	}
}

// Warm recomputes both variants and stores them.
func (s *BrandStatisticsService) Warm(ctx context.Context) error {
	for _, withPriceAvg := range []bool{false, true} {
		stats, err := s.repo.BrandStatistics(ctx, withPriceAvg)
		if err != nil {
			return fmt.Errorf("warm brand statistics: %w", err)
		}
		if err := s.cache.Set(ctx, brandStatsResource, cacheParams(withPriceAvg), stats, s.ttl); err != nil {
			return fmt.Errorf("warm brand statistics: %w", err)
		}
	}
	return nil
}

// StartWarmup schedules Warm on the given cron spec. The caller stops the
// returned scheduler on shutdown.
func (s *BrandStatisticsService) StartWarmup(schedule string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := s.Warm(ctx); err != nil {
			s.logger.Error("Scheduled brand statistics warm-up failed", zap.Error(err))
			return
		}
		s.logger.Info("Brand statistics cache warmed")
	})
	if err != nil {
		return nil, fmt.Errorf("invalid warm-up schedule %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}
