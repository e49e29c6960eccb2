package service

import (
	"context"
	"fmt"
	"time"

	"github.com/autoprofit/internal/cache"
	"github.com/autoprofit/internal/logger"
	"github.com/autoprofit/internal/repository"
)

const (
	metricsCacheKey = "metrics:summary"
	metricsCacheTTL = 30 * time.Second
	recentClickSpan = 24 * time.Hour
)

// MetricsSummary 聚合计数
type MetricsSummary struct {
	Pages               int64 `json:"pages"`
	Clicks              int64 `json:"clicks"`
	Clicks24h           int64 `json:"clicks_24h"`
	Subscriptions       int64 `json:"subscriptions"`
	ActiveSubscriptions int64 `json:"active_subscriptions"`
	Runs                int64 `json:"runs"`
}

// MetricsService 只读聚合统计
type MetricsService struct {
	pageRepo  repository.PageRepository
	clickRepo repository.ClickRepository
	subRepo   repository.SubscriptionRepository
	runRepo   repository.PipelineRunRepository
	now       func() time.Time
}

// NewMetricsService 创建统计服务
func NewMetricsService(
	pageRepo repository.PageRepository,
	clickRepo repository.ClickRepository,
	subRepo repository.SubscriptionRepository,
	runRepo repository.PipelineRunRepository,
) *MetricsService {
	return &MetricsService{
		pageRepo:  pageRepo,
		clickRepo: clickRepo,
		subRepo:   subRepo,
		runRepo:   runRepo,
		now:       time.Now,
	}
}

// Summary 返回聚合计数，Redis 启用时短暂缓存
func (s *MetricsService) Summary(ctx context.Context, forceRefresh bool) (*MetricsSummary, error) {
	if !forceRefresh {
		var cached MetricsSummary
		hit, err := cache.GetJSON(ctx, metricsCacheKey, &cached)
		if err != nil {
			logger.Warnw("metrics_cache_read_failed", "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	summary, err := s.count(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := cache.SetJSON(ctx, metricsCacheKey, summary, metricsCacheTTL); err != nil {
		logger.Warnw("metrics_cache_write_failed", "error", err)
	}
	return summary, nil
}

func (s *MetricsService) count(ctx context.Context) (*MetricsSummary, error) {
	var (
		summary MetricsSummary
		err     error
	)
	if summary.Pages, err = s.pageRepo.WithContext(ctx).Count(); err != nil {
		return nil, err
	}
	if summary.Clicks, err = s.clickRepo.WithContext(ctx).Count(); err != nil {
		return nil, err
	}
	if summary.Clicks24h, err = s.clickRepo.WithContext(ctx).CountSince(s.now().Add(-recentClickSpan)); err != nil {
		return nil, err
	}
	if summary.Subscriptions, err = s.subRepo.WithContext(ctx).Count(); err != nil {
		return nil, err
	}
	if summary.ActiveSubscriptions, err = s.subRepo.WithContext(ctx).CountActive(); err != nil {
		return nil, err
	}
	if summary.Runs, err = s.runRepo.WithContext(ctx).Count(); err != nil {
		return nil, err
	}
	return &summary, nil
}
