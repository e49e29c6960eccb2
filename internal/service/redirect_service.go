package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/autoprofit/internal/logger"
	"github.com/autoprofit/internal/metrics"
	"github.com/autoprofit/internal/models"
	"github.com/autoprofit/internal/publisher"
	"github.com/autoprofit/internal/repository"
)

const maxClickMetaLength = 512

// RedirectInput 跳转请求信息
type RedirectInput struct {
	Slug      string
	Referrer  string
	ClientIP  string
	UserAgent string
}

// RedirectService 联盟链接跳转与点击记录
type RedirectService struct {
	pageRepo  repository.PageRepository
	clickRepo repository.ClickRepository
	metrics   *metrics.Collector
	now       func() time.Time
}

// NewRedirectService 创建跳转服务
func NewRedirectService(pageRepo repository.PageRepository, clickRepo repository.ClickRepository, collector *metrics.Collector) *RedirectService {
	return &RedirectService{
		pageRepo:  pageRepo,
		clickRepo: clickRepo,
		metrics:   collector,
		now:       time.Now,
	}
}

// Resolve 查找 slug 对应的跳转地址并记录一次点击
// slug 未知时返回 ErrPageNotFound 且不写入点击。
func (s *RedirectService) Resolve(ctx context.Context, input RedirectInput) (string, error) {
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if !publisher.ValidSlug(slug) {
		return "", ErrPageNotFound
	}
	page, err := s.pageRepo.WithContext(ctx).GetBySlug(slug)
	if err != nil {
		return "", fmt.Errorf("%w: get page: %v", ErrStorageUnavailable, err)
	}
	if page == nil || strings.TrimSpace(page.OfferURL) == "" {
		return "", ErrPageNotFound
	}

	click := &models.ClickEvent{
		Slug:           page.Slug,
		DestinationURL: page.OfferURL,
		Referrer:       truncate(input.Referrer, maxClickMetaLength),
		ClientIP:       truncate(input.ClientIP, 64),
		UserAgent:      truncate(input.UserAgent, maxClickMetaLength),
		CreatedAt:      s.now(),
	}
	if err := s.clickRepo.WithContext(ctx).Create(click); err != nil {
		return "", fmt.Errorf("%w: record click: %v", ErrStorageUnavailable, err)
	}
	s.metrics.IncClick()
	logger.Debugw("redirect_click_recorded", "slug", page.Slug, "click_id", click.ID)
	return page.OfferURL, nil
}

func truncate(value string, max int) string {
	value = strings.TrimSpace(value)
	if len(value) <= max {
		return value
	}
	return value[:max]
}
