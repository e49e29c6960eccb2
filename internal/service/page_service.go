package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/autoprofit/internal/models"
	"github.com/autoprofit/internal/repository"
)

// PageListInput 内容页列表查询参数
type PageListInput struct {
	Page     int
	PageSize int
	OfferID  string
	Search   string
}

// PageDetail 内容页详情及累计点击
type PageDetail struct {
	models.Page
	Clicks int64 `json:"clicks"`
}

// PageService 已发布内容页查询
type PageService struct {
	pageRepo  repository.PageRepository
	clickRepo repository.ClickRepository
}

// NewPageService 创建内容页服务
func NewPageService(pageRepo repository.PageRepository, clickRepo repository.ClickRepository) *PageService {
	return &PageService{pageRepo: pageRepo, clickRepo: clickRepo}
}

// List 分页列出内容页，按最近发布排序
func (s *PageService) List(ctx context.Context, input PageListInput) ([]models.Page, int64, error) {
	pages, total, err := s.pageRepo.WithContext(ctx).List(repository.PageListFilter{
		Page:     input.Page,
		PageSize: input.PageSize,
		OfferID:  strings.TrimSpace(input.OfferID),
		Search:   strings.TrimSpace(input.Search),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list pages: %v", ErrStorageUnavailable, err)
	}
	return pages, total, nil
}

// Get 按 slug 获取内容页
func (s *PageService) Get(ctx context.Context, slug string) (*PageDetail, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrPageNotFound
	}
	page, err := s.pageRepo.WithContext(ctx).GetBySlug(slug)
	if err != nil {
		return nil, fmt.Errorf("%w: get page: %v", ErrStorageUnavailable, err)
	}
	if page == nil {
		return nil, ErrPageNotFound
	}
	clicks, err := s.clickRepo.WithContext(ctx).CountBySlug(page.Slug)
	if err != nil {
		return nil, fmt.Errorf("%w: count clicks: %v", ErrStorageUnavailable, err)
	}
	return &PageDetail{Page: *page, Clicks: clicks}, nil
}
