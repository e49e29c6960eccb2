package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/autoprofit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PageRepository 内容页数据访问接口
type PageRepository interface {
	WithContext(ctx context.Context) PageRepository
	Upsert(page *models.Page) error
	GetBySlug(slug string) (*models.Page, error)
	ExistsBySlug(slug string) (bool, error)
	List(filter PageListFilter) ([]models.Page, int64, error)
	ListRecent(limit int) ([]models.Page, error)
	Count() (int64, error)
}

// GormPageRepository GORM 实现
type GormPageRepository struct {
	db *gorm.DB
}

// NewPageRepository 创建内容页仓库
func NewPageRepository(db *gorm.DB) *GormPageRepository {
	return &GormPageRepository{db: db}
}

// WithContext 绑定请求上下文
func (r *GormPageRepository) WithContext(ctx context.Context) PageRepository {
	if ctx == nil {
		return r
	}
	return &GormPageRepository{db: r.db.WithContext(ctx)}
}

// Upsert 按 slug 写入内容页，已存在时覆盖内容与更新时间
func (r *GormPageRepository) Upsert(page *models.Page) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title",
			"keyword",
			"summary",
			"source_url",
			"offer_id",
			"offer_name",
			"offer_url",
			"html_path",
			"word_count",
			"updated_at",
		}),
	}).Create(page).Error
}

// GetBySlug 根据 slug 获取内容页
func (r *GormPageRepository) GetBySlug(slug string) (*models.Page, error) {
	var page models.Page
	if err := r.db.Where("slug = ?", strings.TrimSpace(slug)).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &page, nil
}

// ExistsBySlug 判断 slug 是否已发布
func (r *GormPageRepository) ExistsBySlug(slug string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Page{}).Where("slug = ?", strings.TrimSpace(slug)).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List 内容页列表
func (r *GormPageRepository) List(filter PageListFilter) ([]models.Page, int64, error) {
	query := r.db.Model(&models.Page{})
	if offerID := strings.TrimSpace(filter.OfferID); offerID != "" {
		query = query.Where("offer_id = ?", offerID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"slug", "keyword", "title"})
		query = query.Where(condition, repeatLikeArgs("%"+escapeLike(search)+"%", argCount)...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var pages []models.Page
	query = filter.paginate(query)
	if err := query.Order("updated_at DESC, slug ASC").Find(&pages).Error; err != nil {
		return nil, 0, err
	}
	return pages, total, nil
}

// ListRecent 最近发布的内容页
func (r *GormPageRepository) ListRecent(limit int) ([]models.Page, error) {
	var pages []models.Page
	query := r.db.Model(&models.Page{}).Order("updated_at DESC, slug ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

// Count 统计内容页数量
func (r *GormPageRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Page{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
