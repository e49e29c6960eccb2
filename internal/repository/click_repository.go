package repository

import (
	"context"
	"strings"
	"time"

	"github.com/autoprofit/internal/models"

	"gorm.io/gorm"
)

// ClickRepository 点击记录数据访问接口
type ClickRepository interface {
	WithContext(ctx context.Context) ClickRepository
	Create(click *models.ClickEvent) error
	Count() (int64, error)
	CountBySlug(slug string) (int64, error)
	CountSince(since time.Time) (int64, error)
}

// GormClickRepository GORM 实现
type GormClickRepository struct {
	db *gorm.DB
}

// NewClickRepository 创建点击记录仓库
func NewClickRepository(db *gorm.DB) *GormClickRepository {
	return &GormClickRepository{db: db}
}

// WithContext 绑定请求上下文
func (r *GormClickRepository) WithContext(ctx context.Context) ClickRepository {
	if ctx == nil {
		return r
	}
	return &GormClickRepository{db: r.db.WithContext(ctx)}
}

// Create 追加点击记录
func (r *GormClickRepository) Create(click *models.ClickEvent) error {
	return r.db.Create(click).Error
}

// Count 统计全部点击
func (r *GormClickRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.ClickEvent{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountBySlug 统计单页点击
func (r *GormClickRepository) CountBySlug(slug string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.ClickEvent{}).Where("slug = ?", strings.TrimSpace(slug)).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountSince 统计指定时间之后的点击
func (r *GormClickRepository) CountSince(since time.Time) (int64, error) {
	var count int64
	if err := r.db.Model(&models.ClickEvent{}).Where("created_at >= ?", since).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
