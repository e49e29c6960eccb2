package repository

import (
	"context"
	"errors"
	"time"

	"github.com/autoprofit/internal/models"

	"gorm.io/gorm"
)

// PipelineRunRepository 流水线执行记录数据访问接口
type PipelineRunRepository interface {
	WithContext(ctx context.Context) PipelineRunRepository
	Start(run *models.PipelineRun) error
	Finish(id uint, status string, summary models.JSON, finishedAt time.Time) error
	GetByID(id uint) (*models.PipelineRun, error)
	GetLatest() (*models.PipelineRun, error)
	Count() (int64, error)
}

// GormPipelineRunRepository GORM 实现
type GormPipelineRunRepository struct {
	db *gorm.DB
}

// NewPipelineRunRepository 创建执行记录仓库
func NewPipelineRunRepository(db *gorm.DB) *GormPipelineRunRepository {
	return &GormPipelineRunRepository{db: db}
}

// WithContext 绑定请求上下文
func (r *GormPipelineRunRepository) WithContext(ctx context.Context) PipelineRunRepository {
	if ctx == nil {
		return r
	}
	return &GormPipelineRunRepository{db: r.db.WithContext(ctx)}
}

// Start 写入执行开始记录
func (r *GormPipelineRunRepository) Start(run *models.PipelineRun) error {
	return r.db.Create(run).Error
}

// Finish 更新执行结果
func (r *GormPipelineRunRepository) Finish(id uint, status string, summary models.JSON, finishedAt time.Time) error {
	return r.db.Model(&models.PipelineRun{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":      status,
		"summary":     summary,
		"finished_at": finishedAt,
	}).Error
}

// GetByID 根据 ID 获取执行记录
func (r *GormPipelineRunRepository) GetByID(id uint) (*models.PipelineRun, error) {
	var run models.PipelineRun
	if err := r.db.First(&run, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

// GetLatest 获取最近一次执行
func (r *GormPipelineRunRepository) GetLatest() (*models.PipelineRun, error) {
	var run models.PipelineRun
	if err := r.db.Order("started_at DESC, id DESC").First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

// Count 统计执行次数
func (r *GormPipelineRunRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.PipelineRun{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
