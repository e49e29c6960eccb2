package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/autoprofit/internal/constants"
	"github.com/autoprofit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository 订阅数据访问接口
type SubscriptionRepository interface {
	WithContext(ctx context.Context) SubscriptionRepository
	Upsert(sub *models.Subscription) error
	GetBySubscriptionID(subscriptionID string) (*models.Subscription, error)
	GetLatestByEmail(email string) (*models.Subscription, error)
	Count() (int64, error)
	CountActive() (int64, error)
}

// GormSubscriptionRepository GORM 实现
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository 创建订阅仓库
func NewSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// WithContext 绑定请求上下文
func (r *GormSubscriptionRepository) WithContext(ctx context.Context) SubscriptionRepository {
	if ctx == nil {
		return r
	}
	return &GormSubscriptionRepository{db: r.db.WithContext(ctx)}
}

// Upsert 按 Stripe 订阅ID原子写入，新事件缺少邮箱、客户ID或周期时保留已有值
func (r *GormSubscriptionRepository) Upsert(sub *models.Subscription) error {
	if sub == nil {
		return nil
	}
	sub.StripeSubscriptionID = strings.TrimSpace(sub.StripeSubscriptionID)
	sub.CustomerEmail = strings.TrimSpace(sub.CustomerEmail)
	sub.StripeCustomerID = strings.TrimSpace(sub.StripeCustomerID)

	updates := clause.AssignmentColumns([]string{"status", "source_event", "raw_json", "updated_at"})
	updates = append(updates,
		keepExisting("stripe_customer_id", "COALESCE(NULLIF(excluded.stripe_customer_id, ''), subscriptions.stripe_customer_id)"),
		keepExisting("customer_email", "COALESCE(NULLIF(excluded.customer_email, ''), subscriptions.customer_email)"),
		keepExisting("current_period_end", "COALESCE(excluded.current_period_end, subscriptions.current_period_end)"),
	)
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_subscription_id"}},
		DoUpdates: updates,
	}).Create(sub).Error
}

func keepExisting(column, expr string) clause.Assignment {
	return clause.Assignment{Column: clause.Column{Name: column}, Value: gorm.Expr(expr)}
}

// GetBySubscriptionID 根据 Stripe 订阅ID获取
func (r *GormSubscriptionRepository) GetBySubscriptionID(subscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.Where("stripe_subscription_id = ?", strings.TrimSpace(subscriptionID)).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// GetLatestByEmail 获取邮箱最近更新的订阅
func (r *GormSubscriptionRepository) GetLatestByEmail(email string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("customer_email = ?", strings.ToLower(strings.TrimSpace(email))).
		Order("updated_at DESC, id DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// Count 统计订阅数量
func (r *GormSubscriptionRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Subscription{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountActive 统计有效订阅数量
func (r *GormSubscriptionRepository) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&models.Subscription{}).
		Where("status IN ?", []string{constants.SubscriptionStatusActive, constants.SubscriptionStatusTrialing}).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
