package models

import (
	"time"

	"github.com/autoprofit/internal/constants"
)

// Subscription Stripe 订阅状态，仅由 webhook 更新
type Subscription struct {
	ID                   uint       `gorm:"primarykey" json:"id"`                                             // 主键
	StripeSubscriptionID string     `gorm:"type:varchar(191);uniqueIndex;not null" json:"subscription_id"`    // Stripe 订阅ID
	StripeCustomerID     string     `gorm:"type:varchar(191);index" json:"customer_id"`                      // Stripe 客户ID
	CustomerEmail        string     `gorm:"type:varchar(320);index" json:"customer_email"`                   // 客户邮箱（小写）
	Status               string     `gorm:"type:varchar(64);not null" json:"status"`                         // 订阅状态
	CurrentPeriodEnd     *time.Time `json:"current_period_end"`                                              // 当前周期结束时间
	SourceEvent          string     `gorm:"type:varchar(128);not null" json:"source_event"`                  // 来源事件类型
	RawJSON              string     `gorm:"type:text" json:"-"`                                              // 原始事件
	UpdatedAt            time.Time  `gorm:"index" json:"updated_at"`                                         // 更新时间
}

// TableName 指定表名
func (Subscription) TableName() string {
	return "subscriptions"
}

// IsActive 订阅是否处于有效状态
func (s *Subscription) IsActive() bool {
	if s == nil {
		return false
	}
	return s.Status == constants.SubscriptionStatusActive || s.Status == constants.SubscriptionStatusTrialing
}
