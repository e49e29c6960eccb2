package models

import "time"

// ClickEvent 跳转点击记录，只追加
type ClickEvent struct {
	ID             uint      `gorm:"primarykey" json:"id"`                        // 主键
	Slug           string    `gorm:"type:varchar(191);index;not null" json:"slug"` // 页面标识
	DestinationURL string    `gorm:"type:text;not null" json:"destination_url"`    // 跳转地址
	Referrer       string    `gorm:"type:varchar(1024)" json:"referrer"`           // 来源地址
	ClientIP       string    `gorm:"type:varchar(64)" json:"client_ip"`            // 客户端IP
	UserAgent      string    `gorm:"type:varchar(1024)" json:"user_agent"`         // 客户端UA
	CreatedAt      time.Time `gorm:"index;not null" json:"created_at"`            // 点击时间
}

// TableName 指定表名
func (ClickEvent) TableName() string {
	return "click_events"
}
