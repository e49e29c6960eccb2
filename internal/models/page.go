package models

import "time"

// Page 已发布的联盟内容页
type Page struct {
	Slug      string    `gorm:"primaryKey;type:varchar(191)" json:"slug"`          // 页面标识
	Title     string    `gorm:"type:text;not null" json:"title"`                   // 标题
	Keyword   string    `gorm:"type:text;not null" json:"keyword"`                 // 来源关键词
	Summary   string    `gorm:"type:text" json:"summary"`                          // 摘要
	SourceURL string    `gorm:"type:text" json:"source_url"`                       // 趋势来源链接
	OfferID   string    `gorm:"type:varchar(128);index;not null" json:"offer_id"`  // 联盟商品标识
	OfferName string    `gorm:"type:varchar(255)" json:"offer_name"`               // 联盟商品名称
	OfferURL  string    `gorm:"type:text;not null" json:"offer_url"`               // 跳转目标地址
	HTMLPath  string    `gorm:"type:text" json:"html_path"`                        // 静态文件路径
	WordCount int       `gorm:"not null;default:0" json:"word_count"`              // 正文词数
	CreatedAt time.Time `gorm:"index" json:"created_at"`                           // 首次发布时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                           // 最近发布时间
}

// TableName 指定表名
func (Page) TableName() string {
	return "pages"
}
