package repository

import "gorm.io/gorm"

// PageListFilter 查询内容页列表的过滤条件
type PageListFilter struct {
	Page     int
	PageSize int
	OfferID  string
	Search   string
}

// paginate 按页码截取结果，PageSize 非正时返回全部
func (f PageListFilter) paginate(query *gorm.DB) *gorm.DB {
	if query == nil || f.PageSize <= 0 {
		return query
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	return query.Limit(f.PageSize).Offset((page - 1) * f.PageSize)
}
