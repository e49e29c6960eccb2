package shared

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageQuery 通用分页查询参数
type PageQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// Normalize 返回归一化后的页码与每页数量
func (q PageQuery) Normalize() (int, int) {
	page, pageSize := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
