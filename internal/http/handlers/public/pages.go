package public

import (
	handlershared "github.com/autoprofit/internal/http/handlers/shared"
	"github.com/autoprofit/internal/http/response"
	"github.com/autoprofit/internal/service"

	"github.com/gin-gonic/gin"
)

// PageListQuery 内容页列表参数
type PageListQuery struct {
	handlershared.PageQuery
	OfferID string `form:"offer_id"`
	Search  string `form:"search"`
}

// ListPages 已发布内容页列表
func (h *Handler) ListPages(c *gin.Context) {
	var query PageListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "invalid query")
		return
	}
	page, pageSize := query.Normalize()
	pages, total, err := h.PageService.List(c.Request.Context(), service.PageListInput{
		Page:     page,
		PageSize: pageSize,
		OfferID:  query.OfferID,
		Search:   query.Search,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "pages unavailable", err)
		return
	}
	response.SuccessWithPage(c, pages, response.BuildPagination(page, pageSize, total))
}

// GetPage 内容页详情
func (h *Handler) GetPage(c *gin.Context) {
	page, err := h.PageService.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondWithMappedError(c, err, pageErrorRules, response.CodeInternal, "pages unavailable")
		return
	}
	response.Success(c, page)
}
