package public

import (
	"errors"
	"net/http"
	"strings"

	"github.com/autoprofit/internal/http/response"
	"github.com/autoprofit/internal/publisher"

	"github.com/gin-gonic/gin"
)

const htmlContentType = "text/html; charset=utf-8"

// Health 健康检查，不访问数据库
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"database_provider": h.Config.Database.Provider(),
	})
}

// Favicon 返回空响应
func (h *Handler) Favicon(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Home 站点首页，index.html 尚未生成时按数据库即时渲染
func (h *Handler) Home(c *gin.Context) {
	html, err := h.Publisher.ReadIndex()
	if err == nil {
		c.Data(http.StatusOK, htmlContentType, html)
		return
	}
	if !errors.Is(err, publisher.ErrPageNotFound) {
		respondError(c, response.CodeInternal, "read index failed", err)
		return
	}
	html, err = h.PipelineService.IndexHTML(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "render index failed", err)
		return
	}
	c.Data(http.StatusOK, htmlContentType, html)
}

// Post 返回已发布的静态页，路径形如 /posts/<slug>.html
func (h *Handler) Post(c *gin.Context) {
	file := c.Param("file")
	if !strings.HasSuffix(file, ".html") {
		response.NotFound(c, "post not found")
		return
	}
	html, err := h.Publisher.ReadPage(strings.TrimSuffix(file, ".html"))
	if err != nil {
		if errors.Is(err, publisher.ErrPageNotFound) || errors.Is(err, publisher.ErrInvalidSlug) {
			response.NotFound(c, "post not found")
			return
		}
		respondError(c, response.CodeInternal, "read post failed", err)
		return
	}
	c.Data(http.StatusOK, htmlContentType, html)
}
