package public

import (
	"net/http"

	"github.com/autoprofit/internal/http/response"
	"github.com/autoprofit/internal/service"

	"github.com/gin-gonic/gin"
)

// Redirect 联盟跳转：记录点击后 307 到商品地址
func (h *Handler) Redirect(c *gin.Context) {
	target, err := h.RedirectService.Resolve(c.Request.Context(), service.RedirectInput{
		Slug:      c.Param("slug"),
		Referrer:  c.GetHeader("Referer"),
		ClientIP:  c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		respondWithMappedError(c, err, redirectErrorRules, response.CodeInternal, "redirect failed")
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, target)
}
