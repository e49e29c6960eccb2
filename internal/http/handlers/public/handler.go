package public

import "github.com/autoprofit/internal/provider"

// Handler 公开接口处理器入口
// 说明：站点页面、跳转、cron 触发与 Stripe 回调共用该处理器。
type Handler struct {
	*provider.Container
}

// New 创建公开处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
