package public

import (
	"errors"
	"io"
	"strings"

	"github.com/autoprofit/internal/http/response"

	"github.com/gin-gonic/gin"
)

// CheckoutRequest 结账请求
type CheckoutRequest struct {
	Email string `json:"email"`
}

// CreateCheckout 创建 Stripe 订阅结账会话
func (h *Handler) CreateCheckout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "invalid request body")
		return
	}
	session, err := h.SubscriptionService.CreateCheckout(c.Request.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "create checkout failed")
		return
	}
	response.Success(c, session)
}

// StripeWebhook Stripe webhook 回调。
func (h *Handler) StripeWebhook(c *gin.Context) {
	log := requestLog(c)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warnw("stripe_webhook_body_read_failed", "error", err)
		response.BadRequest(c, "read body failed")
		return
	}
	headers := make(map[string]string)
	for key, values := range c.Request.Header {
		if len(values) == 0 {
			continue
		}
		headers[key] = values[0]
	}
	outcome, err := h.SubscriptionService.HandleWebhook(c.Request.Context(), headers, body)
	if err != nil {
		log.Warnw("stripe_webhook_handle_failed", "client_ip", c.ClientIP(), "body_size", len(body), "error", err)
		respondWithMappedError(c, err, webhookErrorRules, response.CodeInternal, "webhook handling failed")
		return
	}
	response.Success(c, gin.H{
		"received":   true,
		"event_type": outcome.EventType,
		"applied":    outcome.Applied,
	})
}

// SubscriptionStatus 按邮箱查询订阅状态
func (h *Handler) SubscriptionStatus(c *gin.Context) {
	status, err := h.SubscriptionService.Status(c.Request.Context(), c.Query("email"))
	if err != nil {
		respondWithMappedError(c, err, subscriptionStatusErrorRules, response.CodeInternal, "subscription lookup failed")
		return
	}
	response.Success(c, status)
}
