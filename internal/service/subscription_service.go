package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/autoprofit/internal/config"
	"github.com/autoprofit/internal/constants"
	"github.com/autoprofit/internal/logger"
	"github.com/autoprofit/internal/metrics"
	"github.com/autoprofit/internal/models"
	"github.com/autoprofit/internal/payment/stripe"
	"github.com/autoprofit/internal/repository"
)

// CheckoutSession 结账会话
type CheckoutSession struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// WebhookOutcome webhook 处理结果
type WebhookOutcome struct {
	EventType      string `json:"event_type"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	Applied        bool   `json:"applied"`
}

// SubscriptionStatus 订阅状态查询结果
type SubscriptionStatus struct {
	Email            string     `json:"email"`
	Active           bool       `json:"active"`
	Status           string     `json:"status"`
	SubscriptionID   *string    `json:"subscription_id"`
	CurrentPeriodEnd *time.Time `json:"current_period_end"`
}

// SubscriptionService Stripe 订阅：结账、回调、状态查询
type SubscriptionService struct {
	repo    repository.SubscriptionRepository
	stripe  stripe.Config
	metrics *metrics.Collector
	now     func() time.Time
}

// NewSubscriptionService 创建订阅服务
func NewSubscriptionService(cfg config.StripeConfig, repo repository.SubscriptionRepository, collector *metrics.Collector) *SubscriptionService {
	stripeCfg := stripe.Config{
		SecretKey:     cfg.SecretKey,
		PriceID:       cfg.PriceID,
		WebhookSecret: cfg.WebhookSecret,
		SuccessURL:    cfg.SuccessURL,
		CancelURL:     cfg.CancelURL,
		APIBaseURL:    cfg.APIBaseURL,
	}
	stripeCfg.Normalize()
	return &SubscriptionService{
		repo:    repo,
		stripe:  stripeCfg,
		metrics: collector,
		now:     time.Now,
	}
}

// CheckoutEnabled 是否可创建结账
func (s *SubscriptionService) CheckoutEnabled() bool {
	return s.stripe.SecretKey != "" && s.stripe.PriceID != ""
}

// WebhookEnabled 是否可处理回调
func (s *SubscriptionService) WebhookEnabled() bool {
	return s.stripe.WebhookSecret != ""
}

// CreateCheckout 创建订阅结账会话
func (s *SubscriptionService) CreateCheckout(ctx context.Context, email string) (*CheckoutSession, error) {
	if !s.CheckoutEnabled() {
		return nil, ErrStripeNotConfigured
	}
	result, err := stripe.CreateSubscriptionCheckout(ctx, &s.stripe, stripe.CheckoutInput{Email: email})
	if err != nil {
		if errors.Is(err, stripe.ErrConfigInvalid) {
			return nil, fmt.Errorf("%w: %v", ErrStripeNotConfigured, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrStripeUpstream, err)
	}
	return &CheckoutSession{SessionID: result.SessionID, CheckoutURL: result.URL}, nil
}

// HandleWebhook 校验签名并写入订阅状态
// 签名失败时不触碰任何订阅记录。
func (s *SubscriptionService) HandleWebhook(ctx context.Context, headers map[string]string, body []byte) (*WebhookOutcome, error) {
	if !s.WebhookEnabled() {
		return nil, ErrStripeWebhookNotConfigured
	}
	event, err := stripe.VerifyAndParseWebhook(&s.stripe, headers, body, s.now())
	if err != nil {
		if errors.Is(err, stripe.ErrSignatureInvalid) {
			s.metrics.IncWebhook("", "rejected")
			return nil, fmt.Errorf("%w: %v", ErrWebhookSignatureInvalid, err)
		}
		s.metrics.IncWebhook("", "invalid")
		return nil, fmt.Errorf("%w: %v", ErrWebhookPayloadInvalid, err)
	}

	outcome := &WebhookOutcome{EventType: event.EventType, SubscriptionID: event.SubscriptionID}
	if !event.Relevant {
		s.metrics.IncWebhook(event.EventType, "ignored")
		logger.Debugw("stripe_webhook_ignored", "event_id", event.EventID, "event_type", event.EventType)
		return outcome, nil
	}

	email := event.CustomerEmail
	if email == "" && event.EventType != stripe.EventCheckoutCompleted {
		email = s.lookupCustomerEmail(ctx, event.CustomerID)
	}
	sub := &models.Subscription{
		StripeSubscriptionID: event.SubscriptionID,
		StripeCustomerID:     event.CustomerID,
		CustomerEmail:        normalizeEmail(email),
		Status:               event.Status,
		CurrentPeriodEnd:     event.CurrentPeriodEnd,
		SourceEvent:          event.EventType,
		RawJSON:              string(event.Body),
		UpdatedAt:            s.now(),
	}
	if err := s.repo.WithContext(ctx).Upsert(sub); err != nil {
		s.metrics.IncWebhook(event.EventType, "error")
		return nil, fmt.Errorf("%w: upsert subscription: %v", ErrStorageUnavailable, err)
	}
	outcome.Applied = true
	s.metrics.IncWebhook(event.EventType, "applied")
	logger.Infow("stripe_webhook_applied",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"subscription_id", event.SubscriptionID,
		"status", event.Status,
	)
	return outcome, nil
}

// lookupCustomerEmail 通过 Stripe 客户接口补全邮箱，失败时返回空字符串
func (s *SubscriptionService) lookupCustomerEmail(ctx context.Context, customerID string) string {
	if customerID == "" || s.stripe.SecretKey == "" {
		return ""
	}
	email, err := stripe.GetCustomerEmail(ctx, &s.stripe, customerID)
	if err != nil {
		logger.Warnw("stripe_customer_lookup_failed", "customer_id", customerID, "error", err)
		return ""
	}
	return email
}

// Status 查询邮箱的最新订阅状态，无记录时返回 unknown
func (s *SubscriptionService) Status(ctx context.Context, email string) (*SubscriptionStatus, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	sub, err := s.repo.WithContext(ctx).GetLatestByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%w: get subscription: %v", ErrStorageUnavailable, err)
	}
	if sub == nil {
		return &SubscriptionStatus{Email: email, Status: constants.SubscriptionStatusUnknown}, nil
	}
	status := sub.Status
	if status == "" {
		status = constants.SubscriptionStatusUnknown
	}
	subscriptionID := sub.StripeSubscriptionID
	return &SubscriptionStatus{
		Email:            email,
		Active:           sub.IsActive(),
		Status:           status,
		SubscriptionID:   &subscriptionID,
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
