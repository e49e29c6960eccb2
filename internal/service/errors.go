package service

import "errors"

var (
	// ErrPageNotFound 跳转 slug 未知
	ErrPageNotFound = errors.New("page not found")
	// ErrStorageUnavailable 数据库不可用
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrPipelineBusy 已有流水线在执行
	ErrPipelineBusy = errors.New("pipeline run already in progress")
	// ErrPipelineFailed 流水线快速失败
	ErrPipelineFailed = errors.New("pipeline run failed")
	// ErrOffersUnavailable 联盟商品表无法加载
	ErrOffersUnavailable = errors.New("offers unavailable")
	// ErrStripeNotConfigured 未配置 Stripe 结账
	ErrStripeNotConfigured = errors.New("stripe is not configured")
	// ErrStripeWebhookNotConfigured 未配置 Stripe 回调密钥
	ErrStripeWebhookNotConfigured = errors.New("stripe webhook is not configured")
	// ErrStripeUpstream Stripe 接口调用失败
	ErrStripeUpstream = errors.New("stripe upstream error")
	// ErrWebhookSignatureInvalid 回调签名校验失败
	ErrWebhookSignatureInvalid = errors.New("invalid stripe signature")
	// ErrWebhookPayloadInvalid 回调内容无法解析
	ErrWebhookPayloadInvalid = errors.New("invalid stripe webhook payload")
	// ErrEmailRequired 邮箱参数缺失
	ErrEmailRequired = errors.New("email is required")
	// ErrAlertNotConfigured 未配置告警地址
	ErrAlertNotConfigured = errors.New("alert webhook is not configured")
	// ErrAlertDeliveryFailed 告警投递失败
	ErrAlertDeliveryFailed = errors.New("alert delivery failed")
)
