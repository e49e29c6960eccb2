package constants

// 流水线执行状态
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusPartial = "partial"
	RunStatusFailed  = "failed"
)

// 流水线触发来源
const (
	RunTriggerCLI      = "cli"
	RunTriggerCron     = "cron"
	RunTriggerSchedule = "schedule"
)

// 关键词跳过原因
const (
	SkipReasonNoOffer   = "no_offer"
	SkipReasonWordCount = "word_count"
	SkipReasonExisting  = "existing"
	SkipReasonEmptySlug = "empty_slug"
	SkipReasonDuplicate = "duplicate"
)

// Stripe 订阅状态
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusUnknown  = "unknown"
)

// 请求头
const (
	HeaderCronToken = "X-Cron-Token"
	HeaderRequestID = "X-Request-ID"
)

// 异步队列
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型
const (
	TaskPipelineRun   = "pipeline:run"
	TaskAlertDispatch = "alert:dispatch"
)
