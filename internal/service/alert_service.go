package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/autoprofit/internal/config"
	"github.com/autoprofit/internal/logger"
	"github.com/autoprofit/internal/queue"
)

const defaultAlertTimeout = 10 * time.Second

// AlertService 外部告警投递
// 队列启用时异步投递并由 worker 重试，否则同步发送。
type AlertService struct {
	webhookURL  string
	queueClient *queue.Client
	httpClient  *http.Client
	now         func() time.Time
}

// NewAlertService 创建告警服务
func NewAlertService(cfg config.AlertConfig, queueClient *queue.Client) *AlertService {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultAlertTimeout
	}
	return &AlertService{
		webhookURL:  strings.TrimSpace(cfg.WebhookURL),
		queueClient: queueClient,
		httpClient:  &http.Client{Timeout: timeout},
		now:         time.Now,
	}
}

// Enabled 是否配置了告警地址
func (s *AlertService) Enabled() bool {
	return s != nil && s.webhookURL != ""
}

// Notify 发送告警，投递失败只记录日志
func (s *AlertService) Notify(ctx context.Context, source, message string, details map[string]interface{}) {
	if !s.Enabled() {
		return
	}
	payload := queue.AlertDispatchPayload{
		Source:  source,
		Message: message,
		Details: details,
	}
	if s.queueClient.Enabled() {
		err := s.queueClient.EnqueueAlertDispatch(payload)
		if err == nil {
			return
		}
		logger.Warnw("alert_enqueue_failed", "source", source, "error", err)
	}
	if err := s.Dispatch(ctx, payload); err != nil {
		logger.Warnw("alert_dispatch_failed", "source", source, "error", err)
	}
}

// Dispatch 向告警 webhook 发送 JSON，兼容 Slack 的 text 字段
func (s *AlertService) Dispatch(ctx context.Context, payload queue.AlertDispatchPayload) error {
	if !s.Enabled() {
		return ErrAlertNotConfigured
	}
	if ctx == nil {
		ctx = context.Background()
	}
	body, err := json.Marshal(map[string]interface{}{
		"text":    fmt.Sprintf("[autoprofit:%s] %s", payload.Source, payload.Message),
		"source":  payload.Source,
		"message": payload.Message,
		"details": payload.Details,
		"sent_at": s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("%w: encode payload: %v", ErrAlertDeliveryFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrAlertDeliveryFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAlertDeliveryFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrAlertDeliveryFailed, resp.StatusCode)
	}
	return nil
}
