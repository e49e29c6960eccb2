package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/autoprofit/internal/constants"
	"github.com/autoprofit/internal/logger"
	"github.com/autoprofit/internal/provider"
	"github.com/autoprofit/internal/queue"
	"github.com/autoprofit/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskPipelineRun, c.handlePipelineRun)
	mux.HandleFunc(queue.TaskAlertDispatch, c.handleAlertDispatch)
}

func (c *Consumer) handlePipelineRun(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || task == nil {
		logger.Debugw("worker_pipeline_run_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PipelineRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_pipeline_run_unmarshal_failed", "error", err)
		return err
	}
	if c.PipelineService == nil {
		logger.Warnw("worker_pipeline_run_skip_service_nil")
		return nil
	}
	trigger := strings.TrimSpace(payload.Trigger)
	if trigger == "" {
		trigger = constants.RunTriggerSchedule
	}
	summary, err := c.PipelineService.Run(ctx, service.PipelineRunInput{
		Limit:   payload.Limit,
		DryRun:  payload.DryRun,
		Trigger: trigger,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPipelineBusy):
			logger.Debugw("worker_pipeline_run_skip_busy", "trigger", trigger)
			return nil
		case errors.Is(err, service.ErrPipelineFailed):
			// 失败已记录并告警，不再重试
			logger.Warnw("worker_pipeline_run_failed", "trigger", trigger, "error", err)
			return nil
		default:
			logger.Warnw("worker_pipeline_run_error", "trigger", trigger, "error", err)
			return err
		}
	}
	logger.Infow("worker_pipeline_run_done",
		"run_id", summary.RunID,
		"trigger", trigger,
		"status", summary.Status,
		"created", summary.Created,
	)
	return nil
}

func (c *Consumer) handleAlertDispatch(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || task == nil {
		logger.Debugw("worker_alert_dispatch_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.AlertDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_alert_dispatch_unmarshal_failed", "error", err)
		return err
	}
	if !c.AlertService.Enabled() {
		logger.Debugw("worker_alert_dispatch_skip_disabled", "source", payload.Source)
		return nil
	}
	if err := c.AlertService.Dispatch(ctx, payload); err != nil {
		logger.Warnw("worker_alert_dispatch_failed", "source", payload.Source, "error", err)
		return err
	}
	return nil
}
