package worker

import (
	"context"
	"errors"
	"time"

	"github.com/autoprofit/internal/config"
	"github.com/autoprofit/internal/constants"
	"github.com/autoprofit/internal/logger"
	"github.com/autoprofit/internal/queue"
	"github.com/autoprofit/internal/service"

	"github.com/hibiken/asynq"
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
	schedule *Scheduler
}

// NewService 创建异步队列服务，interval > 0 时按周期投递流水线任务
func NewService(cfg *config.QueueConfig, consumer *Consumer, interval time.Duration) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	svc := &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}
	if interval > 0 && consumer.Container != nil && consumer.QueueClient.Enabled() {
		svc.schedule = NewScheduler("pipeline_schedule", interval, EnqueuePipelineTick(consumer.QueueClient, interval))
	}
	return svc, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.schedule != nil {
		go func() {
			if err := s.schedule.Start(ctx); err != nil {
				logger.Warnw("worker_schedule_stopped", "error", err)
			}
		}()
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// EnqueuePipelineTick 每次触发投递一个流水线任务，同一周期内重复投递会被合并
func EnqueuePipelineTick(client *queue.Client, interval time.Duration) func(ctx context.Context) {
	return func(_ context.Context) {
		queued, err := client.EnqueuePipelineRun(queue.PipelineRunPayload{Trigger: constants.RunTriggerSchedule}, interval)
		if err != nil {
			logger.Warnw("worker_schedule_enqueue_failed", "error", err)
			return
		}
		logger.Debugw("worker_schedule_enqueued", "queued", queued)
	}
}

// DirectPipelineTick 队列未启用时在进程内直接运行流水线
func DirectPipelineTick(pipeline *service.PipelineService, trigger string) func(ctx context.Context) {
	return func(ctx context.Context) {
		if pipeline == nil {
			return
		}
		summary, err := pipeline.Run(ctx, service.PipelineRunInput{Trigger: trigger})
		if err != nil {
			if errors.Is(err, service.ErrPipelineBusy) {
				logger.Debugw("pipeline_schedule_skip_busy", "trigger", trigger)
				return
			}
			logger.Warnw("pipeline_schedule_run_failed", "trigger", trigger, "error", err)
			return
		}
		logger.Infow("pipeline_schedule_run_done",
			"run_id", summary.RunID,
			"status", summary.Status,
			"created", summary.Created,
			"skipped", summary.Skipped,
		)
	}
}
