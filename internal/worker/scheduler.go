package worker

import (
	"context"
	"errors"
	"time"
)

// Scheduler 进程内定时器，启动时先执行一次
type Scheduler struct {
	name     string
	interval time.Duration
	tick     func(ctx context.Context)
}

// NewScheduler 创建定时器
func NewScheduler(name string, interval time.Duration, tick func(ctx context.Context)) *Scheduler {
	return &Scheduler{
		name:     name,
		interval: interval,
		tick:     tick,
	}
}

// Name 服务名称
func (s *Scheduler) Name() string {
	if s == nil || s.name == "" {
		return "scheduler"
	}
	return s.name
}

// Start 阻塞运行直到 ctx 结束
func (s *Scheduler) Start(ctx context.Context) error {
	if s == nil || s.tick == nil {
		return errors.New("scheduler not initialized")
	}
	if s.interval <= 0 {
		return errors.New("scheduler interval must be positive")
	}
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Stop 停止服务，由 Start 的 ctx 控制退出
func (s *Scheduler) Stop(ctx context.Context) error {
	_ = ctx
	return nil
}
