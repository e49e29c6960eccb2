package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/autoprofit/internal/config"
	"github.com/autoprofit/internal/constants"
	"github.com/autoprofit/internal/provider"
	"github.com/autoprofit/internal/router"
	"github.com/autoprofit/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	return BuildRunnerWithContainer(cfg, provider.NewContainer(cfg), mode)
}

// BuildRunnerWithContainer 使用已初始化的容器构建服务运行器
func BuildRunnerWithContainer(cfg *config.Config, container *provider.Container, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if container == nil {
		return nil, errors.New("container is nil")
	}
	if !ValidMode(mode) {
		return nil, fmt.Errorf("unknown mode %q (want all, api or worker)", mode)
	}

	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		writeTimeout := time.Duration(cfg.Pipeline.RunTimeoutSeconds)*time.Second + 10*time.Second
		services = append(services, NewHTTPService(addr, engine, writeTimeout))
	}

	// 初始化 Worker 服务；队列未启用时退化为进程内定时器
	if mode == ModeAll || mode == ModeWorker {
		interval := time.Duration(cfg.Pipeline.ScheduleIntervalMinutes) * time.Minute
		if cfg.Queue.Enabled {
			consumer := worker.NewConsumer(container)
			workerService, err := worker.NewService(&cfg.Queue, consumer, interval)
			if err != nil {
				return nil, err
			}
			services = append(services, workerService)
		} else if interval > 0 {
			services = append(services, worker.NewScheduler(
				"pipeline_schedule",
				interval,
				worker.DirectPipelineTick(container.PipelineService, constants.RunTriggerSchedule),
			))
		} else if mode == ModeWorker {
			return nil, errors.New("worker mode requires queue.enabled or pipeline.schedule_interval_minutes")
		}
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
