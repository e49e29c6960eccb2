package app

import (
	"os"
	"strings"
	"time"

	"github.com/autoprofit/internal/config"
	"github.com/autoprofit/internal/logger"

	"go.uber.org/zap"
)

const (
	ModeAll    = "all"
	ModeAPI    = "api"
	ModeWorker = "worker"
)

const defaultShutdownTimeout = 10 * time.Second

// Options 应用启动选项
type Options struct {
	Config          *config.Config
	Logger          *zap.SugaredLogger
	Signals         []os.Signal
	ShutdownTimeout time.Duration
	Mode            string
}

// ValidMode 是否为支持的启动模式
func ValidMode(mode string) bool {
	switch mode {
	case ModeAll, ModeAPI, ModeWorker:
		return true
	default:
		return false
	}
}

// normalizeOptions 补齐默认参数，停机超时至少覆盖一次流水线运行
func normalizeOptions(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
		if opts.Config != nil && opts.Config.Pipeline.RunTimeoutSeconds > 0 {
			runTimeout := time.Duration(opts.Config.Pipeline.RunTimeoutSeconds) * time.Second
			if runTimeout > opts.ShutdownTimeout {
				opts.ShutdownTimeout = runTimeout
			}
		}
	}
	opts.Mode = strings.ToLower(strings.TrimSpace(opts.Mode))
	if opts.Mode == "" {
		opts.Mode = ModeAll
	}
	return opts
}
