package queue

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/autoprofit/internal/config"
	"github.com/autoprofit/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 告警等高优先级队列
	CriticalQueue = constants.QueueCritical
)

// Client 队列客户端封装，未启用时所有入队操作为空操作
type Client struct {
	client  *asynq.Client
	enabled bool
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false}, nil
	}
	return &Client{
		client:  asynq.NewClient(buildRedisOpt(cfg)),
		enabled: true,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueuePipelineRun 推送流水线任务，uniqueFor 内重复入队会被合并
func (c *Client) EnqueuePipelineRun(payload PipelineRunPayload, uniqueFor time.Duration) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	task, err := NewPipelineRunTask(payload)
	if err != nil {
		return false, err
	}
	options := []asynq.Option{asynq.Queue(DefaultQueue), asynq.MaxRetry(0)}
	if uniqueFor > 0 {
		options = append(options, asynq.Unique(uniqueFor), asynq.Timeout(uniqueFor))
	}
	if _, err := c.client.Enqueue(task, options...); err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// EnqueueAlertDispatch 推送告警任务
func (c *Client) EnqueueAlertDispatch(payload AlertDispatchPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewAlertDispatchTask(payload)
	if err != nil {
		return err
	}
	options := append([]asynq.Option{asynq.Queue(CriticalQueue), asynq.MaxRetry(5)}, opts...)
	_, err = c.client.Enqueue(task, options...)
	return err
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := 2
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{DefaultQueue: 10, CriticalQueue: 5}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return buildRedisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = fmt.Sprintf("%s:%d", host, port)
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
