package provider

import (
	"path/filepath"
	"time"

	"github.com/autoprofit/internal/cache"
	"github.com/autoprofit/internal/config"
	"github.com/autoprofit/internal/content"
	"github.com/autoprofit/internal/logger"
	"github.com/autoprofit/internal/metrics"
	"github.com/autoprofit/internal/models"
	"github.com/autoprofit/internal/offer"
	"github.com/autoprofit/internal/publisher"
	"github.com/autoprofit/internal/queue"
	"github.com/autoprofit/internal/repository"
	"github.com/autoprofit/internal/service"
	"github.com/autoprofit/internal/trend"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Metrics     *metrics.Collector
	Registry    *prometheus.Registry

	// Repositories
	PageRepo         repository.PageRepository
	ClickRepo        repository.ClickRepository
	SubscriptionRepo repository.SubscriptionRepository
	PipelineRunRepo  repository.PipelineRunRepository

	// Pipeline components
	Trends    *trend.Provider
	Catalog   *offer.Catalog
	Renderer  *content.Renderer
	Publisher *publisher.Publisher

	// Services
	AlertService        *service.AlertService
	PipelineService     *service.PipelineService
	RedirectService     *service.RedirectService
	PageService         *service.PageService
	SubscriptionService *service.SubscriptionService
	MetricsService      *service.MetricsService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	return NewContainerWithDB(cfg, models.DB)
}

// NewContainerWithDB 使用指定数据库初始化容器
func NewContainerWithDB(cfg *config.Config, db *gorm.DB) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient = nil
	}

	collector := metrics.NewCollector()
	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Metrics:     collector,
		Registry:    metrics.NewRegistry(collector),
	}

	// 1. 初始化 Repositories
	c.initRepositories(db)

	// 2. 初始化流水线组件
	c.initPipelineComponents()

	// 3. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.PageRepo = repository.NewPageRepository(db)
	c.ClickRepo = repository.NewClickRepository(db)
	c.SubscriptionRepo = repository.NewSubscriptionRepository(db)
	c.PipelineRunRepo = repository.NewPipelineRunRepository(db)
}

func (c *Container) initPipelineComponents() {
	cfg := c.Config

	fallback, err := trend.LoadFallback(cfg.Trends.FallbackPath)
	if err != nil {
		logger.Warnw("provider_load_fallback_keywords_failed", "path", cfg.Trends.FallbackPath, "error", err)
	}
	var primary trend.Source
	if cfg.Trends.RSSURL != "" {
		primary = trend.NewRSSSource(cfg.Trends.RSSURL, time.Duration(cfg.Trends.TimeoutSeconds)*time.Second, cfg.Trends.UserAgent)
	}
	c.Trends = trend.NewProvider(primary, fallback, cfg.Trends.SupplementWithFallback)

	offers, err := offer.LoadOffers(cfg.Offers.Path)
	if err != nil {
		// 流水线运行时会以 ErrOffersUnavailable 失败，HTTP 面仍可用
		logger.Errorw("provider_load_offers_failed", "path", cfg.Offers.Path, "error", err)
	} else {
		c.Catalog = offer.NewCatalog(offers, cfg.Offers.MinOverlap)
		logger.Infow("provider_offers_loaded", "count", len(offers))
	}

	renderer, err := content.NewRenderer()
	if err != nil {
		logger.Errorw("provider_init_renderer_failed", "error", err)
		panic(err)
	}
	c.Renderer = renderer
	c.Publisher = publisher.New(filepath.Clean(cfg.Pipeline.OutputDir))
}

func (c *Container) initServices() {
	c.AlertService = service.NewAlertService(c.Config.Alert, c.QueueClient)
	c.PipelineService = service.NewPipelineService(
		service.PipelineOptionsFromConfig(c.Config),
		c.PageRepo,
		c.PipelineRunRepo,
		c.Trends,
		c.Catalog,
		c.Renderer,
		c.Publisher,
		c.AlertService,
		c.Metrics,
	)
	c.RedirectService = service.NewRedirectService(c.PageRepo, c.ClickRepo, c.Metrics)
	c.PageService = service.NewPageService(c.PageRepo, c.ClickRepo)
	c.SubscriptionService = service.NewSubscriptionService(c.Config.Stripe, c.SubscriptionRepo, c.Metrics)
	c.MetricsService = service.NewMetricsService(c.PageRepo, c.ClickRepo, c.SubscriptionRepo, c.PipelineRunRepo)
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
