package router

import (
	"fmt"
	"strings"

	"github.com/autoprofit/internal/cache"
	"github.com/autoprofit/internal/config"
	publichandlers "github.com/autoprofit/internal/http/handlers/public"
	"github.com/autoprofit/internal/http/response"
	"github.com/autoprofit/internal/logger"
	"github.com/autoprofit/internal/metrics"
	"github.com/autoprofit/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "ap"
	}
	redisClient := cache.Client()
	redirectRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:redirect", redisPrefix),
		WindowSeconds: cfg.Security.RedirectRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.RedirectRateLimit.MaxRequests,
		FailOpen:      true,
	}
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", redisPrefix),
		WindowSeconds: cfg.Security.CheckoutRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CheckoutRateLimit.MaxRequests,
		Message:       "too many checkout attempts",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// 站点
	r.GET("/health", publicHandler.Health)
	r.GET("/", publicHandler.Home)
	r.GET("/posts/:file", publicHandler.Post)
	r.GET("/favicon.ico", publicHandler.Favicon)
	r.GET("/metrics", gin.WrapH(metrics.Handler(c.Registry)))

	// 联盟跳转
	r.GET("/go/:slug", RateLimitMiddleware(redisClient, redirectRule, KeyByIP), publicHandler.Redirect)

	api := r.Group("/api")
	{
		api.POST("/cron/run", CronAuthMiddleware(cfg.Cron.Token), publicHandler.CronRun)
		api.GET("/metrics", publicHandler.Metrics)
		api.GET("/pages", publicHandler.ListPages)
		api.GET("/pages/:slug", publicHandler.GetPage)

		api.POST("/stripe/checkout", RateLimitMiddleware(redisClient, checkoutRule, KeyByIPAndJSONField("email")), publicHandler.CreateCheckout)
		api.POST("/stripe/webhook", publicHandler.StripeWebhook)
		api.GET("/subscription/status", publicHandler.SubscriptionStatus)
	}

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "not found")
	})

	return r
}
