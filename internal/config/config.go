package config

import (
	"fmt"
	"strings"

	"github.com/autoprofit/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultDisclosure 默认联盟披露文案
const DefaultDisclosure = "Disclosure: Some links are affiliate links. If you buy through them, we may earn a commission at no extra cost to you."

// Config 应用配置结构
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Trends    TrendsConfig    `mapstructure:"trends"`
	Offers    OffersConfig    `mapstructure:"offers"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Affiliate AffiliateConfig `mapstructure:"affiliate"`
	Cron      CronConfig      `mapstructure:"cron"`
	Stripe    StripeConfig    `mapstructure:"stripe"`
	Alert     AlertConfig     `mapstructure:"alert"`
	Site      SiteConfig      `mapstructure:"site"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Security  SecurityConfig  `mapstructure:"security"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Level:      c.Level,
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// SupabaseConfig Supabase Postgres 连接参数
type SupabaseConfig struct {
	DBURL    string `mapstructure:"db_url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres），为空时按连接信息推断
	DSN      string             `mapstructure:"dsn"`    // sqlite 文件路径
	URL      string             `mapstructure:"url"`    // postgres 连接串，优先级最高
	Supabase SupabaseConfig     `mapstructure:"supabase"`
	Pool     DatabasePoolConfig `mapstructure:"pool"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// TrendsConfig 趋势关键词来源配置
type TrendsConfig struct {
	RSSURL                 string `mapstructure:"rss_url"`
	TimeoutSeconds         int    `mapstructure:"timeout_seconds"`
	UserAgent              string `mapstructure:"user_agent"`
	FallbackPath           string `mapstructure:"fallback_path"`
	SupplementWithFallback bool   `mapstructure:"supplement_with_fallback"`
}

// OffersConfig 联盟商品表配置
type OffersConfig struct {
	Path       string `mapstructure:"path"`
	MinOverlap int    `mapstructure:"min_overlap"`
}

// PipelineConfig 内容流水线配置
type PipelineConfig struct {
	MaxPostsPerRun          int    `mapstructure:"max_posts_per_run"`
	MinWordCount            int    `mapstructure:"min_word_count"`
	RefreshExisting         bool   `mapstructure:"refresh_existing"`
	OutputDir               string `mapstructure:"output_dir"`
	DataDir                 string `mapstructure:"data_dir"`
	IndexLimit              int    `mapstructure:"index_limit"`
	RunTimeoutSeconds       int    `mapstructure:"run_timeout_seconds"`
	ScheduleIntervalMinutes int    `mapstructure:"schedule_interval_minutes"`
}

// AffiliateConfig 联盟推广配置
type AffiliateConfig struct {
	Tag        string `mapstructure:"tag"`
	Disclosure string `mapstructure:"disclosure"`
}

// CronConfig 定时触发配置
type CronConfig struct {
	Token string `mapstructure:"token"`
}

// StripeConfig Stripe 订阅配置
type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	PriceID       string `mapstructure:"price_id"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	SuccessURL    string `mapstructure:"success_url"`
	CancelURL     string `mapstructure:"cancel_url"`
	APIBaseURL    string `mapstructure:"api_base_url"`
}

// CheckoutEnabled 是否可创建结账会话
func (c StripeConfig) CheckoutEnabled() bool {
	return strings.TrimSpace(c.SecretKey) != "" && strings.TrimSpace(c.PriceID) != ""
}

// WebhookEnabled 是否可处理回调
func (c StripeConfig) WebhookEnabled() bool {
	return strings.TrimSpace(c.WebhookSecret) != ""
}

// AlertConfig 告警配置
type AlertConfig struct {
	WebhookURL     string `mapstructure:"webhook_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// SiteConfig 站点配置
type SiteConfig struct {
	DomainURL  string `mapstructure:"domain_url"`
	APIBaseURL string `mapstructure:"api_base_url"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	RedirectRateLimit RateLimitConfig `mapstructure:"redirect_rate_limit"`
	CheckoutRateLimit RateLimitConfig `mapstructure:"checkout_rate_limit"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// SetDefaults 注册默认配置
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.level", "")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "")
	v.SetDefault("database.dsn", "data/autoprofit.db")
	v.SetDefault("database.url", "")
	v.SetDefault("database.supabase.db_url", "")
	v.SetDefault("database.supabase.host", "")
	v.SetDefault("database.supabase.port", 5432)
	v.SetDefault("database.supabase.name", "postgres")
	v.SetDefault("database.supabase.user", "")
	v.SetDefault("database.supabase.password", "")
	v.SetDefault("database.supabase.sslmode", "require")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "ap")
	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 2)
	v.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	v.SetDefault("trends.rss_url", "https://trends.google.com/trending/rss?geo=US")
	v.SetDefault("trends.timeout_seconds", 15)
	v.SetDefault("trends.user_agent", "autoprofit/1.0")
	v.SetDefault("trends.fallback_path", "etc/fallback_keywords.yaml")
	v.SetDefault("trends.supplement_with_fallback", true)
	v.SetDefault("offers.path", "etc/offers.yaml")
	v.SetDefault("offers.min_overlap", 1)
	v.SetDefault("pipeline.max_posts_per_run", 3)
	v.SetDefault("pipeline.min_word_count", 260)
	v.SetDefault("pipeline.refresh_existing", true)
	v.SetDefault("pipeline.output_dir", "public")
	v.SetDefault("pipeline.data_dir", "data")
	v.SetDefault("pipeline.index_limit", 100)
	v.SetDefault("pipeline.run_timeout_seconds", 120)
	v.SetDefault("pipeline.schedule_interval_minutes", 60)
	v.SetDefault("affiliate.tag", "")
	v.SetDefault("affiliate.disclosure", DefaultDisclosure)
	v.SetDefault("cron.token", "")
	v.SetDefault("stripe.secret_key", "")
	v.SetDefault("stripe.price_id", "")
	v.SetDefault("stripe.webhook_secret", "")
	v.SetDefault("stripe.success_url", "http://localhost:8000/success")
	v.SetDefault("stripe.cancel_url", "http://localhost:8000/cancel")
	v.SetDefault("stripe.api_base_url", "https://api.stripe.com")
	v.SetDefault("alert.webhook_url", "")
	v.SetDefault("alert.timeout_seconds", 10)
	v.SetDefault("site.domain_url", "http://localhost:8000")
	v.SetDefault("site.api_base_url", "")
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Cron-Token",
	})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.redirect_rate_limit.window_seconds", 60)
	v.SetDefault("security.redirect_rate_limit.max_requests", 120)
	v.SetDefault("security.checkout_rate_limit.window_seconds", 300)
	v.SetDefault("security.checkout_rate_limit.max_requests", 10)
}

// Load 从 .env 与 config.yml 加载配置
func Load() *Config {
	// .env 只补充未设置的环境变量
	if err := godotenv.Load(); err == nil {
		logger.Infow("config_dotenv_loaded", "file", ".env")
	}

	v := viper.GetViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")     // 从当前目录查找
	v.AddConfigPath("../")   // 如果从 cmd/server 运行
	v.AddConfigPath("./etc") // etc 文件夹

	SetDefaults(v)

	// 环境变量支持，例如 stripe.secret_key -> STRIPE_SECRET_KEY
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", v.ConfigFileUsed())
	}

	cfg, err := Decode(v)
	if err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}
	return cfg
}

// Decode 将 viper 实例解析为配置并应用运行时修正
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	cfg.ApplyRuntimeOverrides(LookupEnv)
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Affiliate.Tag = strings.TrimSpace(c.Affiliate.Tag)
	if strings.TrimSpace(c.Affiliate.Disclosure) == "" {
		c.Affiliate.Disclosure = DefaultDisclosure
	}
	c.Cron.Token = strings.TrimSpace(c.Cron.Token)
	c.Site.DomainURL = strings.TrimRight(strings.TrimSpace(c.Site.DomainURL), "/")
	c.Site.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Site.APIBaseURL), "/")
	if c.Pipeline.MaxPostsPerRun <= 0 {
		c.Pipeline.MaxPostsPerRun = 3
	}
	if c.Pipeline.MinWordCount < 0 {
		c.Pipeline.MinWordCount = 0
	}
	if c.Pipeline.IndexLimit <= 0 {
		c.Pipeline.IndexLimit = 100
	}
	if c.Offers.MinOverlap <= 0 {
		c.Offers.MinOverlap = 1
	}
}

// EffectiveAPIBaseURL 对外 API 地址，未配置时回退站点地址
func (c *Config) EffectiveAPIBaseURL() string {
	if c.Site.APIBaseURL != "" {
		return c.Site.APIBaseURL
	}
	return c.Site.DomainURL
}
