package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "autoprofit"

// Collector 业务指标采集器，nil 接收者上的方法均为空操作
type Collector struct {
	pipelineRuns     *prometheus.CounterVec
	pipelineDuration prometheus.Histogram
	pagesPublished   prometheus.Counter
	keywordsSkipped  *prometheus.CounterVec
	redirectClicks   prometheus.Counter
	webhookEvents    *prometheus.CounterVec
}

// NewCollector 创建采集器
func NewCollector() *Collector {
	return &Collector{
		pipelineRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_runs_total",
				Help:      "Pipeline runs by final status.",
			}, []string{"status"},
		),
		pipelineDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_run_seconds",
				Help:      "Wall time of a pipeline run.",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		),
		pagesPublished: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pages_published_total",
				Help:      "Pages written to the static site.",
			},
		),
		keywordsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "keywords_skipped_total",
				Help:      "Keywords skipped by the pipeline, by reason.",
			}, []string{"reason"},
		),
		redirectClicks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "redirect_clicks_total",
				Help:      "Recorded affiliate redirect clicks.",
			},
		),
		webhookEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stripe_webhook_events_total",
				Help:      "Stripe webhook deliveries by event type and outcome.",
			}, []string{"event_type", "result"},
		),
	}
}

// Describe 实现 prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.pipelineRuns.Describe(ch)
	c.pipelineDuration.Describe(ch)
	c.pagesPublished.Describe(ch)
	c.keywordsSkipped.Describe(ch)
	c.redirectClicks.Describe(ch)
	c.webhookEvents.Describe(ch)
}

// Collect 实现 prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.pipelineRuns.Collect(ch)
	c.pipelineDuration.Collect(ch)
	c.pagesPublished.Collect(ch)
	c.keywordsSkipped.Collect(ch)
	c.redirectClicks.Collect(ch)
	c.webhookEvents.Collect(ch)
}

// ObservePipelineRun 记录一次流水线执行
func (c *Collector) ObservePipelineRun(status string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.pipelineRuns.WithLabelValues(status).Inc()
	c.pipelineDuration.Observe(elapsed.Seconds())
}

// IncPublished 记录一篇发布成功的页面
func (c *Collector) IncPublished() {
	if c == nil {
		return
	}
	c.pagesPublished.Inc()
}

// IncSkipped 记录一次关键词跳过
func (c *Collector) IncSkipped(reason string) {
	if c == nil {
		return
	}
	c.keywordsSkipped.WithLabelValues(reason).Inc()
}

// IncClick 记录一次跳转点击
func (c *Collector) IncClick() {
	if c == nil {
		return
	}
	c.redirectClicks.Inc()
}

// IncWebhook 记录一次 webhook 投递结果
func (c *Collector) IncWebhook(eventType, result string) {
	if c == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	c.webhookEvents.WithLabelValues(eventType, result).Inc()
}

// NewRegistry 创建包含业务指标与运行时指标的注册表
func NewRegistry(c *Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if c != nil {
		reg.MustRegister(c)
	}
	return reg
}

// Handler 返回 /metrics 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
