package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/autoprofit/internal/config"
	"github.com/autoprofit/internal/constants"
	"github.com/autoprofit/internal/content"
	"github.com/autoprofit/internal/logger"
	"github.com/autoprofit/internal/metrics"
	"github.com/autoprofit/internal/models"
	"github.com/autoprofit/internal/offer"
	"github.com/autoprofit/internal/publisher"
	"github.com/autoprofit/internal/repository"
	"github.com/autoprofit/internal/trend"
)

// 候选关键词数量为发布上限的倍数，给相关性过滤留余量
const candidateMultiplier = 3

// MaxRunLimit 单次运行可请求的最大发布数
const MaxRunLimit = 100

// KeywordSource 候选关键词来源
type KeywordSource interface {
	Keywords(ctx context.Context, limit int) []trend.Item
}

// PipelineOptions 流水线运行参数
type PipelineOptions struct {
	MaxPostsPerRun  int
	MinWordCount    int
	RefreshExisting bool
	IndexLimit      int
	RunTimeout      time.Duration
	AffiliateTag    string
	Disclosure      string
	SiteURL         string
	APIBaseURL      string
	StripeEnabled   bool
}

// PipelineOptionsFromConfig 从配置构建流水线参数
func PipelineOptionsFromConfig(cfg *config.Config) PipelineOptions {
	return PipelineOptions{
		MaxPostsPerRun:  cfg.Pipeline.MaxPostsPerRun,
		MinWordCount:    cfg.Pipeline.MinWordCount,
		RefreshExisting: cfg.Pipeline.RefreshExisting,
		IndexLimit:      cfg.Pipeline.IndexLimit,
		RunTimeout:      time.Duration(cfg.Pipeline.RunTimeoutSeconds) * time.Second,
		AffiliateTag:    cfg.Affiliate.Tag,
		Disclosure:      cfg.Affiliate.Disclosure,
		SiteURL:         cfg.Site.DomainURL,
		APIBaseURL:      cfg.EffectiveAPIBaseURL(),
		StripeEnabled:   cfg.Stripe.CheckoutEnabled(),
	}
}

// PipelineRunInput 单次运行输入
type PipelineRunInput struct {
	Limit   int
	DryRun  bool
	Trigger string
}

// PipelinePageResult 发布（或试运行生成）的页面
type PipelinePageResult struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Keyword   string `json:"keyword"`
	Summary   string `json:"summary"`
	OfferSlug string `json:"offer_slug"`
	OfferName string `json:"offer_name"`
	WordCount int    `json:"word_count"`
	HTMLPath  string `json:"html_path"`
}

// PipelineSkip 被跳过的关键词
type PipelineSkip struct {
	Keyword string `json:"keyword"`
	Reason  string `json:"reason"`
}

// PipelineRunSummary 运行摘要
type PipelineRunSummary struct {
	RunID      uint                 `json:"run_id,omitempty"`
	Trigger    string               `json:"trigger"`
	Status     string               `json:"status"`
	DryRun     bool                 `json:"dry_run"`
	Created    int                  `json:"created"`
	Skipped    int                  `json:"skipped"`
	Failed     int                  `json:"failed"`
	Pages      []PipelinePageResult `json:"pages"`
	Skips      []PipelineSkip       `json:"skips,omitempty"`
	Error      string               `json:"error,omitempty"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
}

// PipelineService 关键词 → 商品匹配 → 页面生成 → 发布
type PipelineService struct {
	opts      PipelineOptions
	pageRepo  repository.PageRepository
	runRepo   repository.PipelineRunRepository
	keywords  KeywordSource
	catalog   *offer.Catalog
	renderer  *content.Renderer
	publisher *publisher.Publisher
	alerts    *AlertService
	metrics   *metrics.Collector
	now       func() time.Time
	mu        sync.Mutex
}

// NewPipelineService 创建流水线服务，catalog 为空时每次运行都会失败
func NewPipelineService(
	opts PipelineOptions,
	pageRepo repository.PageRepository,
	runRepo repository.PipelineRunRepository,
	keywords KeywordSource,
	catalog *offer.Catalog,
	renderer *content.Renderer,
	pub *publisher.Publisher,
	alerts *AlertService,
	collector *metrics.Collector,
) *PipelineService {
	if opts.MaxPostsPerRun <= 0 {
		opts.MaxPostsPerRun = 3
	}
	if opts.IndexLimit <= 0 {
		opts.IndexLimit = 100
	}
	if strings.TrimSpace(opts.Disclosure) == "" {
		opts.Disclosure = config.DefaultDisclosure
	}
	opts.SiteURL = strings.TrimRight(opts.SiteURL, "/")
	opts.APIBaseURL = strings.TrimRight(opts.APIBaseURL, "/")
	return &PipelineService{
		opts:      opts,
		pageRepo:  pageRepo,
		runRepo:   runRepo,
		keywords:  keywords,
		catalog:   catalog,
		renderer:  renderer,
		publisher: pub,
		alerts:    alerts,
		metrics:   collector,
		now:       time.Now,
	}
}

// Run 同步执行一次流水线
// 数据库不可用等致命错误会立即终止，返回的摘要状态为 failed 且 error 非空。
func (s *PipelineService) Run(ctx context.Context, input PipelineRunInput) (*PipelineRunSummary, error) {
	if !s.mu.TryLock() {
		return nil, ErrPipelineBusy
	}
	defer s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	if s.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RunTimeout)
		defer cancel()
	}

	limit := input.Limit
	if limit <= 0 {
		limit = s.opts.MaxPostsPerRun
	}
	if limit > MaxRunLimit {
		limit = MaxRunLimit
	}
	trigger := strings.TrimSpace(input.Trigger)
	if trigger == "" {
		trigger = constants.RunTriggerCLI
	}
	summary := &PipelineRunSummary{
		Trigger:   trigger,
		Status:    constants.RunStatusRunning,
		DryRun:    input.DryRun,
		Pages:     []PipelinePageResult{},
		StartedAt: s.now(),
	}

	run := &models.PipelineRun{
		Trigger:   trigger,
		Status:    constants.RunStatusRunning,
		DryRun:    input.DryRun,
		StartedAt: summary.StartedAt,
	}
	if err := s.runRepo.WithContext(ctx).Start(run); err != nil {
		return s.fail(ctx, summary, nil, fmt.Errorf("%w: start run: %v", ErrStorageUnavailable, err))
	}
	summary.RunID = run.ID
	logger.Infow("pipeline_run_started", "run_id", run.ID, "trigger", trigger, "limit", limit, "dry_run", input.DryRun)

	if err := s.execute(ctx, limit, input.DryRun, summary); err != nil {
		return s.fail(ctx, summary, run, err)
	}

	summary.Status = constants.RunStatusSuccess
	if summary.Failed > 0 {
		summary.Status = constants.RunStatusPartial
	}
	if err := s.finish(ctx, run, summary); err != nil {
		return s.fail(ctx, summary, nil, fmt.Errorf("%w: finish run: %v", ErrStorageUnavailable, err))
	}
	logger.Infow("pipeline_run_finished",
		"run_id", run.ID,
		"status", summary.Status,
		"created", summary.Created,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return summary, nil
}

func (s *PipelineService) execute(ctx context.Context, limit int, dryRun bool, summary *PipelineRunSummary) error {
	if s.catalog == nil || len(s.catalog.Offers()) == 0 {
		return ErrOffersUnavailable
	}
	if !dryRun {
		if err := s.publisher.EnsureDirs(); err != nil {
			return err
		}
	}

	seenSlugs := make(map[string]struct{})
	for _, item := range s.keywords.Keywords(ctx, limit*candidateMultiplier) {
		if summary.Created >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		page, reason, err := s.processKeyword(ctx, item, dryRun, seenSlugs)
		if err != nil {
			if errors.Is(err, ErrStorageUnavailable) {
				return err
			}
			summary.Failed++
			logger.Warnw("pipeline_keyword_failed", "keyword", item.Keyword, "error", err)
			continue
		}
		if reason != "" {
			summary.Skipped++
			summary.Skips = append(summary.Skips, PipelineSkip{Keyword: item.Keyword, Reason: reason})
			s.metrics.IncSkipped(reason)
			logger.Debugw("pipeline_keyword_skipped", "keyword", item.Keyword, "reason", reason)
			continue
		}
		summary.Created++
		summary.Pages = append(summary.Pages, *page)
		if !dryRun {
			s.metrics.IncPublished()
		}
	}

	if dryRun {
		return nil
	}
	return s.rebuildIndex(ctx)
}

// processKeyword 返回生成的页面；被跳过时返回跳过原因
// seenSlugs 记录本次运行已处理的 slug，同一 slug 只处理一次
func (s *PipelineService) processKeyword(ctx context.Context, item trend.Item, dryRun bool, seenSlugs map[string]struct{}) (*PipelinePageResult, string, error) {
	now := s.now()
	keyword := strings.TrimSpace(item.Keyword)
	slug := content.Slugify(keyword, now)
	if !publisher.ValidSlug(slug) {
		return nil, constants.SkipReasonEmptySlug, nil
	}
	if _, ok := seenSlugs[slug]; ok {
		return nil, constants.SkipReasonDuplicate, nil
	}
	seenSlugs[slug] = struct{}{}

	exists, err := s.pageRepo.WithContext(ctx).ExistsBySlug(slug)
	if err != nil {
		return nil, "", fmt.Errorf("%w: check slug: %v", ErrStorageUnavailable, err)
	}
	if exists && !s.opts.RefreshExisting {
		return nil, constants.SkipReasonExisting, nil
	}

	match, ok := s.catalog.Best(keyword)
	if !ok {
		return nil, constants.SkipReasonNoOffer, nil
	}
	chosen := match.Offer
	offerURL, err := offer.BuildURL(chosen, s.opts.AffiliateTag, keyword, slug)
	if err != nil {
		return nil, "", err
	}

	draft := content.GenerateDraft(keyword, chosen)
	disclosure := strings.TrimSpace(chosen.Disclosure)
	if disclosure == "" {
		disclosure = s.opts.Disclosure
	}
	html, err := s.renderer.RenderPage(content.PageView{
		Draft:         draft,
		Slug:          slug,
		OfferSlug:     chosen.Slug,
		OfferURL:      offerURL,
		TrackedURL:    s.opts.APIBaseURL + "/go/" + slug,
		CTAText:       chosen.CTAText,
		Disclosure:    disclosure,
		CanonicalURL:  s.opts.SiteURL + "/posts/" + slug + ".html",
		HomeURL:       s.opts.SiteURL + "/",
		CheckoutURL:   s.opts.APIBaseURL + "/api/stripe/checkout",
		StripeEnabled: s.opts.StripeEnabled,
		PublishedAt:   now,
	})
	if err != nil {
		return nil, "", err
	}
	words, err := content.CountWords(html)
	if err != nil {
		return nil, "", err
	}
	minWords := s.opts.MinWordCount
	if chosen.MinWordCount > 0 {
		minWords = chosen.MinWordCount
	}
	if words < minWords {
		return nil, constants.SkipReasonWordCount, nil
	}

	result := &PipelinePageResult{
		Slug:      slug,
		Title:     draft.Title,
		Keyword:   keyword,
		Summary:   draft.Summary,
		OfferSlug: chosen.Slug,
		OfferName: chosen.Name,
		WordCount: words,
		HTMLPath:  "dry-run",
	}
	if dryRun {
		return result, "", nil
	}

	path, err := s.publisher.WritePage(slug, html)
	if err != nil {
		return nil, "", err
	}
	result.HTMLPath = path
	page := &models.Page{
		Slug:      slug,
		Title:     draft.Title,
		Keyword:   keyword,
		Summary:   draft.Summary,
		SourceURL: item.SourceURL,
		OfferID:   chosen.Slug,
		OfferName: chosen.Name,
		OfferURL:  offerURL,
		HTMLPath:  path,
		WordCount: words,
		UpdatedAt: now,
	}
	if err := s.pageRepo.WithContext(ctx).Upsert(page); err != nil {
		return nil, "", fmt.Errorf("%w: upsert page: %v", ErrStorageUnavailable, err)
	}
	return result, "", nil
}

// IndexHTML 按最近发布的页面渲染首页
func (s *PipelineService) IndexHTML(ctx context.Context) ([]byte, error) {
	pages, err := s.pageRepo.WithContext(ctx).ListRecent(s.opts.IndexLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: list recent pages: %v", ErrStorageUnavailable, err)
	}
	entries := make([]content.IndexEntry, 0, len(pages))
	for _, page := range pages {
		entries = append(entries, content.IndexEntry{
			Title:     page.Title,
			Summary:   page.Summary,
			URL:       "posts/" + page.Slug + ".html",
			UpdatedAt: page.UpdatedAt,
		})
	}
	return s.renderer.RenderIndex(content.IndexView{Entries: entries})
}

func (s *PipelineService) rebuildIndex(ctx context.Context) error {
	html, err := s.IndexHTML(ctx)
	if err != nil {
		return err
	}
	_, err = s.publisher.WriteIndex(html)
	return err
}

func (s *PipelineService) finish(ctx context.Context, run *models.PipelineRun, summary *PipelineRunSummary) error {
	summary.FinishedAt = s.now()
	s.metrics.ObservePipelineRun(summary.Status, summary.FinishedAt.Sub(summary.StartedAt))
	if run == nil || run.ID == 0 {
		return nil
	}
	return s.runRepo.WithContext(ctx).Finish(run.ID, summary.Status, summaryToJSON(summary), summary.FinishedAt)
}

func (s *PipelineService) fail(ctx context.Context, summary *PipelineRunSummary, run *models.PipelineRun, cause error) (*PipelineRunSummary, error) {
	summary.Status = constants.RunStatusFailed
	summary.Failed++
	summary.Error = cause.Error()
	// 超时后 ctx 已失效，仍需落库运行结果
	finishCtx := context.WithoutCancel(ctx)
	if err := s.finish(finishCtx, run, summary); err != nil {
		logger.Errorw("pipeline_run_finish_failed", "run_id", summary.RunID, "error", err)
	}
	logger.Errorw("pipeline_run_failed", "run_id", summary.RunID, "trigger", summary.Trigger, "error", cause)
	s.alerts.Notify(finishCtx, "pipeline", "pipeline run failed: "+cause.Error(), map[string]interface{}{
		"run_id":  summary.RunID,
		"trigger": summary.Trigger,
		"created": summary.Created,
		"skipped": summary.Skipped,
		"failed":  summary.Failed,
	})
	return summary, fmt.Errorf("%w: %w", ErrPipelineFailed, cause)
}

func summaryToJSON(summary *PipelineRunSummary) models.JSON {
	raw, err := json.Marshal(summary)
	if err != nil {
		return models.JSON{"status": summary.Status}
	}
	out := models.JSON{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return models.JSON{"status": summary.Status}
	}
	return out
}
