package trend

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/autoprofit/internal/logger"
)

// SourceURLFallback 本地兜底关键词的来源标识
const SourceURLFallback = "local-fallback"

const maxKeywordLength = 120

// Item 候选关键词
type Item struct {
	Keyword   string  `json:"keyword"`
	SourceURL string  `json:"source_url"`
	Score     float64 `json:"score"`
}

// Source 关键词来源
type Source interface {
	Fetch(ctx context.Context, limit int) ([]Item, error)
}

// Provider 组合远程来源与本地兜底列表
type Provider struct {
	primary    Source
	fallback   []string
	supplement bool
}

// NewProvider 创建关键词提供者，primary 为空时只使用兜底列表
func NewProvider(primary Source, fallback []string, supplement bool) *Provider {
	return &Provider{
		primary:    primary,
		fallback:   fallback,
		supplement: supplement,
	}
}

// Keywords 返回按购买意图得分排序、不超过 limit 的关键词
// 远程来源失败或为空时静默切换到兜底列表，不做重试
func (p *Provider) Keywords(ctx context.Context, limit int) []Item {
	if limit <= 0 {
		return nil
	}
	var items []Item
	if p.primary != nil {
		fetched, err := p.primary.Fetch(ctx, limit)
		if err != nil {
			logger.Warnw("trend_fetch_failed", "error", err, "fallback", len(p.fallback))
		} else {
			items = fetched
		}
	}

	useFallback := len(items) == 0 || p.supplement
	if useFallback {
		items = mergeUnique(items, fallbackItems(p.fallback))
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func fallbackItems(keywords []string) []Item {
	items := make([]Item, 0, len(keywords))
	for _, raw := range keywords {
		keyword := NormalizeKeyword(raw)
		if keyword == "" {
			continue
		}
		items = append(items, Item{
			Keyword:   keyword,
			SourceURL: SourceURLFallback,
			Score:     IntentScore(keyword),
		})
	}
	return items
}

func mergeUnique(primary, extra []Item) []Item {
	seen := make(map[string]struct{}, len(primary)+len(extra))
	merged := make([]Item, 0, len(primary)+len(extra))
	for _, group := range [][]Item{primary, extra} {
		for _, item := range group {
			key := strings.ToLower(item.Keyword)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, item)
		}
	}
	return merged
}

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	tokenPattern      = regexp.MustCompile(`[a-z0-9]+`)
)

// NormalizeKeyword 折叠空白、移除 # 并截断到 120 个字符
func NormalizeKeyword(raw string) string {
	cleaned := strings.TrimSpace(whitespacePattern.ReplaceAllString(raw, " "))
	cleaned = strings.ReplaceAll(cleaned, "#", "")
	runes := []rune(cleaned)
	if len(runes) > maxKeywordLength {
		runes = runes[:maxKeywordLength]
	}
	return strings.TrimSpace(string(runes))
}

// Tokens 小写字母数字分词
func Tokens(keyword string) []string {
	return tokenPattern.FindAllString(strings.ToLower(keyword), -1)
}
