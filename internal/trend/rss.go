package trend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly"
)

// ErrEmptyFeed 源中没有可用条目
var ErrEmptyFeed = errors.New("trend feed is empty")

// RSSSource 基于 RSS 的趋势关键词来源
type RSSSource struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

// NewRSSSource 创建 RSS 来源
func NewRSSSource(url string, timeout time.Duration, userAgent string) *RSSSource {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = "autoprofit/1.0"
	}
	return &RSSSource{
		URL:       strings.TrimSpace(url),
		Timeout:   timeout,
		UserAgent: userAgent,
	}
}

// Fetch 抓取 RSS 条目标题作为关键词
func (s *RSSSource) Fetch(ctx context.Context, limit int) ([]Item, error) {
	if s == nil || s.URL == "" {
		return nil, fmt.Errorf("trend feed url is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := colly.NewCollector(
		colly.UserAgent(s.UserAgent),
		colly.IgnoreRobotsTxt(),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.Timeout)

	var items []Item
	seen := make(map[string]struct{})
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})
	c.OnXML("//item", func(e *colly.XMLElement) {
		if limit > 0 && len(items) >= limit {
			return
		}
		keyword := NormalizeKeyword(e.ChildText("title"))
		if keyword == "" {
			return
		}
		key := strings.ToLower(keyword)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		link := strings.TrimSpace(e.ChildText("link"))
		if link == "" {
			link = s.URL
		}
		items = append(items, Item{
			Keyword:   keyword,
			SourceURL: link,
			Score:     IntentScore(keyword),
		})
	})

	var fetchErr error
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("fetch trend feed failed: status=%d: %w", r.StatusCode, err)
	})

	if err := c.Visit(s.URL); err != nil {
		if fetchErr != nil {
			return nil, fetchErr
		}
		return nil, fmt.Errorf("fetch trend feed failed: %w", err)
	}
	c.Wait()
	if fetchErr != nil {
		return nil, fetchErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyFeed
	}
	return items, nil
}
