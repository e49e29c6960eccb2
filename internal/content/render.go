package content

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// PageView 内容页渲染参数
type PageView struct {
	Draft         Draft
	Slug          string
	OfferSlug     string
	OfferURL      string
	TrackedURL    string
	CTAText       string
	Disclosure    string
	CanonicalURL  string
	HomeURL       string
	CheckoutURL   string
	StripeEnabled bool
	PublishedAt   time.Time
}

// IndexEntry 首页条目
type IndexEntry struct {
	Title     string
	Summary   string
	URL       string
	UpdatedAt time.Time
}

// IndexView 首页渲染参数
type IndexView struct {
	Title   string
	Entries []IndexEntry
}

// Renderer HTML 渲染器
type Renderer struct {
	page  *template.Template
	index *template.Template
}

// NewRenderer 解析内置模板
func NewRenderer() (*Renderer, error) {
	page, err := template.ParseFS(templateFS, "templates/page.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse page template failed: %w", err)
	}
	index, err := template.ParseFS(templateFS, "templates/index.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse index template failed: %w", err)
	}
	return &Renderer{page: page, index: index}, nil
}

// RenderPage 渲染内容页，披露文案为空时拒绝渲染
func (r *Renderer) RenderPage(view PageView) ([]byte, error) {
	if strings.TrimSpace(view.Disclosure) == "" {
		return nil, fmt.Errorf("disclosure is required")
	}
	if strings.TrimSpace(view.TrackedURL) == "" {
		return nil, fmt.Errorf("tracked url is required")
	}
	if view.PublishedAt.IsZero() {
		view.PublishedAt = time.Now()
	}
	var buf bytes.Buffer
	if err := r.page.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("render page failed: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderIndex 渲染首页
func (r *Renderer) RenderIndex(view IndexView) ([]byte, error) {
	if strings.TrimSpace(view.Title) == "" {
		view.Title = "Latest buying guides"
	}
	var buf bytes.Buffer
	if err := r.index.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("render index failed: %w", err)
	}
	return buf.Bytes(), nil
}
