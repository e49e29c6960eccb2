package offer

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultCTAText 默认行动按钮文案
const DefaultCTAText = "Check current pricing"

var (
	// ErrNoOffers 未配置任何联盟商品
	ErrNoOffers = errors.New("no offers configured")
	// ErrInvalidOffer 联盟商品配置不完整
	ErrInvalidOffer = errors.New("invalid offer")
)

// Offer 联盟商品
type Offer struct {
	Slug           string          `yaml:"slug" json:"slug"`
	Name           string          `yaml:"name" json:"name"`
	Categories     []string        `yaml:"categories" json:"categories"`
	Tags           []string        `yaml:"tags" json:"tags"`
	AffiliateURL   string          `yaml:"affiliate_url" json:"affiliate_url"`
	FallbackURL    string          `yaml:"fallback_url" json:"fallback_url"`
	CTAText        string          `yaml:"cta_text" json:"cta_text"`
	Disclosure     string          `yaml:"disclosure" json:"disclosure,omitempty"`
	CommissionRate decimal.Decimal `yaml:"commission_rate" json:"commission_rate"`
	MinOverlap     int             `yaml:"min_overlap" json:"min_overlap,omitempty"`       // 覆盖全局相关性阈值
	MinWordCount   int             `yaml:"min_word_count" json:"min_word_count,omitempty"` // 覆盖全局最小词数
}

// Terms 返回用于匹配的分类与标签，已去重并转小写
func (o Offer) Terms() []string {
	seen := make(map[string]struct{}, len(o.Categories)+len(o.Tags))
	terms := make([]string, 0, len(o.Categories)+len(o.Tags))
	for _, group := range [][]string{o.Categories, o.Tags} {
		for _, raw := range group {
			term := strings.ToLower(strings.Join(strings.Fields(raw), " "))
			if term == "" {
				continue
			}
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			terms = append(terms, term)
		}
	}
	return terms
}

type offersFile struct {
	Offers []Offer `yaml:"offers"`
}

// LoadOffers 从 YAML 文件读取联盟商品表
func LoadOffers(path string) ([]Offer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read offers failed: %w", err)
	}
	return ParseOffers(raw)
}

// ParseOffers 解析并校验联盟商品表
func ParseOffers(raw []byte) ([]Offer, error) {
	var payload offersFile
	if err := yaml.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("parse offers failed: %w", err)
	}
	if len(payload.Offers) == 0 {
		return nil, ErrNoOffers
	}
	seen := make(map[string]struct{}, len(payload.Offers))
	offers := make([]Offer, 0, len(payload.Offers))
	for i, item := range payload.Offers {
		normalized, err := normalizeOffer(item)
		if err != nil {
			return nil, fmt.Errorf("offer #%d: %w", i+1, err)
		}
		if _, ok := seen[normalized.Slug]; ok {
			return nil, fmt.Errorf("%w: duplicate slug %s", ErrInvalidOffer, normalized.Slug)
		}
		seen[normalized.Slug] = struct{}{}
		offers = append(offers, normalized)
	}
	return offers, nil
}

func normalizeOffer(item Offer) (Offer, error) {
	item.Slug = strings.ToLower(strings.TrimSpace(item.Slug))
	item.Name = strings.TrimSpace(item.Name)
	item.AffiliateURL = strings.TrimSpace(item.AffiliateURL)
	item.FallbackURL = strings.TrimSpace(item.FallbackURL)
	item.CTAText = strings.TrimSpace(item.CTAText)
	item.Disclosure = strings.TrimSpace(item.Disclosure)
	if item.Slug == "" {
		return item, fmt.Errorf("%w: slug is required", ErrInvalidOffer)
	}
	if item.Name == "" {
		return item, fmt.Errorf("%w: name is required for %s", ErrInvalidOffer, item.Slug)
	}
	if item.AffiliateURL == "" {
		return item, fmt.Errorf("%w: affiliate_url is required for %s", ErrInvalidOffer, item.Slug)
	}
	if len(item.Terms()) == 0 {
		return item, fmt.Errorf("%w: categories or tags are required for %s", ErrInvalidOffer, item.Slug)
	}
	if item.FallbackURL == "" {
		item.FallbackURL = item.AffiliateURL
	}
	if item.CTAText == "" {
		item.CTAText = DefaultCTAText
	}
	if item.CommissionRate.IsNegative() {
		return item, fmt.Errorf("%w: commission_rate must not be negative for %s", ErrInvalidOffer, item.Slug)
	}
	return item, nil
}
