package offer

import (
	"sort"
	"strings"

	"github.com/autoprofit/internal/logger"
	"github.com/autoprofit/internal/trend"

	porterstemmer "github.com/reiver/go-porterstemmer"
)

// Match 关键词与联盟商品的匹配结果
type Match struct {
	Offer   Offer    `json:"offer"`
	Overlap int      `json:"overlap"`
	Terms   []string `json:"terms"`
}

// Catalog 只读联盟商品表
type Catalog struct {
	offers     []Offer
	minOverlap int
	matchers   [][]termMatcher
}

// termMatcher 单词标签按词干匹配，多词标签按短语匹配
type termMatcher struct {
	term   string
	phrase string
	stem   string
}

// NewCatalog 创建联盟商品表，minOverlap 为全局相关性阈值
func NewCatalog(offers []Offer, minOverlap int) *Catalog {
	if minOverlap <= 0 {
		minOverlap = 1
	}
	c := &Catalog{
		offers:     offers,
		minOverlap: minOverlap,
		matchers:   make([][]termMatcher, len(offers)),
	}
	for i, item := range offers {
		for _, term := range item.Terms() {
			tokens := trend.Tokens(term)
			if len(tokens) == 0 {
				continue
			}
			if len(tokens) > 1 {
				c.matchers[i] = append(c.matchers[i], termMatcher{term: term, phrase: " " + strings.Join(tokens, " ") + " "})
				continue
			}
			c.matchers[i] = append(c.matchers[i], termMatcher{term: term, stem: stem(tokens[0])})
		}
	}
	return c
}

// Offers 返回全部联盟商品
func (c *Catalog) Offers() []Offer {
	if c == nil {
		return nil
	}
	return c.offers
}

// Get 根据 slug 获取联盟商品
func (c *Catalog) Get(slug string) (Offer, bool) {
	if c == nil {
		return Offer{}, false
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, item := range c.offers {
		if item.Slug == slug {
			return item, true
		}
	}
	return Offer{}, false
}

// MinOverlapFor 返回商品生效的相关性阈值
func (c *Catalog) MinOverlapFor(item Offer) int {
	if item.MinOverlap > 0 {
		return item.MinOverlap
	}
	return c.minOverlap
}

// Match 返回与关键词标签重叠达到阈值的商品
// 排序规则：重叠数降序、佣金降序、slug 升序；无匹配时返回空
func (c *Catalog) Match(keyword string) []Match {
	if c == nil || len(c.offers) == 0 {
		return nil
	}
	tokens := trend.Tokens(keyword)
	if len(tokens) == 0 {
		return nil
	}
	stemmed := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		stemmed[stem(token)] = struct{}{}
	}
	phraseText := " " + strings.Join(tokens, " ") + " "

	var matches []Match
	for i, item := range c.offers {
		var hit []string
		for _, matcher := range c.matchers[i] {
			if matcher.phrase != "" {
				if strings.Contains(phraseText, matcher.phrase) {
					hit = append(hit, matcher.term)
				}
				continue
			}
			if _, ok := stemmed[matcher.stem]; ok {
				hit = append(hit, matcher.term)
			}
		}
		if len(hit) < c.MinOverlapFor(item) {
			continue
		}
		matches = append(matches, Match{Offer: item, Overlap: len(hit), Terms: hit})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Overlap != matches[j].Overlap {
			return matches[i].Overlap > matches[j].Overlap
		}
		if cmp := matches[i].Offer.CommissionRate.Cmp(matches[j].Offer.CommissionRate); cmp != 0 {
			return cmp > 0
		}
		return matches[i].Offer.Slug < matches[j].Offer.Slug
	})
	return matches
}

// Best 返回排名第一的匹配
func (c *Catalog) Best(keyword string) (Match, bool) {
	matches := c.Match(keyword)
	if len(matches) == 0 {
		return Match{}, false
	}
	return matches[0], true
}

func stem(token string) (result string) {
	result = token
	defer func() {
		if r := recover(); r != nil {
			logger.Warnw("offer_stem_failed", "token", token, "panic", r)
			result = token
		}
	}()
	if len(token) <= 2 {
		return token
	}
	return porterstemmer.StemString(token)
}
