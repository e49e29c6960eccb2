package offer

import (
	"fmt"
	"net/url"
	"strings"
)

const affiliateTagPlaceholder = "{affiliate_tag}"

// BuildURL 生成带联盟标签与 UTM 参数的跳转地址
// 模板含 {affiliate_tag} 但未配置标签时改用 fallback_url
func BuildURL(item Offer, affiliateTag, keyword, slug string) (string, error) {
	affiliateTag = strings.TrimSpace(affiliateTag)
	base := item.AffiliateURL
	if strings.Contains(base, affiliateTagPlaceholder) {
		if affiliateTag == "" {
			base = item.FallbackURL
		}
		base = strings.ReplaceAll(base, affiliateTagPlaceholder, url.QueryEscape(affiliateTag))
	}

	parsed, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("%w: parse url for %s: %v", ErrInvalidOffer, item.Slug, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("%w: url for %s must be absolute", ErrInvalidOffer, item.Slug)
	}
	query := parsed.Query()
	query.Set("utm_source", "autoprofit")
	query.Set("utm_medium", "affiliate")
	query.Set("utm_campaign", slug)
	query.Set("utm_term", keyword)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
