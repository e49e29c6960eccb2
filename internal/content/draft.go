package content

import (
	"fmt"
	"strings"

	"github.com/autoprofit/internal/offer"
)

// Section 正文小节
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Draft 待渲染的页面草稿
type Draft struct {
	Title    string    `json:"title"`
	Keyword  string    `json:"keyword"`
	Summary  string    `json:"summary"`
	Sections []Section `json:"sections"`
}

// Text 返回草稿全部正文
func (d Draft) Text() string {
	parts := []string{d.Title, d.Summary}
	for _, section := range d.Sections {
		parts = append(parts, section.Heading, section.Body)
	}
	return strings.Join(parts, " ")
}

// GenerateDraft 按固定结构为关键词与联盟商品生成购买指南草稿
func GenerateDraft(keyword string, item offer.Offer) Draft {
	keyword = strings.TrimSpace(keyword)
	return Draft{
		Title:   fmt.Sprintf("%s: Buying Guide + Best Option Right Now", keyword),
		Keyword: keyword,
		Summary: fmt.Sprintf("%s is attracting search demand. This page turns the trend into "+
			"a practical buying decision with a direct offer, clear tradeoffs, and an action plan "+
			"you can apply right away without a long setup cycle.", keyword),
		Sections: []Section{
			{
				Heading: "Why this trend matters",
				Body: fmt.Sprintf("Interest around '%s' is rising. High search velocity usually means people "+
					"are actively comparing products and prices. Acting during this window captures "+
					"high-intent clicks that convert better than generic traffic. Instead of publishing "+
					"broad educational content, this page focuses on decision-stage intent: a clear use case, "+
					"budget guidance, and one strong recommended action. That structure keeps visitors "+
					"satisfied and monetization consistent because nobody has to open several pages "+
					"to finish their evaluation.", keyword),
			},
			{
				Heading: "What to evaluate before buying",
				Body: "Prioritize total cost of ownership, refund policy, social proof, and onboarding speed. " +
					"Ignoring one of these usually increases churn and refund risk. In practice, compare " +
					"30-day outcomes rather than feature lists: how fast a new user gets value, what " +
					"integration friction appears, and which hidden fees show up after the trial period. " +
					"This checklist protects conversion quality and filters out offers that look " +
					"cheap up front but create support overhead later.",
			},
			{
				Heading: fmt.Sprintf("Recommended pick: %s", item.Name),
				Body: fmt.Sprintf("%s fits this trend category and carries a competitive commission profile. "+
					"The button below routes through tracked attribution so performance can be measured "+
					"and tuned. The call to action stays specific and outcome-oriented so visitors know exactly "+
					"what they get after the click. When a campaign underperforms, rotate the headline angle "+
					"first, then test another offer in the same category to keep topical relevance "+
					"while improving earnings per click.", item.Name),
			},
			{
				Heading: "Automation and optimization loop",
				Body: "Every run records generated pages and affiliate click events in the database. " +
					"That data ranks offers by earnings per click and retires weak campaigns over time. " +
					"A steady operating rhythm is: publish, collect at least one week of click data, compare conversion " +
					"signals by keyword family, and then either double down or sunset. This turns the site into a " +
					"repeatable revenue system instead of a one-off content experiment and keeps daily " +
					"manual intervention to a minimum.",
			},
		},
	}
}
