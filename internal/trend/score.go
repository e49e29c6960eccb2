package trend

import "math"

// buyerIntentTerms 购买意图词权重
var buyerIntentTerms = map[string]float64{
	"best":   1.2,
	"buy":    1.2,
	"deal":   1.15,
	"price":  1.1,
	"review": 1.05,
	"vs":     1.05,
	"top":    1.0,
}

// IntentScore 计算关键词购买意图得分，保留 4 位小数
func IntentScore(keyword string) float64 {
	unique := make(map[string]struct{})
	for _, token := range Tokens(keyword) {
		unique[token] = struct{}{}
	}
	score := 1.0
	for token, weight := range buyerIntentTerms {
		if _, ok := unique[token]; ok {
			score *= weight
		}
	}
	score += math.Min(float64(len(unique))/25, 0.5)
	return math.Round(score*10000) / 10000
}
