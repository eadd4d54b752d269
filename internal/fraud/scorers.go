package fraud

import (
	"math"
	"strings"
	"time"
)

// Amount thresholds. The $5000 boundary deliberately matches the legacy
// absolute-block rule, but here it only anchors a linear ramp so there
// is no hard cliff at the boundary.
const (
	veryHighAmount = 25000.0
	highAmount     = 5000.0
	moderateAmount = 1000.0
)

// highRiskCategories score 0.9, mediumRiskCategories 0.4. Matching is
// case-insensitive on the trimmed category string.
var highRiskCategories = map[string]struct{}{
	"cryptocurrency":         {},
	"gambling":               {},
	"adult services":         {},
	"cash advance":           {},
	"international transfer": {},
	"wire transfer":          {},
}

var mediumRiskCategories = map[string]struct{}{
	"investment":       {},
	"foreign exchange": {},
	"money order":      {},
	"peer transfer":    {},
	"gift card":        {},
}

// suspiciousKeywords are matched case-insensitively against the
// description; each keyword counts at most once.
var suspiciousKeywords = []string{
	"urgent", "wire", "bitcoin", "crypto", "offshore",
	"anonymous", "untraceable", "dark", "hack",
}

// scoreAmount maps the transaction amount into three risk bands:
// >= $25000 is maximal, $5000-$25000 ramps 0.5 to 1.0, $1000-$5000
// ramps 0 to 0.3, below $1000 contributes nothing.
func scoreAmount(amount float64) float64 {
	switch {
	case amount >= veryHighAmount:
		return 1.0
	case amount >= highAmount:
		return 0.5 + (amount-highAmount)/(veryHighAmount-highAmount)*0.5
	case amount >= moderateAmount:
		return (amount - moderateAmount) / 4000.0 * 0.3
	default:
		return 0.0
	}
}

// scoreTimeOfDay scores by the UTC hour: midnight to 5 AM is the
// highest-risk window, the transition hours 5 and 23 are moderate.
func scoreTimeOfDay(t time.Time) float64 {
	hour := t.UTC().Hour()
	switch {
	case hour < 5:
		return 0.8
	case hour == 5 || hour == 23:
		return 0.4
	default:
		return 0.0
	}
}

// scoreVelocityCount converts a window count into a risk contribution.
// count <= max is normal; between max and 2*max the score ramps from
// 0.5 toward 1.0; beyond 2*max it saturates.
func scoreVelocityCount(count, max int) float64 {
	switch {
	case count > 2*max:
		return 1.0
	case count > max:
		return math.Min(1.0, 0.5+float64(count-max)/float64(max)*0.5)
	default:
		return 0.0
	}
}

// scoreCategory matches the trimmed, lowercased category against the
// fixed high- and medium-risk sets.
func scoreCategory(category string) float64 {
	cat := strings.ToLower(strings.TrimSpace(category))
	if _, ok := highRiskCategories[cat]; ok {
		return 0.9
	}
	if _, ok := mediumRiskCategories[cat]; ok {
		return 0.4
	}
	return 0.0
}

// scorePattern combines two independent heuristics: distinct suspicious
// keywords in the description (2+ matches 0.8, exactly 1 match 0.4) and
// round-number amounts above $100 (at least 0.15). The result is the
// larger of the two, capped at 1.0.
func scorePattern(description string, amount float64) float64 {
	score := 0.0

	if description != "" {
		desc := strings.ToLower(description)
		matches := 0
		for _, kw := range suspiciousKeywords {
			if strings.Contains(desc, kw) {
				matches++
			}
		}
		switch {
		case matches >= 2:
			score = 0.8
		case matches == 1:
			score = 0.4
		}
	}

	if amount > 100 && amount == math.Trunc(amount) {
		score = math.Max(score, 0.15)
	}

	return math.Min(1.0, score)
}
