// Package advisor implements the rule-based advisory pipeline: intent
// extraction from free-form text, deterministic asset allocation, and
// recommendation composition. Everything here is pure and never fails.
package advisor

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Lssat0415/cbk-agent-chatbox/internal/models"
)

// riskRules are evaluated top to bottom without short-circuiting: when
// several lexicons match the same text, the last matching entry wins.
// The balanced lexicon is deliberately last.
var riskRules = []struct {
	re   *regexp.Regexp
	risk models.RiskLevel
}{
	{regexp.MustCompile(`保守|低风险|稳健|低波动`), models.RiskConservative},
	{regexp.MustCompile(`激进|高风险|进取|进阶`), models.RiskAggressive},
	{regexp.MustCompile(`平衡|中等|适中`), models.RiskBalanced},
}

// Horizon patterns, in priority order: a year range beats a single year,
// a single year beats a month count.
var (
	horizonRangeRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*[-~到]\s*(\d+(?:\.\d+)?)\s*年`)
	horizonYearRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*年`)
	horizonMonthRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*个月`)
)

// Amount patterns. The 万 form wins over a bare 4+ digit yuan amount.
var (
	budgetWanRe  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:万元|万|w)`)
	budgetYuanRe = regexp.MustCompile(`(?i)(\d{4,})\s*(?:元|rmb|人民币)?`)
	sipRe        = regexp.MustCompile(`每月\s*(\d+(?:\.\d+)?)\s*(?:元|rmb)?`)
	sipWanRe     = regexp.MustCompile(`每月\s*(\d+(?:\.\d+)?)\s*(?:万元|万)`)
	targetPctRe  = regexp.MustCompile(`年化\s*(\d+(?:\.\d+)?)\s*%`)
)

// interestRules are independent membership tests; any subset of tags may
// fire. The entry order fixes the display order of the tags. The index/ETF
// lexicon matches against a whitespace-stripped lowercased copy so "E T F"
// and "ETF" both hit.
var interestRules = []struct {
	tag        models.InterestTag
	re         *regexp.Regexp
	normalized bool
}{
	{models.TagIndexETF, regexp.MustCompile(`etf|指数|宽基`), true},
	{models.TagTechTheme, regexp.MustCompile(`科技|先进制造|半导体|ai|新能源|数字经济`), false},
	{models.TagCashManagement, regexp.MustCompile(`现金|货币|余额宝|高流动性|现金管理`), false},
	{models.TagFixedIncome, regexp.MustCompile(`债券|固收|逆回购`), false},
	{models.TagRetirement, regexp.MustCompile(`养老|退休`), false},
	{models.TagEducation, regexp.MustCompile(`教育|子女`), false},
	{models.TagHomePurchase, regexp.MustCompile(`买房|房贷|首付`), false},
}

// ExtractIntent reads structured investment preferences out of free-form
// text. It never fails: a missing signal yields the field's default
// (Balanced risk) or leaves the optional field nil.
func ExtractIntent(text string) models.Intent {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), ""))

	intent := models.Intent{Risk: models.RiskBalanced}

	for _, r := range riskRules {
		if r.re.MatchString(text) {
			intent.Risk = r.risk
		}
	}

	intent.HorizonMonths = extractHorizon(text)
	intent.Budget = extractBudget(text)
	intent.SIPMonthly = extractSIP(text)

	if m := targetPctRe.FindStringSubmatch(text); m != nil {
		intent.TargetAnnualReturnPct = floatPtr(parseNum(m[1]))
	}

	for _, r := range interestRules {
		subject := text
		if r.normalized {
			subject = normalized
		}
		if r.re.MatchString(subject) {
			intent.Interests = append(intent.Interests, r.tag)
		}
	}

	return intent
}

func extractHorizon(text string) *int {
	if m := horizonRangeRe.FindStringSubmatch(text); m != nil {
		mid := (parseNum(m[1]) + parseNum(m[2])) / 2
		return intPtr(int(math.Round(mid * 12)))
	}
	if m := horizonYearRe.FindStringSubmatch(text); m != nil {
		return intPtr(int(math.Round(parseNum(m[1]) * 12)))
	}
	if m := horizonMonthRe.FindStringSubmatch(text); m != nil {
		return intPtr(int(math.Round(parseNum(m[1]))))
	}
	return nil
}

func extractBudget(text string) *float64 {
	if m := budgetWanRe.FindStringSubmatch(text); m != nil {
		return floatPtr(parseNum(m[1]) * 10000)
	}
	if m := budgetYuanRe.FindStringSubmatch(text); m != nil {
		return floatPtr(parseNum(m[1]))
	}
	return nil
}

func extractSIP(text string) *float64 {
	var sip *float64
	if m := sipRe.FindStringSubmatch(text); m != nil {
		sip = floatPtr(parseNum(m[1]))
	}
	// 每月N万 overrides the plain form.
	if m := sipWanRe.FindStringSubmatch(text); m != nil {
		sip = floatPtr(parseNum(m[1]) * 10000)
	}
	return sip
}

func parseNum(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
