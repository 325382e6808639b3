package advisor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Lssat0415/cbk-agent-chatbox/internal/models"
)

// ComposeAdvice assembles the ordered advice blocks for an intent and its
// allocation. The result is never empty: the comprehensive block always
// leads, theme and liquidity blocks are appended when their conditions
// hold, and a generic baseline block closes the list when neither did.
func ComposeAdvice(intent models.Intent, alloc models.Allocation) []models.RecommendationBlock {
	horizonText := FormatHorizon(intent.HorizonMonths)

	interestText := Unspecified
	if len(intent.Interests) > 0 {
		labels := make([]string, len(intent.Interests))
		for i, tag := range intent.Interests {
			labels[i] = tag.Label()
		}
		interestText = strings.Join(labels, "、")
	}

	prefLine := fmt.Sprintf("偏好主题：%s；预算：%s", interestText, FormatCurrency(intent.Budget))
	if intent.SIPMonthly != nil {
		prefLine += fmt.Sprintf("；每月定投：%s", FormatCurrency(intent.SIPMonthly))
	}

	targetLine := "目标年化：未设定"
	if intent.TargetAnnualReturnPct != nil {
		targetLine = fmt.Sprintf("目标年化：%s%%（自定目标）", formatPct(*intent.TargetAnnualReturnPct))
	}

	blocks := []models.RecommendationBlock{{
		Title:   "综合资产配置方案",
		Summary: "按风险与期限给出现金/固收/权益的基准比例，并可按主题偏好微调。",
		Lines: []string{
			fmt.Sprintf("目标风险：%s；投资期限：%s", intent.Risk.Label(), horizonText),
			prefLine,
			targetLine,
		},
		Table: []models.TableRow{
			{Category: "现金及货币类", Share: strconv.Itoa(alloc.Cash) + "%", Note: "应急/流动性管理"},
			{Category: "债券/固收+", Share: strconv.Itoa(alloc.Bond) + "%", Note: "稳健收益基石"},
			{Category: "股票/权益类", Share: strconv.Itoa(alloc.Equity) + "%", Note: "中长期增值来源"},
		},
	}}

	conditional := false

	if intent.HasInterest(models.TagIndexETF) || intent.HasInterest(models.TagTechTheme) {
		conditional = true
		blocks = append(blocks, models.RecommendationBlock{
			Title:   "主题/指数增强方案",
			Summary: "利用宽基+行业/主题ETF做\"核心-卫星\"配置，控制单主题暴露。",
			Lines: []string{
				"核心：沪深300/中证500/中证全指 等宽基指数；",
				"卫星：科技/新能源/高端制造 主题ETF 不超过权益的30%-40%。",
			},
			Table: []models.TableRow{
				{Category: "核心（宽基ETF）", Share: "权益的 60%-70%", Note: "分散市场 Beta"},
				{Category: "卫星（主题ETF）", Share: "权益的 30%-40%", Note: "获取超额收益机会"},
				{Category: "止损与再平衡", Share: "季度/半年度", Note: "纪律性管理波动"},
			},
		})
	}

	if intent.HasInterest(models.TagCashManagement) ||
		(intent.HorizonMonths != nil && *intent.HorizonMonths <= 6) {
		conditional = true
		blocks = append(blocks, models.RecommendationBlock{
			Title:   "现金与流动性管理方案",
			Summary: "强调流动性与本金安全，适合短期或随时可用预算。",
			Lines: []string{
				"工具：货币基金、短债基金、银行智能存款、逆回购等；",
				"目标：在确保流动性的前提下，力争优于活期的稳健收益。",
			},
			Table: []models.TableRow{
				{Category: "货币/现金类", Share: "50%-80%", Note: "T+0/T+1 赎回，流动性高"},
				{Category: "短债/固收+", Share: "20%-50%", Note: "波动较小，收益略高"},
				{Category: "提醒", Share: Unspecified, Note: "关注流动性规则与赎回限制"},
			},
		})
	}

	if !conditional {
		blocks = append(blocks, models.RecommendationBlock{
			Title:   "基础配置参考",
			Summary: "缺少偏好细节时，提供通用的风险分层配置作为参考。",
			Lines: []string{
				"可补充：风险偏好、期限、预算、主题偏好等信息，以获得更精准建议。",
			},
			Table: []models.TableRow{
				{Category: "现金及货币类", Share: "20%-30%", Note: "应急与短期支出"},
				{Category: "债券/固收+", Share: "40%-50%", Note: "稳健收益底座"},
				{Category: "股票/权益类", Share: "20%-40%", Note: "中长期成长"},
			},
		})
	}

	return blocks
}

// BuildAdvice runs the full local pipeline on an already extracted intent
// and wraps the result as a message payload.
func BuildAdvice(intent models.Intent) models.AdvicePayload {
	alloc := ComputeAllocation(intent.Risk, intent.HorizonMonths, intent.Interests)
	return models.AdvicePayload{
		Allocation:      alloc,
		Recommendations: ComposeAdvice(intent, alloc),
		Risk:            intent.Risk.Label(),
		HorizonText:     FormatHorizon(intent.HorizonMonths),
		BudgetText:      FormatCurrency(intent.Budget),
	}
}
