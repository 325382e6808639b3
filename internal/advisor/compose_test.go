package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lssat0415/cbk-agent-chatbox/internal/models"
)

func TestComposeAdvice_NeverEmpty(t *testing.T) {
	intents := []models.Intent{
		{Risk: models.RiskBalanced},
		{Risk: models.RiskConservative, HorizonMonths: intPtr(36)},
		{Risk: models.RiskAggressive, Interests: []models.InterestTag{models.TagTechTheme}},
	}

	for _, intent := range intents {
		alloc := ComputeAllocation(intent.Risk, intent.HorizonMonths, intent.Interests)
		assert.NotEmpty(t, ComposeAdvice(intent, alloc))
	}
}

func TestComposeAdvice_ComprehensiveBlockLeads(t *testing.T) {
	intent := ExtractIntent("我偏好稳健，理财期限3年，目标年化4%，预算20万元")
	alloc := ComputeAllocation(intent.Risk, intent.HorizonMonths, intent.Interests)
	blocks := ComposeAdvice(intent, alloc)

	require.NotEmpty(t, blocks)
	first := blocks[0]
	assert.Equal(t, "综合资产配置方案", first.Title)
	require.Len(t, first.Lines, 3)
	assert.Equal(t, "目标风险：稳健；投资期限：3 年", first.Lines[0])
	assert.Equal(t, "偏好主题：—；预算：20 万元", first.Lines[1])
	assert.Equal(t, "目标年化：4%（自定目标）", first.Lines[2])

	require.Len(t, first.Table, 3)
	assert.Equal(t, models.TableRow{Category: "现金及货币类", Share: "20%", Note: "应急/流动性管理"}, first.Table[0])
	assert.Equal(t, models.TableRow{Category: "债券/固收+", Share: "55%", Note: "稳健收益基石"}, first.Table[1])
	assert.Equal(t, models.TableRow{Category: "股票/权益类", Share: "25%", Note: "中长期增值来源"}, first.Table[2])
}

func TestComposeAdvice_SIPLineAppended(t *testing.T) {
	intent := ExtractIntent("我偏好平衡，预算30万元，每月3000元定投")
	alloc := ComputeAllocation(intent.Risk, intent.HorizonMonths, intent.Interests)
	blocks := ComposeAdvice(intent, alloc)

	require.NotEmpty(t, blocks)
	assert.Contains(t, blocks[0].Lines[1], "每月定投：3,000 元")
}

func TestComposeAdvice_ThemeBlock(t *testing.T) {
	tests := []struct {
		name string
		tags []models.InterestTag
	}{
		{"index etf", []models.InterestTag{models.TagIndexETF}},
		{"tech theme", []models.InterestTag{models.TagTechTheme}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := models.Intent{Risk: models.RiskBalanced, Interests: tt.tags}
			alloc := ComputeAllocation(intent.Risk, nil, tt.tags)
			blocks := ComposeAdvice(intent, alloc)

			require.Len(t, blocks, 2)
			assert.Equal(t, "主题/指数增强方案", blocks[1].Title)
		})
	}
}

func TestComposeAdvice_CashBlockOnTagOrShortHorizon(t *testing.T) {
	byTag := models.Intent{Risk: models.RiskBalanced, Interests: []models.InterestTag{models.TagCashManagement}}
	blocks := ComposeAdvice(byTag, ComputeAllocation(byTag.Risk, nil, byTag.Interests))
	require.Len(t, blocks, 2)
	assert.Equal(t, "现金与流动性管理方案", blocks[1].Title)

	byHorizon := models.Intent{Risk: models.RiskBalanced, HorizonMonths: intPtr(6)}
	blocks = ComposeAdvice(byHorizon, ComputeAllocation(byHorizon.Risk, byHorizon.HorizonMonths, nil))
	require.Len(t, blocks, 2)
	assert.Equal(t, "现金与流动性管理方案", blocks[1].Title)

	sevenMonths := models.Intent{Risk: models.RiskBalanced, HorizonMonths: intPtr(7)}
	blocks = ComposeAdvice(sevenMonths, ComputeAllocation(sevenMonths.Risk, sevenMonths.HorizonMonths, nil))
	require.Len(t, blocks, 2)
	assert.Equal(t, "基础配置参考", blocks[1].Title)
}

func TestComposeAdvice_BaselineWhenNoConditionalFires(t *testing.T) {
	intent := ExtractIntent("你好")
	alloc := ComputeAllocation(intent.Risk, intent.HorizonMonths, intent.Interests)
	assert.Equal(t, models.Allocation{Cash: 15, Bond: 45, Equity: 40}, alloc)

	blocks := ComposeAdvice(intent, alloc)
	require.Len(t, blocks, 2)
	assert.Equal(t, "综合资产配置方案", blocks[0].Title)
	assert.Equal(t, "基础配置参考", blocks[1].Title)
}

func TestBuildAdvice_WrapsPipeline(t *testing.T) {
	payload := BuildAdvice(ExtractIntent("激进一些，关注科技主题基金，期限2-3年"))

	assert.Equal(t, models.Allocation{Cash: 15, Bond: 35, Equity: 50}, payload.Allocation)
	assert.Equal(t, "激进", payload.Risk)
	assert.Equal(t, "2.5 年", payload.HorizonText)
	assert.Equal(t, Unspecified, payload.BudgetText)
	assert.NotEmpty(t, payload.Recommendations)
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		name string
		in   *float64
		want string
	}{
		{"absent", nil, "—"},
		{"wan with stripped decimals", floatPtr(200000), "20 万元"},
		{"wan boundary", floatPtr(10000), "1 万元"},
		{"wan with decimals", floatPtr(123456), "12.35 万元"},
		{"grouped yuan", floatPtr(5000), "5,000 元"},
		{"small yuan", floatPtr(800), "800 元"},
		{"zero", floatPtr(0), "0 元"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(tt.in))
		})
	}
}

// Formatted amounts survive a round trip through the extractor: rendering,
// re-parsing and rendering again yields the same display string.
func TestFormatCurrency_RoundTrip(t *testing.T) {
	for _, amount := range []float64{10000, 125000, 200000, 300000} {
		a := amount
		rendered := FormatCurrency(&a)

		intent := ExtractIntent("预算" + rendered)
		require.NotNil(t, intent.Budget)
		assert.Equal(t, rendered, FormatCurrency(intent.Budget))
	}
}

func TestFormatHorizon(t *testing.T) {
	tests := []struct {
		name string
		in   *int
		want string
	}{
		{"absent", nil, "未指定"},
		{"months", intPtr(8), "8 个月"},
		{"one year", intPtr(12), "1 年"},
		{"fractional years", intPtr(30), "2.5 年"},
		{"stripped trailing zero", intPtr(36), "3 年"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatHorizon(tt.in))
		})
	}
}
