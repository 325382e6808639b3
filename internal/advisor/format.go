package advisor

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Unspecified is the display marker for an absent optional value.
const Unspecified = "—"

var zhPrinter = message.NewPrinter(language.SimplifiedChinese)

// FormatCurrency renders a CNY amount for display. Amounts of 10000 and
// above are shown in 万元 with two decimals, trailing ".00" stripped;
// smaller amounts as a thousands-grouped integer with a 元 suffix. A nil
// amount renders as the unspecified marker. Formatting is idempotent for
// a given input.
func FormatCurrency(cny *float64) string {
	if cny == nil {
		return Unspecified
	}
	if *cny >= 10000 {
		s := strconv.FormatFloat(*cny/10000, 'f', 2, 64)
		s = strings.TrimSuffix(s, ".00")
		return s + " 万元"
	}
	return zhPrinter.Sprintf("%d", int64(math.Round(*cny))) + " 元"
}

// FormatHorizon renders an investment horizon. Twelve months and above are
// shown in years with one decimal, trailing ".0" stripped.
func FormatHorizon(months *int) string {
	if months == nil {
		return "未指定"
	}
	if *months >= 12 {
		s := strconv.FormatFloat(float64(*months)/12, 'f', 1, 64)
		s = strings.TrimSuffix(s, ".0")
		return s + " 年"
	}
	return strconv.Itoa(*months) + " 个月"
}

// formatPct renders a percentage value without a trailing zero fraction,
// e.g. 4 -> "4", 4.5 -> "4.5".
func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
