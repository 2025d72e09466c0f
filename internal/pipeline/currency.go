package pipeline

import (
	"strings"

	"inquiry/internal"
)

func (p *Parser) detectCurrency(body string) internal.Field[string] {
	lower := strings.ToLower(body)

	var code string
	switch {
	case strings.Contains(lower, "usd") || strings.Contains(lower, "$"):
		code = "USD"
	case strings.Contains(lower, "inr") || strings.Contains(lower, "₹") || strings.Contains(lower, "rupees"):
		code = "INR"
	default:
		fallback := p.opts.DefaultCurrency
		return internal.Field[string]{Value: &fallback, Confidence: defaultCurrencyConf, Notes: "default currency assumed"}
	}
	return internal.Field[string]{Value: &code, Confidence: currencyConfidence}
}
