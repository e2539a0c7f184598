package domain

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatCurrency renders a USD amount as "$1,234.57".
func FormatCurrency(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}
	f, _ := amount.Round(2).Float64()
	s := humanize.CommafWithDigits(f, 2)
	// CommafWithDigits trims trailing zeros; currency always shows cents.
	if i := strings.IndexByte(s, '.'); i < 0 {
		s += ".00"
	} else if len(s)-i == 2 {
		s += "0"
	}
	return sign + "$" + s
}

// FormatPercentage renders a percentage with two decimals, e.g. "-3.14%".
func FormatPercentage(v decimal.Decimal) string {
	return v.StringFixed(2) + "%"
}

// FormatMarketCap renders an integer market cap with thousands separators.
func FormatMarketCap(v int64) string {
	return "$" + humanize.Comma(v)
}
