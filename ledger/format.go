package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatARS 阿根廷比索格式："$ 1.234,50"，负数前置 "-"
func FormatARS(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	out := "$ " + b.String() + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}
