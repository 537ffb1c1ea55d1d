package usecase

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBRL renders an amount as whole reais in pt-BR style, e.g. "R$ 1.234.567".
func FormatBRL(v decimal.Decimal) string {
	v = v.Round(0)
	sign := ""
	if v.IsNegative() {
		sign = "-"
		v = v.Abs()
	}
	return sign + "R$ " + groupThousands(v.StringFixed(0))
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// formatPercent renders v with the given decimal places and a comma separator.
func formatPercent(v decimal.Decimal, places int32) string {
	return strings.Replace(v.StringFixed(places), ".", ",", 1)
}

// FormatSignedPercent renders v with one decimal place and an explicit plus sign.
func FormatSignedPercent(v decimal.Decimal) string {
	s := formatPercent(v, 1) + "%"
	if v.IsPositive() {
		return "+" + s
	}
	return s
}
