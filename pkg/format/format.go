// Package format renders KPI values the way the dashboard displays them:
// Italian locale (dot-grouped thousands, comma decimals) and a distinguishable
// "not applicable" sentinel for deltas against an empty comparison period.
// Formatting is display-only; no formatted value feeds back into arithmetic.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency renders a monetary value as "€ 1.234,56".
func Currency(value float64) string {
	return "€ " + Thousand2(value)
}

// Percentage renders a ratio already scaled to percent as "1.234,56%".
func Percentage(value float64) string {
	return Thousand2(value) + "%"
}

// Thousand0 renders a value with grouped thousands and no decimals: "1.234".
func Thousand0(value float64) string {
	intPart, _ := splitFixed(value)
	return intPart
}

// Thousand2 renders a value with grouped thousands and two decimals:
// "1.234,56".
func Thousand2(value float64) string {
	intPart, decPart := splitFixed(value)
	return intPart + "," + decPart
}

func splitFixed(value float64) (string, string) {
	fixed := decimal.NewFromFloat(value).StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	intPart := groupThousands(parts[0])
	if negative {
		intPart = "-" + intPart
	}
	return intPart, parts[1]
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
			b.WriteString(".")
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
