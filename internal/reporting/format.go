package reporting

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

var hundred = decimal.NewFromInt(100)

// formatGrouped renders d rounded to places with thousands separators.
func formatGrouped(d decimal.Decimal, places int32) string {
	fixed := d.Abs().StringFixed(places)
	whole, frac, _ := strings.Cut(fixed, ".")

	wholeInt, err := decimal.NewFromString(whole)
	var grouped string
	if err == nil && wholeInt.BigInt().IsInt64() {
		grouped = printer.Sprintf("%d", wholeInt.IntPart())
	} else {
		grouped = whole
	}

	var sb strings.Builder
	if d.Round(places).IsNegative() {
		sb.WriteByte('-')
	}
	sb.WriteString(grouped)
	if frac != "" {
		sb.WriteByte('.')
		sb.WriteString(frac)
	}
	return sb.String()
}

// formatMoney renders "$1,234.56" (or "-$1,234.56").
func formatMoney(d decimal.Decimal) string {
	s := formatGrouped(d, 2)
	if strings.HasPrefix(s, "-") {
		return "-$" + s[1:]
	}
	return "$" + s
}

// formatRate renders a $/kWh rate with four decimals.
func formatRate(d decimal.Decimal) string {
	return "$" + d.StringFixed(4)
}

// formatPercent renders a fraction as a percentage, e.g. 0.035 -> "3.5%".
func formatPercent(d decimal.Decimal) string {
	return d.Mul(hundred).Round(2).String() + "%"
}

// formatKWh renders whole kilowatt-hours with separators.
func formatKWh(d decimal.Decimal) string {
	return formatGrouped(d, 0) + " kWh"
}
