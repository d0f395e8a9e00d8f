package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// NotAvailable is rendered in place of undefined values.
const NotAvailable = "N/D"

// DefaultCurrencySymbol is the Brazilian real.
const DefaultCurrencySymbol = "R$"

var magnitudes = []struct {
	exp    int32
	suffix string
}{
	{12, "T"},
	{9, "B"},
	{6, "M"},
	{3, "K"},
}

// FormatCurrency renders a monetary value with two decimals and a magnitude suffix
// (R$ 1.50B). NaN and infinities render as N/D.
func FormatCurrency(value float64, symbol string) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NotAvailable
	}

	d := decimal.NewFromFloat(value)
	for _, m := range magnitudes {
		if d.Abs().GreaterThanOrEqual(decimal.New(1, m.exp)) {
			return symbol + " " + d.Shift(-m.exp).StringFixed(2) + m.suffix
		}
	}
	return symbol + " " + d.StringFixed(2)
}

// FormatPercentage renders a percent value with two decimals (12.35%).
func FormatPercentage(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NotAvailable
	}
	return decimal.NewFromFloat(value).StringFixed(2) + "%"
}
