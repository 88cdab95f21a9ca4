package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a supplier price string to a decimal.
// Supplier list rows report ranges such as "3.50 -- 5.20" or "100-200"; the lower bound wins.
// Empty or unparsable input yields zero.
// Examples: "12.5" → 12.5, "3.50 -- 5.20" → 3.5, "" → 0
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	// A dash after the first character separates a range.
	if i := strings.Index(s[1:], "-"); i >= 0 {
		s = strings.TrimSpace(s[:i+1])
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Markup multiplies base by factor and rounds to cents.
func Markup(base decimal.Decimal, factor decimal.Decimal) decimal.Decimal {
	return base.Mul(factor).Round(2)
}

// GramsToKg converts a supplier weight in grams to kilograms.
func GramsToKg(grams decimal.Decimal) decimal.Decimal {
	return grams.Div(decimal.NewFromInt(1000))
}
