package model

import "github.com/shopspring/decimal"

// TransformConfig holds operator pricing data needed for product normalization.
// Populated from config at startup, reused across requests.
type TransformConfig struct {
	PriceMultiplier     decimal.Decimal // sell = base × PriceMultiplier
	CompareAtMultiplier decimal.Decimal // compare-at = sell × CompareAtMultiplier
	SourceCountry       string          // ISO 3166-1 alpha-2, e.g. "CN"
}

// DefaultTransformConfig returns the pricing used when nothing is configured.
func DefaultTransformConfig() TransformConfig {
	return TransformConfig{
		PriceMultiplier:     decimal.NewFromInt(2),
		CompareAtMultiplier: decimal.RequireFromString("1.5"),
		SourceCountry:       "CN",
	}
}

// Normalize fills zero fields with defaults.
func (c TransformConfig) Normalize() TransformConfig {
	def := DefaultTransformConfig()
	if c.PriceMultiplier.Sign() <= 0 {
		c.PriceMultiplier = def.PriceMultiplier
	}
	if c.CompareAtMultiplier.Sign() <= 0 {
		c.CompareAtMultiplier = def.CompareAtMultiplier
	}
	if c.SourceCountry == "" {
		c.SourceCountry = def.SourceCountry
	}
	return c
}
