// Package model defines the canonical types shared by the supplier gateway,
// the reconciliation engine and the HTTP surface.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// === Catalog ===

// Product is the canonical product shape every supplier response converges on.
// Prices are USD. SellPrice and CompareAtPrice are derived from BasePriceUSD.
type Product struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	ShortDescription string          `json:"short_description"`
	BasePriceUSD     decimal.Decimal `json:"base_price_usd"`
	SellPrice        decimal.Decimal `json:"sell_price"`
	CompareAtPrice   decimal.Decimal `json:"compare_at_price"`
	CategoryID       string          `json:"category_id,omitempty"`
	Category         string          `json:"category,omitempty"`
	Images           []Image         `json:"images"`
	Variants         []Variant       `json:"variants"`
	WeightKg         decimal.Decimal `json:"weight_kg"`
	SourceCountry    string          `json:"source_country"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Image is a product image with a synthetic id of the form "{productID}-{index}".
type Image struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Alt      string `json:"alt"`
	Position int    `json:"position"`
}

// Variant is a purchasable product variant.
// SupplierVariantID is the CJ "vid" used when ordering and quoting freight.
type Variant struct {
	ID                string            `json:"id"`
	SupplierVariantID string            `json:"supplier_variant_id"`
	SKU               string            `json:"sku"`
	Name              string            `json:"name"`
	Price             decimal.Decimal   `json:"price"`
	Image             string            `json:"image,omitempty"`
	WeightKg          decimal.Decimal   `json:"weight_kg"`
	Attributes        map[string]string `json:"attributes,omitempty"`
}

// Category is one node of the supplier category tree, flattened.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
	Level    int    `json:"level"`
}

// === Freight ===

// ShippingRate is one freight option returned by the supplier.
// LogisticPrice is in the supplier's currency; LogisticAging is the raw day range.
type ShippingRate struct {
	LogisticName  string          `json:"logistic_name"`
	LogisticPrice decimal.Decimal `json:"logistic_price"`
	LogisticTime  string          `json:"logistic_time"`
	LogisticAging string          `json:"logistic_aging,omitempty"`
	Currency      string          `json:"currency"`
}

// ShippingQuery asks for freight options for a single variant.
type ShippingQuery struct {
	VariantID   string          `json:"variant_id" validate:"required"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
	CountryCode string          `json:"country_code" validate:"required,len=2"`
	Zip         string          `json:"zip,omitempty"`
	WeightKg    decimal.Decimal `json:"weight_kg"`
}

// OrderShippingQuery asks for freight options for a whole basket.
type OrderShippingQuery struct {
	CountryCode string          `json:"country_code" validate:"required,len=2"`
	Zip         string          `json:"zip,omitempty"`
	Items       []LineItem      `json:"items" validate:"required,min=1,dive"`
	WeightKg    decimal.Decimal `json:"weight_kg"`
}

// CatalogQuery filters the supplier catalog.
type CatalogQuery struct {
	Keyword    string `json:"keyword,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
	Page       int    `json:"page,omitempty"`
	PageSize   int    `json:"page_size,omitempty"`
}
