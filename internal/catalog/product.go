package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cj-bridge/internal/cj"
	"cj-bridge/internal/model"
)

// =============================================================================
// PRODUCT NORMALIZATION
// =============================================================================
//
// CJ describes the same product three ways: the full detail (product/query),
// a catalog row (product/list) and a saved-product row (myProduct/query).
// All three converge on model.Product:
//
//   base price   lower bound of the supplier sell price, USD
//   sell price   base × PriceMultiplier, cents
//   compare-at   sell × CompareAtMultiplier, cents
//   weight       grams → kg
//
// Rows without variants get a single synthetic variant so every product is
// orderable through Variants[0].SupplierVariantID.
// =============================================================================

// FromDetail converts a full product detail.
func FromDetail(d cj.ProductDetail, cfg model.TransformConfig) model.Product {
	cfg = cfg.Normalize()
	name := strings.TrimSpace(d.ProductNameEn)
	description := PlainText(d.Description)

	p := newProduct(d.PID, name, d.SellPrice.String(), d.ProductWeight.String(), cfg)
	p.Description = description
	p.ShortDescription = ShortDescription(description)
	p.CategoryID = d.CategoryID
	p.Category = d.CategoryName
	p.Images = BuildImages(d.PID, name, ParseImagesJSON(d.ProductImage))
	p.CreatedAt = parseTime(d.CreateTime)
	p.UpdatedAt = p.CreatedAt

	p.Variants = BuildVariants(d.PID, d.Variants)
	if len(p.Variants) == 0 {
		p.Variants = []model.Variant{singleVariant(d.PID, "", d.ProductSku, name, p)}
	}
	return p
}

// FromListRow converts a catalog search row.
func FromListRow(r cj.ListProduct, cfg model.TransformConfig) model.Product {
	cfg = cfg.Normalize()
	name := strings.TrimSpace(r.ProductNameEn)
	if name == "" {
		name = firstName(r.ProductName)
	}

	p := newProduct(r.PID, name, r.SellPrice.String(), r.ProductWeight.String(), cfg)
	p.CategoryID = r.CategoryID
	p.Category = r.CategoryName
	p.Images = BuildImages(r.PID, name, ParseImagesJSON(r.ProductImage))
	p.CreatedAt = parseTime(r.CreateTime)
	p.UpdatedAt = p.CreatedAt
	p.Variants = []model.Variant{singleVariant(r.PID, "", r.ProductSku, name, p)}
	return p
}

// FromMyProductRow converts a saved-product row. These rows carry a single vid.
func FromMyProductRow(r cj.MyProduct, cfg model.TransformConfig) model.Product {
	cfg = cfg.Normalize()
	name := strings.TrimSpace(r.NameEn)

	p := newProduct(r.ProductID, name, r.SellPrice.String(), r.Weight.String(), cfg)
	p.Images = BuildImages(r.ProductID, name, ParseImages(r.BigImage))
	p.Variants = []model.Variant{singleVariant(r.ProductID, r.VID, r.SKU, name, p)}
	return p
}

// BuildVariants converts supplier variants, assigning ids "{productID}-{index}".
// Price is the supplier price.
func BuildVariants(productID string, variants []cj.ProductVariant) []model.Variant {
	out := make([]model.Variant, 0, len(variants))
	for i, v := range variants {
		var attrs map[string]string
		if v.VariantKey != "" {
			attrs = map[string]string{"variant": v.VariantKey}
		}
		var image string
		if imgs := ParseImages(v.VariantImage); len(imgs) > 0 {
			image = imgs[0]
		}
		out = append(out, model.Variant{
			ID:                fmt.Sprintf("%s-%d", productID, i),
			SupplierVariantID: v.VID,
			SKU:               v.VariantSku,
			Name:              strings.TrimSpace(v.VariantNameEn),
			Price:             model.ParseAmount(v.VariantSellPrice.String()),
			Image:             image,
			WeightKg:          model.GramsToKg(model.ParseAmount(v.VariantWeight.String())),
			Attributes:        attrs,
		})
	}
	return out
}

// FlattenCategories reduces the three-level tree to its leaves. ParentID is
// the second-level id, or its name when CJ omits the id.
func FlattenCategories(tree []cj.CategoryFirst) []model.Category {
	out := []model.Category{}
	for _, first := range tree {
		for _, second := range first.CategoryFirstList {
			parent := second.CategorySecondID
			if parent == "" {
				parent = second.CategorySecondName
			}
			for _, leaf := range second.CategorySecondList {
				out = append(out, model.Category{
					ID:       leaf.CategoryID,
					Name:     leaf.CategoryName,
					ParentID: parent,
					Level:    3,
				})
			}
		}
	}
	return out
}

func newProduct(id, name, price, weightGrams string, cfg model.TransformConfig) model.Product {
	base := model.ParseAmount(price)
	sell := model.Markup(base, cfg.PriceMultiplier)
	return model.Product{
		ID:             id,
		Name:           name,
		BasePriceUSD:   base,
		SellPrice:      sell,
		CompareAtPrice: model.Markup(sell, cfg.CompareAtMultiplier),
		Images:         []model.Image{},
		WeightKg:       model.GramsToKg(model.ParseAmount(weightGrams)),
		SourceCountry:  cfg.SourceCountry,
	}
}

func singleVariant(productID, vid, sku, name string, p model.Product) model.Variant {
	if vid == "" {
		vid = productID
	}
	var image string
	if len(p.Images) > 0 {
		image = p.Images[0].URL
	}
	return model.Variant{
		ID:                productID + "-0",
		SupplierVariantID: vid,
		SKU:               sku,
		Name:              name,
		Price:             p.BasePriceUSD,
		Image:             image,
		WeightKg:          p.WeightKg,
	}
}

// firstName reads productName, which CJ sends as a string, a JSON array, or
// a JSON array encoded in a string.
func firstName(raw json.RawMessage) string {
	var names []string
	if err := json.Unmarshal(raw, &names); err == nil {
		if len(names) > 0 {
			return strings.TrimSpace(names[0])
		}
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	if strings.HasPrefix(s, "[") {
		return firstName(json.RawMessage(s))
	}
	return strings.TrimSpace(s)
}

// parseTime reads epoch seconds, epoch milliseconds or a date string.
func parseTime(t cj.Text) time.Time {
	s := strings.TrimSpace(t.String())
	if s == "" {
		return time.Time{}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC()
		}
		return time.Unix(n, 0).UTC()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}
