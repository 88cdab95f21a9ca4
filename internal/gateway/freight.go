package gateway

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"cj-bridge/internal/cj"
	"cj-bridge/internal/model"
)

// ProductShippingRates quotes freight for one variant. When CJ has no
// product-based option and a weight is known, it retries by weight.
func (g *Gateway) ProductShippingRates(ctx context.Context, q model.ShippingQuery) model.Result[[]model.ShippingRate] {
	if err := g.validate.Struct(q); err != nil {
		return model.Fail[[]model.ShippingRate](validationError(err))
	}
	qty := q.Quantity
	if qty < 1 {
		qty = 1
	}

	items := []cj.FreightProduct{{VID: q.VariantID, Quantity: qty}}
	weight := q.WeightKg.Mul(decimal.NewFromInt(int64(qty)))

	rates, err := g.freight(ctx, q.CountryCode, q.Zip, items, weight)
	if err != nil {
		return fail[[]model.ShippingRate](g, "product_shipping_rates", err)
	}
	return model.OK(rates)
}

// OrderShippingRates quotes freight for a whole basket, with the same weight fallback.
func (g *Gateway) OrderShippingRates(ctx context.Context, q model.OrderShippingQuery) model.Result[[]model.ShippingRate] {
	if err := g.validate.Struct(q); err != nil {
		return model.Fail[[]model.ShippingRate](validationError(err))
	}

	items := make([]cj.FreightProduct, 0, len(q.Items))
	for _, it := range q.Items {
		items = append(items, cj.FreightProduct{VID: it.VariantID, Quantity: it.Quantity})
	}

	rates, err := g.freight(ctx, q.CountryCode, q.Zip, items, q.WeightKg)
	if err != nil {
		return fail[[]model.ShippingRate](g, "order_shipping_rates", err)
	}
	return model.OK(rates)
}

// freight calls freightCalculate by products, falling back to weight.
// Options are returned in CJ's order.
func (g *Gateway) freight(ctx context.Context, country, zip string, items []cj.FreightProduct, weightKg decimal.Decimal) ([]model.ShippingRate, error) {
	req := cj.FreightRequest{
		StartCountryCode: g.cfg.StartCountry,
		EndCountryCode:   strings.ToUpper(country),
		Zip:              zip,
		Products:         items,
	}

	var options []cj.FreightOption
	if err := g.api.Post(ctx, cj.PathFreight, req, &options); err != nil {
		return nil, err
	}

	if len(options) == 0 && weightKg.Sign() > 0 {
		grams, _ := weightKg.Mul(decimal.NewFromInt(1000)).Round(0).Float64()
		byWeight := cj.FreightRequest{
			StartCountryCode: req.StartCountryCode,
			EndCountryCode:   req.EndCountryCode,
			Zip:              zip,
			Weight:           &grams,
		}
		if err := g.api.Post(ctx, cj.PathFreight, byWeight, &options); err != nil {
			return nil, err
		}
	}

	rates := make([]model.ShippingRate, 0, len(options))
	for _, o := range options {
		rates = append(rates, toShippingRate(o))
	}
	return rates, nil
}

func toShippingRate(o cj.FreightOption) model.ShippingRate {
	price := model.ParseAmount(o.LogisticPrice.String())
	if price.IsZero() {
		price = model.ParseAmount(o.TotalPostageFee.String())
	}
	aging := strings.TrimSpace(o.LogisticAging)
	var eta string
	if aging != "" {
		eta = aging + " days"
	}
	return model.ShippingRate{
		LogisticName:  o.LogisticName,
		LogisticPrice: price,
		LogisticTime:  eta,
		LogisticAging: aging,
		Currency:      "USD",
	}
}
