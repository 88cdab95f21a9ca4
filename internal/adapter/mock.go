package adapter

import (
	"context"

	"cj-bridge/internal/model"
	"cj-bridge/internal/reconcile"
)

var (
	_ Supplier = (*Mock)(nil)
	_ Tracker  = (*Mock)(nil)
)

// Mock implements Supplier and Tracker for testing.
// Each method can be configured via function fields; unset methods fail.
type Mock struct {
	SearchCatalogFunc        func(ctx context.Context, q model.CatalogQuery) model.ListResult[model.Product]
	SearchMyProductsFunc     func(ctx context.Context, q model.CatalogQuery) model.ListResult[model.Product]
	GetProductFunc           func(ctx context.Context, id string) model.Result[model.Product]
	GetVariantsFunc          func(ctx context.Context, id string) model.Result[[]model.Variant]
	CategoriesFunc           func(ctx context.Context) model.Result[[]model.Category]
	ProductShippingRatesFunc func(ctx context.Context, q model.ShippingQuery) model.Result[[]model.ShippingRate]
	OrderShippingRatesFunc   func(ctx context.Context, q model.OrderShippingQuery) model.Result[[]model.ShippingRate]
	CreateOrderFunc          func(ctx context.Context, req model.OrderRequest) model.Result[model.OrderResponse]
	OrderStatusFunc          func(ctx context.Context, id string) model.Result[model.OrderResponse]
	OrderDetailFunc          func(ctx context.Context, id string) model.Result[model.OrderDetail]
	TrackingFunc             func(ctx context.Context, number string) model.Result[[]model.TrackingInfo]
	ConfirmOrderFunc         func(ctx context.Context, id string) model.Result[model.Ack]
	RefreshTrackingFunc      func(ctx context.Context, id string) model.Result[reconcile.Refresh]
}

func notConfigured[T any]() model.Result[T] {
	return model.Fail[T](model.NewInternalError(nil))
}

// SearchCatalog calls SearchCatalogFunc or returns an empty page.
func (m *Mock) SearchCatalog(ctx context.Context, q model.CatalogQuery) model.ListResult[model.Product] {
	if m.SearchCatalogFunc != nil {
		return m.SearchCatalogFunc(ctx, q)
	}
	return model.OKList[model.Product](nil, 0)
}

// SearchMyProducts calls SearchMyProductsFunc or returns an empty page.
func (m *Mock) SearchMyProducts(ctx context.Context, q model.CatalogQuery) model.ListResult[model.Product] {
	if m.SearchMyProductsFunc != nil {
		return m.SearchMyProductsFunc(ctx, q)
	}
	return model.OKList[model.Product](nil, 0)
}

// GetProduct calls GetProductFunc or reports the product missing.
func (m *Mock) GetProduct(ctx context.Context, id string) model.Result[model.Product] {
	if m.GetProductFunc != nil {
		return m.GetProductFunc(ctx, id)
	}
	return model.Fail[model.Product](model.NewNotFoundError("product " + id))
}

func (m *Mock) GetVariants(ctx context.Context, id string) model.Result[[]model.Variant] {
	if m.GetVariantsFunc != nil {
		return m.GetVariantsFunc(ctx, id)
	}
	return model.OK([]model.Variant{})
}

func (m *Mock) Categories(ctx context.Context) model.Result[[]model.Category] {
	if m.CategoriesFunc != nil {
		return m.CategoriesFunc(ctx)
	}
	return model.OK([]model.Category{})
}

func (m *Mock) ProductShippingRates(ctx context.Context, q model.ShippingQuery) model.Result[[]model.ShippingRate] {
	if m.ProductShippingRatesFunc != nil {
		return m.ProductShippingRatesFunc(ctx, q)
	}
	return model.OK([]model.ShippingRate{})
}

func (m *Mock) OrderShippingRates(ctx context.Context, q model.OrderShippingQuery) model.Result[[]model.ShippingRate] {
	if m.OrderShippingRatesFunc != nil {
		return m.OrderShippingRatesFunc(ctx, q)
	}
	return model.OK([]model.ShippingRate{})
}

// CreateOrder calls CreateOrderFunc or returns an internal error.
func (m *Mock) CreateOrder(ctx context.Context, req model.OrderRequest) model.Result[model.OrderResponse] {
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, req)
	}
	return notConfigured[model.OrderResponse]()
}

func (m *Mock) OrderStatus(ctx context.Context, id string) model.Result[model.OrderResponse] {
	if m.OrderStatusFunc != nil {
		return m.OrderStatusFunc(ctx, id)
	}
	return model.Fail[model.OrderResponse](model.NewNotFoundError("CJ order " + id))
}

func (m *Mock) OrderDetail(ctx context.Context, id string) model.Result[model.OrderDetail] {
	if m.OrderDetailFunc != nil {
		return m.OrderDetailFunc(ctx, id)
	}
	return model.Fail[model.OrderDetail](model.NewNotFoundError("CJ order " + id))
}

func (m *Mock) Tracking(ctx context.Context, number string) model.Result[[]model.TrackingInfo] {
	if m.TrackingFunc != nil {
		return m.TrackingFunc(ctx, number)
	}
	return model.OK([]model.TrackingInfo{})
}

func (m *Mock) ConfirmOrder(ctx context.Context, id string) model.Result[model.Ack] {
	if m.ConfirmOrderFunc != nil {
		return m.ConfirmOrderFunc(ctx, id)
	}
	return notConfigured[model.Ack]()
}

// RefreshTracking calls RefreshTrackingFunc or returns an internal error.
func (m *Mock) RefreshTracking(ctx context.Context, id string) model.Result[reconcile.Refresh] {
	if m.RefreshTrackingFunc != nil {
		return m.RefreshTrackingFunc(ctx, id)
	}
	return notConfigured[reconcile.Refresh]()
}
