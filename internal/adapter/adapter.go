// Package adapter defines the caller-facing surface of the CJ integration.
// HTTP and MCP handlers depend on these interfaces; *gateway.Gateway and
// *reconcile.Engine implement them.
package adapter

import (
	"context"

	"cj-bridge/internal/model"
	"cj-bridge/internal/reconcile"
)

// Supplier abstracts CJ catalog and order operations.
//
// Every method returns a Result envelope ready for serialization and never
// an error: failures are reported in Result.Error.
type Supplier interface {
	// SearchCatalog searches CJ's public catalog.
	SearchCatalog(ctx context.Context, q model.CatalogQuery) model.ListResult[model.Product]

	// SearchMyProducts searches the operator's saved CJ products.
	SearchMyProducts(ctx context.Context, q model.CatalogQuery) model.ListResult[model.Product]

	// GetProduct fetches one product with its variants.
	GetProduct(ctx context.Context, productID string) model.Result[model.Product]

	GetVariants(ctx context.Context, productID string) model.Result[[]model.Variant]

	Categories(ctx context.Context) model.Result[[]model.Category]

	// ProductShippingRates quotes freight for one variant.
	ProductShippingRates(ctx context.Context, q model.ShippingQuery) model.Result[[]model.ShippingRate]

	// OrderShippingRates quotes freight for a basket.
	OrderShippingRates(ctx context.Context, q model.OrderShippingQuery) model.Result[[]model.ShippingRate]

	// CreateOrder places an order with CJ.
	CreateOrder(ctx context.Context, req model.OrderRequest) model.Result[model.OrderResponse]

	OrderStatus(ctx context.Context, orderID string) model.Result[model.OrderResponse]

	OrderDetail(ctx context.Context, orderID string) model.Result[model.OrderDetail]

	// Tracking queries CJ's tracking endpoint directly, without persistence.
	Tracking(ctx context.Context, trackingNumber string) model.Result[[]model.TrackingInfo]

	ConfirmOrder(ctx context.Context, orderID string) model.Result[model.Ack]
}

// Tracker refreshes and stores tracking for a local order.
type Tracker interface {
	RefreshTracking(ctx context.Context, localOrderID string) model.Result[reconcile.Refresh]
}
