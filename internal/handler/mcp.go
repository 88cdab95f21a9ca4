// MCP transport handler for the CJ bridge using the official MCP Go SDK.
// Exposes catalog, freight and tracking operations as MCP tools.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shopspring/decimal"

	"cj-bridge/internal/model"
)

// === MCP Tool Input Types ===
// Fields without omitempty are required by the generated schema.

// SearchProductsInput is the input schema for search_products.
type SearchProductsInput struct {
	Keyword    string `json:"keyword,omitempty" jsonschema:"English product name keyword"`
	CategoryID string `json:"category_id,omitempty" jsonschema:"CJ leaf category id"`
	Page       int    `json:"page,omitempty" jsonschema:"page number starting at 1"`
	PageSize   int    `json:"page_size,omitempty" jsonschema:"results per page, at most 200"`
	Saved      bool   `json:"saved,omitempty" jsonschema:"search the operator's saved products instead of the catalog"`
}

// GetProductInput is the input schema for get_product.
type GetProductInput struct {
	ProductID string `json:"product_id" jsonschema:"CJ product id (pid)"`
}

// ShippingRatesInput is the input schema for shipping_rates.
type ShippingRatesInput struct {
	VariantID   string  `json:"variant_id" jsonschema:"CJ variant id (vid)"`
	Quantity    int     `json:"quantity,omitempty" jsonschema:"units to ship, default 1"`
	CountryCode string  `json:"country_code" jsonschema:"destination ISO 3166 alpha-2 code"`
	Zip         string  `json:"zip,omitempty" jsonschema:"destination postal code"`
	WeightKg    float64 `json:"weight_kg,omitempty" jsonschema:"unit weight used when CJ cannot quote by product"`
}

// OrderDetailInput is the input schema for order_detail.
type OrderDetailInput struct {
	OrderID string `json:"order_id" jsonschema:"CJ order id"`
}

// RefreshTrackingInput is the input schema for refresh_tracking.
type RefreshTrackingInput struct {
	OrderID string `json:"order_id" jsonschema:"local order id"`
}

// NewMCPServer creates an MCP server with the bridge tools registered.
// The server exposes the same operations as the REST API but via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "cj-bridge",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "CJ Dropshipping bridge. Search products, quote shipping, " +
				"inspect supplier orders and refresh order tracking.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_products",
		Description: "Search the CJ catalog, or the operator's saved products when saved is true.",
	}, h.mcpSearchProducts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_product",
		Description: "Get one CJ product with its variants and marked-up prices.",
	}, h.mcpGetProduct)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "shipping_rates",
		Description: "Quote CJ shipping options for a variant to a destination country.",
	}, h.mcpShippingRates)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "order_detail",
		Description: "Get the CJ view of a supplier order, including amounts and tracking number.",
	}, h.mcpOrderDetail)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "refresh_tracking",
		Description: "Refresh and store tracking for a local order. Does not change the order status.",
	}, h.mcpRefreshTracking)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===
// Outputs are Result envelopes; a failed Result is still a successful tool call.

func (h *Handler) mcpSearchProducts(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchProductsInput,
) (*mcp.CallToolResult, any, error) {
	q := model.CatalogQuery{
		Keyword:    input.Keyword,
		CategoryID: input.CategoryID,
		Page:       input.Page,
		PageSize:   input.PageSize,
	}
	if input.Saved {
		return nil, h.supplier.SearchMyProducts(ctx, q), nil
	}
	return nil, h.supplier.SearchCatalog(ctx, q), nil
}

func (h *Handler) mcpGetProduct(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input GetProductInput,
) (*mcp.CallToolResult, any, error) {
	if input.ProductID == "" {
		return nil, nil, fmt.Errorf("product_id is required")
	}
	return nil, h.supplier.GetProduct(ctx, input.ProductID), nil
}

func (h *Handler) mcpShippingRates(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ShippingRatesInput,
) (*mcp.CallToolResult, any, error) {
	q := model.ShippingQuery{
		VariantID:   input.VariantID,
		Quantity:    input.Quantity,
		CountryCode: input.CountryCode,
		Zip:         input.Zip,
		WeightKg:    decimal.NewFromFloat(input.WeightKg),
	}
	return nil, h.supplier.ProductShippingRates(ctx, q), nil
}

func (h *Handler) mcpOrderDetail(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input OrderDetailInput,
) (*mcp.CallToolResult, any, error) {
	if input.OrderID == "" {
		return nil, nil, fmt.Errorf("order_id is required")
	}
	return nil, h.supplier.OrderDetail(ctx, input.OrderID), nil
}

func (h *Handler) mcpRefreshTracking(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RefreshTrackingInput,
) (*mcp.CallToolResult, any, error) {
	if h.tracker == nil {
		return nil, nil, errors.New("order store not configured")
	}
	if input.OrderID == "" {
		return nil, nil, fmt.Errorf("order_id is required")
	}
	h.logger.InfoContext(ctx, "refreshing tracking via MCP", "order_id", input.OrderID)
	return nil, h.tracker.RefreshTracking(ctx, input.OrderID), nil
}
