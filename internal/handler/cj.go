package handler

import (
	"log/slog"
	"net/http"

	"cj-bridge/internal/model"
)

// handleSearchCatalog searches CJ's catalog.
// GET /api/cj/products?keyword=&category_id=&page=&page_size=
func (h *Handler) handleSearchCatalog(w http.ResponseWriter, r *http.Request) {
	q, err := catalogQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	res := h.supplier.SearchCatalog(r.Context(), q)
	h.writeJSON(w, http.StatusOK, res)
}

// handleSearchMyProducts searches the operator's saved products.
// GET /api/cj/my-products?keyword=&page=&page_size=
func (h *Handler) handleSearchMyProducts(w http.ResponseWriter, r *http.Request) {
	q, err := catalogQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	res := h.supplier.SearchMyProducts(r.Context(), q)
	h.writeJSON(w, http.StatusOK, res)
}

func catalogQuery(r *http.Request) (model.CatalogQuery, error) {
	page, err := queryInt(r, "page")
	if err != nil {
		return model.CatalogQuery{}, err
	}
	size, err := queryInt(r, "page_size")
	if err != nil {
		return model.CatalogQuery{}, err
	}
	return model.CatalogQuery{
		Keyword:    r.URL.Query().Get("keyword"),
		CategoryID: r.URL.Query().Get("category_id"),
		Page:       page,
		PageSize:   size,
	}, nil
}

// GET /api/cj/products/{id}
func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	res := h.supplier.GetProduct(r.Context(), r.PathValue("id"))
	h.writeJSON(w, http.StatusOK, res)
}

// GET /api/cj/products/{id}/variants
func (h *Handler) handleGetVariants(w http.ResponseWriter, r *http.Request) {
	res := h.supplier.GetVariants(r.Context(), r.PathValue("id"))
	h.writeJSON(w, http.StatusOK, res)
}

// GET /api/cj/categories
func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.supplier.Categories(r.Context()))
}

// handleProductFreight quotes one variant.
// POST /api/cj/freight
func (h *Handler) handleProductFreight(w http.ResponseWriter, r *http.Request) {
	var q model.ShippingQuery
	if err := decodeJSON(r, &q); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.supplier.ProductShippingRates(r.Context(), q))
}

// handleOrderFreight quotes a basket.
// POST /api/cj/freight/order
func (h *Handler) handleOrderFreight(w http.ResponseWriter, r *http.Request) {
	var q model.OrderShippingQuery
	if err := decodeJSON(r, &q); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.supplier.OrderShippingRates(r.Context(), q))
}

// handleCreateOrder places a CJ order.
// POST /api/cj/orders
func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.OrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "creating CJ order",
		slog.String("order_number", req.OrderNumber),
		slog.Int("line_items", len(req.LineItems)),
	)

	res := h.supplier.CreateOrder(ctx, req)
	h.writeJSON(w, createdStatus(res.Success), res)
}

// GET /api/cj/orders/{id}
func (h *Handler) handleOrderDetail(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.supplier.OrderDetail(r.Context(), r.PathValue("id")))
}

// GET /api/cj/orders/{id}/status
func (h *Handler) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.supplier.OrderStatus(r.Context(), r.PathValue("id")))
}

// POST /api/cj/orders/{id}/confirm
func (h *Handler) handleConfirmOrder(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.supplier.ConfirmOrder(r.Context(), r.PathValue("id")))
}

// handleTracking queries CJ tracking directly, without persistence.
// GET /api/cj/tracking/{number}
func (h *Handler) handleTracking(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.supplier.Tracking(r.Context(), r.PathValue("number")))
}

// handleRefreshTracking refreshes and stores tracking for a local order.
// POST /api/orders/{id}/tracking/refresh
func (h *Handler) handleRefreshTracking(w http.ResponseWriter, r *http.Request) {
	if h.tracker == nil {
		h.writeError(w, model.NewConfigError("order store not configured"))
		return
	}
	ctx := r.Context()
	orderID := r.PathValue("id")

	h.logger.InfoContext(ctx, "refreshing tracking", slog.String("order_id", orderID))

	h.writeJSON(w, http.StatusOK, h.tracker.RefreshTracking(ctx, orderID))
}
