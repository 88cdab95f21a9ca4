// Package handler provides the HTTP and MCP surface of the CJ bridge.
// Supplier results are written as the Result envelope verbatim; only
// malformed requests get an error body.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"cj-bridge/internal/adapter"
	"cj-bridge/internal/model"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	supplier adapter.Supplier
	tracker  adapter.Tracker
	logger   *slog.Logger
}

// New creates a Handler. tracker may be nil when no order store is
// configured; the refresh route then reports a configuration error.
func New(supplier adapter.Supplier, tracker adapter.Tracker, logger *slog.Logger) *Handler {
	return &Handler{
		supplier: supplier,
		tracker:  tracker,
		logger:   logger,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Catalog
	mux.HandleFunc("GET /api/cj/products", h.handleSearchCatalog)
	mux.HandleFunc("GET /api/cj/my-products", h.handleSearchMyProducts)
	mux.HandleFunc("GET /api/cj/products/{id}", h.handleGetProduct)
	mux.HandleFunc("GET /api/cj/products/{id}/variants", h.handleGetVariants)
	mux.HandleFunc("GET /api/cj/categories", h.handleCategories)

	// Freight
	mux.HandleFunc("POST /api/cj/freight", h.handleProductFreight)
	mux.HandleFunc("POST /api/cj/freight/order", h.handleOrderFreight)

	// Orders
	mux.HandleFunc("POST /api/cj/orders", h.handleCreateOrder)
	mux.HandleFunc("GET /api/cj/orders/{id}", h.handleOrderDetail)
	mux.HandleFunc("GET /api/cj/orders/{id}/status", h.handleOrderStatus)
	mux.HandleFunc("POST /api/cj/orders/{id}/confirm", h.handleConfirmOrder)

	// Tracking
	mux.HandleFunc("GET /api/cj/tracking/{number}", h.handleTracking)
	mux.HandleFunc("POST /api/orders/{id}/tracking/refresh", h.handleRefreshTracking)

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

type healthResponse struct {
	Status string `json:"status"`
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		apiErr = &model.APIError{
			Code:       "INTERNAL_ERROR",
			Message:    "an internal error occurred",
			StatusCode: http.StatusInternalServerError,
		}
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB.
const MaxRequestBodySize = 1 << 20

// decodeJSON reads JSON from request body into v.
// Returns an APIError if decoding fails.
func decodeJSON(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, model.NewValidationError(key, "must be a non-negative integer")
	}
	return n, nil
}

// createdStatus is 201 for a successful creation and 200 otherwise; callers
// read Result.Success.
func createdStatus(success bool) int {
	if success {
		return http.StatusCreated
	}
	return http.StatusOK
}
