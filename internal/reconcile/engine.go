package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cj-bridge/internal/model"
)

// DefaultTrackingURL is the public tracking page template; %s is the number.
const DefaultTrackingURL = "https://www.17track.net/en/track?nums=%s"

const notShippedMessage = "this order has not shipped yet; no tracking number is available"

// Supplier is the slice of the gateway the engine needs.
type Supplier interface {
	OrderDetail(ctx context.Context, orderID string) model.Result[model.OrderDetail]
	Tracking(ctx context.Context, trackingNumber string) model.Result[[]model.TrackingInfo]
}

// Store reads and writes the fields of local orders the engine owns.
type Store interface {
	// LoadOrder returns the order with its supplier link, if any. A missing
	// order is a model NotFound error.
	LoadOrder(ctx context.Context, orderID string) (model.LocalOrder, error)
	// SaveTrackingNumber records a number on the order and, when linkID is
	// set, on the supplier link.
	SaveTrackingNumber(ctx context.Context, orderID, linkID, number, trackingURL string) error
	// UpsertTracking replaces the order's tracking snapshot.
	UpsertTracking(ctx context.Context, snap model.TrackingSnapshot) error
}

// Refresh is the outcome of one tracking refresh.
type Refresh struct {
	Rows           []model.TrackingInfo `json:"rows"`
	TrackingNumber string               `json:"tracking_number"`
	TrackingURL    string               `json:"tracking_url,omitempty"`
	Saved          bool                 `json:"saved"`
	Stage          Stage                `json:"stage,omitempty"`
	// OrderStatus is the status the stage implies; the engine never applies it.
	OrderStatus model.OrderStatus `json:"order_status,omitempty"`
}

// Engine refreshes tracking for local orders.
type Engine struct {
	supplier    Supplier
	store       Store
	logger      *slog.Logger
	trackingURL string
	now         func() time.Time
}

// NewEngine creates an Engine. An empty trackingURL uses DefaultTrackingURL.
func NewEngine(supplier Supplier, store Store, trackingURL string, logger *slog.Logger) *Engine {
	if trackingURL == "" {
		trackingURL = DefaultTrackingURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		supplier:    supplier,
		store:       store,
		logger:      logger,
		trackingURL: trackingURL,
		now:         time.Now,
	}
}

// RefreshTracking resolves the order's tracking number, queries the supplier
// and stores the latest snapshot.
func (e *Engine) RefreshTracking(ctx context.Context, orderID string) model.Result[Refresh] {
	r, err := e.refresh(ctx, orderID)
	if err != nil {
		return model.Fail[Refresh](err)
	}
	return model.OK(r)
}

func (e *Engine) refresh(ctx context.Context, orderID string) (Refresh, error) {
	if orderID == "" {
		return Refresh{}, model.NewValidationError("order_id", "required")
	}

	order, err := e.store.LoadOrder(ctx, orderID)
	if err != nil {
		return Refresh{}, fmt.Errorf("loading order %s: %w", orderID, err)
	}

	number, url, err := e.resolveNumber(ctx, order)
	if err != nil {
		return Refresh{}, err
	}

	tracked := e.supplier.Tracking(ctx, number)
	if !tracked.Success {
		return Refresh{}, model.NewSupplierError(tracked.Error)
	}

	r := Refresh{Rows: tracked.Data, TrackingNumber: number, TrackingURL: url}
	if r.Rows == nil {
		r.Rows = []model.TrackingInfo{}
	}
	if len(r.Rows) == 0 {
		return r, nil
	}

	row := r.Rows[0]
	if stage, ok := NormalizeCarrierStatus(row.TrackingStatus); ok {
		r.Stage = stage
		r.OrderStatus, _ = StageToLocalStatus(stage)
	}

	snap := model.NewTrackingSnapshot(order.ID, row, e.now().UTC())
	if snap.TrackingNumber == "" {
		snap.TrackingNumber = number
	}
	snap.Stage = string(r.Stage)
	snap.RawPayload, _ = json.Marshal(r.Rows)

	if err := e.store.UpsertTracking(ctx, snap); err != nil {
		e.logger.Warn("tracking snapshot not saved", "order_id", order.ID, "error", err)
		return r, nil
	}
	r.Saved = true
	return r, nil
}

// resolveNumber prefers the supplier link's number, then the order's, then
// asks the supplier order detail for a newly assigned one.
func (e *Engine) resolveNumber(ctx context.Context, order model.LocalOrder) (string, string, error) {
	link := order.Link
	if link != nil && strings.TrimSpace(link.TrackingNumber) != "" {
		number := strings.TrimSpace(link.TrackingNumber)
		return number, e.urlFor(order, number), nil
	}
	if number := strings.TrimSpace(order.TrackingNumber); number != "" {
		return number, e.urlFor(order, number), nil
	}
	if link == nil || link.SupplierOrderID == "" {
		return "", "", model.NewPreconditionError(notShippedMessage)
	}

	detail := e.supplier.OrderDetail(ctx, link.SupplierOrderID)
	if !detail.Success {
		return "", "", model.NewSupplierError(detail.Error)
	}
	number := strings.TrimSpace(detail.Data.TrackingNumber)
	if number == "" {
		return "", "", model.NewPreconditionError(notShippedMessage)
	}

	url := fmt.Sprintf(e.trackingURL, number)
	if err := e.store.SaveTrackingNumber(ctx, order.ID, link.ID, number, url); err != nil {
		e.logger.Warn("discovered tracking number not saved", "order_id", order.ID, "error", err)
	} else {
		e.logger.Info("tracking number discovered", "order_id", order.ID, "cj_order_id", link.SupplierOrderID)
	}
	return number, url, nil
}

func (e *Engine) urlFor(order model.LocalOrder, number string) string {
	if order.TrackingURL != "" && order.TrackingNumber == number {
		return order.TrackingURL
	}
	return fmt.Sprintf(e.trackingURL, number)
}
