package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"cj-bridge/internal/model"
	"cj-bridge/internal/reconcile"
)

// Memory is an in-process store for development and tests.
type Memory struct {
	mu        sync.RWMutex
	orders    map[string]model.LocalOrder
	snapshots map[string]model.TrackingSnapshot
}

var _ reconcile.SweepStore = (*Memory)(nil)

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		orders:    make(map[string]model.LocalOrder),
		snapshots: make(map[string]model.TrackingSnapshot),
	}
}

// PutOrder inserts or replaces an order. An empty ID, or an empty link ID,
// is assigned a new UUID. Returns the stored order.
func (m *Memory) PutOrder(order model.LocalOrder) model.LocalOrder {
	m.mu.Lock()
	defer m.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.Status == "" {
		order.Status = model.OrderPending
	}
	if order.Link != nil {
		link := *order.Link
		if link.ID == "" {
			link.ID = uuid.NewString()
		}
		link.OrderID = order.ID
		order.Link = &link
	}
	m.orders[order.ID] = order
	return cloneOrder(order)
}

// Snapshot returns the stored tracking snapshot for orderID.
func (m *Memory) Snapshot(orderID string) (model.TrackingSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.snapshots[orderID]
	return s, ok
}

func (m *Memory) LoadOrder(_ context.Context, orderID string) (model.LocalOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[orderID]
	if !ok {
		return model.LocalOrder{}, model.NewNotFoundError("order " + orderID)
	}
	return cloneOrder(o), nil
}

func (m *Memory) SaveTrackingNumber(_ context.Context, orderID, linkID, number, trackingURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return model.NewNotFoundError("order " + orderID)
	}
	o.TrackingNumber = number
	o.TrackingURL = trackingURL
	if o.Link != nil && linkID != "" && o.Link.ID == linkID {
		link := *o.Link
		link.TrackingNumber = number
		o.Link = &link
	}
	m.orders[orderID] = o
	return nil
}

func (m *Memory) UpsertTracking(_ context.Context, snap model.TrackingSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snap.OrderID] = snap
	return nil
}

// ListTrackable returns linked open orders sorted by id.
func (m *Memory) ListTrackable(_ context.Context, limit int) ([]model.LocalOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []model.LocalOrder{}
	for _, o := range m.orders {
		if o.Link == nil || !isTrackable(o.Status) {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) UpdateStatus(_ context.Context, orderID string, from, to model.OrderStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return false, model.NewNotFoundError("order " + orderID)
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	m.orders[orderID] = o
	return true, nil
}

func isTrackable(s model.OrderStatus) bool {
	for _, t := range trackableStatuses {
		if s == t {
			return true
		}
	}
	return false
}

func cloneOrder(o model.LocalOrder) model.LocalOrder {
	if o.Link != nil {
		link := *o.Link
		o.Link = &link
	}
	return o
}
