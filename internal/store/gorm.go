// Package store persists the local order fields the tracking engine reads
// and writes. The tables belong to the dashboard database; only the columns
// mapped here are touched.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cj-bridge/internal/model"
	"cj-bridge/internal/reconcile"
)

const queryTimeout = 30 * time.Second

// trackableStatuses are the statuses a sweep still refreshes.
var trackableStatuses = []model.OrderStatus{model.OrderPending, model.OrderProcessing, model.OrderShipped}

type orderRow struct {
	ID             string `gorm:"column:id;primaryKey"`
	Status         string `gorm:"column:status"`
	TrackingNumber string `gorm:"column:tracking_number"`
	TrackingURL    string `gorm:"column:tracking_url"`
}

func (orderRow) TableName() string { return "orders" }

type cjOrderRow struct {
	ID             string `gorm:"column:id;primaryKey"`
	OrderID        string `gorm:"column:order_id"`
	CJOrderID      string `gorm:"column:cj_order_id"`
	CJStatus       string `gorm:"column:cj_status"`
	TrackingNumber string `gorm:"column:tracking_number"`
}

func (cjOrderRow) TableName() string { return "cj_orders" }

type trackingRow struct {
	OrderID         string    `gorm:"column:order_id;primaryKey"`
	TrackingNumber  string    `gorm:"column:tracking_number"`
	LogisticName    string    `gorm:"column:logistic_name"`
	TrackingFrom    string    `gorm:"column:tracking_from"`
	TrackingTo      string    `gorm:"column:tracking_to"`
	DeliveryDay     string    `gorm:"column:delivery_day"`
	DeliveryTime    string    `gorm:"column:delivery_time"`
	TrackingStatus  string    `gorm:"column:tracking_status"`
	LastMileCarrier string    `gorm:"column:last_mile_carrier"`
	LastTrackNumber string    `gorm:"column:last_track_number"`
	NormalizedStage string    `gorm:"column:normalized_stage"`
	RawPayload      []byte    `gorm:"column:raw_payload;type:jsonb"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (trackingRow) TableName() string { return "order_tracking" }

// Postgres is the gorm-backed store.
type Postgres struct {
	db *gorm.DB
}

var _ reconcile.SweepStore = (*Postgres)(nil)

// OpenPostgres connects to dsn.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	return NewPostgres(db), nil
}

// NewPostgres wraps an open gorm handle.
func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

// Close releases the underlying pool.
func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *Postgres) dbWithTimeout(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	return p.db.WithContext(ctx), cancel
}

// LoadOrder returns the order and its first supplier link.
func (p *Postgres) LoadOrder(ctx context.Context, orderID string) (model.LocalOrder, error) {
	db, cancel := p.dbWithTimeout(ctx)
	defer cancel()

	var row orderRow
	if err := db.Take(&row, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.LocalOrder{}, model.NewNotFoundError("order " + orderID)
		}
		return model.LocalOrder{}, err
	}

	var links []cjOrderRow
	if err := db.Where("order_id = ?", orderID).Order("id").Limit(1).Find(&links).Error; err != nil {
		return model.LocalOrder{}, err
	}

	order := toLocalOrder(row)
	if len(links) > 0 {
		order.Link = toLink(links[0])
	}
	return order, nil
}

// SaveTrackingNumber writes the number to the order and its link in one transaction.
func (p *Postgres) SaveTrackingNumber(ctx context.Context, orderID, linkID, number, trackingURL string) error {
	db, cancel := p.dbWithTimeout(ctx)
	defer cancel()

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&orderRow{}).Where("id = ?", orderID).Updates(map[string]any{
			"tracking_number": number,
			"tracking_url":    trackingURL,
		}).Error; err != nil {
			return err
		}
		if linkID == "" {
			return nil
		}
		return tx.Model(&cjOrderRow{}).Where("id = ?", linkID).Update("tracking_number", number).Error
	})
}

// UpsertTracking replaces the snapshot keyed by order id.
func (p *Postgres) UpsertTracking(ctx context.Context, snap model.TrackingSnapshot) error {
	db, cancel := p.dbWithTimeout(ctx)
	defer cancel()
	return upsertTracking(db, toTrackingRow(snap)).Error
}

func upsertTracking(db *gorm.DB, row trackingRow) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		UpdateAll: true,
	}).Create(&row)
}

// ListTrackable returns open orders that have a supplier link.
func (p *Postgres) ListTrackable(ctx context.Context, limit int) ([]model.LocalOrder, error) {
	db, cancel := p.dbWithTimeout(ctx)
	defer cancel()

	var rows []orderRow
	if err := trackableQuery(db, limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []model.LocalOrder{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	var links []cjOrderRow
	if err := db.Where("order_id IN ?", ids).Order("id").Find(&links).Error; err != nil {
		return nil, err
	}
	byOrder := make(map[string]cjOrderRow, len(links))
	for _, l := range links {
		if _, seen := byOrder[l.OrderID]; !seen {
			byOrder[l.OrderID] = l
		}
	}

	out := make([]model.LocalOrder, 0, len(rows))
	for _, r := range rows {
		o := toLocalOrder(r)
		if l, ok := byOrder[r.ID]; ok {
			o.Link = toLink(l)
		}
		out = append(out, o)
	}
	return out, nil
}

func trackableQuery(db *gorm.DB, limit int) *gorm.DB {
	statuses := make([]string, 0, len(trackableStatuses))
	for _, s := range trackableStatuses {
		statuses = append(statuses, string(s))
	}
	return db.Model(&orderRow{}).
		Distinct("orders.id", "orders.status", "orders.tracking_number", "orders.tracking_url").
		Joins("JOIN cj_orders ON cj_orders.order_id = orders.id").
		Where("orders.status IN ?", statuses).
		Order("orders.id").
		Limit(limit)
}

// UpdateStatus sets the order status to to only while it is still from. No
// matching row reports false, which also covers a deleted order.
func (p *Postgres) UpdateStatus(ctx context.Context, orderID string, from, to model.OrderStatus) (bool, error) {
	db, cancel := p.dbWithTimeout(ctx)
	defer cancel()

	res := updateStatus(db, orderID, from, to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func updateStatus(db *gorm.DB, orderID string, from, to model.OrderStatus) *gorm.DB {
	return db.Model(&orderRow{}).
		Where("id = ? AND status = ?", orderID, string(from)).
		Update("status", string(to))
}

func toLocalOrder(r orderRow) model.LocalOrder {
	return model.LocalOrder{
		ID:             r.ID,
		Status:         model.OrderStatus(r.Status),
		TrackingNumber: r.TrackingNumber,
		TrackingURL:    r.TrackingURL,
	}
}

func toLink(r cjOrderRow) *model.SupplierLink {
	return &model.SupplierLink{
		ID:              r.ID,
		OrderID:         r.OrderID,
		SupplierOrderID: r.CJOrderID,
		SupplierStatus:  r.CJStatus,
		TrackingNumber:  r.TrackingNumber,
	}
}

func toTrackingRow(s model.TrackingSnapshot) trackingRow {
	return trackingRow{
		OrderID:         s.OrderID,
		TrackingNumber:  s.TrackingNumber,
		LogisticName:    s.LogisticName,
		TrackingFrom:    s.TrackingFrom,
		TrackingTo:      s.TrackingTo,
		DeliveryDay:     s.DeliveryDay,
		DeliveryTime:    s.DeliveryTime,
		TrackingStatus:  s.TrackingStatus,
		LastMileCarrier: s.LastMileCarrier,
		LastTrackNumber: s.LastTrackNumber,
		NormalizedStage: s.Stage,
		RawPayload:      s.RawPayload,
		UpdatedAt:       s.UpdatedAt,
	}
}
