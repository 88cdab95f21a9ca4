package model

import "time"

// TrackingInfo is one row of the supplier tracking endpoint.
type TrackingInfo struct {
	TrackingNumber  string `json:"tracking_number"`
	LogisticName    string `json:"logistic_name,omitempty"`
	TrackingFrom    string `json:"tracking_from,omitempty"`
	TrackingTo      string `json:"tracking_to,omitempty"`
	DeliveryDay     string `json:"delivery_day,omitempty"`
	DeliveryTime    string `json:"delivery_time,omitempty"`
	TrackingStatus  string `json:"tracking_status,omitempty"`
	LastMileCarrier string `json:"last_mile_carrier,omitempty"`
	LastTrackNumber string `json:"last_track_number,omitempty"`
}

// TrackingSnapshot is the latest tracking state persisted per local order.
// At most one snapshot exists per order; writes replace it.
type TrackingSnapshot struct {
	OrderID         string    `json:"order_id"`
	TrackingNumber  string    `json:"tracking_number"`
	LogisticName    string    `json:"logistic_name,omitempty"`
	TrackingFrom    string    `json:"tracking_from,omitempty"`
	TrackingTo      string    `json:"tracking_to,omitempty"`
	DeliveryDay     string    `json:"delivery_day,omitempty"`
	DeliveryTime    string    `json:"delivery_time,omitempty"`
	TrackingStatus  string    `json:"tracking_status,omitempty"`
	LastMileCarrier string    `json:"last_mile_carrier,omitempty"`
	LastTrackNumber string    `json:"last_track_number,omitempty"`
	Stage           string    `json:"stage,omitempty"`
	RawPayload      []byte    `json:"-"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewTrackingSnapshot copies a tracking row into a snapshot for orderID.
func NewTrackingSnapshot(orderID string, row TrackingInfo, now time.Time) TrackingSnapshot {
	return TrackingSnapshot{
		OrderID:         orderID,
		TrackingNumber:  row.TrackingNumber,
		LogisticName:    row.LogisticName,
		TrackingFrom:    row.TrackingFrom,
		TrackingTo:      row.TrackingTo,
		DeliveryDay:     row.DeliveryDay,
		DeliveryTime:    row.DeliveryTime,
		TrackingStatus:  row.TrackingStatus,
		LastMileCarrier: row.LastMileCarrier,
		LastTrackNumber: row.LastTrackNumber,
		UpdatedAt:       now,
	}
}
