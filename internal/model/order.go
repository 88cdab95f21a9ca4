package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// === Supplier Orders ===

// Address is the consignee of a supplier order.
type Address struct {
	Name        string `json:"name" validate:"required"`
	Phone       string `json:"phone" validate:"required"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Address1    string `json:"address1" validate:"required"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city" validate:"required"`
	Province    string `json:"province,omitempty"`
	Zip         string `json:"zip,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"country_code"`
}

// LineItem references a supplier variant and a quantity.
type LineItem struct {
	VariantID string `json:"variant_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// OrderRequest places an order with the supplier.
// OrderNumber is the dashboard's own order number and must be unique at the supplier.
type OrderRequest struct {
	OrderNumber     string     `json:"order_number" validate:"required,max=50"`
	ShippingAddress Address    `json:"shipping_address" validate:"required"`
	LineItems       []LineItem `json:"line_items" validate:"required,min=1,dive"`
	Remark          string     `json:"remark,omitempty"`
	LogisticName    string     `json:"logistic_name,omitempty"`
}

// OrderResponse is the supplier's acknowledgement of an order.
type OrderResponse struct {
	OrderID        string `json:"order_id"`
	OrderNumber    string `json:"order_number"`
	OrderStatus    string `json:"order_status"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	LogisticName   string `json:"logistic_name,omitempty"`
}

// OrderDetail is the supplier's full view of an order.
type OrderDetail struct {
	OrderResponse
	OrderAmount     decimal.Decimal      `json:"order_amount"`
	ProductAmount   decimal.Decimal      `json:"product_amount"`
	PostageAmount   decimal.Decimal      `json:"postage_amount"`
	ShippingName    string               `json:"shipping_name,omitempty"`
	ShippingCountry string               `json:"shipping_country,omitempty"`
	CreatedAt       *time.Time           `json:"created_at,omitempty"`
	Products        []OrderDetailProduct `json:"products"`
}

// OrderDetailProduct is one line of an OrderDetail.
type OrderDetailProduct struct {
	VariantID string          `json:"variant_id"`
	SKU       string          `json:"sku,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// === Local Orders ===

// LocalOrder is the dashboard's order row as seen by the reconciliation engine.
// Link is nil when the order was never forwarded to the supplier.
type LocalOrder struct {
	ID             string        `json:"id"`
	Status         OrderStatus   `json:"status"`
	TrackingNumber string        `json:"tracking_number,omitempty"`
	TrackingURL    string        `json:"tracking_url,omitempty"`
	Link           *SupplierLink `json:"link,omitempty"`
}

// SupplierLink ties a local order to its supplier order.
type SupplierLink struct {
	ID              string `json:"id"`
	OrderID         string `json:"order_id"`
	SupplierOrderID string `json:"supplier_order_id"`
	SupplierStatus  string `json:"supplier_status,omitempty"`
	TrackingNumber  string `json:"tracking_number,omitempty"`
}
