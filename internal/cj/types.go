package cj

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// =============================================================================
// CJ WIRE TYPES
// =============================================================================
//
// Every CJ response is wrapped in the same envelope. Older endpoints report
// the outcome in "result", newer ones in "success"; some only set "code".
// The envelope is decoded once and reduced to a single boolean.
//
// CJ is loose with scalar types: prices and weights arrive as strings on one
// endpoint and numbers on another. Text absorbs both.
// =============================================================================

// envelope is the outer shape of every CJ response.
type envelope struct {
	Code      int             `json:"code"`
	Result    *bool           `json:"result"`
	Success   *bool           `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"requestId"`
}

// ok reduces result/success/code to the single outcome.
func (e *envelope) ok() bool {
	switch {
	case e.Result != nil:
		return *e.Result
	case e.Success != nil:
		return *e.Success
	default:
		return e.Code == 200
	}
}

// Text is a JSON scalar that may be sent as a string, a number or null.
type Text string

// UnmarshalJSON accepts "1.5", 1.5 and null.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// Booleans and objects are not expected; keep the raw text.
		*t = Text(data)
		return nil
	}
	*t = Text(n.String())
	return nil
}

func (t Text) String() string { return string(t) }

// Int parses t as an integer, returning 0 when it is not one.
func (t Text) Int() int {
	n, err := strconv.Atoi(string(t))
	if err != nil {
		f, ferr := strconv.ParseFloat(string(t), 64)
		if ferr != nil {
			return 0
		}
		return int(f)
	}
	return n
}

// === Authentication ===

// LoginRequest is the body of getAccessToken.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body of refreshAccessToken.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenData is the data payload of both authentication endpoints.
type TokenData struct {
	AccessToken            string `json:"accessToken"`
	AccessTokenExpiryDate  string `json:"accessTokenExpiryDate"`
	RefreshToken           string `json:"refreshToken"`
	RefreshTokenExpiryDate string `json:"refreshTokenExpiryDate"`
	CreateDate             string `json:"createDate"`
}

// === Catalog ===

// ProductListPage is the data payload of product/list.
type ProductListPage struct {
	PageNum  Text          `json:"pageNum"`
	PageSize Text          `json:"pageSize"`
	Total    Text          `json:"total"`
	List     []ListProduct `json:"list"`
}

// ListProduct is one row of product/list.
type ListProduct struct {
	PID           string          `json:"pid"`
	ProductName   json.RawMessage `json:"productName"`
	ProductNameEn string          `json:"productNameEn"`
	ProductSku    string          `json:"productSku"`
	ProductImage  json.RawMessage `json:"productImage"`
	ProductWeight Text            `json:"productWeight"`
	CategoryID    string          `json:"categoryId"`
	CategoryName  string          `json:"categoryName"`
	SellPrice     Text            `json:"sellPrice"`
	CreateTime    Text            `json:"createTime"`
}

// MyProductPage is the data payload of product/myProduct/query.
type MyProductPage struct {
	PageNumber   Text        `json:"pageNumber"`
	PageSize     Text        `json:"pageSize"`
	TotalRecords Text        `json:"totalRecords"`
	TotalPages   Text        `json:"totalPages"`
	Content      []MyProduct `json:"content"`
}

// MyProduct is one row of the operator's saved product list.
type MyProduct struct {
	ProductID string `json:"productId"`
	NameEn    string `json:"nameEn"`
	BigImage  string `json:"bigImage"`
	SellPrice Text   `json:"sellPrice"`
	VID       string `json:"vid"`
	SKU       string `json:"sku"`
	Weight    Text   `json:"weight"`
}

// ProductDetail is the data payload of product/query.
type ProductDetail struct {
	PID           string           `json:"pid"`
	ProductNameEn string           `json:"productNameEn"`
	ProductSku    string           `json:"productSku"`
	ProductImage  json.RawMessage  `json:"productImage"`
	ProductWeight Text             `json:"productWeight"`
	CategoryID    string           `json:"categoryId"`
	CategoryName  string           `json:"categoryName"`
	SellPrice     Text             `json:"sellPrice"`
	Description   string           `json:"description"`
	CreateTime    Text             `json:"createrTime"`
	Variants      []ProductVariant `json:"variants"`
}

// ProductVariant is one variant of a product.
type ProductVariant struct {
	VID              string `json:"vid"`
	PID              string `json:"pid"`
	VariantNameEn    string `json:"variantNameEn"`
	VariantSku       string `json:"variantSku"`
	VariantImage     string `json:"variantImage"`
	VariantKey       string `json:"variantKey"`
	VariantSellPrice Text   `json:"variantSellPrice"`
	VariantWeight    Text   `json:"variantWeight"`
}

// CategoryFirst is the top level of the category tree.
type CategoryFirst struct {
	CategoryFirstID   string           `json:"categoryFirstId"`
	CategoryFirstName string           `json:"categoryFirstName"`
	CategoryFirstList []CategorySecond `json:"categoryFirstList"`
}

// CategorySecond is the middle level of the category tree.
type CategorySecond struct {
	CategorySecondID   string          `json:"categorySecondId"`
	CategorySecondName string          `json:"categorySecondName"`
	CategorySecondList []CategoryThird `json:"categorySecondList"`
}

// CategoryThird is a leaf category; only leaves can hold products.
type CategoryThird struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
}

// === Freight ===

// FreightProduct is one line of a freight quote request.
type FreightProduct struct {
	VID      string `json:"vid"`
	Quantity int    `json:"quantity"`
}

// FreightRequest quotes by products. Weight, in grams, is set only on the
// weight-based fallback, in which case Products is empty.
type FreightRequest struct {
	StartCountryCode string           `json:"startCountryCode"`
	EndCountryCode   string           `json:"endCountryCode"`
	Zip              string           `json:"zip,omitempty"`
	Products         []FreightProduct `json:"products,omitempty"`
	Weight           *float64         `json:"weight,omitempty"`
}

// FreightOption is one row of freightCalculate.
type FreightOption struct {
	LogisticAging   string `json:"logisticAging"`
	LogisticPrice   Text   `json:"logisticPrice"`
	LogisticPriceCn Text   `json:"logisticPriceCn"`
	LogisticName    string `json:"logisticName"`
	TotalPostageFee Text   `json:"totalPostageFee"`
	RemoteFee       Text   `json:"remoteFee"`
}

// === Orders ===

// OrderProduct is one line of createOrderV2.
type OrderProduct struct {
	VID      string `json:"vid"`
	Quantity int    `json:"quantity"`
}

// CreateOrderRequest is the body of createOrderV2.
type CreateOrderRequest struct {
	OrderNumber          string         `json:"orderNumber"`
	ShippingZip          string         `json:"shippingZip,omitempty"`
	ShippingCountry      string         `json:"shippingCountry"`
	ShippingCountryCode  string         `json:"shippingCountryCode"`
	ShippingProvince     string         `json:"shippingProvince"`
	ShippingCity         string         `json:"shippingCity"`
	ShippingCustomerName string         `json:"shippingCustomerName"`
	ShippingAddress      string         `json:"shippingAddress"`
	ShippingAddress2     string         `json:"shippingAddress2,omitempty"`
	ShippingPhone        string         `json:"shippingPhone"`
	Email                string         `json:"email,omitempty"`
	Remark               string         `json:"remark,omitempty"`
	LogisticName         string         `json:"logisticName,omitempty"`
	FromCountryCode      string         `json:"fromCountryCode"`
	ConsigneeID          string         `json:"consigneeID"`
	PayType              int            `json:"payType"`
	ShopLogisticsType    int            `json:"shopLogisticsType"`
	Products             []OrderProduct `json:"products"`
}

// CreatedOrder is the data payload of createOrderV2.
type CreatedOrder struct {
	OrderID      string `json:"orderId"`
	OrderNumber  string `json:"orderNumber"`
	OrderStatus  string `json:"orderStatus"`
	TrackNumber  string `json:"trackNumber"`
	LogisticName string `json:"logisticName"`
}

// OrderInfo is the data payload of getOrderDetail.
type OrderInfo struct {
	OrderID              string             `json:"orderId"`
	OrderNum             string             `json:"orderNum"`
	OrderStatus          string             `json:"orderStatus"`
	TrackNumber          string             `json:"trackNumber"`
	LogisticName         string             `json:"logisticName"`
	ShippingCustomerName string             `json:"shippingCustomerName"`
	ShippingCountryCode  string             `json:"shippingCountryCode"`
	OrderAmount          Text               `json:"orderAmount"`
	ProductAmount        Text               `json:"productAmount"`
	PostageAmount        Text               `json:"postageAmount"`
	CreateDate           string             `json:"createDate"`
	ProductList          []OrderInfoProduct `json:"productList"`
}

// OrderInfoProduct is one line of an order detail.
type OrderInfoProduct struct {
	VID       string `json:"vid"`
	SKU       string `json:"sku"`
	Quantity  Text   `json:"quantity"`
	SellPrice Text   `json:"sellPrice"`
}

// ConfirmOrderRequest is the body of confirmOrder.
type ConfirmOrderRequest struct {
	OrderID string `json:"orderId"`
}

// === Tracking ===

// TrackInfo is one row of logistic/trackInfo.
type TrackInfo struct {
	TrackingNumber  string `json:"trackingNumber"`
	LogisticName    string `json:"logisticName"`
	TrackingFrom    string `json:"trackingFrom"`
	TrackingTo      string `json:"trackingTo"`
	DeliveryDay     Text   `json:"deliveryDay"`
	DeliveryTime    string `json:"deliveryTime"`
	TrackingStatus  string `json:"trackingStatus"`
	LastMileCarrier string `json:"lastMileCarrier"`
	LastTrackNumber string `json:"lastTrackNumber"`
}
