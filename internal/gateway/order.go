package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"

	"cj-bridge/internal/cj"
	"cj-bridge/internal/model"
)

const (
	// payTypeNoBalance stops CJ from charging the account balance on creation.
	payTypeNoBalance = 3
	// shopLogisticsSeller means the logistic line is chosen by us, not by CJ.
	shopLogisticsSeller = 2

	consigneeIDLength = 13
)

// CreateOrder places an order with CJ. The request is validated before any
// network call.
func (g *Gateway) CreateOrder(ctx context.Context, req model.OrderRequest) model.Result[model.OrderResponse] {
	if err := g.validate.Struct(req); err != nil {
		return model.Fail[model.OrderResponse](validationError(err))
	}

	payload := g.orderPayload(req)

	var data cj.CreatedOrder
	if err := g.api.Post(ctx, cj.PathCreateOrder, payload, &data); err != nil {
		return fail[model.OrderResponse](g, "create_order", err)
	}
	if data.OrderID == "" {
		return fail[model.OrderResponse](g, "create_order", model.NewSupplierError("CJ returned no order id"))
	}

	resp := model.OrderResponse{
		OrderID:        data.OrderID,
		OrderNumber:    data.OrderNumber,
		OrderStatus:    data.OrderStatus,
		TrackingNumber: data.TrackNumber,
		LogisticName:   data.LogisticName,
	}
	if resp.OrderNumber == "" {
		resp.OrderNumber = req.OrderNumber
	}
	if resp.LogisticName == "" {
		resp.LogisticName = req.LogisticName
	}
	g.logger.Info("CJ order created", "order_number", resp.OrderNumber, "cj_order_id", resp.OrderID)
	return model.OK(resp)
}

func (g *Gateway) orderPayload(req model.OrderRequest) cj.CreateOrderRequest {
	addr := req.ShippingAddress
	country := NormalizeCountry(addr.CountryCode, "")
	if country == "" {
		country = NormalizeCountry(addr.Country, g.cfg.DefaultCountry)
	}

	products := make([]cj.OrderProduct, 0, len(req.LineItems))
	for _, it := range req.LineItems {
		products = append(products, cj.OrderProduct{VID: it.VariantID, Quantity: it.Quantity})
	}

	countryName := addr.Country
	if countryName == "" || len(countryName) == 2 {
		countryName = country
	}

	return cj.CreateOrderRequest{
		OrderNumber:          req.OrderNumber,
		ShippingZip:          strings.TrimSpace(addr.Zip),
		ShippingCountry:      countryName,
		ShippingCountryCode:  country,
		ShippingProvince:     addr.Province,
		ShippingCity:         addr.City,
		ShippingCustomerName: addr.Name,
		ShippingAddress:      addr.Address1,
		ShippingAddress2:     addr.Address2,
		ShippingPhone:        FormatPhone(addr.Phone, country),
		Email:                addr.Email,
		Remark:               req.Remark,
		LogisticName:         req.LogisticName,
		FromCountryCode:      g.cfg.StartCountry,
		ConsigneeID:          ConsigneeID(addr.Phone),
		PayType:              payTypeNoBalance,
		ShopLogisticsType:    shopLogisticsSeller,
		Products:             products,
	}
}

// OrderStatus returns the supplier's current view of an order.
func (g *Gateway) OrderStatus(ctx context.Context, orderID string) model.Result[model.OrderResponse] {
	info, err := g.orderInfo(ctx, orderID)
	if err != nil {
		return fail[model.OrderResponse](g, "order_status", err)
	}
	return model.OK(toOrderResponse(info))
}

// OrderDetail returns the full supplier order.
func (g *Gateway) OrderDetail(ctx context.Context, orderID string) model.Result[model.OrderDetail] {
	info, err := g.orderInfo(ctx, orderID)
	if err != nil {
		return fail[model.OrderDetail](g, "order_detail", err)
	}

	detail := model.OrderDetail{
		OrderResponse:   toOrderResponse(info),
		OrderAmount:     model.ParseAmount(info.OrderAmount.String()),
		ProductAmount:   model.ParseAmount(info.ProductAmount.String()),
		PostageAmount:   model.ParseAmount(info.PostageAmount.String()),
		ShippingName:    info.ShippingCustomerName,
		ShippingCountry: info.ShippingCountryCode,
		Products:        make([]model.OrderDetailProduct, 0, len(info.ProductList)),
	}
	if ts, err := time.Parse("2006-01-02 15:04:05", info.CreateDate); err == nil {
		detail.CreatedAt = &ts
	}
	for _, p := range info.ProductList {
		detail.Products = append(detail.Products, model.OrderDetailProduct{
			VariantID: p.VID,
			SKU:       p.SKU,
			Quantity:  p.Quantity.Int(),
			Price:     model.ParseAmount(p.SellPrice.String()),
		})
	}
	return model.OK(detail)
}

func (g *Gateway) orderInfo(ctx context.Context, orderID string) (cj.OrderInfo, error) {
	var info cj.OrderInfo
	if orderID == "" {
		return info, model.NewValidationError("order_id", "required")
	}
	if err := g.api.Get(ctx, cj.PathOrderDetail, url.Values{"orderId": {orderID}}, &info); err != nil {
		return info, err
	}
	if info.OrderID == "" {
		return info, model.NewNotFoundError("CJ order " + orderID)
	}
	return info, nil
}

func toOrderResponse(info cj.OrderInfo) model.OrderResponse {
	return model.OrderResponse{
		OrderID:        info.OrderID,
		OrderNumber:    info.OrderNum,
		OrderStatus:    info.OrderStatus,
		TrackingNumber: info.TrackNumber,
		LogisticName:   info.LogisticName,
	}
}

// Tracking queries the tracking endpoint for one tracking number.
func (g *Gateway) Tracking(ctx context.Context, trackingNumber string) model.Result[[]model.TrackingInfo] {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return model.Fail[[]model.TrackingInfo](model.NewValidationError("tracking_number", "required"))
	}

	var rows []cj.TrackInfo
	if err := g.api.Get(ctx, cj.PathTrackInfo, url.Values{"trackNumber": {trackingNumber}}, &rows); err != nil {
		return fail[[]model.TrackingInfo](g, "tracking", err)
	}

	out := make([]model.TrackingInfo, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.TrackingInfo{
			TrackingNumber:  r.TrackingNumber,
			LogisticName:    r.LogisticName,
			TrackingFrom:    r.TrackingFrom,
			TrackingTo:      r.TrackingTo,
			DeliveryDay:     r.DeliveryDay.String(),
			DeliveryTime:    r.DeliveryTime,
			TrackingStatus:  r.TrackingStatus,
			LastMileCarrier: r.LastMileCarrier,
			LastTrackNumber: r.LastTrackNumber,
		})
	}
	return model.OK(out)
}

// ConfirmOrder acknowledges a supplier order so CJ starts fulfilment.
func (g *Gateway) ConfirmOrder(ctx context.Context, orderID string) model.Result[model.Ack] {
	if orderID == "" {
		return model.Fail[model.Ack](model.NewValidationError("order_id", "required"))
	}
	if err := g.api.Patch(ctx, cj.PathConfirmOrder, cj.ConfirmOrderRequest{OrderID: orderID}, nil); err != nil {
		return fail[model.Ack](g, "confirm_order", err)
	}
	return model.OK(model.Ack{})
}

// === Address Rules ===

// ConsigneeID derives CJ's 13-digit consignee id from a phone number:
// exactly 13 digits are used as is, longer is cut to the first 13,
// shorter is left-padded with zeros.
func ConsigneeID(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) >= consigneeIDLength {
		return digits[:consigneeIDLength]
	}
	return strings.Repeat("0", consigneeIDLength-len(digits)) + digits
}

// NormalizeCountry returns code upper-cased when it is two ASCII letters,
// else fallback.
func NormalizeCountry(code, fallback string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return fallback
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return fallback
		}
	}
	return code
}

// FormatPhone formats phone as E.164 for region when it parses as a valid
// number there; otherwise phone is returned unchanged.
func FormatPhone(phone, region string) string {
	num, err := libphonenumber.Parse(phone, region)
	if err != nil || !libphonenumber.IsValidNumber(num) {
		return phone
	}
	return libphonenumber.Format(num, libphonenumber.E164)
}

// validationError converts validator output to a model validation error
// naming the first offending field.
func validationError(err error) *model.APIError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := fe.Tag()
		if fe.Param() != "" {
			reason = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
		}
		return model.NewValidationError(fe.Namespace(), reason)
	}
	return model.NewValidationError("request", err.Error())
}
