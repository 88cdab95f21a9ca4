package model

// OrderStatus is the local order lifecycle owned by the dashboard.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

// orderRank orders the non-terminal statuses for forward-transition checks.
var orderRank = map[OrderStatus]int{
	OrderPending:    0,
	OrderProcessing: 1,
	OrderShipped:    2,
	OrderDelivered:  3,
}

// IsValid checks if the order status is one of the known values.
func (s OrderStatus) IsValid() bool {
	_, ranked := orderRank[s]
	return ranked || s.IsTerminal()
}

// IsTerminal reports whether s absorbs all automatic transitions.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderCancelled || s == OrderRefunded
}

// Rank returns the ordinal of s and false for terminal or unknown statuses.
func (s OrderStatus) Rank() (int, bool) {
	r, ok := orderRank[s]
	return r, ok
}
