package domain

import "time"

// OrderStatus is the order lifecycle state. PENDING orders may move to
// PAID or FAILED exactly once; both are terminal.
type OrderStatus string

const (
	OrderPending OrderStatus = "PENDING"
	OrderPaid    OrderStatus = "PAID"
	OrderFailed  OrderStatus = "FAILED"
)

type Order struct {
	ID            string      `json:"id"`
	UserID        string      `json:"userId"`
	Status        OrderStatus `json:"status"`
	TotalPaise    int64       `json:"totalPaise"`
	Currency      string      `json:"currency"`
	PaymentRef    *string     `json:"paymentRef,omitempty"`
	RemoteOrderID *string     `json:"remoteOrderId,omitempty"`
	StockRestored bool        `json:"-"`
	CreatedAt     time.Time   `json:"createdAt"`
	Items         []OrderItem `json:"items,omitempty"`
}

// OrderItem carries the unit price as written at order creation; it is
// never updated when the product price changes.
type OrderItem struct {
	ID             string `json:"id"`
	OrderID        string `json:"orderId"`
	ProductID      string `json:"productId"`
	Quantity       int    `json:"quantity"`
	UnitPricePaise int64  `json:"unitPricePaise"`
}

// Subtotal is quantity times the snapshot unit price.
func (i OrderItem) Subtotal() int64 {
	return i.UnitPricePaise * int64(i.Quantity)
}
