package model

import "time"

// Order status values.  The PATCH endpoint accepts any transition among
// these; unknown strings are rejected at the handler.
const (
	OrderPending    = "pending"
	OrderConfirmed  = "confirmed"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
	OrderRefunded   = "refunded"
)

// Payment status values stored in orders.payment_status.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// ValidOrderStatus reports whether s is one of the known order statuses.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipped,
		OrderDelivered, OrderCancelled, OrderRefunded:
		return true
	}
	return false
}

// Order groups the line items of a single checkout.  TotalAmountCents is
// always the sum of the line totals; PlatformFeeCents is carved out of
// that total at creation time.  PaymentRef holds the provider's payment
// intent id once one has been created.
//
// Fields:
//
//	ID               – primary key identifier.
//	BuyerID          – user who placed the order.
//	Status           – order lifecycle status (see constants above).
//	PaymentStatus    – payment lifecycle status.
//	TotalAmountCents – sum of all line totals, in cents.
//	PlatformFeeCents – marketplace fee portion of the total.
//	DeliveryMethod   – "pickup" or "delivery".
//	PaymentRef       – external payment intent id, if any.
//	CreatedAt        – creation timestamp.
//	UpdatedAt        – last update timestamp.
type Order struct {
	ID               uint64    // orders.id
	BuyerID          uint64    // orders.buyer_id
	Status           string    // orders.status
	PaymentStatus    string    // orders.payment_status
	TotalAmountCents int64     // orders.total_amount_cents
	PlatformFeeCents int64     // orders.platform_fee_cents
	DeliveryMethod   string    // orders.delivery_method
	PaymentRef       *string   // orders.payment_ref (nullable)
	CreatedAt        time.Time // orders.created_at
	UpdatedAt        time.Time // orders.updated_at
}

// OrderItem is one cart line of an order.  TotalPriceCents is computed
// as quantity * price_per_unit_cents at creation and never recomputed.
type OrderItem struct {
	ID                uint64    // order_items.id
	OrderID           uint64    // order_items.order_id
	ProduceItemID     uint64    // order_items.produce_item_id
	Quantity          int64     // order_items.quantity
	PricePerUnitCents int64     // order_items.price_per_unit_cents
	TotalPriceCents   int64     // order_items.total_price_cents
	CreatedAt         time.Time // order_items.created_at
}
