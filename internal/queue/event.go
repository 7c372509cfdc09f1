// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderConfirmedEvent is published after checkout succeeds and a payment
// intent exists.  It carries enough information for downstream consumers
// to notify and log without querying the primary database.
type OrderConfirmedEvent struct {
	OrderID          uint64 `json:"order_id"`
	BuyerID          uint64 `json:"buyer_id"`
	BuyerEmail       string `json:"buyer_email"`
	TotalAmountCents int64  `json:"total_amount_cents"`
	PlatformFeeCents int64  `json:"platform_fee_cents"`
	DeliveryMethod   string `json:"delivery_method"`
	ItemCount        int    `json:"item_count"`
	PaymentRef       string `json:"payment_ref"`
	ConfirmedAt      string `json:"confirmed_at"`
}

// RefundProcessedEvent is published when an admin approves or declines a
// refund request.
type RefundProcessedEvent struct {
	RefundRequestID uint64 `json:"refund_request_id"`
	OrderID         uint64 `json:"order_id"`
	RequesterEmail  string `json:"requester_email"`
	AmountCents     int64  `json:"amount_cents"`
	Action          string `json:"action"` // approved | declined
	ProcessedAt     string `json:"processed_at"`
}
