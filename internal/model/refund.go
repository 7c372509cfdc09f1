package model

import "time"

// Refund request status values.  pending is the only non-terminal state;
// approved and declined are terminal and idempotent.
const (
	RefundPending  = "pending"
	RefundApproved = "approved"
	RefundDeclined = "declined"
)

// Requester types for refund requests.
const (
	RequesterBuyer  = "buyer"
	RequesterSeller = "seller"
)

// RefundRequest is a buyer- or seller-initiated record requiring admin
// approval.  Approving one sets the parent order's status and
// payment_status to refunded in the same transaction.
//
// Fields:
//
//	ID            – primary key identifier.
//	OrderID       – order the refund applies to.
//	RequesterID   – user who filed the request.
//	RequesterType – "buyer" or "seller".
//	AmountCents   – requested amount; never exceeds the order total.
//	Reason        – free-form justification from the requester.
//	Status        – pending, approved or declined.
//	AdminNotes    – optional note recorded by the processing admin.
//	CreatedAt     – creation timestamp.
//	UpdatedAt     – last update timestamp.
type RefundRequest struct {
	ID            uint64    // refund_requests.id
	OrderID       uint64    // refund_requests.order_id
	RequesterID   uint64    // refund_requests.requester_id
	RequesterType string    // refund_requests.requester_type
	AmountCents   int64     // refund_requests.amount_cents
	Reason        string    // refund_requests.reason
	Status        string    // refund_requests.status
	AdminNotes    *string   // refund_requests.admin_notes (nullable)
	CreatedAt     time.Time // refund_requests.created_at
	UpdatedAt     time.Time // refund_requests.updated_at
}
