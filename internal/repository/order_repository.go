package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/harvestly/farm-market/internal/model"
)

// ErrOrderNotFound is returned when an order does not exist.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepo provides persistence for orders and their line items.  Order
// creation always happens inside a caller-supplied transaction so the
// order row, line items and inventory adjustments commit atomically.
type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying handle so services can open transactions.
func (r *OrderRepo) DB() *sql.DB { return r.db }

// CreateTx inserts an order row within tx and populates the generated ID.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (buyer_id, status, payment_status, total_amount_cents, platform_fee_cents, delivery_method)
		 VALUES (?,?,?,?,?,?)`,
		o.BuyerID, o.Status, o.PaymentStatus, o.TotalAmountCents, o.PlatformFeeCents, o.DeliveryMethod)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// CreateItemsBulkTx inserts all line items in a single statement.  The
// caller must have set OrderID on every item.  An empty slice is a no-op.
func (r *OrderRepo) CreateItemsBulkTx(ctx context.Context, tx *sql.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO order_items (order_id, produce_item_id, quantity, price_per_unit_cents, total_price_cents) VALUES `
	args := make([]any, 0, len(items)*5)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, it.OrderID, it.ProduceItemID, it.Quantity, it.PricePerUnitCents, it.TotalPriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// OrderItemDetail is a line item joined with its listing and farm names.
type OrderItemDetail struct {
	ProduceItemID     uint64 `json:"produce_item_id"`
	ProduceName       string `json:"produce_name"`
	FarmID            uint64 `json:"farm_id"`
	FarmName          string `json:"farm_name"`
	Quantity          int64  `json:"quantity"`
	PricePerUnitCents int64  `json:"price_per_unit_cents"`
	TotalPriceCents   int64  `json:"total_price_cents"`
}

// OrderDetail is an order with its line items, shaped for API responses.
type OrderDetail struct {
	ID               uint64            `json:"id"`
	BuyerID          uint64            `json:"buyer_id"`
	Status           string            `json:"status"`
	PaymentStatus    string            `json:"payment_status"`
	TotalAmountCents int64             `json:"total_amount_cents"`
	PlatformFeeCents int64             `json:"platform_fee_cents"`
	DeliveryMethod   string            `json:"delivery_method"`
	PaymentRef       *string           `json:"payment_ref,omitempty"`
	CreatedAt        string            `json:"created_at"`
	Items            []OrderItemDetail `json:"items"`
}

const orderDetailQ = `SELECT o.id, o.buyer_id, o.status, o.payment_status, o.total_amount_cents,
                             o.platform_fee_cents, o.delivery_method, o.payment_ref, o.created_at
                      FROM orders o`

func scanOrderDetail(row interface{ Scan(...any) error }) (OrderDetail, error) {
	var d OrderDetail
	var payRef sql.NullString
	var createdAt sql.NullTime
	err := row.Scan(&d.ID, &d.BuyerID, &d.Status, &d.PaymentStatus, &d.TotalAmountCents,
		&d.PlatformFeeCents, &d.DeliveryMethod, &payRef, &createdAt)
	if err != nil {
		return d, err
	}
	if payRef.Valid {
		ref := payRef.String
		d.PaymentRef = &ref
	}
	if createdAt.Valid {
		d.CreatedAt = createdAt.Time.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	d.Items = []OrderItemDetail{}
	return d, nil
}

// loadItems populates Items for the given order details in one query.
func (r *OrderRepo) loadItems(ctx context.Context, details []OrderDetail) error {
	if len(details) == 0 {
		return nil
	}
	index := make(map[uint64]int, len(details))
	ids := make([]any, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for i, d := range details {
		index[d.ID] = i
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	q := `SELECT oi.order_id, oi.produce_item_id, p.name, f.id, f.name,
	             oi.quantity, oi.price_per_unit_cents, oi.total_price_cents
	      FROM order_items oi
	      JOIN produce_items p ON p.id = oi.produce_item_id
	      JOIN farms f ON f.id = p.farm_id
	      WHERE oi.order_id IN (` + strings.Join(placeholders, ",") + `)
	      ORDER BY oi.order_id, oi.id`
	rows, err := r.db.QueryContext(ctx, q, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var orderID uint64
		var it OrderItemDetail
		if err := rows.Scan(&orderID, &it.ProduceItemID, &it.ProduceName, &it.FarmID, &it.FarmName,
			&it.Quantity, &it.PricePerUnitCents, &it.TotalPriceCents); err != nil {
			return err
		}
		if i, ok := index[orderID]; ok {
			details[i].Items = append(details[i].Items, it)
		}
	}
	return rows.Err()
}

// GetByIDForBuyer returns an order with items, enforcing buyer ownership
// in the query itself so missing and foreign orders both read as not found.
func (r *OrderRepo) GetByIDForBuyer(ctx context.Context, orderID, buyerID uint64) (*OrderDetail, error) {
	row := r.db.QueryRowContext(ctx, orderDetailQ+" WHERE o.id=? AND o.buyer_id=?", orderID, buyerID)
	d, err := scanOrderDetail(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	details := []OrderDetail{d}
	if err := r.loadItems(ctx, details); err != nil {
		return nil, err
	}
	return &details[0], nil
}

// GetByID returns an order with items without an ownership filter.  Used
// by admin refund processing and the payment intent attach flow.
func (r *OrderRepo) GetByID(ctx context.Context, orderID uint64) (*OrderDetail, error) {
	row := r.db.QueryRowContext(ctx, orderDetailQ+" WHERE o.id=?", orderID)
	d, err := scanOrderDetail(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	details := []OrderDetail{d}
	if err := r.loadItems(ctx, details); err != nil {
		return nil, err
	}
	return &details[0], nil
}

// ListByBuyer returns the buyer's orders, newest first, with items.
func (r *OrderRepo) ListByBuyer(ctx context.Context, buyerID uint64) ([]OrderDetail, error) {
	rows, err := r.db.QueryContext(ctx, orderDetailQ+" WHERE o.buyer_id=? ORDER BY o.created_at DESC", buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]OrderDetail, 0)
	for rows.Next() {
		d, err := scanOrderDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, details); err != nil {
		return nil, err
	}
	return details, nil
}

// ListByFarmForOwner returns orders containing at least one line item of
// the given farm.  Ownership of the farm is verified first; foreign
// farms yield ErrForbidden and missing ones ErrFarmNotFound.
func (r *OrderRepo) ListByFarmForOwner(ctx context.Context, farmID, ownerID uint64) ([]OrderDetail, error) {
	var actualOwner uint64
	err := r.db.QueryRowContext(ctx, "SELECT owner_id FROM farms WHERE id=?", farmID).Scan(&actualOwner)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrFarmNotFound
		}
		return nil, err
	}
	if actualOwner != ownerID {
		return nil, ErrForbidden
	}
	rows, err := r.db.QueryContext(ctx, orderDetailQ+`
		WHERE o.id IN (
			SELECT DISTINCT oi.order_id FROM order_items oi
			JOIN produce_items p ON p.id = oi.produce_item_id
			WHERE p.farm_id = ?)
		ORDER BY o.created_at DESC`, farmID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]OrderDetail, 0)
	for rows.Next() {
		d, err := scanOrderDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, details); err != nil {
		return nil, err
	}
	return details, nil
}

// SellsToOrder reports whether ownerID farms at least one line item of
// the order.  Used for seller refund requests and status updates.
func (r *OrderRepo) SellsToOrder(ctx context.Context, orderID, ownerID uint64) (bool, error) {
	var sells bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM order_items oi
			JOIN produce_items p ON p.id = oi.produce_item_id
			JOIN farms f ON f.id = p.farm_id
			WHERE oi.order_id = ? AND f.owner_id = ?)`,
		orderID, ownerID).Scan(&sells)
	return sells, err
}

// UpdateStatusForOwner sets the order status when ownerID farms at least
// one of its line items.  No transition rules are enforced beyond the
// status string being one of the known values (validated by the caller).
func (r *OrderRepo) UpdateStatusForOwner(ctx context.Context, orderID, ownerID uint64, status string) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM orders WHERE id=?)", orderID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrOrderNotFound
	}
	sells, err := r.SellsToOrder(ctx, orderID, ownerID)
	if err != nil {
		return err
	}
	if !sells {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx, "UPDATE orders SET status=? WHERE id=?", status, orderID)
	return err
}

// SetPaymentRef stores the provider intent id on the order.
func (r *OrderRepo) SetPaymentRef(ctx context.Context, orderID uint64, ref string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE orders SET payment_ref=? WHERE id=?", ref, orderID)
	return err
}

// ConfirmPaymentForBuyer marks the buyer's order as paid after the
// client completed the provider's payment flow.  Only pending orders
// that already carry an intent reference qualify; the conditional
// UPDATE makes repeated confirms a no-op conflict rather than a
// double transition.
func (r *OrderRepo) ConfirmPaymentForBuyer(ctx context.Context, orderID, buyerID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET payment_status=?, status=?
		 WHERE id=? AND buyer_id=? AND payment_status=? AND payment_ref IS NOT NULL`,
		model.PaymentPaid, model.OrderConfirmed, orderID, buyerID, model.PaymentPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM orders WHERE id=? AND buyer_id=?)",
			orderID, buyerID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrOrderNotFound
		}
		// Already paid/failed/refunded, or no intent was ever created.
		return ErrConflict
	}
	return nil
}

// SetPaymentStatus updates only the payment status column.
func (r *OrderRepo) SetPaymentStatus(ctx context.Context, orderID uint64, status string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE orders SET payment_status=? WHERE id=?", status, orderID)
	return err
}

// MarkRefundedTx force-sets both lifecycle columns to refunded within tx.
// Called by refund approval as a cross-entity side effect.
func (r *OrderRepo) MarkRefundedTx(ctx context.Context, tx *sql.Tx, orderID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE orders SET status=?, payment_status=? WHERE id=?",
		model.OrderRefunded, model.PaymentRefunded, orderID)
	return err
}

// ItemQuantities returns produce_item_id -> quantity for an order.  Used
// by the compensating inventory release.
func (r *OrderRepo) ItemQuantities(ctx context.Context, orderID uint64) (map[uint64]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT produce_item_id, quantity FROM order_items WHERE order_id=?", orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64]int64)
	for rows.Next() {
		var pid uint64
		var qty int64
		if err := rows.Scan(&pid, &qty); err != nil {
			return nil, err
		}
		out[pid] += qty
	}
	return out, rows.Err()
}
