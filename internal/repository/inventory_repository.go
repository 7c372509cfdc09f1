package repository

import (
	"context"
	"database/sql"

	"github.com/harvestly/farm-market/internal/model"
)

// InventoryRepo manages stock levels for produce items.  Reservation is
// a single conditional UPDATE checked via RowsAffected, so concurrent
// checkouts can never drive quantity_available negative.
type InventoryRepo struct {
	db *sql.DB
}

func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// GetByProduceItem returns the inventory row for a produce item.
func (r *InventoryRepo) GetByProduceItem(ctx context.Context, produceID uint64) (model.Inventory, error) {
	var inv model.Inventory
	err := r.db.QueryRowContext(ctx,
		`SELECT id, produce_item_id, quantity_available, quantity_reserved, updated_at
		 FROM inventory WHERE produce_item_id=?`, produceID).
		Scan(&inv.ID, &inv.ProduceItemID, &inv.QuantityAvailable, &inv.QuantityReserved, &inv.UpdatedAt)
	if err == sql.ErrNoRows {
		return inv, ErrProduceNotFound
	}
	return inv, err
}

// ReserveTx moves qty units from available to reserved within tx.  When
// fewer than qty units are available the WHERE clause matches no row,
// nothing is written and ErrInsufficientStock is returned.
func (r *InventoryRepo) ReserveTx(ctx context.Context, tx *sql.Tx, produceID uint64, qty int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE inventory
		 SET quantity_available = quantity_available - ?,
		     quantity_reserved  = quantity_reserved + ?
		 WHERE produce_item_id = ? AND quantity_available >= ?`,
		qty, qty, produceID, qty)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// Release returns qty units from reserved back to available.  Used as
// the compensating step when payment intent creation fails after a
// successful reservation, and when an order is cancelled.
func (r *InventoryRepo) Release(ctx context.Context, produceID uint64, qty int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE inventory
		 SET quantity_reserved  = GREATEST(quantity_reserved - ?, 0),
		     quantity_available = quantity_available + ?
		 WHERE produce_item_id = ?`,
		qty, qty, produceID)
	return err
}

// Overwrite sets absolute stock levels (farmer-driven restock).  The
// reserved count is preserved unless a non-nil value is given.
func (r *InventoryRepo) Overwrite(ctx context.Context, produceID uint64, available int64, reserved *int64) error {
	var res sql.Result
	var err error
	if reserved != nil {
		res, err = r.db.ExecContext(ctx,
			"UPDATE inventory SET quantity_available=?, quantity_reserved=? WHERE produce_item_id=?",
			available, *reserved, produceID)
	} else {
		res, err = r.db.ExecContext(ctx,
			"UPDATE inventory SET quantity_available=? WHERE produce_item_id=?",
			available, produceID)
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByProduceItem(ctx, produceID); err != nil {
			return err
		}
	}
	return nil
}
