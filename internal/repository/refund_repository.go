package repository

import (
	"context"
	"database/sql"

	"github.com/harvestly/farm-market/internal/model"
)

// RefundRepo persists refund requests and drives their single state
// transition: pending -> approved | declined.  The transition predicate
// lives in the UPDATE's WHERE clause, so a second process attempt
// matches no row and the terminal state stays idempotent.
type RefundRepo struct {
	db *sql.DB
}

func NewRefundRepo(db *sql.DB) *RefundRepo { return &RefundRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *RefundRepo) DB() *sql.DB { return r.db }

const refundCols = "id, order_id, requester_id, requester_type, amount_cents, reason, status, admin_notes, created_at, updated_at"

func scanRefund(row interface{ Scan(...any) error }) (model.RefundRequest, error) {
	var rr model.RefundRequest
	var notes sql.NullString
	err := row.Scan(&rr.ID, &rr.OrderID, &rr.RequesterID, &rr.RequesterType,
		&rr.AmountCents, &rr.Reason, &rr.Status, &notes, &rr.CreatedAt, &rr.UpdatedAt)
	if err != nil {
		return rr, err
	}
	if notes.Valid {
		rr.AdminNotes = &notes.String
	}
	return rr, nil
}

// Create inserts a pending refund request.  ErrConflict is returned
// when the order already has a pending request from anyone.
func (r *RefundRepo) Create(ctx context.Context, rr *model.RefundRequest) error {
	var pending bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM refund_requests WHERE order_id=? AND status=?)",
		rr.OrderID, model.RefundPending).Scan(&pending)
	if err != nil {
		return err
	}
	if pending {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO refund_requests (order_id, requester_id, requester_type, amount_cents, reason, status)
		 VALUES (?,?,?,?,?,?)`,
		rr.OrderID, rr.RequesterID, rr.RequesterType, rr.AmountCents, rr.Reason, model.RefundPending)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rr.ID = uint64(id)
	rr.Status = model.RefundPending
	return nil
}

// GetByID returns a refund request by id.
func (r *RefundRepo) GetByID(ctx context.Context, id uint64) (model.RefundRequest, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+refundCols+" FROM refund_requests WHERE id=?", id)
	return scanRefund(row)
}

// ListByRequester returns all requests filed by a user, newest first.
func (r *RefundRepo) ListByRequester(ctx context.Context, userID uint64) ([]model.RefundRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+refundCols+" FROM refund_requests WHERE requester_id=? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRefunds(rows)
}

// ListPending returns the admin processing queue, oldest first.
func (r *RefundRepo) ListPending(ctx context.Context) ([]model.RefundRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+refundCols+" FROM refund_requests WHERE status=? ORDER BY created_at", model.RefundPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRefunds(rows)
}

func collectRefunds(rows *sql.Rows) ([]model.RefundRequest, error) {
	out := make([]model.RefundRequest, 0)
	for rows.Next() {
		rr, err := scanRefund(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}

// ProcessTx transitions a pending request to the given terminal status
// within tx.  It returns ErrAlreadyProcessed when the request is missing
// or no longer pending, which callers surface as a 409.
func (r *RefundRepo) ProcessTx(ctx context.Context, tx *sql.Tx, id uint64, status string, adminNotes *string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE refund_requests SET status=?, admin_notes=? WHERE id=? AND status=?",
		status, adminNotes, id, model.RefundPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}
