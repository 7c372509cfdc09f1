package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/harvestly/farm-market/internal/model"
)

// ErrProduceNotFound is returned when a produce item does not exist.
var ErrProduceNotFound = errors.New("produce item not found")

// ProduceRepo provides CRUD and browse queries for produce listings.
// Ownership checks always go through the owning farm.
type ProduceRepo struct {
	db *sql.DB
}

func NewProduceRepo(db *sql.DB) *ProduceRepo { return &ProduceRepo{db: db} }

const produceCols = "id, farm_id, name, category, price_cents, is_organic, is_seasonal, is_heirloom, is_active, created_at, updated_at"

func scanProduce(row interface{ Scan(...any) error }) (model.ProduceItem, error) {
	var p model.ProduceItem
	err := row.Scan(&p.ID, &p.FarmID, &p.Name, &p.Category, &p.PriceCents,
		&p.IsOrganic, &p.IsSeasonal, &p.IsHeirloom, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Create inserts a listing and its empty inventory row in one transaction
// so that every produce item always has exactly one inventory record.
func (r *ProduceRepo) Create(ctx context.Context, p *model.ProduceItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO produce_items (farm_id, name, category, price_cents, is_organic, is_seasonal, is_heirloom)
		 VALUES (?,?,?,?,?,?,?)`,
		p.FarmID, p.Name, p.Category, p.PriceCents, p.IsOrganic, p.IsSeasonal, p.IsHeirloom)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO inventory (produce_item_id, quantity_available, quantity_reserved) VALUES (?,0,0)`,
		p.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID returns a listing by id.
func (r *ProduceRepo) GetByID(ctx context.Context, id uint64) (model.ProduceItem, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+produceCols+" FROM produce_items WHERE id=?", id)
	p, err := scanProduce(row)
	if err == sql.ErrNoRows {
		return p, ErrProduceNotFound
	}
	return p, err
}

// OwnerOf returns the user ID of the farmer who owns the listing's farm.
func (r *ProduceRepo) OwnerOf(ctx context.Context, produceID uint64) (uint64, error) {
	var ownerID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT f.owner_id FROM produce_items p JOIN farms f ON f.id = p.farm_id WHERE p.id = ?`,
		produceID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return 0, ErrProduceNotFound
	}
	return ownerID, err
}

// ListActiveByFarm returns all active listings of a farm.
func (r *ProduceRepo) ListActiveByFarm(ctx context.Context, farmID uint64) ([]model.ProduceItem, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+produceCols+" FROM produce_items WHERE farm_id=? AND is_active=1 ORDER BY name", farmID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProduce(rows)
}

// SearchFilter narrows down the public produce search.  Zero values mean
// "no constraint"; boolean filters use pointers so false is expressible.
type SearchFilter struct {
	Query    string
	Category string
	Organic  *bool
	Seasonal *bool
}

// Search returns active listings of active farms matching the filter,
// newest first, capped at 100 rows.
func (r *ProduceRepo) Search(ctx context.Context, f SearchFilter) ([]model.ProduceItem, error) {
	q := `SELECT p.id, p.farm_id, p.name, p.category, p.price_cents, p.is_organic,
	             p.is_seasonal, p.is_heirloom, p.is_active, p.created_at, p.updated_at
	      FROM produce_items p
	      JOIN farms fa ON fa.id = p.farm_id
	      WHERE p.is_active=1 AND fa.is_active=1`
	args := make([]any, 0, 4)
	if s := strings.TrimSpace(f.Query); s != "" {
		q += " AND p.name LIKE ?"
		args = append(args, "%"+s+"%")
	}
	if s := strings.TrimSpace(f.Category); s != "" {
		q += " AND p.category = ?"
		args = append(args, s)
	}
	if f.Organic != nil {
		q += " AND p.is_organic = ?"
		args = append(args, *f.Organic)
	}
	if f.Seasonal != nil {
		q += " AND p.is_seasonal = ?"
		args = append(args, *f.Seasonal)
	}
	q += " ORDER BY p.created_at DESC LIMIT 100"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProduce(rows)
}

func collectProduce(rows *sql.Rows) ([]model.ProduceItem, error) {
	items := make([]model.ProduceItem, 0)
	for rows.Next() {
		p, err := scanProduce(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// Update overwrites the mutable columns of a listing.
func (r *ProduceRepo) Update(ctx context.Context, p *model.ProduceItem) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE produce_items SET name=?, category=?, price_cents=?, is_organic=?, is_seasonal=?, is_heirloom=?, is_active=?
		 WHERE id=?`,
		p.Name, p.Category, p.PriceCents, p.IsOrganic, p.IsSeasonal, p.IsHeirloom, p.IsActive, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Row may exist unchanged; treat as success only when present.
		if _, err := r.GetByID(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a listing that has never been ordered; otherwise it is
// deactivated instead so historical order lines keep their reference.
func (r *ProduceRepo) Delete(ctx context.Context, id uint64) error {
	var ordered bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM order_items WHERE produce_item_id=?)", id).Scan(&ordered)
	if err != nil {
		return err
	}
	if ordered {
		_, err = r.db.ExecContext(ctx, "UPDATE produce_items SET is_active=0 WHERE id=?", id)
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, "DELETE FROM inventory WHERE produce_item_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM produce_items WHERE id=?", id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
