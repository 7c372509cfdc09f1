package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/harvestly/farm-market/internal/model"
)

// ErrFarmNotFound is returned when a farm does not exist or is not
// visible to the caller.
var ErrFarmNotFound = errors.New("farm not found")

// FarmRepo provides CRUD operations for farms.  Mutations are always
// scoped to the owning farmer; public listing only exposes active farms.
type FarmRepo struct {
	db *sql.DB
}

func NewFarmRepo(db *sql.DB) *FarmRepo { return &FarmRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *FarmRepo) DB() *sql.DB { return r.db }

const farmCols = "id, owner_id, name, address_line, city, region, is_organic, is_active, created_at, updated_at"

func scanFarm(row interface{ Scan(...any) error }) (model.Farm, error) {
	var f model.Farm
	var addr, city, region sql.NullString
	err := row.Scan(&f.ID, &f.OwnerID, &f.Name, &addr, &city, &region,
		&f.IsOrganic, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return f, err
	}
	if addr.Valid {
		f.AddressLine = &addr.String
	}
	if city.Valid {
		f.City = &city.String
	}
	if region.Valid {
		f.Region = &region.String
	}
	return f, nil
}

// Create inserts a farm and populates the generated ID.
func (r *FarmRepo) Create(ctx context.Context, f *model.Farm) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO farms (owner_id, name, address_line, city, region, is_organic) VALUES (?,?,?,?,?,?)`,
		f.OwnerID, f.Name, f.AddressLine, f.City, f.Region, f.IsOrganic)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return nil
}

// GetByID returns a farm regardless of ownership or active flag.
func (r *FarmRepo) GetByID(ctx context.Context, id uint64) (model.Farm, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+farmCols+" FROM farms WHERE id=?", id)
	f, err := scanFarm(row)
	if err == sql.ErrNoRows {
		return f, ErrFarmNotFound
	}
	return f, err
}

// GetByIDAndOwner returns a farm only when owned by ownerID.  It
// distinguishes missing farms (ErrFarmNotFound) from foreign ones
// (ErrForbidden) so handlers can answer 404 vs 403.
func (r *FarmRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (model.Farm, error) {
	f, err := r.GetByID(ctx, id)
	if err != nil {
		return f, err
	}
	if f.OwnerID != ownerID {
		return model.Farm{}, ErrForbidden
	}
	return f, nil
}

// ListActive returns all farms visible to buyers.
func (r *FarmRepo) ListActive(ctx context.Context) ([]model.Farm, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+farmCols+" FROM farms WHERE is_active=1 ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFarms(rows)
}

// ListByOwner returns every farm a farmer owns, active or not.
func (r *FarmRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Farm, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+farmCols+" FROM farms WHERE owner_id=? ORDER BY name", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFarms(rows)
}

func collectFarms(rows *sql.Rows) ([]model.Farm, error) {
	farms := make([]model.Farm, 0)
	for rows.Next() {
		f, err := scanFarm(rows)
		if err != nil {
			return nil, err
		}
		farms = append(farms, f)
	}
	return farms, rows.Err()
}

// Update overwrites the mutable columns of a farm owned by ownerID.
func (r *FarmRepo) Update(ctx context.Context, f *model.Farm, ownerID uint64) error {
	if _, err := r.GetByIDAndOwner(ctx, f.ID, ownerID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE farms SET name=?, address_line=?, city=?, region=?, is_organic=?, is_active=? WHERE id=? AND owner_id=?`,
		f.Name, f.AddressLine, f.City, f.Region, f.IsOrganic, f.IsActive, f.ID, ownerID)
	return err
}

// Delete removes a farm owned by ownerID.  Farms with produce that has
// ever been ordered cannot be removed; callers get ErrConflict.
func (r *FarmRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	if _, err := r.GetByIDAndOwner(ctx, id, ownerID); err != nil {
		return err
	}
	var ordered bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM order_items oi
			JOIN produce_items p ON p.id = oi.produce_item_id
			WHERE p.farm_id = ?)`, id).Scan(&ordered)
	if err != nil {
		return err
	}
	if ordered {
		return ErrConflict
	}
	_, err = r.db.ExecContext(ctx, "DELETE FROM farms WHERE id=? AND owner_id=?", id, ownerID)
	return err
}
