package suppliers

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for suppliers.
type Repository interface {
	List(ctx context.Context, search string) ([]Supplier, error)
	Get(ctx context.Context, id int64) (Supplier, error)
	Create(ctx context.Context, supplier Supplier) (int64, error)
	Update(ctx context.Context, supplier Supplier) error
	Delete(ctx context.Context, id int64) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const supplierColumns = `id, name, tax_id, registration_no, address, category, contact, created_at, updated_at`

// List returns suppliers ordered by name, optionally filtered by a
// case-insensitive substring over name and tax ID.
func (r *PGRepository) List(ctx context.Context, search string) ([]Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers`
	args := []any{}
	if search != "" {
		query += ` WHERE name ILIKE $1 OR tax_id ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var suppliers []Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

// Get fetches a supplier by ID.
func (r *PGRepository) Get(ctx context.Context, id int64) (Supplier, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id)
	s, err := scanSupplier(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, ErrNotFound
		}
		return Supplier{}, err
	}
	return s, nil
}

// Create inserts a new supplier and returns its ID.
func (r *PGRepository) Create(ctx context.Context, supplier Supplier) (int64, error) {
	now := time.Now()
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO suppliers (name, tax_id, registration_no, address, category, contact, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING id`,
		supplier.Name, supplier.TaxID, supplier.RegistrationNo, supplier.Address, supplier.Category, supplier.Contact, now).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

// Update rewrites all mutable supplier fields.
func (r *PGRepository) Update(ctx context.Context, supplier Supplier) error {
	tag, err := r.pool.Exec(ctx, `UPDATE suppliers SET name = $1, tax_id = $2, registration_no = $3,
address = $4, category = $5, contact = $6, updated_at = $7 WHERE id = $8`,
		supplier.Name, supplier.TaxID, supplier.RegistrationNo, supplier.Address, supplier.Category, supplier.Contact, time.Now(), supplier.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a supplier. Foreign keys on proposals and purchase orders
// are RESTRICT, so a referenced supplier surfaces as ErrInUse.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSupplier(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.Name, &s.TaxID, &s.RegistrationNo, &s.Address, &s.Category, &s.Contact, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

var _ Repository = (*PGRepository)(nil)
