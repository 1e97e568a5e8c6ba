package purchasing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/frotadesk/frotadesk/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the write operations that participate in workflow
// transactions.
type TxRepository interface {
	CreateQuotation(ctx context.Context, q Quotation) (int64, error)
	InsertQuotationItem(ctx context.Context, item QuotationItem) error
	UpdateQuotationStatus(ctx context.Context, id int64, status QuotationStatus) error
	ApproveQuotation(ctx context.Context, id int64, at time.Time) error
	InsertProposal(ctx context.Context, p Proposal) (int64, error)
	UnapproveProposals(ctx context.Context, quotationID int64) error
	ApproveProposal(ctx context.Context, id int64) error
	CreateOrder(ctx context.Context, o PurchaseOrder) (int64, error)
	InsertOrderItem(ctx context.Context, item OrderItem) error
	FinalizeOrder(ctx context.Context, id int64, invoiceKey, pdfPath string, at time.Time) (bool, error)
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps fn in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const quotationColumns = `id, requester_id, title, deadline, notes, status, approved_at, created_at`

// GetQuotation fetches a quotation header.
func (r *Repository) GetQuotation(ctx context.Context, id int64) (Quotation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = $1`, id)
	q, err := scanQuotation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quotation{}, ErrNotFound
		}
		return Quotation{}, err
	}
	return q, nil
}

// ListQuotations returns quotations newest first, narrowed by filters.
// Search matches the title or the numeric identifier as substring.
func (r *Repository) ListQuotations(ctx context.Context, filters ListFilters) ([]Quotation, error) {
	query := `SELECT ` + quotationColumns + ` FROM quotations WHERE 1=1`
	args := []any{}
	argNum := 0

	if !filters.From.IsZero() {
		argNum++
		query += ` AND created_at >= $` + strconv.Itoa(argNum)
		args = append(args, filters.From)
	}
	if !filters.To.IsZero() {
		argNum++
		query += ` AND created_at <= $` + strconv.Itoa(argNum)
		args = append(args, filters.To)
	}
	if filters.Status != "" {
		argNum++
		query += ` AND status = $` + strconv.Itoa(argNum)
		args = append(args, filters.Status)
	}
	if filters.Search != "" {
		argNum++
		query += ` AND (title ILIKE $` + strconv.Itoa(argNum) + ` OR id::text LIKE $` + strconv.Itoa(argNum) + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var quotations []Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, err
		}
		quotations = append(quotations, q)
	}
	return quotations, rows.Err()
}

// QuotationItems returns the ordered item collection.
func (r *Repository) QuotationItems(ctx context.Context, quotationID int64) ([]QuotationItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, quotation_id, description, qty
FROM quotation_items WHERE quotation_id = $1 ORDER BY id`, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []QuotationItem
	for rows.Next() {
		var item QuotationItem
		if err := rows.Scan(&item.ID, &item.QuotationID, &item.Description, &item.Qty); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetProposal fetches a proposal by ID.
func (r *Repository) GetProposal(ctx context.Context, id int64) (Proposal, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, quotation_id, supplier_id, value, payment_terms, billing_terms, approved, created_at
FROM proposals WHERE id = $1`, id)
	var p Proposal
	err := row.Scan(&p.ID, &p.QuotationID, &p.SupplierID, &p.Value, &p.PaymentTerms, &p.BillingTerms, &p.Approved, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Proposal{}, ErrNotFound
		}
		return Proposal{}, err
	}
	return p, nil
}

// ListProposals returns proposals for a quotation joined with the supplier
// name, lowest value first.
func (r *Repository) ListProposals(ctx context.Context, quotationID int64) ([]Proposal, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.quotation_id, p.supplier_id, s.name, p.value,
p.payment_terms, p.billing_terms, p.approved, p.created_at
FROM proposals p JOIN suppliers s ON s.id = p.supplier_id
WHERE p.quotation_id = $1 ORDER BY p.value ASC`, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var proposals []Proposal
	for rows.Next() {
		var p Proposal
		if err := rows.Scan(&p.ID, &p.QuotationID, &p.SupplierID, &p.SupplierName, &p.Value,
			&p.PaymentTerms, &p.BillingTerms, &p.Approved, &p.CreatedAt); err != nil {
			return nil, err
		}
		proposals = append(proposals, p)
	}
	return proposals, rows.Err()
}

const orderColumns = `o.id, o.quotation_id, o.proposal_id, o.supplier_id, s.name, o.approved_by,
o.approved_at, o.value, o.status, COALESCE(o.invoice_key, ''), COALESCE(o.invoice_pdf_path, ''),
o.finalized_at, o.created_at`

// GetOrder fetches a purchase order with its supplier name.
func (r *Repository) GetOrder(ctx context.Context, id int64) (PurchaseOrder, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+`
FROM purchase_orders o JOIN suppliers s ON s.id = o.supplier_id WHERE o.id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, ErrNotFound
		}
		return PurchaseOrder{}, err
	}
	return o, nil
}

// ListOrders returns purchase orders newest first, narrowed by filters.
func (r *Repository) ListOrders(ctx context.Context, filters ListFilters) ([]PurchaseOrder, error) {
	query := `SELECT ` + orderColumns + `
FROM purchase_orders o JOIN suppliers s ON s.id = o.supplier_id WHERE 1=1`
	args := []any{}
	argNum := 0

	if !filters.From.IsZero() {
		argNum++
		query += ` AND o.created_at >= $` + strconv.Itoa(argNum)
		args = append(args, filters.From)
	}
	if !filters.To.IsZero() {
		argNum++
		query += ` AND o.created_at <= $` + strconv.Itoa(argNum)
		args = append(args, filters.To)
	}
	if filters.Status != "" {
		argNum++
		query += ` AND o.status = $` + strconv.Itoa(argNum)
		args = append(args, filters.Status)
	}
	if filters.Search != "" {
		argNum++
		query += ` AND (s.name ILIKE $` + strconv.Itoa(argNum) + ` OR o.id::text LIKE $` + strconv.Itoa(argNum) + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	query += ` ORDER BY o.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []PurchaseOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// OrderItems returns the cloned item collection of an order.
func (r *Repository) OrderItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, description, qty
FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.Description, &item.Qty); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SupplierSpend aggregates approved order value per supplier.
type SupplierSpend struct {
	SupplierID int64   `json:"supplier_id"`
	Name       string  `json:"name"`
	Total      float64 `json:"total"`
	Orders     int64   `json:"orders"`
}

// ItemVolume aggregates ordered quantity per item description.
type ItemVolume struct {
	Description string  `json:"description"`
	Qty         float64 `json:"qty"`
}

// TopSuppliers ranks suppliers by purchase order spend in the period.
func (r *Repository) TopSuppliers(ctx context.Context, from, to time.Time, limit int) ([]SupplierSpend, error) {
	rows, err := r.pool.Query(ctx, `SELECT o.supplier_id, s.name, SUM(o.value), COUNT(*)
FROM purchase_orders o JOIN suppliers s ON s.id = o.supplier_id
WHERE o.created_at >= $1 AND o.created_at <= $2
GROUP BY o.supplier_id, s.name ORDER BY SUM(o.value) DESC LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var spend []SupplierSpend
	for rows.Next() {
		var s SupplierSpend
		if err := rows.Scan(&s.SupplierID, &s.Name, &s.Total, &s.Orders); err != nil {
			return nil, err
		}
		spend = append(spend, s)
	}
	return spend, rows.Err()
}

// TopItems ranks order items by total quantity in the period.
func (r *Repository) TopItems(ctx context.Context, from, to time.Time, limit int) ([]ItemVolume, error) {
	rows, err := r.pool.Query(ctx, `SELECT i.description, SUM(i.qty)
FROM order_items i JOIN purchase_orders o ON o.id = i.order_id
WHERE o.created_at >= $1 AND o.created_at <= $2
GROUP BY i.description ORDER BY SUM(i.qty) DESC LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var volumes []ItemVolume
	for rows.Next() {
		var v ItemVolume
		if err := rows.Scan(&v.Description, &v.Qty); err != nil {
			return nil, err
		}
		volumes = append(volumes, v)
	}
	return volumes, rows.Err()
}

func (t *txRepo) CreateQuotation(ctx context.Context, q Quotation) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO quotations (requester_id, title, deadline, notes, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		q.RequesterID, q.Title, q.Deadline, q.Notes, string(q.Status), q.CreatedAt).Scan(&id)
	return id, err
}

func (t *txRepo) InsertQuotationItem(ctx context.Context, item QuotationItem) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO quotation_items (quotation_id, description, qty)
VALUES ($1, $2, $3)`, item.QuotationID, item.Description, item.Qty)
	return err
}

func (t *txRepo) UpdateQuotationStatus(ctx context.Context, id int64, status QuotationStatus) error {
	_, err := t.tx.Exec(ctx, `UPDATE quotations SET status = $1 WHERE id = $2`, string(status), id)
	return err
}

func (t *txRepo) ApproveQuotation(ctx context.Context, id int64, at time.Time) error {
	_, err := t.tx.Exec(ctx, `UPDATE quotations SET status = $1, approved_at = $2 WHERE id = $3`,
		string(QuotationApproved), at, id)
	return err
}

func (t *txRepo) InsertProposal(ctx context.Context, p Proposal) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO proposals (quotation_id, supplier_id, value, payment_terms, billing_terms, approved, created_at)
VALUES ($1, $2, $3, $4, $5, false, $6) RETURNING id`,
		p.QuotationID, p.SupplierID, p.Value, p.PaymentTerms, p.BillingTerms, p.CreatedAt).Scan(&id)
	if err != nil {
		return 0, translateProposalError(err)
	}
	return id, nil
}

func (t *txRepo) UnapproveProposals(ctx context.Context, quotationID int64) error {
	_, err := t.tx.Exec(ctx, `UPDATE proposals SET approved = false WHERE quotation_id = $1`, quotationID)
	return err
}

func (t *txRepo) ApproveProposal(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx, `UPDATE proposals SET approved = true WHERE id = $1`, id)
	return err
}

func (t *txRepo) CreateOrder(ctx context.Context, o PurchaseOrder) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO purchase_orders (quotation_id, proposal_id, supplier_id, approved_by, approved_at, value, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		o.QuotationID, o.ProposalID, o.SupplierID, o.ApprovedBy, o.ApprovedAt, o.Value, string(o.Status), o.CreatedAt).Scan(&id)
	return id, err
}

func (t *txRepo) InsertOrderItem(ctx context.Context, item OrderItem) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO order_items (order_id, description, qty)
VALUES ($1, $2, $3)`, item.OrderID, item.Description, item.Qty)
	return err
}

// FinalizeOrder is status-guarded: a repeat call matches zero rows, which the
// service reports as ErrAlreadyFinalized.
func (t *txRepo) FinalizeOrder(ctx context.Context, id int64, invoiceKey, pdfPath string, at time.Time) (bool, error) {
	tag, err := t.tx.Exec(ctx, `UPDATE purchase_orders
SET status = $1, invoice_key = NULLIF($2, ''), invoice_pdf_path = NULLIF($3, ''), finalized_at = $4
WHERE id = $5 AND status <> $1`, string(OrderFinalized), invoiceKey, pdfPath, at, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// translateProposalError maps a foreign-key violation on the supplier
// reference to a validation error so callers answer 400 instead of 500.
func translateProposalError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return fmt.Errorf("%w: unknown supplier", ErrValidation)
	}
	return err
}

func scanQuotation(row pgx.Row) (Quotation, error) {
	var q Quotation
	var status string
	var approvedAt *time.Time
	if err := row.Scan(&q.ID, &q.RequesterID, &q.Title, &q.Deadline, &q.Notes, &status, &approvedAt, &q.CreatedAt); err != nil {
		return Quotation{}, err
	}
	q.Status = QuotationStatus(status)
	if approvedAt != nil {
		q.ApprovedAt = *approvedAt
	}
	return q, nil
}

func scanOrder(row pgx.Row) (PurchaseOrder, error) {
	var o PurchaseOrder
	var status string
	var finalizedAt *time.Time
	if err := row.Scan(&o.ID, &o.QuotationID, &o.ProposalID, &o.SupplierID, &o.SupplierName, &o.ApprovedBy,
		&o.ApprovedAt, &o.Value, &status, &o.InvoiceKey, &o.InvoicePDFPath, &finalizedAt, &o.CreatedAt); err != nil {
		return PurchaseOrder{}, err
	}
	o.Status = OrderStatus(status)
	if finalizedAt != nil {
		o.FinalizedAt = *finalizedAt
	}
	return o, nil
}
