package purchasing

import (
	"errors"
	"time"
)

// Quotation lifecycle statuses.
type QuotationStatus string

const (
	QuotationOpen     QuotationStatus = "OPEN"
	QuotationClosed   QuotationStatus = "CLOSED"
	QuotationApproved QuotationStatus = "APPROVED"
)

// Purchase order lifecycle statuses.
type OrderStatus string

const (
	OrderOpen      OrderStatus = "OPEN"
	OrderFinalized OrderStatus = "FINALIZED"
)

// Quotation is a purchasing request header. Items live in quotation_items.
type Quotation struct {
	ID          int64           `json:"id"`
	RequesterID int64           `json:"requester_id"`
	Title       string          `json:"title"`
	Deadline    time.Time       `json:"deadline"`
	Notes       string          `json:"notes"`
	Status      QuotationStatus `json:"status"`
	ApprovedAt  time.Time       `json:"approved_at,omitzero"`
	CreatedAt   time.Time       `json:"created_at"`
}

// QuotationItem is one requested line.
type QuotationItem struct {
	ID          int64   `json:"id"`
	QuotationID int64   `json:"quotation_id"`
	Description string  `json:"description"`
	Qty         float64 `json:"qty"`
}

// Proposal is a supplier's priced response to a quotation. SupplierName is
// populated on list reads via join.
type Proposal struct {
	ID           int64     `json:"id"`
	QuotationID  int64     `json:"quotation_id"`
	SupplierID   int64     `json:"supplier_id"`
	SupplierName string    `json:"supplier_name,omitempty"`
	Value        float64   `json:"value"`
	PaymentTerms string    `json:"payment_terms"`
	BillingTerms string    `json:"billing_terms"`
	Approved     bool      `json:"approved"`
	CreatedAt    time.Time `json:"created_at"`
}

// PurchaseOrder is created once per approval event, copying the winning
// proposal's value and cloning the quotation items.
type PurchaseOrder struct {
	ID             int64       `json:"id"`
	QuotationID    int64       `json:"quotation_id"`
	ProposalID     int64       `json:"proposal_id"`
	SupplierID     int64       `json:"supplier_id"`
	SupplierName   string      `json:"supplier_name,omitempty"`
	ApprovedBy     int64       `json:"approved_by"`
	ApprovedAt     time.Time   `json:"approved_at"`
	Value          float64     `json:"value"`
	Status         OrderStatus `json:"status"`
	InvoiceKey     string      `json:"invoice_key,omitempty"`
	InvoicePDFPath string      `json:"invoice_pdf_path,omitempty"`
	FinalizedAt    time.Time   `json:"finalized_at,omitzero"`
	CreatedAt      time.Time   `json:"created_at"`
}

// OrderItem is a line cloned from the quotation at approval time so later
// quotation edits never change an issued order.
type OrderItem struct {
	ID          int64   `json:"id"`
	OrderID     int64   `json:"order_id"`
	Description string  `json:"description"`
	Qty         float64 `json:"qty"`
}

// ListFilters narrows quotation and order listings.
type ListFilters struct {
	From   time.Time
	To     time.Time
	Status string
	Search string
}

var (
	// ErrNotFound indicates the referenced record is missing.
	ErrNotFound = errors.New("purchasing: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("purchasing: invalid input")
	// ErrQuotationApproved indicates the quotation no longer accepts proposals.
	ErrQuotationApproved = errors.New("purchasing: quotation already approved")
	// ErrAlreadyFinalized indicates a repeated finalize on the same order.
	ErrAlreadyFinalized = errors.New("purchasing: order already finalized")
)
