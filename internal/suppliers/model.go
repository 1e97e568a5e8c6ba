package suppliers

import (
	"errors"
	"time"
)

// Supplier represents a vendor that quotes and fulfils purchase orders.
type Supplier struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	TaxID          string    `json:"tax_id"`
	RegistrationNo string    `json:"registration_no"`
	Address        string    `json:"address"`
	Category       string    `json:"category"`
	Contact        string    `json:"contact"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

var (
	// ErrNotFound indicates the supplier does not exist.
	ErrNotFound = errors.New("suppliers: not found")
	// ErrDuplicate indicates another supplier already uses the name or tax ID.
	ErrDuplicate = errors.New("suppliers: name or tax ID already registered")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("suppliers: invalid input")
	// ErrInUse indicates the supplier is referenced by proposals or orders.
	ErrInUse = errors.New("suppliers: referenced by proposals or purchase orders")
)
