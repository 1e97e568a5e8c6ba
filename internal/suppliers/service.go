// Package suppliers maintains the vendor registry used by the purchasing
// workflow.
package suppliers

import (
	"context"
	"fmt"
	"strings"
)

// Service wraps supplier business rules over a Repository.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns suppliers ordered by name.
func (s *Service) List(ctx context.Context, search string) ([]Supplier, error) {
	return s.repo.List(ctx, strings.TrimSpace(search))
}

// Get fetches a single supplier.
func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new supplier.
func (s *Service) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	if err := validate(&supplier); err != nil {
		return Supplier{}, err
	}
	id, err := s.repo.Create(ctx, supplier)
	if err != nil {
		return Supplier{}, err
	}
	supplier.ID = id
	return supplier, nil
}

// Update rewrites an existing supplier.
func (s *Service) Update(ctx context.Context, supplier Supplier) error {
	if err := validate(&supplier); err != nil {
		return err
	}
	return s.repo.Update(ctx, supplier)
}

// Delete removes a supplier unless proposals or orders reference it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func validate(sup *Supplier) error {
	sup.Name = strings.TrimSpace(sup.Name)
	sup.TaxID = strings.TrimSpace(sup.TaxID)
	if sup.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if sup.TaxID == "" {
		return fmt.Errorf("%w: tax ID is required", ErrValidation)
	}
	return nil
}
