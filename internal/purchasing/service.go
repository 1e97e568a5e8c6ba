// Package purchasing implements the quotation, budget proposal and purchase
// order workflow.
package purchasing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/frotadesk/frotadesk/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetQuotation(ctx context.Context, id int64) (Quotation, error)
	ListQuotations(ctx context.Context, filters ListFilters) ([]Quotation, error)
	QuotationItems(ctx context.Context, quotationID int64) ([]QuotationItem, error)
	GetProposal(ctx context.Context, id int64) (Proposal, error)
	ListProposals(ctx context.Context, quotationID int64) ([]Proposal, error)
	GetOrder(ctx context.Context, id int64) (PurchaseOrder, error)
	ListOrders(ctx context.Context, filters ListFilters) ([]PurchaseOrder, error)
	OrderItems(ctx context.Context, orderID int64) ([]OrderItem, error)
	TopSuppliers(ctx context.Context, from, to time.Time, limit int) ([]SupplierSpend, error)
	TopItems(ctx context.Context, from, to time.Time, limit int) ([]ItemVolume, error)
}

// ApprovalsPort records approval history.
type ApprovalsPort interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates the purchasing workflow.
type Service struct {
	repo      RepositoryPort
	approvals ApprovalsPort
	audit     AuditPort
	insights  *InsightsCache
}

// NewService constructs the purchasing service.
func NewService(repo RepositoryPort, approvals ApprovalsPort, audit AuditPort, insights *InsightsCache) *Service {
	return &Service{repo: repo, approvals: approvals, audit: audit, insights: insights}
}

// CreateQuotationInput describes the creation payload.
type CreateQuotationInput struct {
	RequesterID int64
	Title       string
	Deadline    time.Time
	Notes       string
	Items       []QuotationItemInput
}

// QuotationItemInput describes one requested line.
type QuotationItemInput struct {
	Description string
	Qty         float64
}

// AddProposalInput describes a supplier's priced response.
type AddProposalInput struct {
	QuotationID  int64
	SupplierID   int64
	Value        float64
	PaymentTerms string
	BillingTerms string
}

// CreateQuotation persists the header and items atomically. The quotation
// starts OPEN.
func (s *Service) CreateQuotation(ctx context.Context, input CreateQuotationInput) (Quotation, error) {
	if strings.TrimSpace(input.Title) == "" {
		return Quotation{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if len(input.Items) == 0 {
		return Quotation{}, fmt.Errorf("%w: at least one item is required", ErrValidation)
	}
	for _, item := range input.Items {
		if strings.TrimSpace(item.Description) == "" {
			return Quotation{}, fmt.Errorf("%w: item description is required", ErrValidation)
		}
		if item.Qty <= 0 {
			return Quotation{}, fmt.Errorf("%w: item quantity must be positive", ErrValidation)
		}
	}

	q := Quotation{
		RequesterID: input.RequesterID,
		Title:       strings.TrimSpace(input.Title),
		Deadline:    input.Deadline,
		Notes:       input.Notes,
		Status:      QuotationOpen,
		CreatedAt:   time.Now(),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateQuotation(ctx, q)
		if err != nil {
			return err
		}
		q.ID = id
		for _, item := range input.Items {
			if err := tx.InsertQuotationItem(ctx, QuotationItem{
				QuotationID: id,
				Description: strings.TrimSpace(item.Description),
				Qty:         item.Qty,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Quotation{}, err
	}
	s.recordAudit(ctx, input.RequesterID, "QUOTATION_CREATE", "quotation", q.ID, map[string]any{"title": q.Title, "items": len(input.Items)})
	return q, nil
}

// GetQuotation fetches a quotation header.
func (s *Service) GetQuotation(ctx context.Context, id int64) (Quotation, error) {
	return s.repo.GetQuotation(ctx, id)
}

// ListQuotations returns filtered quotations, newest first.
func (s *Service) ListQuotations(ctx context.Context, filters ListFilters) ([]Quotation, error) {
	return s.repo.ListQuotations(ctx, filters)
}

// QuotationItems returns a quotation's item collection.
func (s *Service) QuotationItems(ctx context.Context, quotationID int64) ([]QuotationItem, error) {
	if _, err := s.repo.GetQuotation(ctx, quotationID); err != nil {
		return nil, err
	}
	return s.repo.QuotationItems(ctx, quotationID)
}

// AddProposal records a supplier's quote. The first proposal closes the
// bidding window; proposals keep being accepted against a CLOSED quotation
// and are rejected only once the quotation is APPROVED.
func (s *Service) AddProposal(ctx context.Context, input AddProposalInput) (Proposal, error) {
	if input.Value <= 0 {
		return Proposal{}, fmt.Errorf("%w: proposal value must be positive", ErrValidation)
	}
	quotation, err := s.repo.GetQuotation(ctx, input.QuotationID)
	if err != nil {
		return Proposal{}, err
	}
	if quotation.Status == QuotationApproved {
		return Proposal{}, ErrQuotationApproved
	}

	p := Proposal{
		QuotationID:  input.QuotationID,
		SupplierID:   input.SupplierID,
		Value:        input.Value,
		PaymentTerms: input.PaymentTerms,
		BillingTerms: input.BillingTerms,
		CreatedAt:    time.Now(),
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertProposal(ctx, p)
		if err != nil {
			return err
		}
		p.ID = id
		if quotation.Status == QuotationOpen {
			return tx.UpdateQuotationStatus(ctx, quotation.ID, QuotationClosed)
		}
		return nil
	})
	if err != nil {
		return Proposal{}, err
	}
	return p, nil
}

// ListProposals returns a quotation's proposals lowest value first.
func (s *Service) ListProposals(ctx context.Context, quotationID int64) ([]Proposal, error) {
	if _, err := s.repo.GetQuotation(ctx, quotationID); err != nil {
		return nil, err
	}
	return s.repo.ListProposals(ctx, quotationID)
}

// Approve marks the proposal as the quotation's single winner and issues a
// purchase order. In one transaction: every proposal of the quotation is
// un-approved, the target is approved, the quotation moves to APPROVED with
// an approval date, and a new order is created with the proposal's value and
// a clone of the quotation items. Returns the new order ID.
func (s *Service) Approve(ctx context.Context, proposalID, approverID int64) (int64, error) {
	proposal, err := s.repo.GetProposal(ctx, proposalID)
	if err != nil {
		return 0, err
	}
	quotation, err := s.repo.GetQuotation(ctx, proposal.QuotationID)
	if err != nil {
		return 0, err
	}
	items, err := s.repo.QuotationItems(ctx, quotation.ID)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	var orderID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UnapproveProposals(ctx, quotation.ID); err != nil {
			return err
		}
		if err := tx.ApproveProposal(ctx, proposalID); err != nil {
			return err
		}
		if err := tx.ApproveQuotation(ctx, quotation.ID, now); err != nil {
			return err
		}
		id, err := tx.CreateOrder(ctx, PurchaseOrder{
			QuotationID: quotation.ID,
			ProposalID:  proposalID,
			SupplierID:  proposal.SupplierID,
			ApprovedBy:  approverID,
			ApprovedAt:  now,
			Value:       proposal.Value,
			Status:      OrderOpen,
			CreatedAt:   now,
		})
		if err != nil {
			return err
		}
		orderID = id
		for _, item := range items {
			if err := tx.InsertOrderItem(ctx, OrderItem{
				OrderID:     id,
				Description: item.Description,
				Qty:         item.Qty,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.recordApproval(ctx, orderID, approverID, shared.ApprovalApprove,
		fmt.Sprintf("proposal %d approved for quotation %d", proposalID, quotation.ID))
	s.recordAudit(ctx, approverID, "PROPOSAL_APPROVE", "purchase_order", orderID,
		map[string]any{"quotation_id": quotation.ID, "proposal_id": proposalID, "value": proposal.Value})
	return orderID, nil
}

// GetOrder fetches a purchase order.
func (s *Service) GetOrder(ctx context.Context, id int64) (PurchaseOrder, error) {
	return s.repo.GetOrder(ctx, id)
}

// ListOrders returns filtered purchase orders, newest first.
func (s *Service) ListOrders(ctx context.Context, filters ListFilters) ([]PurchaseOrder, error) {
	return s.repo.ListOrders(ctx, filters)
}

// OrderItems returns an order's cloned item collection.
func (s *Service) OrderItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	if _, err := s.repo.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return s.repo.OrderItems(ctx, orderID)
}

// Finalize attaches invoice evidence and transitions the order to FINALIZED.
// At least one of invoiceKey or pdfPath is required; a present invoice key
// must be exactly 44 or 54 characters. A repeated call returns
// ErrAlreadyFinalized and leaves the first call's data untouched.
func (s *Service) Finalize(ctx context.Context, orderID int64, invoiceKey, pdfPath string, actorID int64) error {
	invoiceKey = strings.TrimSpace(invoiceKey)
	pdfPath = strings.TrimSpace(pdfPath)
	if invoiceKey == "" && pdfPath == "" {
		return fmt.Errorf("%w: an invoice key or an invoice PDF is required", ErrValidation)
	}
	if invoiceKey != "" && len(invoiceKey) != 44 && len(invoiceKey) != 54 {
		return fmt.Errorf("%w: invoice key must be 44 or 54 characters", ErrValidation)
	}

	now := time.Now()
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		updated, err := tx.FinalizeOrder(ctx, orderID, invoiceKey, pdfPath, now)
		if err != nil {
			return err
		}
		if !updated {
			// Zero rows means the order is missing or the status guard
			// blocked a second finalize.
			if _, err := s.repo.GetOrder(ctx, orderID); err != nil {
				return err
			}
			return ErrAlreadyFinalized
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.recordApproval(ctx, orderID, actorID, shared.ApprovalFinalize,
		fmt.Sprintf("order %d finalized", orderID))
	s.recordAudit(ctx, actorID, "ORDER_FINALIZE", "purchase_order", orderID,
		map[string]any{"invoice_key": invoiceKey, "invoice_pdf_path": pdfPath})
	return nil
}

func (s *Service) recordApproval(ctx context.Context, orderID, actorID int64, action shared.ApprovalAction, note string) {
	if s.approvals == nil {
		return
	}
	refID := uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("PO:%d", orderID)))
	_ = s.approvals.Record(ctx, shared.ApprovalLog{Module: "PO", RefID: refID, ActorID: actorID, Action: action, Note: note, At: time.Now()})
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, entity string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: entity, EntityID: fmt.Sprintf("%d", entityID), Meta: meta, At: time.Now()})
}
