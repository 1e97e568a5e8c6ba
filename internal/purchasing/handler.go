package purchasing

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/frotadesk/frotadesk/internal/authz"
	"github.com/frotadesk/frotadesk/internal/platform/httpx"
)

// maxInvoiceUpload caps multipart finalize requests.
const maxInvoiceUpload = 10 << 20

// InvoiceStore persists uploaded service-invoice PDFs and returns the path
// recorded on the order. Remove discards a stored file when finalization
// does not go through.
type InvoiceStore interface {
	SavePDF(orderID int64, src io.Reader) (string, error)
	Remove(name string) error
}

// Handler exposes the purchasing workflow API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	invoices InvoiceStore
	validate *validator.Validate
	authz    authz.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, invoices InvoiceStore, authz authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, invoices: invoices, validate: validator.New(), authz: authz}
}

// MountRoutes registers purchasing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("purchasing.quotation.view"))
		r.Get("/quotations", h.listQuotations)
		r.Get("/quotations/{id}", h.showQuotation)
		r.Get("/quotations/{id}/items", h.quotationItems)
		r.Get("/quotations/{id}/proposals", h.listProposals)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("purchasing.quotation.create"))
		r.Post("/quotations", h.createQuotation)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("purchasing.proposal.add"))
		r.Post("/quotations/{id}/proposals", h.addProposal)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("purchasing.proposal.approve"))
		r.Post("/proposals/{id}/approve", h.approve)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("purchasing.order.view"))
		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id}", h.showOrder)
		r.Get("/orders/{id}/items", h.orderItems)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("purchasing.order.finalize"))
		r.Post("/orders/{id}/finalize", h.finalize)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("purchasing.insights"))
		r.Get("/insights", h.insights)
	})
}

type quotationItemRequest struct {
	Description string  `json:"description" validate:"required"`
	Qty         float64 `json:"qty" validate:"gt=0"`
}

type createQuotationRequest struct {
	Title    string                 `json:"title" validate:"required"`
	Deadline time.Time              `json:"deadline"`
	Notes    string                 `json:"notes"`
	Items    []quotationItemRequest `json:"items" validate:"required,min=1,dive"`
}

type addProposalRequest struct {
	SupplierID   int64   `json:"supplier_id" validate:"required"`
	Value        float64 `json:"value" validate:"gt=0"`
	PaymentTerms string  `json:"payment_terms"`
	BillingTerms string  `json:"billing_terms"`
}

type finalizeRequest struct {
	InvoiceKey string `json:"invoice_key"`
}

func (h *Handler) listQuotations(w http.ResponseWriter, r *http.Request) {
	quotations, err := h.service.ListQuotations(r.Context(), parseFilters(r))
	if err != nil {
		h.respondError(w, "list quotations", err)
		return
	}
	httpx.OK(w, http.StatusOK, quotations)
}

func (h *Handler) showQuotation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	quotation, err := h.service.GetQuotation(r.Context(), id)
	if err != nil {
		h.respondError(w, "get quotation", err)
		return
	}
	httpx.OK(w, http.StatusOK, quotation)
}

func (h *Handler) quotationItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	items, err := h.service.QuotationItems(r.Context(), id)
	if err != nil {
		h.respondError(w, "quotation items", err)
		return
	}
	httpx.OK(w, http.StatusOK, items)
}

func (h *Handler) createQuotation(w http.ResponseWriter, r *http.Request) {
	var req createQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "title and at least one item with positive qty are required")
		return
	}
	input := CreateQuotationInput{
		RequesterID: authz.CurrentUserID(r),
		Title:       req.Title,
		Deadline:    req.Deadline,
		Notes:       req.Notes,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, QuotationItemInput{Description: item.Description, Qty: item.Qty})
	}
	quotation, err := h.service.CreateQuotation(r.Context(), input)
	if err != nil {
		h.respondError(w, "create quotation", err)
		return
	}
	httpx.OK(w, http.StatusCreated, quotation)
}

func (h *Handler) listProposals(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	proposals, err := h.service.ListProposals(r.Context(), id)
	if err != nil {
		h.respondError(w, "list proposals", err)
		return
	}
	httpx.OK(w, http.StatusOK, proposals)
}

func (h *Handler) addProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req addProposalRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "supplier_id and a positive value are required")
		return
	}
	proposal, err := h.service.AddProposal(r.Context(), AddProposalInput{
		QuotationID:  id,
		SupplierID:   req.SupplierID,
		Value:        req.Value,
		PaymentTerms: req.PaymentTerms,
		BillingTerms: req.BillingTerms,
	})
	if err != nil {
		h.respondError(w, "add proposal", err)
		return
	}
	httpx.OK(w, http.StatusCreated, proposal)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	orderID, err := h.service.Approve(r.Context(), id, authz.CurrentUserID(r))
	if err != nil {
		h.respondError(w, "approve proposal", err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"order_id": orderID})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context(), parseFilters(r))
	if err != nil {
		h.respondError(w, "list orders", err)
		return
	}
	httpx.OK(w, http.StatusOK, orders)
}

func (h *Handler) showOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.respondError(w, "get order", err)
		return
	}
	httpx.OK(w, http.StatusOK, order)
}

func (h *Handler) orderItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	items, err := h.service.OrderItems(r.Context(), id)
	if err != nil {
		h.respondError(w, "order items", err)
		return
	}
	httpx.OK(w, http.StatusOK, items)
}

// finalize accepts either a JSON body with invoice_key or a multipart form
// with an invoice PDF under "invoice_pdf" (optionally plus invoice_key).
func (h *Handler) finalize(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var invoiceKey, pdfPath string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxInvoiceUpload); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid multipart body")
			return
		}
		invoiceKey = r.FormValue("invoice_key")
		file, header, err := r.FormFile("invoice_pdf")
		if err == nil {
			defer file.Close()
			if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
				httpx.Fail(w, http.StatusBadRequest, "invoice file must be a PDF")
				return
			}
			pdfPath, err = h.invoices.SavePDF(id, file)
			if err != nil {
				h.logger.Error("store invoice pdf", slog.Any("error", err))
				httpx.Fail(w, http.StatusInternalServerError, "failed to store invoice PDF")
				return
			}
		}
	} else {
		var req finalizeRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid request body")
			return
		}
		invoiceKey = req.InvoiceKey
	}

	if err := h.service.Finalize(r.Context(), id, invoiceKey, pdfPath, authz.CurrentUserID(r)); err != nil {
		// Finalization did not record the path, so the stored file would
		// be orphaned.
		if pdfPath != "" {
			if rmErr := h.invoices.Remove(pdfPath); rmErr != nil {
				h.logger.Warn("discard invoice pdf", slog.Any("error", rmErr))
			}
		}
		h.respondError(w, "finalize order", err)
		return
	}
	httpx.OK(w, http.StatusOK, nil)
}

func (h *Handler) insights(w http.ResponseWriter, r *http.Request) {
	from := parseDate(r.URL.Query().Get("from"))
	to := parseDate(r.URL.Query().Get("to"))
	result, err := h.service.Insights(r.Context(), from, to)
	if err != nil {
		h.respondError(w, "purchasing insights", err)
		return
	}
	httpx.OK(w, http.StatusOK, result)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, "record not found")
	case errors.Is(err, ErrValidation):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrQuotationApproved):
		httpx.Fail(w, http.StatusConflict, "quotation already approved")
	case errors.Is(err, ErrAlreadyFinalized):
		httpx.Fail(w, http.StatusConflict, "order already finalized")
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func parseFilters(r *http.Request) ListFilters {
	q := r.URL.Query()
	return ListFilters{
		From:   parseDate(q.Get("from")),
		To:     parseDate(q.Get("to")),
		Status: q.Get("status"),
		Search: q.Get("q"),
	}
}

func parseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t
	}
	t, _ := time.Parse(time.RFC3339, value)
	return t
}
