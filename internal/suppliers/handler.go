package suppliers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/frotadesk/frotadesk/internal/authz"
	"github.com/frotadesk/frotadesk/internal/platform/httpx"
)

// Handler exposes the supplier registry API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	authz    authz.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, authz authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New(), authz: authz}
}

// MountRoutes registers supplier routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("suppliers.view"))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("suppliers.manage"))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type supplierRequest struct {
	Name           string `json:"name" validate:"required"`
	TaxID          string `json:"tax_id" validate:"required"`
	RegistrationNo string `json:"registration_no"`
	Address        string `json:"address"`
	Category       string `json:"category"`
	Contact        string `json:"contact"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("list suppliers", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load suppliers")
		return
	}
	httpx.OK(w, http.StatusOK, result)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid supplier id")
		return
	}
	supplier, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get supplier", err)
		return
	}
	httpx.OK(w, http.StatusOK, supplier)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	supplier, err := h.service.Create(r.Context(), Supplier{
		Name:           req.Name,
		TaxID:          req.TaxID,
		RegistrationNo: req.RegistrationNo,
		Address:        req.Address,
		Category:       req.Category,
		Contact:        req.Contact,
	})
	if err != nil {
		h.respondError(w, "create supplier", err)
		return
	}
	httpx.OK(w, http.StatusCreated, supplier)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid supplier id")
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	err = h.service.Update(r.Context(), Supplier{
		ID:             id,
		Name:           req.Name,
		TaxID:          req.TaxID,
		RegistrationNo: req.RegistrationNo,
		Address:        req.Address,
		Category:       req.Category,
		Contact:        req.Contact,
	})
	if err != nil {
		h.respondError(w, "update supplier", err)
		return
	}
	httpx.OK(w, http.StatusOK, nil)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid supplier id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, "delete supplier", err)
		return
	}
	httpx.OK(w, http.StatusOK, nil)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (supplierRequest, bool) {
	var req supplierRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "name and tax_id are required")
		return req, false
	}
	return req, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, "supplier not found")
	case errors.Is(err, ErrDuplicate):
		httpx.Fail(w, http.StatusConflict, "supplier name or tax ID already registered")
	case errors.Is(err, ErrValidation):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInUse):
		httpx.Fail(w, http.StatusConflict, "supplier is referenced by proposals or purchase orders")
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
	}
}
