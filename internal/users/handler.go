package users

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

// Handler exposes the user administration API.
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

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("users.manage"))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.show)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type userPayload struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

type updateUserRequest struct {
	Username string `json:"username" validate:"required"`
	Role     string `json:"role" validate:"required"`
	Password string `json:"password"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load users")
		return
	}
	payload := make([]userPayload, 0, len(accounts))
	for _, u := range accounts {
		payload = append(payload, userPayload{ID: u.ID, Username: u.Username, Role: string(u.Role)})
	}
	httpx.OK(w, http.StatusOK, payload)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid user id")
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "get user", err)
		return
	}
	httpx.OK(w, http.StatusOK, userPayload{ID: user.ID, Username: user.Username, Role: string(user.Role)})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "username, password and role are required")
		return
	}
	user, err := h.service.Create(r.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		h.respondError(w, r, "create user", err)
		return
	}
	httpx.OK(w, http.StatusCreated, userPayload{ID: user.ID, Username: user.Username, Role: string(user.Role)})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req updateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "username and role are required")
		return
	}
	if err := h.service.Update(r.Context(), id, req.Username, req.Role, req.Password); err != nil {
		h.respondError(w, r, "update user", err)
		return
	}
	httpx.OK(w, http.StatusOK, nil)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := h.service.Delete(r.Context(), id, authz.CurrentUserID(r)); err != nil {
		h.respondError(w, r, "delete user", err)
		return
	}
	httpx.OK(w, http.StatusOK, nil)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, "user not found")
	case errors.Is(err, ErrDuplicateUsername):
		httpx.Fail(w, http.StatusConflict, "username already exists")
	case errors.Is(err, ErrValidation):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSelfDelete):
		httpx.Fail(w, http.StatusForbidden, "cannot delete own account")
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
	}
}
