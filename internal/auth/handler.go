package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/frotadesk/frotadesk/internal/platform/httpx"
	"github.com/frotadesk/frotadesk/internal/shared"
)

// Handler exposes login/logout endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	sessions *shared.SessionManager
	csrf     *shared.CSRFManager
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, sessions: sessions, csrf: csrf, validate: validator.New()}
}

// MountRoutes registers auth routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Get("/me", h.me)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CSRFToken string `json:"csrf_token"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Fail(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		h.logger.Error("authenticate", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Fail(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	sess.SetUser(strconv.FormatInt(user.ID, 10), string(user.Role))
	token, _ := h.csrf.EnsureToken(r.Context(), sess)

	h.logger.Info("user logged in", slog.String("username", user.Username), slog.String("role", string(user.Role)))
	httpx.OK(w, http.StatusOK, loginResponse{ID: user.ID, Username: user.Username, Role: string(user.Role), CSRFToken: token})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		h.sessions.Destroy(sess)
	}
	httpx.OK(w, http.StatusOK, nil)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		httpx.Fail(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, _ := strconv.ParseInt(sess.User(), 10, 64)
	httpx.OK(w, http.StatusOK, map[string]any{"id": id, "role": sess.Role()})
}
