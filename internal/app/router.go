package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/frotadesk/frotadesk/internal/auth"
	"github.com/frotadesk/frotadesk/internal/fleet"
	"github.com/frotadesk/frotadesk/internal/observability"
	"github.com/frotadesk/frotadesk/internal/purchasing"
	"github.com/frotadesk/frotadesk/internal/shared"
	"github.com/frotadesk/frotadesk/internal/suppliers"
	"github.com/frotadesk/frotadesk/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	SessionManager    *shared.SessionManager
	CSRFManager       *shared.CSRFManager
	AuthHandler       *auth.Handler
	UsersHandler      *users.Handler
	SuppliersHandler  *suppliers.Handler
	PurchasingHandler *purchasing.Handler
	FleetHandler      *fleet.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.SuppliersHandler != nil {
		r.Route("/suppliers", params.SuppliersHandler.MountRoutes)
	}
	if params.PurchasingHandler != nil {
		r.Route("/purchasing", params.PurchasingHandler.MountRoutes)
	}
	if params.FleetHandler != nil {
		r.Route("/fleet", params.FleetHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
