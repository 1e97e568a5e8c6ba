package fleet

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/frotadesk/frotadesk/internal/authz"
	"github.com/frotadesk/frotadesk/internal/platform/httpx"
)

// Handler exposes the fleet ledgers API.
type Handler struct {
	logger  *slog.Logger
	service *Service
	authz   authz.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, authz authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: authz}
}

// MountRoutes registers fleet routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("fleet.view"))
		r.Get("/fuel-logs", h.listFuelLogs)
		r.Get("/fuel-logs/averages", h.consumptionAverages)
		r.Get("/fuel-prices", h.listFuelPrices)
		r.Get("/maintenance", h.listMaintenance)
		r.Get("/maintenance/report", h.maintenanceReport)
		r.Get("/oil-changes", h.listOilChanges)
		r.Get("/oil-changes/{unit}/{type}", h.showOilChange)
		r.Get("/tolls", h.listTolls)
		r.Get("/checklists", h.listChecklists)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("fleet.manage"))
		r.Post("/fuel-logs", h.createFuelLog)
		r.Put("/fuel-logs/{id}", h.updateFuelLog)
		r.Delete("/fuel-logs/{id}", h.deleteFuelLog)
		r.Post("/maintenance", h.createMaintenance)
		r.Put("/maintenance/{id}", h.updateMaintenance)
		r.Delete("/maintenance/{id}", h.deleteMaintenance)
		r.Put("/oil-changes", h.recordOilChange)
		r.Delete("/oil-changes/{unit}/{type}", h.deleteOilChange)
		r.Post("/tolls", h.createToll)
		r.Put("/tolls/{id}", h.updateToll)
		r.Delete("/tolls/{id}", h.deleteToll)
		r.Post("/checklists", h.createChecklist)
		r.Put("/checklists/{id}", h.updateChecklist)
		r.Delete("/checklists/{id}", h.deleteChecklist)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("fleet.prices"))
		r.Post("/fuel-prices", h.createFuelPrice)
		r.Put("/fuel-prices/{fuel}", h.updateFuelPrice)
	})
}

func (h *Handler) listFuelLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := FuelLogFilters{
		Plate:      q.Get("plate"),
		Fuel:       q.Get("fuel"),
		Station:    q.Get("station"),
		CostCenter: q.Get("cost_center"),
	}
	if from := q.Get("from"); from != "" {
		filters.From, _ = parseISODate(from)
	}
	if to := q.Get("to"); to != "" {
		filters.To, _ = parseISODate(to)
	}
	logs, err := h.service.ListFuelLogs(r.Context(), filters)
	if err != nil {
		h.respondError(w, "list fuel logs", err)
		return
	}
	httpx.OK(w, http.StatusOK, logs)
}

func (h *Handler) consumptionAverages(w http.ResponseWriter, r *http.Request) {
	averages, err := h.service.ConsumptionAverages(r.Context())
	if err != nil {
		h.respondError(w, "consumption averages", err)
		return
	}
	httpx.OK(w, http.StatusOK, averages)
}

func (h *Handler) createFuelLog(w http.ResponseWriter, r *http.Request) {
	var log FuelLog
	if err := httpx.DecodeJSON(r, &log); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.service.CreateFuelLog(r.Context(), log)
	if err != nil {
		h.respondError(w, "create fuel log", err)
		return
	}
	httpx.OK(w, http.StatusCreated, created)
}

func (h *Handler) updateFuelLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var log FuelLog
	if err := httpx.DecodeJSON(r, &log); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	log.ID = id
	if err := h.service.UpdateFuelLog(r.Context(), log); err != nil {
		h.respondError(w, "update fuel log", err)
		return
	}
	httpx.OK(w, http.StatusOK, nil)
}

func (h *Handler) deleteFuelLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteFuelLog(r.Context(), id); err != nil {
		h.respondError(w, "delete fuel log", err)
		return
	}
	httpx.OK(w, http.StatusOK, nil)
}

func (h *Handler) listFuelPrices(w http.ResponseWriter, r *http.Request) {
	prices, err := h.service.ListFuelPrices(r.Context())
	if err != nil {
		h.respondError(w, "list fuel prices", err)
		return
	}
	httpx.OK(w, http.StatusOK, prices)
}

func (h *Handler) createFuelPrice(w http.ResponseWriter, r *http.Request) {
	var price FuelPrice
	if err := httpx.DecodeJSON(r, &price); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.service.CreateFuelPrice(r.Context(), price)
	if err != nil {
		h.respondError(w, "create fuel price", err)
		return
	}
	httpx.OK(w, http.StatusCreated, created)
}

func (h *Handler) updateFuelPrice(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Price float64 `json:"price"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.service.UpdateFuelPrice(r.Context(), chi.URLParam(r, "fuel"), body.Price); err != nil {
		h.respondError(w, "update fuel price", err)
		return
	}
	httpx.OK(w, http.StatusOK, nil)
}

func (h *Handler) listMaintenance(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.service.ListMaintenance(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.respondError(w, "list maintenance", err)
		return
	}
	httpx.OK(w, http.StatusOK, tickets)
}

func (h *Handler) maintenanceReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.MaintenanceReport(r.Context())
	if err != nil {
		h.respondError(w, "maintenance report", err)
		return
	}
	httpx.OK(w, http.StatusOK, report)
}

func (h *Handler) createMaintenance(w http.ResponseWriter, r *http.Request) {
	var m Maintenance
	if err := httpx.DecodeJSON(r, &m); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.service.CreateMaintenance(r.Context(), m)
	if err != nil {
		h.respondError(w, "create maintenance", err)
		return
	}
	httpx.OK(w, http.StatusCreated, created)
}

func (h *Handler) updateMaintenance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var m Maintenance
	if err := httpx.DecodeJSON(r, &m); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m.ID = id
	if err := h.service.UpdateMaintenance(r.Context(), m); err != nil {
		h.respondError(w, "update maintenance", err)
		return
	}
	httpx.OK(w, http.StatusOK, nil)
}

func (h *Handler) deleteMaintenance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteMaintenance(r.Context(), id); err != nil {
		h.respondError(w, "delete maintenance", err)
		return
	}
	httpx.OK(w, http.StatusOK, nil)
}

func (h *Handler) listOilChanges(w http.ResponseWriter, r *http.Request) {
	changes, err := h.service.ListOilChanges(r.Context())
	if err != nil {
		h.respondError(w, "list oil changes", err)
		return
	}
	httpx.OK(w, http.StatusOK, changes)
}

func (h *Handler) showOilChange(w http.ResponseWriter, r *http.Request) {
	oc, err := h.service.GetOilChange(r.Context(), chi.URLParam(r, "unit"), chi.URLParam(r, "type"))
	if err != nil {
		h.respondError(w, "get oil change", err)
		return
	}
	httpx.OK(w, http.StatusOK, oc)
}

func (h *Handler) recordOilChange(w http.ResponseWriter, r *http.Request) {
	var oc OilChange
	if err := httpx.DecodeJSON(r, &oc); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.service.RecordOilChange(r.Context(), oc); err != nil {
		h.respondError(w, "record oil change", err)
		return
	}
	httpx.OK(w, http.StatusOK, nil)
}

func (h *Handler) deleteOilChange(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteOilChange(r.Context(), chi.URLParam(r, "unit"), chi.URLParam(r, "type")); err != nil {
		h.respondError(w, "delete oil change", err)
		return
	}
	httpx.OK(w, http.StatusOK, nil)
}

func (h *Handler) listTolls(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tolls, err := h.service.ListTolls(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		h.respondError(w, "list tolls", err)
		return
	}
	httpx.OK(w, http.StatusOK, tolls)
}

func (h *Handler) createToll(w http.ResponseWriter, r *http.Request) {
	var toll Toll
	if err := httpx.DecodeJSON(r, &toll); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.service.CreateToll(r.Context(), toll)
	if err != nil {
		h.respondError(w, "create toll", err)
		return
	}
	httpx.OK(w, http.StatusCreated, created)
}

func (h *Handler) updateToll(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var toll Toll
	if err := httpx.DecodeJSON(r, &toll); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	toll.ID = id
	if err := h.service.UpdateToll(r.Context(), toll); err != nil {
		h.respondError(w, "update toll", err)
		return
	}
	httpx.OK(w, http.StatusOK, nil)
}

func (h *Handler) deleteToll(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteToll(r.Context(), id); err != nil {
		h.respondError(w, "delete toll", err)
		return
	}
	httpx.OK(w, http.StatusOK, nil)
}

func (h *Handler) listChecklists(w http.ResponseWriter, r *http.Request) {
	checklists, err := h.service.ListChecklists(r.Context(), r.URL.Query().Get("unit"))
	if err != nil {
		h.respondError(w, "list checklists", err)
		return
	}
	httpx.OK(w, http.StatusOK, checklists)
}

func (h *Handler) createChecklist(w http.ResponseWriter, r *http.Request) {
	var c Checklist
	if err := httpx.DecodeJSON(r, &c); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.service.CreateChecklist(r.Context(), c)
	if err != nil {
		h.respondError(w, "create checklist", err)
		return
	}
	httpx.OK(w, http.StatusCreated, created)
}

func (h *Handler) updateChecklist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var c Checklist
	if err := httpx.DecodeJSON(r, &c); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c.ID = id
	if err := h.service.UpdateChecklist(r.Context(), c); err != nil {
		h.respondError(w, "update checklist", err)
		return
	}
	httpx.OK(w, http.StatusOK, nil)
}

func (h *Handler) deleteChecklist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteChecklist(r.Context(), id); err != nil {
		h.respondError(w, "delete checklist", err)
		return
	}
	httpx.OK(w, http.StatusOK, nil)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, "record not found")
	case errors.Is(err, ErrDuplicate):
		httpx.Fail(w, http.StatusConflict, "duplicate entry")
	case errors.Is(err, ErrValidation):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
	}
}

func parseISODate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
