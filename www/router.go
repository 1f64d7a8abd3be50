package www

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"

	"fleetflow/engine"
	"fleetflow/store"
)

type Handlers struct {
	engine   *engine.Engine
	sessions *sessions.CookieStore
	eventHub *EventHub
}

func NewRouter(eng *engine.Engine) (http.Handler, func()) {
	hub := NewEventHub()
	hub.Start()
	hub.SetupEngineListeners(eng)

	h := &Handlers{
		engine:   eng,
		sessions: newSessionStore(eng.AppConfig().Web.SessionSecret),
		eventHub: hub,
	}

	h.ensureDefaultAdmin(eng.DB())

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/api/health", h.apiHealthCheck)

	// Auth endpoints. Login and register are the only unauthenticated writes.
	r.Post("/api/auth/register", h.apiRegister)
	r.Post("/api/auth/login", h.apiLogin)
	r.Post("/api/auth/logout", h.apiLogout)

	// SSE runs outside the bearer group: browsers open EventSource with the
	// session cookie only.
	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/events", hub.SSEHandler)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Get("/auth/me", h.apiAuthMe)

		manager := h.requireRole(store.RoleFleetManager)
		dispatchers := h.requireRole(store.RoleFleetManager, store.RoleDispatcher)
		safety := h.requireRole(store.RoleFleetManager, store.RoleSafetyOfficer)
		finance := h.requireRole(store.RoleFleetManager, store.RoleFinancialAnalyst)

		r.Route("/vehicles", func(r chi.Router) {
			r.Get("/", h.apiListVehicles)
			r.Get("/{id}", h.apiGetVehicle)
			r.With(manager).Post("/", h.apiCreateVehicle)
			r.With(manager).Put("/{id}", h.apiUpdateVehicle)
			r.With(manager).Delete("/{id}", h.apiRetireVehicle)
		})

		r.Route("/drivers", func(r chi.Router) {
			r.Get("/", h.apiListDrivers)
			r.Get("/{id}", h.apiGetDriver)
			r.With(safety).Post("/", h.apiCreateDriver)
			r.With(safety).Put("/{id}", h.apiUpdateDriver)
			r.With(safety).Delete("/{id}", h.apiDeleteDriver)
		})

		r.Route("/trips", func(r chi.Router) {
			r.Get("/", h.apiListTrips)
			r.Get("/{id}", h.apiGetTrip)
			r.With(dispatchers).Post("/", h.apiCreateTrip)
			r.With(dispatchers).Patch("/{id}/dispatch", h.apiDispatchTrip)
			r.With(dispatchers).Patch("/{id}/complete", h.apiCompleteTrip)
			r.With(dispatchers).Delete("/{id}", h.apiCancelTrip)
		})

		r.Route("/fuel", func(r chi.Router) {
			r.Get("/", h.apiListFuelLogs)
			r.Get("/{id}", h.apiGetFuelLog)
			r.With(finance).Post("/", h.apiCreateFuelLog)
			r.With(finance).Put("/{id}", h.apiUpdateFuelLog)
			r.With(finance).Delete("/{id}", h.apiDeleteFuelLog)
		})

		r.Route("/maintenance", func(r chi.Router) {
			r.Get("/", h.apiListMaintenanceLogs)
			r.Get("/{id}", h.apiGetMaintenanceLog)
			r.With(manager).Post("/", h.apiCreateMaintenanceLog)
			r.With(manager).Put("/{id}", h.apiUpdateMaintenanceLog)
			r.With(manager).Delete("/{id}", h.apiDeleteMaintenanceLog)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/kpis", h.apiDashboardKPIs)
			r.With(finance).Get("/fuel-efficiency", h.apiFuelEfficiency)
			r.With(finance).Get("/monthly", h.apiMonthlyFinancials)
			r.With(finance).Get("/daily-profit", h.apiDailyProfit)
			r.With(finance).Get("/geography", h.apiBookingGeography)
			r.With(finance).Get("/vehicle-costs", h.apiVehicleCosts)
		})

		r.Get("/fleet", h.apiFleetBoard)
		r.Get("/audit", h.apiAuditLog)
		r.HandleFunc("/ai/*", h.apiAIProxy)
	})

	stopFn := func() {
		hub.Stop()
	}

	return r, stopFn
}

func (h *Handlers) apiHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":      "ok",
		"sse_clients": h.eventHub.ClientCount(),
	}
	if mc := h.engine.MsgClient(); mc != nil {
		status["messaging"] = mc.IsConnected()
	}
	if err := h.engine.DB().Ping(); err != nil {
		status["status"] = "degraded"
		status["db_error"] = err.Error()
	}
	h.jsonOK(w, status)
}
