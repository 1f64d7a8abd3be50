package www

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"fleetflow/store"
)

func (h *Handlers) apiDashboardKPIs(w http.ResponseWriter, r *http.Request) {
	if data := h.engine.FleetState().CachedKPISnapshot(); data != nil {
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
		return
	}
	kpis, err := h.engine.DB().GetDashboardKPIs()
	if err != nil {
		log.Printf("www: dashboard kpis: %v", err)
		h.jsonError(w, "could not compute KPIs", http.StatusInternalServerError)
		return
	}
	if data, err := json.Marshal(kpis); err == nil {
		h.engine.FleetState().StoreKPISnapshot(data)
	}
	h.jsonOK(w, kpis)
}

func (h *Handlers) apiFuelEfficiency(w http.ResponseWriter, r *http.Request) {
	rows, err := h.engine.DB().GetFuelEfficiency()
	if err != nil {
		log.Printf("www: fuel efficiency: %v", err)
		h.jsonError(w, "could not compute fuel efficiency", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []*store.FuelEfficiencyRow{}
	}
	h.jsonOK(w, rows)
}

func (h *Handlers) apiMonthlyFinancials(w http.ResponseWriter, r *http.Request) {
	rows, err := h.engine.DB().GetMonthlyFinancials()
	if err != nil {
		log.Printf("www: monthly financials: %v", err)
		h.jsonError(w, "could not compute monthly financials", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []*store.MonthlyFinancialRow{}
	}
	h.jsonOK(w, rows)
}

func (h *Handlers) apiDailyProfit(w http.ResponseWriter, r *http.Request) {
	rows, err := h.engine.DB().GetDailyProfit()
	if err != nil {
		log.Printf("www: daily profit: %v", err)
		h.jsonError(w, "could not compute daily profit", http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, rows)
}

func (h *Handlers) apiBookingGeography(w http.ResponseWriter, r *http.Request) {
	rows, err := h.engine.DB().GetBookingGeography()
	if err != nil {
		log.Printf("www: booking geography: %v", err)
		h.jsonError(w, "could not compute booking geography", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []*store.BookingGeographyRow{}
	}
	h.jsonOK(w, rows)
}

func (h *Handlers) apiVehicleCosts(w http.ResponseWriter, r *http.Request) {
	rows, err := h.engine.DB().GetVehicleCosts()
	if err != nil {
		log.Printf("www: vehicle costs: %v", err)
		h.jsonError(w, "could not compute vehicle costs", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []*store.VehicleCostRow{}
	}
	h.jsonOK(w, rows)
}

func (h *Handlers) apiFleetBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.engine.FleetState().GetBoard()
	if err != nil {
		log.Printf("www: fleet board: %v", err)
		h.jsonError(w, "could not load fleet board", http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, board)
}

func (h *Handlers) apiAuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if entityType := q.Get("entity_type"); entityType != "" {
		entityID, _ := strconv.ParseInt(q.Get("entity_id"), 10, 64)
		entries, err := h.engine.DB().ListEntityAudit(entityType, entityID)
		if err != nil {
			log.Printf("www: entity audit: %v", err)
			h.jsonError(w, "could not load audit log", http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []*store.AuditEntry{}
		}
		h.jsonOK(w, entries)
		return
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	entries, err := h.engine.DB().ListAuditLog(limit)
	if err != nil {
		log.Printf("www: audit log: %v", err)
		h.jsonError(w, "could not load audit log", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*store.AuditEntry{}
	}
	h.jsonOK(w, entries)
}
