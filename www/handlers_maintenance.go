package www

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"fleetflow/engine"
	"fleetflow/store"
)

func (h *Handlers) apiListMaintenanceLogs(w http.ResponseWriter, r *http.Request) {
	vehicleID, _ := strconv.ParseInt(r.URL.Query().Get("vehicle_id"), 10, 64)
	logs, err := h.engine.DB().ListMaintenanceLogs(vehicleID)
	if err != nil {
		log.Printf("www: list maintenance logs: %v", err)
		h.jsonError(w, "could not list maintenance logs", http.StatusInternalServerError)
		return
	}
	if logs == nil {
		logs = []*store.MaintenanceLog{}
	}
	h.jsonOK(w, logs)
}

type maintenanceLogRequest struct {
	VehicleID      int64   `json:"vehicle_id"`
	ServiceType    string  `json:"service_type"`
	Description    string  `json:"description"`
	Cost           float64 `json:"cost"`
	ServiceDate    string  `json:"service_date"`
	NextServiceDue string  `json:"next_service_due"`
}

func (h *Handlers) apiCreateMaintenanceLog(w http.ResponseWriter, r *http.Request) {
	var req maintenanceLogRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.VehicleID == 0 || req.ServiceType == "" {
		h.jsonError(w, "vehicle_id and service_type are required", http.StatusBadRequest)
		return
	}
	vehicle, err := h.engine.DB().GetVehicle(req.VehicleID)
	if errors.Is(err, sql.ErrNoRows) {
		h.jsonError(w, "vehicle not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.jsonError(w, "could not load vehicle", http.StatusInternalServerError)
		return
	}
	if vehicle.Status == store.VehicleOnTrip {
		h.jsonError(w, "vehicle is on a trip", http.StatusConflict)
		return
	}

	serviceDate := time.Now()
	if req.ServiceDate != "" {
		parsed, err := parseDate(req.ServiceDate)
		if err != nil {
			h.jsonError(w, "invalid service_date (expected YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		serviceDate = parsed
	}
	var nextDue *time.Time
	if req.NextServiceDue != "" {
		parsed, err := parseDate(req.NextServiceDue)
		if err != nil {
			h.jsonError(w, "invalid next_service_due (expected YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		nextDue = &parsed
	}
	var userID int64
	if u := userFrom(r.Context()); u != nil {
		userID = u.ID
	}

	m := &store.MaintenanceLog{
		VehicleID:      req.VehicleID,
		ServiceType:    req.ServiceType,
		Description:    req.Description,
		Cost:           req.Cost,
		ServiceDate:    serviceDate,
		NextServiceDue: nextDue,
		CreatedBy:      userID,
	}
	if err := h.engine.DB().CreateMaintenanceLog(m); err != nil {
		log.Printf("www: create maintenance log: %v", err)
		h.jsonError(w, "could not create maintenance log", http.StatusInternalServerError)
		return
	}

	h.engine.Events.Emit(engine.Event{
		Type: engine.EventMaintenanceLogged,
		Payload: engine.MaintenanceLoggedEvent{
			LogID:       m.ID,
			VehicleID:   m.VehicleID,
			VehicleName: vehicle.Name,
			ServiceType: m.ServiceType,
		},
	})
	h.jsonCreated(w, m)
}

func (h *Handlers) apiUpdateMaintenanceLog(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	m, err := h.engine.DB().GetMaintenanceLog(id)
	if errors.Is(err, sql.ErrNoRows) {
		h.jsonError(w, "maintenance log not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.jsonError(w, "could not load maintenance log", http.StatusInternalServerError)
		return
	}

	var req maintenanceLogRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.ServiceType != "" {
		m.ServiceType = req.ServiceType
	}
	if req.Description != "" {
		m.Description = req.Description
	}
	if req.Cost > 0 {
		m.Cost = req.Cost
	}
	if req.ServiceDate != "" {
		parsed, err := parseDate(req.ServiceDate)
		if err != nil {
			h.jsonError(w, "invalid service_date (expected YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		m.ServiceDate = parsed
	}
	if req.NextServiceDue != "" {
		parsed, err := parseDate(req.NextServiceDue)
		if err != nil {
			h.jsonError(w, "invalid next_service_due (expected YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		m.NextServiceDue = &parsed
	}
	if err := h.engine.DB().UpdateMaintenanceLog(m); err != nil {
		log.Printf("www: update maintenance log: %v", err)
		h.jsonError(w, "could not update maintenance log", http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, m)
}

func (h *Handlers) apiDeleteMaintenanceLog(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	if err := h.engine.DB().DeleteMaintenanceLog(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.jsonError(w, "maintenance log not found", http.StatusNotFound)
			return
		}
		log.Printf("www: delete maintenance log: %v", err)
		h.jsonError(w, "could not delete maintenance log", http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]string{"status": "deleted"})
}

func (h *Handlers) apiGetMaintenanceLog(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	m, err := h.engine.DB().GetMaintenanceLog(id)
	if errors.Is(err, sql.ErrNoRows) {
		h.jsonError(w, "maintenance log not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.jsonError(w, "could not load maintenance log", http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, m)
}
