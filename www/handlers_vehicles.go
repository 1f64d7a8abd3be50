package www

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"fleetflow/engine"
	"fleetflow/store"
)

func (h *Handlers) apiListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.engine.DB().ListVehicles(r.URL.Query().Get("status"), r.URL.Query().Get("type"))
	if err != nil {
		log.Printf("www: list vehicles: %v", err)
		h.jsonError(w, "could not list vehicles", http.StatusInternalServerError)
		return
	}
	if vehicles == nil {
		vehicles = []*store.Vehicle{}
	}
	h.jsonOK(w, vehicles)
}

type vehicleRequest struct {
	Name            string  `json:"name"`
	Model           string  `json:"model"`
	LicensePlate    string  `json:"license_plate"`
	VehicleType     string  `json:"vehicle_type"`
	MaxCapacityKg   float64 `json:"max_capacity_kg"`
	OdometerKm      float64 `json:"odometer_km"`
	AcquisitionCost float64 `json:"acquisition_cost"`
	Status          string  `json:"status"`
}

func (h *Handlers) apiCreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.LicensePlate == "" {
		h.jsonError(w, "name and license_plate are required", http.StatusBadRequest)
		return
	}
	if req.MaxCapacityKg <= 0 {
		h.jsonError(w, "max_capacity_kg must be positive", http.StatusBadRequest)
		return
	}
	v := &store.Vehicle{
		Name:            req.Name,
		Model:           req.Model,
		LicensePlate:    req.LicensePlate,
		VehicleType:     req.VehicleType,
		MaxCapacityKg:   req.MaxCapacityKg,
		OdometerKm:      req.OdometerKm,
		AcquisitionCost: req.AcquisitionCost,
		Status:          req.Status,
	}
	if err := h.engine.DB().CreateVehicle(v); err != nil {
		log.Printf("www: create vehicle: %v", err)
		h.jsonError(w, "could not create vehicle", http.StatusInternalServerError)
		return
	}
	h.jsonCreated(w, v)
}

func (h *Handlers) apiGetVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	v, err := h.engine.DB().GetVehicle(id)
	if errors.Is(err, sql.ErrNoRows) {
		h.jsonError(w, "vehicle not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.jsonError(w, "could not load vehicle", http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, v)
}

func (h *Handlers) apiUpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	v, err := h.engine.DB().GetVehicle(id)
	if errors.Is(err, sql.ErrNoRows) {
		h.jsonError(w, "vehicle not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.jsonError(w, "could not load vehicle", http.StatusInternalServerError)
		return
	}

	// ON_TRIP is owned by the dispatcher; a direct update may not claim or
	// clear it.
	if v.Status == store.VehicleOnTrip {
		h.jsonError(w, "vehicle is on a trip", http.StatusConflict)
		return
	}
	prevStatus := v.Status

	var req vehicleRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.Status == store.VehicleOnTrip {
		h.jsonError(w, "status ON_TRIP can only be set by dispatching a trip", http.StatusBadRequest)
		return
	}
	if req.Name != "" {
		v.Name = req.Name
	}
	if req.Model != "" {
		v.Model = req.Model
	}
	if req.VehicleType != "" {
		v.VehicleType = req.VehicleType
	}
	if req.MaxCapacityKg > 0 {
		v.MaxCapacityKg = req.MaxCapacityKg
	}
	if req.OdometerKm > v.OdometerKm {
		v.OdometerKm = req.OdometerKm
	}
	if req.AcquisitionCost > 0 {
		v.AcquisitionCost = req.AcquisitionCost
	}
	if req.Status != "" {
		v.Status = req.Status
	}

	if err := h.engine.DB().UpdateVehicle(v); err != nil {
		log.Printf("www: update vehicle: %v", err)
		h.jsonError(w, "could not update vehicle", http.StatusInternalServerError)
		return
	}
	if v.Status != prevStatus {
		h.engine.DB().AppendAudit("vehicle", v.ID, "status", prevStatus, v.Status, h.actor(r))
		h.engine.Events.Emit(engine.Event{
			Type:    engine.EventVehicleStatusChanged,
			Payload: engine.VehicleStatusChangedEvent{VehicleID: v.ID, Status: v.Status},
		})
	}
	h.jsonOK(w, v)
}

func (h *Handlers) apiRetireVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	v, err := h.engine.DB().GetVehicle(id)
	if errors.Is(err, sql.ErrNoRows) {
		h.jsonError(w, "vehicle not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.jsonError(w, "could not load vehicle", http.StatusInternalServerError)
		return
	}
	if v.Status == store.VehicleOnTrip {
		h.jsonError(w, "vehicle is on a trip", http.StatusConflict)
		return
	}
	if err := h.engine.DB().RetireVehicle(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.jsonError(w, "vehicle not found", http.StatusNotFound)
			return
		}
		log.Printf("www: retire vehicle: %v", err)
		h.jsonError(w, "could not retire vehicle", http.StatusInternalServerError)
		return
	}
	h.engine.DB().AppendAudit("vehicle", id, "retired", v.Status, "", h.actor(r))
	h.engine.Events.Emit(engine.Event{
		Type:    engine.EventVehicleStatusChanged,
		Payload: engine.VehicleStatusChangedEvent{VehicleID: id, Status: "RETIRED"},
	})
	h.jsonOK(w, map[string]string{"status": "retired"})
}
