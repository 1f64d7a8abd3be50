package www

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"fleetflow/store"
)

func (h *Handlers) apiListFuelLogs(w http.ResponseWriter, r *http.Request) {
	vehicleID, _ := strconv.ParseInt(r.URL.Query().Get("vehicle_id"), 10, 64)
	logs, err := h.engine.DB().ListFuelLogs(vehicleID)
	if err != nil {
		log.Printf("www: list fuel logs: %v", err)
		h.jsonError(w, "could not list fuel logs", http.StatusInternalServerError)
		return
	}
	if logs == nil {
		logs = []*store.FuelLog{}
	}
	h.jsonOK(w, logs)
}

type fuelLogRequest struct {
	VehicleID  int64   `json:"vehicle_id"`
	TripID     *int64  `json:"trip_id"`
	Liters     float64 `json:"liters"`
	Cost       float64 `json:"cost"`
	FuelDate   string  `json:"fuel_date"`
	OdometerKm float64 `json:"odometer_km"`
}

func (h *Handlers) apiCreateFuelLog(w http.ResponseWriter, r *http.Request) {
	var req fuelLogRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.VehicleID == 0 || req.Liters <= 0 || req.Cost < 0 {
		h.jsonError(w, "vehicle_id and positive liters are required", http.StatusBadRequest)
		return
	}
	if _, err := h.engine.DB().GetVehicle(req.VehicleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.jsonError(w, "vehicle not found", http.StatusNotFound)
			return
		}
		h.jsonError(w, "could not load vehicle", http.StatusInternalServerError)
		return
	}
	fuelDate := time.Now()
	if req.FuelDate != "" {
		parsed, err := parseDate(req.FuelDate)
		if err != nil {
			h.jsonError(w, "invalid fuel_date (expected YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		fuelDate = parsed
	}
	var userID int64
	if u := userFrom(r.Context()); u != nil {
		userID = u.ID
	}
	f := &store.FuelLog{
		VehicleID:  req.VehicleID,
		TripID:     req.TripID,
		Liters:     req.Liters,
		Cost:       req.Cost,
		FuelDate:   fuelDate,
		OdometerKm: req.OdometerKm,
		CreatedBy:  userID,
	}
	if err := h.engine.DB().CreateFuelLog(f); err != nil {
		log.Printf("www: create fuel log: %v", err)
		h.jsonError(w, "could not create fuel log", http.StatusInternalServerError)
		return
	}
	h.jsonCreated(w, f)
}

func (h *Handlers) apiUpdateFuelLog(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	f, err := h.engine.DB().GetFuelLog(id)
	if errors.Is(err, sql.ErrNoRows) {
		h.jsonError(w, "fuel log not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.jsonError(w, "could not load fuel log", http.StatusInternalServerError)
		return
	}

	var req fuelLogRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.TripID != nil {
		f.TripID = req.TripID
	}
	if req.Liters > 0 {
		f.Liters = req.Liters
	}
	if req.Cost > 0 {
		f.Cost = req.Cost
	}
	if req.FuelDate != "" {
		parsed, err := parseDate(req.FuelDate)
		if err != nil {
			h.jsonError(w, "invalid fuel_date (expected YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		f.FuelDate = parsed
	}
	if req.OdometerKm > 0 {
		f.OdometerKm = req.OdometerKm
	}
	if err := h.engine.DB().UpdateFuelLog(f); err != nil {
		log.Printf("www: update fuel log: %v", err)
		h.jsonError(w, "could not update fuel log", http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, f)
}

func (h *Handlers) apiDeleteFuelLog(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	if err := h.engine.DB().DeleteFuelLog(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.jsonError(w, "fuel log not found", http.StatusNotFound)
			return
		}
		log.Printf("www: delete fuel log: %v", err)
		h.jsonError(w, "could not delete fuel log", http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]string{"status": "deleted"})
}

func (h *Handlers) apiGetFuelLog(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	f, err := h.engine.DB().GetFuelLog(id)
	if errors.Is(err, sql.ErrNoRows) {
		h.jsonError(w, "fuel log not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.jsonError(w, "could not load fuel log", http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, f)
}
