package www

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"fleetflow/engine"
	"fleetflow/store"
)

func (h *Handlers) apiListDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.engine.DB().ListDrivers(r.URL.Query().Get("status"))
	if err != nil {
		log.Printf("www: list drivers: %v", err)
		h.jsonError(w, "could not list drivers", http.StatusInternalServerError)
		return
	}
	if drivers == nil {
		drivers = []*store.Driver{}
	}
	h.jsonOK(w, drivers)
}

type driverRequest struct {
	Name          string  `json:"name"`
	LicenseNumber string  `json:"license_number"`
	LicenseExpiry string  `json:"license_expiry"`
	Phone         string  `json:"phone"`
	Email         string  `json:"email"`
	Status        string  `json:"status"`
	SafetyScore   float64 `json:"safety_score"`
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func (h *Handlers) apiCreateDriver(w http.ResponseWriter, r *http.Request) {
	var req driverRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.LicenseNumber == "" {
		h.jsonError(w, "name and license_number are required", http.StatusBadRequest)
		return
	}
	expiry, err := parseDate(req.LicenseExpiry)
	if err != nil {
		h.jsonError(w, "invalid license_expiry (expected YYYY-MM-DD)", http.StatusBadRequest)
		return
	}
	if !expiry.After(time.Now()) {
		h.jsonError(w, "license is already expired", http.StatusBadRequest)
		return
	}
	d := &store.Driver{
		Name:          req.Name,
		LicenseNumber: req.LicenseNumber,
		LicenseExpiry: expiry,
		Phone:         req.Phone,
		Email:         req.Email,
		Status:        req.Status,
		SafetyScore:   req.SafetyScore,
	}
	if err := h.engine.DB().CreateDriver(d); err != nil {
		log.Printf("www: create driver: %v", err)
		h.jsonError(w, "could not create driver", http.StatusInternalServerError)
		return
	}
	h.jsonCreated(w, d)
}

func (h *Handlers) apiGetDriver(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	d, err := h.engine.DB().GetDriver(id)
	if errors.Is(err, sql.ErrNoRows) {
		h.jsonError(w, "driver not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.jsonError(w, "could not load driver", http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, d)
}

func (h *Handlers) apiUpdateDriver(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	d, err := h.engine.DB().GetDriver(id)
	if errors.Is(err, sql.ErrNoRows) {
		h.jsonError(w, "driver not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.jsonError(w, "could not load driver", http.StatusInternalServerError)
		return
	}

	if d.Status == store.DriverOnTrip {
		h.jsonError(w, "driver is on a trip", http.StatusConflict)
		return
	}
	prevStatus := d.Status

	var req driverRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.Status == store.DriverOnTrip {
		h.jsonError(w, "status ON_TRIP can only be set by dispatching a trip", http.StatusBadRequest)
		return
	}
	if req.Name != "" {
		d.Name = req.Name
	}
	if req.LicenseExpiry != "" {
		expiry, err := parseDate(req.LicenseExpiry)
		if err != nil {
			h.jsonError(w, "invalid license_expiry (expected YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		d.LicenseExpiry = expiry
	}
	if req.Phone != "" {
		d.Phone = req.Phone
	}
	if req.Email != "" {
		d.Email = req.Email
	}
	if req.Status != "" {
		d.Status = req.Status
	}
	if req.SafetyScore > 0 {
		d.SafetyScore = req.SafetyScore
	}

	if err := h.engine.DB().UpdateDriver(d); err != nil {
		log.Printf("www: update driver: %v", err)
		h.jsonError(w, "could not update driver", http.StatusInternalServerError)
		return
	}
	if d.Status != prevStatus {
		h.engine.DB().AppendAudit("driver", d.ID, "status", prevStatus, d.Status, h.actor(r))
		h.engine.Events.Emit(engine.Event{
			Type:    engine.EventDriverStatusChanged,
			Payload: engine.DriverStatusChangedEvent{DriverID: d.ID, Status: d.Status},
		})
	}
	h.jsonOK(w, d)
}

func (h *Handlers) apiDeleteDriver(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	d, err := h.engine.DB().GetDriver(id)
	if errors.Is(err, sql.ErrNoRows) {
		h.jsonError(w, "driver not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.jsonError(w, "could not load driver", http.StatusInternalServerError)
		return
	}
	if d.Status == store.DriverOnTrip {
		h.jsonError(w, "driver is on a trip", http.StatusConflict)
		return
	}
	if err := h.engine.DB().DeleteDriver(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.jsonError(w, "driver not found", http.StatusNotFound)
			return
		}
		log.Printf("www: delete driver: %v", err)
		h.jsonError(w, "could not delete driver", http.StatusInternalServerError)
		return
	}
	h.engine.DB().AppendAudit("driver", id, "deleted", d.Status, "", h.actor(r))
	h.engine.Events.Emit(engine.Event{
		Type:    engine.EventDriverStatusChanged,
		Payload: engine.DriverStatusChangedEvent{DriverID: id, Status: "DELETED"},
	})
	h.jsonOK(w, map[string]string{"status": "deleted"})
}
