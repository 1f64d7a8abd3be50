package www

import (
	"log"
	"net/http"

	"fleetflow/dispatch"
	"fleetflow/store"
)

func (h *Handlers) apiListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := h.engine.Dispatcher().ListTrips()
	if err != nil {
		log.Printf("www: list trips: %v", err)
		h.jsonError(w, "could not list trips", http.StatusInternalServerError)
		return
	}
	if trips == nil {
		trips = []*store.TripDetail{}
	}
	h.jsonOK(w, trips)
}

func (h *Handlers) apiCreateTrip(w http.ResponseWriter, r *http.Request) {
	var req dispatch.CreateDraftRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.VehicleID == 0 || req.DriverID == 0 || req.Origin == "" || req.Destination == "" {
		h.jsonError(w, "vehicle_id, driver_id, origin and destination are required", http.StatusBadRequest)
		return
	}
	var userID int64
	if u := userFrom(r.Context()); u != nil {
		userID = u.ID
	}
	trip, err := h.engine.Dispatcher().CreateDraft(req, userID)
	if err != nil {
		h.dispatchError(w, err)
		return
	}
	h.jsonCreated(w, trip)
}

func (h *Handlers) apiGetTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	trip, err := h.engine.Dispatcher().Get(id)
	if err != nil {
		h.dispatchError(w, err)
		return
	}
	h.jsonOK(w, trip)
}

func (h *Handlers) apiDispatchTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	trip, err := h.engine.Dispatcher().Dispatch(id, h.actor(r))
	if err != nil {
		h.dispatchError(w, err)
		return
	}
	h.jsonOK(w, trip)
}

type completeTripRequest struct {
	EndOdometer *float64 `json:"end_odometer"`
	Revenue     float64  `json:"revenue"`
}

func (h *Handlers) apiCompleteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	var req completeTripRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	trip, err := h.engine.Dispatcher().Complete(id, req.EndOdometer, req.Revenue, h.actor(r))
	if err != nil {
		h.dispatchError(w, err)
		return
	}
	h.jsonOK(w, trip)
}

func (h *Handlers) apiCancelTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	if err := h.engine.Dispatcher().Cancel(id, h.actor(r)); err != nil {
		h.dispatchError(w, err)
		return
	}
	h.jsonOK(w, map[string]string{"status": "cancelled"})
}
