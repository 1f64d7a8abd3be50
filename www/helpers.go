package www

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fleetflow/dispatch"
)

func (h *Handlers) jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) jsonCreated(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handlers) urlID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// dispatchError maps trip lifecycle failures to HTTP codes: missing rows
// are 404, state conflicts 409, business rule violations 422, everything
// else 500.
func (h *Handlers) dispatchError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch dispatch.KindOf(err) {
	case dispatch.KindNotFound:
		code = http.StatusNotFound
	case dispatch.KindInvalidTransition, dispatch.KindResourceUnavailable:
		code = http.StatusConflict
	case dispatch.KindLicenseExpired, dispatch.KindCapacityExceeded:
		code = http.StatusUnprocessableEntity
	}
	h.jsonError(w, err.Error(), code)
}
