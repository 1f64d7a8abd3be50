package www

import (
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// apiAIProxy forwards /api/ai/* to the configured AI service and returns
// the raw response. The service holds its own models and keys, so browsers
// never talk to it directly.
func (h *Handlers) apiAIProxy(w http.ResponseWriter, r *http.Request) {
	cfg := h.engine.AppConfig().AI
	if cfg.BaseURL == "" {
		h.jsonError(w, "AI service not configured", http.StatusNotImplemented)
		return
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	path := "/" + chi.URLParam(r, "*")
	req, err := http.NewRequestWithContext(r.Context(), r.Method, cfg.BaseURL+path, r.Body)
	if err != nil {
		h.jsonError(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("www: ai proxy %s: %v", path, err)
		h.jsonError(w, "AI service unavailable", http.StatusServiceUnavailable)
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", resp.Header.Get("Content-Type"))
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}
