package server

import (
	"net/http"

	"github.com/desertthunder/stacks/internal/shared"
)

// StatusHandler serves the read-only HTTP endpoints.
type StatusHandler struct {
	player Player
}

// Health always answers {"status":"ok"}.
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// State answers with the current engine snapshot.
func (h *StatusHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.player.State())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	data, err := shared.MarshalJSON(v, false)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}
