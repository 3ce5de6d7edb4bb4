package api

import (
	"net/http"
	"sync/atomic"
)

// HealthHandler serves liveness checks and tracks the number of
// connected observer sockets, exposing a live connection gauge
// alongside a bare OK.
type HealthHandler struct {
	connectedObservers int64
}

// NewHealthHandler constructs an empty health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// SetConnectedObservers records the current observer socket count for
// reporting on the next health check.
func (h *HealthHandler) SetConnectedObservers(count int64) {
	atomic.StoreInt64(&h.connectedObservers, count)
}

// ServeHTTP reports liveness and the current observer count as JSON.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":              "ok",
		"connected_observers": atomic.LoadInt64(&h.connectedObservers),
	})
}
