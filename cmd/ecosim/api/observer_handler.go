package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"landcycle/cmd/ecosim/runtime"
)

// ObserverHandler upgrades a scenario's observer route to a websocket
// connection on that scenario's push hub.
type ObserverHandler struct {
	manager *runtime.Manager
}

// NewObserverHandler constructs an observer handler bound to manager.
func NewObserverHandler(manager *runtime.Manager) *ObserverHandler {
	return &ObserverHandler{manager: manager}
}

// ServeHTTP upgrades the request and registers the connection with the
// named scenario's hub.
func (h *ObserverHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s, ok := h.manager.Get(name)
	if !ok {
		http.Error(w, "unknown scenario: "+name, http.StatusNotFound)
		return
	}
	s.Hub.ServeWS(w, r)
}

// ObserverCount reports the total number of observer sockets connected
// across every registered scenario, for the health handler's gauge.
func ObserverCount(manager *runtime.Manager) int64 {
	var total int64
	for _, name := range manager.Names() {
		if s, ok := manager.Get(name); ok {
			total += int64(s.Hub.ClientCount())
		}
	}
	return total
}
