package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"landcycle/cmd/ecosim/runtime"
	"landcycle/internal/ecosim/cache"
	"landcycle/internal/ecosim/grid"
)

// SunlightHandler serves a scenario's per-cell monthly hours-of-sunlight
// readings, fronted by the control plane's Redis query cache when one is
// configured so repeated Observer polling between ticks doesn't force a
// re-read of the in-memory grid.
type SunlightHandler struct {
	manager *runtime.Manager
}

// NewSunlightHandler constructs a sunlight handler bound to manager.
func NewSunlightHandler(manager *runtime.Manager) *SunlightHandler {
	return &SunlightHandler{manager: manager}
}

// Cell returns the [12]float64 hours-of-sunlight array for one cell of a
// scenario's current year.
func (h *SunlightHandler) Cell(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s, ok := h.manager.Get(name)
	if !ok {
		http.Error(w, "unknown scenario: "+name, http.StatusNotFound)
		return
	}

	x, err := strconv.Atoi(chi.URLParam(r, "x"))
	if err != nil {
		http.Error(w, "invalid x", http.StatusBadRequest)
		return
	}
	y, err := strconv.Atoi(chi.URLParam(r, "y"))
	if err != nil {
		http.Error(w, "invalid y", http.StatusBadRequest)
		return
	}

	eco := s.Driver.Ecosystem
	idx := grid.NewCellIndex(x, y)
	if !eco.Grid.InBounds(idx) {
		http.Error(w, "cell out of range", http.StatusBadRequest)
		return
	}
	loader := func() (interface{}, error) {
		cell := eco.Grid.At(idx)
		hours := cell.HoursOfSunlight
		return hours[:], nil
	}

	var hours []float64
	if h.manager.QueryCache != nil {
		key := cache.SunlightKey(name, eco.Year, x, y)
		if err := h.manager.QueryCache.GetOrSet(r.Context(), key, &hours, loader); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	} else {
		raw, err := loader()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		hours = raw.([]float64)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scenario":          name,
		"year":              eco.Year,
		"x":                 x,
		"y":                 y,
		"hours_of_sunlight": hours,
	})
}
