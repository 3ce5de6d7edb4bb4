package api

import (
	"archive/zip"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"landcycle/cmd/ecosim/runtime"
	"landcycle/internal/ecosim/imagery"
)

// ExportHandler serves the control plane's PNG export routes.
type ExportHandler struct {
	manager *runtime.Manager
}

// NewExportHandler constructs an export handler bound to manager.
func NewExportHandler(manager *runtime.Manager) *ExportHandler {
	return &ExportHandler{manager: manager}
}

// Heightmap streams a scenario's current terrain as a grayscale PNG.
func (h *ExportHandler) Heightmap(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s, ok := h.manager.Get(name)
	if !ok {
		http.Error(w, "unknown scenario: "+name, http.StatusNotFound)
		return
	}

	data, err := imagery.ExportHeightmap(s.Driver.Ecosystem)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

// Map streams one of the false-color diagnostic views (standard
// material blend, hypsometric tint, sunlight, soil moisture) as a PNG,
// using the scenario's currently selected mode.
func (h *ExportHandler) Map(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s, ok := h.manager.Get(name)
	if !ok {
		http.Error(w, "unknown scenario: "+name, http.StatusNotFound)
		return
	}

	data, err := imagery.ExportMap(s.Driver.Ecosystem, s.CurrentMode())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

// Bundle streams the full per-tick map set (terrain, color,
// hypsometric, vegetation) as a zip archive, one PNG per map, named by
// the scenario's current year.
func (h *ExportHandler) Bundle(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s, ok := h.manager.Get(name)
	if !ok {
		http.Error(w, "unknown scenario: "+name, http.StatusNotFound)
		return
	}

	eco := s.Driver.Ecosystem
	maps, err := imagery.ExportAll(eco, eco.Year)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("%s-%d-maps.zip", name, eco.Year)))
	zw := zip.NewWriter(w)
	for fileName, data := range maps {
		f, err := zw.Create(fileName)
		if err != nil {
			return
		}
		if _, err := f.Write(data); err != nil {
			return
		}
	}
	_ = zw.Close()
}
