// Package api holds the control plane's HTTP handler types, one per
// concern, so cmd/ecosim/main.go stays a thin wiring file.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"landcycle/cmd/ecosim/runtime"
	"landcycle/internal/ecosim/config"
	"landcycle/internal/ecosim/imagery"
)

// ScenarioHandler serves the scenario lifecycle and tick-driving routes.
type ScenarioHandler struct {
	manager     *runtime.Manager
	cfg         *config.Config
	concurrency int
}

// NewScenarioHandler constructs a handler bound to manager, using cfg
// as the baseline configuration for newly created scenarios.
func NewScenarioHandler(manager *runtime.Manager, cfg *config.Config, concurrency int) *ScenarioHandler {
	return &ScenarioHandler{manager: manager, cfg: cfg, concurrency: concurrency}
}

type createScenarioRequest struct {
	Name      string  `json:"name"`
	Kind      string  `json:"kind"` // "flat" | "synthetic" | "heightmap"
	Side      int     `json:"side,omitempty"`
	Amplitude float64 `json:"amplitude,omitempty"`
}

// Create registers a new scenario: a flat plain, a synthetic Perlin
// mountain, or (via UploadHeightmap) an imported heightmap.
func (h *ScenarioHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	var (
		scenario interface{}
		err      error
	)
	switch req.Kind {
	case "", "flat":
		scenario, err = h.manager.CreateFlat(req.Name, h.cfg, h.concurrency)
	case "synthetic":
		side := req.Side
		if side <= 0 {
			side = h.cfg.AreaSide()
		}
		amplitude := req.Amplitude
		if amplitude <= 0 {
			amplitude = h.cfg.DefaultBedrockHeight
		}
		scenario, err = h.manager.CreateSyntheticMountain(req.Name, h.cfg, side, amplitude, h.concurrency)
	default:
		http.Error(w, "unknown scenario kind: "+req.Kind, http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"name": req.Name, "scenario": scenario != nil})
}

// UploadHeightmap registers a new scenario whose terrain is imported
// from a PNG heightmap posted as the request body.
func (h *ScenarioHandler) UploadHeightmap(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "name query parameter is required", http.StatusBadRequest)
		return
	}
	heightScale := 1.0

	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read heightmap body", http.StatusBadRequest)
		return
	}

	if _, err := h.manager.CreateFromHeightmap(name, h.cfg, data, heightScale, h.concurrency); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": name})
}

// List reports every currently registered scenario name.
func (h *ScenarioHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"scenarios": h.manager.Names()})
}

// Delete removes a scenario and stops any continuous tick schedule for it.
func (h *ScenarioHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	h.manager.Remove(name)
	w.WriteHeader(http.StatusNoContent)
}

// Tick advances one named scenario by one simulated year and returns
// the resulting summary.
func (h *ScenarioHandler) Tick(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s, ok := h.manager.Get(name)
	if !ok {
		http.Error(w, "unknown scenario: "+name, http.StatusNotFound)
		return
	}

	summary, err := h.manager.Tick(r.Context(), s)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type continuousRequest struct {
	IntervalSeconds int  `json:"interval_seconds"`
	Stop            bool `json:"stop"`
}

// Continuous toggles a scenario's automatic tick schedule on or off.
func (h *ScenarioHandler) Continuous(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s, ok := h.manager.Get(name)
	if !ok {
		http.Error(w, "unknown scenario: "+name, http.StatusNotFound)
		return
	}

	var req continuousRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Stop {
		h.manager.StopContinuous(s)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	interval := time.Duration(req.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if err := h.manager.StartContinuous(r.Context(), s, interval); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type modeRequest struct {
	Mode string `json:"mode"`
}

// Mode switches which false-color rendering a scenario's observer hub
// and exports use.
func (h *ScenarioHandler) Mode(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s, ok := h.manager.Get(name)
	if !ok {
		http.Error(w, "unknown scenario: "+name, http.StatusNotFound)
		return
	}

	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	mode, ok := imagery.ParseMapMode(req.Mode)
	if !ok {
		http.Error(w, "unknown map mode: "+req.Mode, http.StatusBadRequest)
		return
	}
	s.SetMode(mode)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
