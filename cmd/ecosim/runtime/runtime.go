// Package runtime holds the control plane's in-memory registry of
// running scenarios, bridging the HTTP handlers in cmd/ecosim/api to
// the simulation's driver loop. A small mutex-guarded registry sits
// between the observer hub and the drivers rather than a
// database-backed session store, since scenarios live only as long as
// the process runs them.
package runtime

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/robfig/cron/v3"

	"landcycle/cmd/ecosim/observer"
	"landcycle/internal/ecosim/broadcast"
	"landcycle/internal/ecosim/cache"
	"landcycle/internal/ecosim/config"
	"landcycle/internal/ecosim/driver"
	"landcycle/internal/ecosim/ecosystem"
	"landcycle/internal/ecosim/eventlog"
	"landcycle/internal/ecosim/grid"
	"landcycle/internal/ecosim/imagery"
	"landcycle/internal/ecosim/seed"
	"landcycle/internal/ecosim/store"
)

// Scenario is one named, running simulation and everything wired to it:
// its driver, its observer push hub, and (if configured) its continuous
// tick schedule.
type Scenario struct {
	Name   string
	Driver *driver.Driver
	Hub    *observer.Hub
	Mode   imagery.MapMode

	mu        sync.Mutex
	cronEntry cron.EntryID
}

// Manager owns every scenario the control plane currently knows about,
// plus the optional shared infrastructure (checkpoint store, event log,
// query cache, tick broadcaster) that scenario handlers reach through.
type Manager struct {
	mu        sync.RWMutex
	scenarios map[string]*Scenario

	Store      store.Repository
	EventLog   *eventlog.Log
	QueryCache *cache.QueryCache
	Publishers map[string]*broadcast.Publisher

	// NATSConn, when set, causes every newly registered scenario to get
	// a tick-summary publisher for free.
	NATSConn *nats.Conn

	cron *cron.Cron
}

// NewManager constructs an empty registry. Store, EventLog, QueryCache
// may be left nil; callers check before using them so every piece of
// optional infrastructure degrades gracefully when its backing service
// isn't configured.
func NewManager() *Manager {
	c := cron.New()
	c.Start()
	return &Manager{
		scenarios:  make(map[string]*Scenario),
		Publishers: make(map[string]*broadcast.Publisher),
		cron:       c,
	}
}

// CreateFlat registers a new flat-world scenario named name: uniform
// bedrock under a thin humus blanket, the simplest starting terrain.
func (m *Manager) CreateFlat(name string, cfg *config.Config, concurrency int) (*Scenario, error) {
	eco := ecosystem.New(cfg)
	return m.register(name, eco, concurrency)
}

// CreateSyntheticMountain registers a scenario whose terrain is a
// Perlin-noise synthetic heightmap, seeded deterministically from name.
func (m *Manager) CreateSyntheticMountain(name string, cfg *config.Config, side int, amplitude float64, concurrency int) (*Scenario, error) {
	heights := imagery.GenerateSyntheticHeightmap(side, seed.FromName(name), amplitude)
	eco := ecosystem.ImportHeights(cfg, side, heights)
	return m.register(name, eco, concurrency)
}

// CreateFromHeightmap registers a scenario whose terrain is imported
// from an encoded heightmap image (PNG).
func (m *Manager) CreateFromHeightmap(name string, cfg *config.Config, data []byte, heightScale float64, concurrency int) (*Scenario, error) {
	eco, err := imagery.ImportHeightmap(cfg, data, heightScale)
	if err != nil {
		return nil, fmt.Errorf("importing heightmap for scenario %q: %w", name, err)
	}
	return m.register(name, eco, concurrency)
}

func (m *Manager) register(name string, eco *ecosystem.Ecosystem, concurrency int) (*Scenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.scenarios[name]; exists {
		return nil, fmt.Errorf("scenario %q already exists", name)
	}

	d := driver.New(eco, seed.FromName(name), concurrency)
	d.EventLog = m.EventLog
	d.Scenario = name
	s := &Scenario{Name: name, Driver: d, Hub: observer.NewHub(), Mode: imagery.MapModeStandard}
	m.scenarios[name] = s

	if m.NATSConn != nil {
		m.Publishers[name] = broadcast.NewPublisher(m.NATSConn, name)
	}
	return s, nil
}

// Get looks up a registered scenario by name.
func (m *Manager) Get(name string) (*Scenario, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scenarios[name]
	return s, ok
}

// Names lists every currently registered scenario.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.scenarios))
	for n := range m.scenarios {
		names = append(names, n)
	}
	return names
}

// Remove drops a scenario from the registry, stopping its continuous
// tick schedule if one is running.
func (m *Manager) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.scenarios[name]; ok {
		s.mu.Lock()
		if s.cronEntry != 0 {
			m.cron.Remove(s.cronEntry)
		}
		s.mu.Unlock()
	}
	delete(m.scenarios, name)
	delete(m.Publishers, name)
}

// Tick advances a scenario by one year, persists a checkpoint if a
// store is configured, publishes the resulting summary over NATS if a
// publisher is registered for the scenario, and pushes a render frame
// to the scenario's observer hub.
func (m *Manager) Tick(ctx context.Context, s *Scenario) (driver.Summary, error) {
	summary := s.Driver.Step(ctx)

	if m.Store != nil {
		if _, err := m.Store.SaveCheckpoint(ctx, s.Name, s.Driver.Ecosystem); err != nil {
			return summary, fmt.Errorf("saving checkpoint for scenario %q: %w", s.Name, err)
		}
	}

	if pub, ok := m.Publishers[s.Name]; ok {
		if err := pub.PublishTick(summary); err != nil {
			return summary, fmt.Errorf("publishing tick for scenario %q: %w", s.Name, err)
		}
	}

	frame, err := renderFrame(s)
	if err != nil {
		return summary, fmt.Errorf("rendering observer frame for scenario %q: %w", s.Name, err)
	}
	if err := s.Hub.Broadcast(frame); err != nil {
		return summary, fmt.Errorf("broadcasting observer frame for scenario %q: %w", s.Name, err)
	}

	return summary, nil
}

// StartContinuous schedules s to tick automatically on interval via the
// manager's cron scheduler, matching the control plane's "continuous
// tick" mode. Calling StartContinuous on a scenario that is already
// running replaces its existing schedule.
func (m *Manager) StartContinuous(ctx context.Context, s *Scenario, interval time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cronEntry != 0 {
		m.cron.Remove(s.cronEntry)
	}

	spec := fmt.Sprintf("@every %s", interval)
	entryID, err := m.cron.AddFunc(spec, func() {
		if _, err := m.Tick(ctx, s); err != nil {
			fmt.Printf("continuous tick error for scenario %q: %v\n", s.Name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling continuous tick for scenario %q: %w", s.Name, err)
	}
	s.cronEntry = entryID
	return nil
}

// StopContinuous cancels a scenario's continuous tick schedule, if any.
func (m *Manager) StopContinuous(s *Scenario) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cronEntry != 0 {
		m.cron.Remove(s.cronEntry)
		s.cronEntry = 0
	}
}

// SetMode changes which map mode a scenario renders for its observer
// hub and exported maps.
func (s *Scenario) SetMode(mode imagery.MapMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Mode = mode
}

// CurrentMode returns the scenario's currently selected map mode.
func (s *Scenario) CurrentMode() imagery.MapMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Mode
}

func renderFrame(s *Scenario) (observer.VertexColorFrame, error) {
	s.mu.Lock()
	mode := s.Mode
	s.mu.Unlock()

	eco := s.Driver.Ecosystem
	g := eco.Grid
	side := g.SideLength
	heights := make([]float64, g.NumCells())
	colors := make([]uint32, g.NumCells())
	minH, maxH := math.MaxFloat64, -math.MaxFloat64
	g.ForEachCell(func(idx grid.CellIndex) {
		h := g.At(idx).Height()
		if h < minH {
			minH = h
		}
		if h > maxH {
			maxH = h
		}
	})
	g.ForEachCell(func(idx grid.CellIndex) {
		flat := idx.Flat(side)
		cell := g.At(idx)
		heights[flat] = cell.Height()
		colors[flat] = imagery.CellColor(cell, mode, minH, maxH)
	})

	return observer.VertexColorFrame{
		Year:    eco.Year,
		Mode:    mode.String(),
		Side:    side,
		Heights: heights,
		Colors:  colors,
	}, nil
}
