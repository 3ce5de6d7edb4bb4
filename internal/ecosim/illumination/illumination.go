// Package illumination estimates the average daily hours of direct
// sunlight each cell receives in each month by ray-tracing the sun's
// hourly position in the sky against the tessellated terrain surface.
// The per-cell work is independent, so it is parallelized with a
// semaphore-bounded worker pool.
package illumination

import (
	"sync"
	"sync/atomic"

	"landcycle/internal/ecosim/config"
	"landcycle/internal/ecosim/geometry"
	"landcycle/internal/ecosim/grid"
	"landcycle/internal/ecosim/solar"
	"landcycle/internal/metrics"
)

// Engine owns the tessellated terrain cache (one tet per interior cell
// quad) and recomputes it whenever the terrain has changed enough to
// warrant a refresh.
type Engine struct {
	cfg         *config.Config
	concurrency int
	tets        []geometry.CellTetrahedron
	tetSide     int
}

// NewEngine constructs an illumination engine bounded to run at most
// concurrency ray-tracing workers at once. A concurrency of 0 or less
// defaults to 4.
func NewEngine(cfg *config.Config, concurrency int) *Engine {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Engine{cfg: cfg, concurrency: concurrency}
}

// RebuildTets reconstructs the cached tetrahedron tessellation from the
// grid's current heights. Call this whenever terrain has changed before
// the next Recompute — an edge row/column of cells is excluded since a
// quad needs a cell to its right and below.
func (e *Engine) RebuildTets(g *grid.Grid) {
	side := g.SideLength - 1
	e.tetSide = side
	tets := make([]geometry.CellTetrahedron, side*side)
	for x := 0; x < side; x++ {
		for y := 0; y < side; y++ {
			tl := grid.NewCellIndex(x, y)
			tr := grid.NewCellIndex(x+1, y)
			bl := grid.NewCellIndex(x, y+1)
			br := grid.NewCellIndex(x+1, y+1)
			tets[x+y*side] = geometry.NewCellTetrahedron(
				cellVertex(g, tl),
				cellVertex(g, tr),
				cellVertex(g, bl),
				cellVertex(g, br),
			)
		}
	}
	e.tets = tets
}

func cellVertex(g *grid.Grid, idx grid.CellIndex) geometry.Vec3 {
	x, y := g.PositionOf(idx)
	return geometry.Vec3{X: x, Y: y, Z: g.At(idx).Height()}
}

// Recompute ray-traces every cell's monthly sunlight hours in parallel
// and writes the result into each cell's HoursOfSunlight field.
func (e *Engine) Recompute(g *grid.Grid) {
	type job struct{ idx grid.CellIndex }
	jobs := make(chan job)
	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup
	var active int64

	go func() {
		for x := 0; x < g.SideLength; x++ {
			for y := 0; y < g.SideLength; y++ {
				jobs <- job{idx: grid.NewCellIndex(x, y)}
			}
		}
		close(jobs)
	}()

	for j := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		metrics.SetIlluminationWorkers(int(atomic.AddInt64(&active, 1)))
		go func(j job) {
			defer wg.Done()
			defer func() {
				<-sem
				metrics.SetIlluminationWorkers(int(atomic.AddInt64(&active, -1)))
			}()
			hours := e.hoursOfSunlightForCell(g, j.idx)
			cell := g.At(j.idx)
			cell.HoursOfSunlight = hours
		}(j)
	}
	wg.Wait()
}

func (e *Engine) hoursOfSunlightForCell(g *grid.Grid, idx grid.CellIndex) [12]float64 {
	var monthly [12]float64
	for m := 0; m < 12; m++ {
		monthly[m] = e.rayTraceIllumination(g, idx, m)
	}
	return monthly
}

// rayTraceIllumination traces the sun's hourly position across the sky
// on the first of the given month and counts the hours the sun is both
// above the horizon and unobstructed by terrain, scaled by the fraction
// of sunny days.
func (e *Engine) rayTraceIllumination(g *grid.Grid, idx grid.CellIndex, month int) float64 {
	hoursOfSun := 0
	x, y := g.PositionOf(idx)
	center := geometry.Vec3{X: x + 0.5, Y: y + 0.5, Z: g.At(idx).Height()}

	cfg := e.cfg
	for hour := 0; hour < 24; hour++ {
		pos := solar.AzimuthElevation(month, float64(hour), cfg.Latitude, cfg.Longitude, cfg.Timezone)
		if pos.ElevationRad <= 0 {
			continue
		}
		sunDir := geometry.SphericalToCartesian(pos.AzimuthRad, pos.ElevationRad)
		origin := center.Add(sunDir.Scale(0.01))

		blocked := false
		for _, tet := range e.tets {
			if tet.Intersects(origin, sunDir) {
				blocked = true
				break
			}
		}
		if !blocked {
			hoursOfSun++
		}
	}
	return float64(hoursOfSun) * cfg.PercentSunnyDays
}

// EstimateSimple returns the un-ray-traced average sunlight hours for a
// month, used when the illumination cache has not yet been warmed (e.g.
// right after import, before the first Recompute).
func EstimateSimple(cfg *config.Config, month int) float64 {
	return cfg.AverageSunlightHours[month]
}
