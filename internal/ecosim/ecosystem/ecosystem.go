// Package ecosystem ties the grid, wind state, and configuration
// together into the single simulated world the event kernels and driver
// operate on, along with a handful of starting-scenario constructors: a
// bare flat world, a world seeded for kernel testing, and a world with
// a few deliberately piled hills of loose material.
package ecosystem

import (
	"math"
	"math/rand"

	"landcycle/internal/ecosim/config"
	"landcycle/internal/ecosim/grid"
	"landcycle/internal/ecosim/wind"
)

// Ecosystem is the complete simulated world: the cell grid, the current
// wind condition, and the configuration constants everything else reads
// from.
type Ecosystem struct {
	Grid   *grid.Grid
	Wind   *wind.State
	Config *config.Config

	// Year is the number of simulated years elapsed since creation.
	Year int
}

// New constructs a flat ecosystem at the default bedrock and humus
// heights from cfg, the baseline starting scenario.
func New(cfg *config.Config) *Ecosystem {
	g := grid.NewGrid(cfg.AreaSide(), cfg.CellSide(), cfg.DefaultBedrockHeight)
	g.ForEachCell(func(idx grid.CellIndex) {
		g.At(idx).AddHumus(cfg.DefaultHumusHeight)
	})
	return &Ecosystem{
		Grid:   g,
		Wind:   wind.NewState(cfg),
		Config: cfg,
	}
}

// NewTest builds a small, deterministic ecosystem intended for exercising
// individual event kernels in isolation: a flat bedrock plain with no
// humus and no vegetation.
func NewTest(cfg *config.Config, sideLength int) *Ecosystem {
	g := grid.NewGrid(sideLength, cfg.CellSide(), cfg.DefaultBedrockHeight)
	return &Ecosystem{
		Grid:   g,
		Wind:   wind.NewState(cfg),
		Config: cfg,
	}
}

// NewWithPiles builds an ecosystem like New but pushes a handful of
// randomly placed conical piles of loose sand and rock onto the humus
// plain, giving the granular slide kernels a non-trivial starting
// relief to work against.
func NewWithPiles(cfg *config.Config, rng *rand.Rand, numPiles int, pileHeight, pileRadius float64) *Ecosystem {
	e := New(cfg)
	side := e.Grid.SideLength
	for p := 0; p < numPiles; p++ {
		cx := rng.Intn(side)
		cy := rng.Intn(side)
		r := int(pileRadius)
		for dx := -r; dx <= r; dx++ {
			for dy := -r; dy <= r; dy++ {
				x, y := cx+dx, cy+dy
				if x < 0 || x >= side || y < 0 || y >= side {
					continue
				}
				dist := dxDyDistance(dx, dy)
				if dist > pileRadius {
					continue
				}
				h := pileHeight * (1.0 - dist/pileRadius)
				idx := grid.NewCellIndex(x, y)
				if p%2 == 0 {
					e.Grid.At(idx).AddSand(h)
				} else {
					e.Grid.At(idx).AddRocks(h)
				}
			}
		}
	}
	return e
}

func dxDyDistance(dx, dy int) float64 {
	fx, fy := float64(dx), float64(dy)
	return math.Hypot(fx, fy)
}

// ImportHeights builds an ecosystem whose bedrock heights come from an
// externally supplied grid of elevation samples (e.g. a decoded
// heightmap image). The
// supplied heights slice must have length sideLength*sideLength in
// row-major (x + y*sideLength) order. Humus is seeded after all bedrock
// is placed, thickest on level ground and falling off with the square
// of the steepest local slope, since loose organic soil cannot
// accumulate on steep faces.
func ImportHeights(cfg *config.Config, sideLength int, heights []float64) *Ecosystem {
	g := grid.NewGrid(sideLength, cfg.CellSide(), 0)
	g.ForEachCell(func(idx grid.CellIndex) {
		g.At(idx).BedrockHeight = heights[idx.Flat(sideLength)]
	})
	falloff := make([]float64, sideLength*sideLength)
	g.ForEachCell(func(idx grid.CellIndex) {
		falloff[idx.Flat(sideLength)] = humusSlopeFalloff(g, idx)
	})
	g.ForEachCell(func(idx grid.CellIndex) {
		g.At(idx).AddHumus(cfg.DefaultHumusHeight * falloff[idx.Flat(sideLength)])
	})
	return &Ecosystem{
		Grid:   g,
		Wind:   wind.NewState(cfg),
		Config: cfg,
	}
}

// humusSlopeFalloff is exp(-3*s^2) for the steepest slope magnitude s
// around a cell: 1 on level ground, about 0.22 (roughly a fifth) at a
// 45-degree face.
func humusSlopeFalloff(g *grid.Grid, idx grid.CellIndex) float64 {
	var maxSlope float64
	for _, n := range g.Neighbors(idx) {
		if s := math.Abs(g.SlopeBetween(idx, n)); s > maxSlope {
			maxSlope = s
		}
	}
	return math.Exp(-maxSlope * maxSlope / (1.0 / 3.0))
}
