package events

import (
	"math/rand"

	"landcycle/internal/ecosim/config"
	"landcycle/internal/ecosim/grid"
	"landcycle/internal/ecosim/wind"
)

// Wind lifts a carrying-capacity's worth of sand from idx, transports it
// downwind (wrapping toroidally, since wind is not bounded by the area
// edge the way terrain height is), and either bounces it onward or lets
// it settle, with a reptation step moving a little more sand to the
// landing cell's two steepest downhill neighbors either way. Returns the
// landing cell and whether the kernel should re-fire there (bounce).
func Wind(g *grid.Grid, idx grid.CellIndex, ws *wind.State, cfg *config.Config, rng *rand.Rand) (grid.CellIndex, bool) {
	windDir, windStr := ws.LocalWind(g, idx, cfg, ws.Direction, ws.Strength)

	cell := g.At(idx)
	movedHeight := fMin(cfg.WindCarryingCapacity, cell.SandHeight)
	cell.RemoveSand(movedHeight)

	shadowing := wind.Shadowing(g, idx, windDir)
	distance := wind.SaltationDistance(cfg, windStr)
	dir := wind.DirectionVector(windDir)

	targetX := idx.X + int(dir.X*distance)
	targetY := idx.Y + int(dir.Y*distance)
	target := g.WrapToroidal(targetX, targetY)

	g.At(target).AddSand(movedHeight)

	// A high bounce probability means the parcel is likely to settle:
	// shadowed and sandy ground raise it and trap sand, denser vegetation
	// lowers it, and the parcel bounces onward only when the draw clears
	// the probability.
	bounceProbability := wind.BounceProbability(g, target, shadowing)
	bounces := rng.Float64() > bounceProbability

	performReptation(g, cfg, target, movedHeight)

	return target, bounces
}

// performReptation moves a small amount of the sand now at target
// toward its two steepest downhill neighbors, splitting proportionally
// to their slopes (or evenly if both are flat).
func performReptation(g *grid.Grid, cfg *config.Config, target grid.CellIndex, movedHeight float64) {
	targetCell := g.At(target)
	usableSand := fMax(targetCell.SandHeight-movedHeight, 0)
	reptationHeight := fMin(cfg.WindReptationHeight, usableSand)

	first, second := wind.TwoSteepestNeighbors(g, target)
	if first == nil {
		return
	}
	targetCell.RemoveSand(reptationHeight)

	if second == nil {
		g.At(first.Index).AddSand(reptationHeight)
		return
	}

	var ratio float64
	if first.Slope+second.Slope == 0 {
		ratio = 0.5
	} else {
		ratio = first.Slope / (first.Slope + second.Slope)
	}
	forFirst := ratio * reptationHeight
	forSecond := reptationHeight - forFirst
	g.At(first.Index).AddSand(forFirst)
	g.At(second.Index).AddSand(forSecond)
}

func fMin(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func fMax(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
