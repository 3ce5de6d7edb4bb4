// Package events implements the per-cell event kernels the driver
// applies each tick: granular slides, lightning strikes, thermal-stress
// fracturing, rainfall/erosion, wind transport, and vegetation
// population updates. The slide kernels for rock, sand, and humus are
// structurally identical and collapse into a single kernel
// parameterized by a Material accessor and a critical angle, rather
// than three near-duplicate functions.
package events

import (
	"math"
	"math/rand"

	"landcycle/internal/ecosim/grid"
)

// Material names one of the grid's loose (non-bedrock) layers that can
// participate in a granular slide.
type Material int

const (
	MaterialRock Material = iota
	MaterialSand
	MaterialHumus
)

// height returns the amount of this material currently at a cell.
func (m Material) height(c *grid.Cell) float64 {
	switch m {
	case MaterialRock:
		return c.RockHeight
	case MaterialSand:
		return c.SandHeight
	default:
		return c.HumusHeight
	}
}

// add adds (or, if negative, removes) this material at a cell.
func (m Material) add(c *grid.Cell, amount float64) {
	switch m {
	case MaterialRock:
		if amount >= 0 {
			c.AddRocks(amount)
		} else {
			c.RemoveRocks(-amount)
		}
	case MaterialSand:
		if amount >= 0 {
			c.AddSand(amount)
		} else {
			c.RemoveSand(-amount)
		}
	default:
		if amount >= 0 {
			c.AddHumus(amount)
		} else {
			c.RemoveHumus(-amount)
		}
	}
}

// CriticalAngles is the subset of the config constants the slide kernel
// needs, narrowed so this package does not import config directly.
type CriticalAngles struct {
	Rock, Sand, SandVegetated, Humus float64
}

func criticalAngleFor(m Material, cfg CriticalAngles, vegetated bool) float64 {
	switch m {
	case MaterialRock:
		return cfg.Rock
	case MaterialHumus:
		return cfg.Humus
	default:
		if vegetated {
			return cfg.SandVegetated
		}
		return cfg.Sand
	}
}

// Slide finds every neighbor of idx whose slope away from idx exceeds
// the material's critical angle, picks one at random weighted by slope
// (steeper neighbors are more likely), and moves half the excess height
// toward it. Reports the neighbor material moved to, or false if the
// cell is not steep enough anywhere to slide.
func Slide(g *grid.Grid, idx grid.CellIndex, m Material, cfg CriticalAngles, rng *rand.Rand) (grid.CellIndex, bool) {
	source := g.At(idx)
	if m.height(source) <= 0 {
		return grid.CellIndex{}, false
	}

	vegetated := source.EstimateVegetationDensity() > 0.1
	critical := criticalAngleFor(m, cfg, vegetated)

	type candidate struct {
		idx   grid.CellIndex
		slope float64
	}
	var candidates []candidate
	var slopeSum float64
	for _, n := range g.Neighbors(idx) {
		slope := g.SlopeBetween(idx, n)
		angle := grid.Angle(slope)
		if angle >= critical {
			candidates = append(candidates, candidate{idx: n, slope: slope})
			slopeSum += slope
		}
	}
	if len(candidates) == 0 || slopeSum == 0 {
		return grid.CellIndex{}, false
	}

	roll := rng.Float64()
	var target grid.CellIndex
	found := false
	for _, c := range candidates {
		roll -= c.slope / slopeSum
		if roll < 0 {
			target = c.idx
			found = true
			break
		}
	}
	if !found {
		target = candidates[len(candidates)-1].idx
	}

	amount := heightToSlide(g, idx, target, m, critical)
	if amount <= 0 {
		return grid.CellIndex{}, false
	}

	m.add(source, -amount)
	m.add(g.At(target), amount)
	return target, true
}

// idealSlideHeight returns the height at origin that would leave the
// slope toward target exactly at the critical angle, given target's
// current height and the planar distance between the two cells.
func idealSlideHeight(originX, originY float64, targetHeight, targetX, targetY, criticalAngleDeg float64) float64 {
	criticalSlope := math.Sin(criticalAngleDeg * math.Pi / 180.0)
	dx := originX - targetX
	dy := originY - targetY
	k := (criticalSlope * criticalSlope * (dx*dx + dy*dy)) / (1.0 - criticalSlope*criticalSlope)
	return targetHeight + math.Sqrt(k)
}

// heightToSlide returns how much material should move from origin to
// target: if origin's other layers already stand at or above the ideal
// (critical-angle) height, half of the material's own height slides
// away; otherwise only the excess above ideal, halved.
func heightToSlide(g *grid.Grid, origin, target grid.CellIndex, m Material, criticalAngleDeg float64) float64 {
	cell := g.At(origin)
	matHeight := m.height(cell)
	if matHeight <= 0 {
		return 0
	}
	ox, oy := g.PositionOf(origin)
	tx, ty := g.PositionOf(target)
	targetHeight := g.At(target).Height()
	ideal := idealSlideHeight(ox, oy, targetHeight, tx, ty, criticalAngleDeg)

	otherLayersHeight := cell.Height() - matHeight
	if otherLayersHeight >= ideal {
		return matHeight / 2.0
	}
	excess := (otherLayersHeight + matHeight) - ideal
	if excess <= 0 {
		return 0
	}
	return excess / 2.0
}
