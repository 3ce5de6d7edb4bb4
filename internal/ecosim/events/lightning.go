package events

import (
	"math"
	"math/rand"

	"landcycle/internal/ecosim/config"
	"landcycle/internal/ecosim/grid"
	"landcycle/internal/ecosim/vegetation"
)

// LightningProbability computes the chance a lightning strike damages
// the given cell this tick, following l(p) = k_L * min(1, e^(-curvature
// - minCurve)): sharp, convex terrain features (ridgelines, lone peaks)
// act as lightning rods. k_L normalizes the configured regional strike
// rate (strikes per square km per year) to this cell's footprint.
func LightningProbability(g *grid.Grid, idx grid.CellIndex, cfg *config.Config) float64 {
	const scalingFactor = 1.0
	const minCurvature = 4.0
	cellAreaSqKM := (cfg.CellSideLength / 1000.0) * (cfg.CellSideLength / 1000.0)
	maxProbability := math.Min(1.0, cfg.LightningStrikesPerSqKMYear*cellAreaSqKM)
	curvature := g.EstimateCurvature(idx)
	exp := scalingFactor * (-curvature - minCurvature)
	return maxProbability * math.Min(1.0, math.Exp(exp))
}

// Lightning rolls for a strike at idx and, if it hits, kills all
// vegetation in the cell and blasts a portion of its bedrock outward as
// rock and sand distributed evenly across the cell and its neighbors.
// Never propagates to a follow-up event.
func Lightning(g *grid.Grid, idx grid.CellIndex, cfg *config.Config, rng *rand.Rand) bool {
	probability := LightningProbability(g, idx, cfg)
	if rng.Float64() > probability {
		return false
	}

	cell := g.At(idx)
	killVegetation(cell, cfg)

	cellArea := cfg.CellSideLength * cfg.CellSideLength
	lostHeight := cfg.LightningDisplacementVolume / cellArea
	cell.RemoveBedrock(lostHeight)

	neighbors := g.Neighbors(idx)
	numAffected := len(neighbors) + 1
	volumePerCell := cfg.LightningDisplacementVolume / float64(numAffected)
	heightPerCell := volumePerCell / cellArea

	cell.AddRocks(heightPerCell / 2.0)
	cell.AddSand(heightPerCell / 2.0)
	for _, n := range neighbors {
		neighborCell := g.At(n)
		neighborCell.AddRocks(heightPerCell / 2.0)
		neighborCell.AddSand(heightPerCell / 2.0)
	}
	return true
}

// killVegetation converts every plant population in the cell into dead
// biomass, the shared "lightning strike killed everything here" effect.
// Grass biomass follows the same coverage-density * cell-area * bulk-
// density conversion the vegetation kernel uses for grass dieback, so a
// strike doesn't silently under- or over-count biomass on a cell side
// length other than the default 10m.
func killVegetation(cell *grid.Cell, cfg *config.Config) {
	if cell.Trees != nil && cell.Trees.Count > 0 {
		cell.AddDeadVegetation(treeBiomassEstimate(cell.Trees))
		cell.Trees = nil
	}
	if cell.Bushes != nil && cell.Bushes.Count > 0 {
		cell.AddDeadVegetation(bushBiomassEstimate(cell.Bushes))
		cell.Bushes = nil
	}
	if cell.Grasses != nil && cell.Grasses.CoverageDensity > 0 {
		cellArea := cfg.CellSideLength * cfg.CellSideLength
		cell.AddDeadVegetation(cell.Grasses.CoverageDensity * cellArea * cfg.Grasses.DensityPerM2)
		cell.Grasses = nil
	}
}

// treeBiomassEstimate applies the same red-maple allometric equation the
// vegetation kernel uses for senescence/stress deaths, so a lightning
// strike converts a tree population to dead biomass the same way old
// age or drought does.
func treeBiomassEstimate(t *grid.Trees) float64 {
	if t.Count == 0 {
		return 0
	}
	meanHeight := t.HeightSum / float64(t.Count)
	diameter := vegetation.TreeDiameterFromHeight(meanHeight)
	return vegetation.TreeBiomassFromDiameter(diameter) * float64(t.Count)
}

func bushBiomassEstimate(b *grid.Bushes) float64 {
	if b.Count == 0 {
		return 0
	}
	meanHeight := b.HeightSum / float64(b.Count)
	return vegetation.BushBiomassFromHeight(meanHeight) * float64(b.Count)
}
