package events

import (
	"math"
	"math/rand"

	"landcycle/internal/ecosim/config"
	"landcycle/internal/ecosim/grid"
)

// ThermalFractureProbability returns f(p) = k*deltaT*s(p) / (1 + kG*G(p)
// + kV*V(p)): the steeper the cell's slope and the bigger the day/night
// swing, the more likely bedrock fractures into rock, dampened by loose
// granular cover and vegetation that insulate the bedrock.
func ThermalFractureProbability(g *grid.Grid, idx grid.CellIndex, cfg *config.Config) float64 {
	var maxSlope float64
	for _, n := range g.Neighbors(idx) {
		slope := math.Abs(g.SlopeBetween(idx, n))
		if slope > maxSlope {
			maxSlope = slope
		}
	}

	cell := g.At(idx)
	vegetationDensity := cell.EstimateVegetationDensity()
	granularHeight := cell.SandHeight + cell.HumusHeight

	return cfg.ThermalFractureConstant * cfg.ThermalDeltaT * maxSlope /
		(1.0 + cfg.ThermalGranularDampening*granularHeight + cfg.ThermalVegetationDampening*vegetationDensity)
}

// ThermalStress rolls for a thermal-fracture event at idx and, if it
// fires, converts a fixed depth of bedrock into loose rock. Never
// propagates to a follow-up event.
func ThermalStress(g *grid.Grid, idx grid.CellIndex, cfg *config.Config, rng *rand.Rand) bool {
	probability := ThermalFractureProbability(g, idx, cfg)
	if rng.Float64() >= probability {
		return false
	}

	cell := g.At(idx)
	cell.RemoveBedrock(cfg.ThermalBedrockFractureHeight)
	cell.AddRocks(cfg.ThermalBedrockFractureHeight)
	return true
}
