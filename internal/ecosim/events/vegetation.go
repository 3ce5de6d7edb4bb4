package events

import (
	"math/rand"

	"landcycle/internal/ecosim/config"
	"landcycle/internal/ecosim/grid"
	"landcycle/internal/ecosim/vegetation"
)

// Vegetation runs one year of establishment, growth, stress mortality,
// senescence, and dead-biomass decay for every plant population at idx.
// The prior tick's dead vegetation converts to humus first, before any
// of this tick's deaths are recorded into it, so humus only reflects
// biomass that has already sat dead for a full year. Never propagates:
// vegetation dynamics are purely local.
func Vegetation(g *grid.Grid, idx grid.CellIndex, cfg *config.Config, rng *rand.Rand) {
	cell := g.At(idx)
	vegetation.DecayDeadVegetation(cell, cfg)
	vegetation.StepTrees(cell, cfg, rng)
	vegetation.StepBushes(cell, cfg, rng)
	vegetation.StepGrasses(cell, cfg)
}
