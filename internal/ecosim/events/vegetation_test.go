package events

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"landcycle/internal/ecosim/config"
	"landcycle/internal/ecosim/grid"
)

func TestVegetation_EstablishesLifeInAFavorableCell(t *testing.T) {
	g := grid.NewGrid(2, 10.0, 0)
	idx := grid.NewCellIndex(0, 0)
	cell := g.At(idx)
	cell.AddHumus(0.5)
	cell.SoilMoisture = 180000
	for m := range cell.HoursOfSunlight {
		cell.HoursOfSunlight[m] = 8
	}

	cfg := config.Default()
	rng := rand.New(rand.NewSource(1))
	Vegetation(g, idx, cfg, rng)
	// At least one plant layer should respond to a year of favorable
	// conditions; the exact mix depends on the species bands, but the
	// cell should not remain entirely bare.
	hasLife := cell.Trees != nil || cell.Bushes != nil || (cell.Grasses != nil && cell.Grasses.CoverageDensity > 0)
	assert.True(t, hasLife)
}

func TestVegetation_DeadBiomassConvertsToHumusTheNextYear(t *testing.T) {
	g := grid.NewGrid(2, 10.0, 0)
	idx := grid.NewCellIndex(0, 0)
	cell := g.At(idx)
	cell.Dead = &grid.DeadVegetation{Biomass: 500}
	humusBefore := cell.HumusHeight

	cfg := config.Default()
	rng := rand.New(rand.NewSource(1))
	Vegetation(g, idx, cfg, rng)

	assert.Greater(t, cell.HumusHeight, humusBefore)
	assert.Nil(t, cell.Dead)
}

func TestVegetation_NoOpOnAlreadyEmptyCellWithNoMoisture(t *testing.T) {
	g := grid.NewGrid(2, 10.0, 0)
	idx := grid.NewCellIndex(0, 0)
	cfg := config.Default()
	rng := rand.New(rand.NewSource(1))
	assert.NotPanics(t, func() { Vegetation(g, idx, cfg, rng) })
}
