package events

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"landcycle/internal/ecosim/config"
	"landcycle/internal/ecosim/grid"
)

func TestThermalFractureProbability_ZeroOnFlatGround(t *testing.T) {
	g := grid.NewGrid(4, 10.0, 50)
	cfg := config.Default()
	p := ThermalFractureProbability(g, grid.NewCellIndex(1, 1), cfg)
	assert.Equal(t, 0.0, p)
}

func TestThermalFractureProbability_HigherOnSteeperSlope(t *testing.T) {
	cfg := config.Default()
	flat := grid.NewGrid(4, 10.0, 50)
	steep := grid.NewGrid(4, 10.0, 50)
	steep.At(grid.NewCellIndex(1, 1)).AddBedrock(20)

	pFlat := ThermalFractureProbability(flat, grid.NewCellIndex(1, 1), cfg)
	pSteep := ThermalFractureProbability(steep, grid.NewCellIndex(1, 1), cfg)
	assert.Greater(t, pSteep, pFlat)
}

func TestThermalFractureProbability_DampenedByGranularCoverAndVegetation(t *testing.T) {
	cfg := config.Default()
	bare := grid.NewGrid(4, 10.0, 50)
	bare.At(grid.NewCellIndex(1, 1)).AddBedrock(20)

	covered := grid.NewGrid(4, 10.0, 50)
	covered.At(grid.NewCellIndex(1, 1)).AddBedrock(20)
	covered.At(grid.NewCellIndex(1, 1)).AddHumus(5)
	covered.At(grid.NewCellIndex(1, 1)).Grasses = &grid.Grasses{CoverageDensity: 1.0}

	pBare := ThermalFractureProbability(bare, grid.NewCellIndex(1, 1), cfg)
	pCovered := ThermalFractureProbability(covered, grid.NewCellIndex(1, 1), cfg)
	assert.Less(t, pCovered, pBare)
}

func TestThermalStress_ConvertsBedrockToRockOnFire(t *testing.T) {
	g := grid.NewGrid(4, 10.0, 50)
	g.At(grid.NewCellIndex(1, 1)).AddBedrock(20)
	cfg := config.Default()
	rng := rand.New(rand.NewSource(0)) // first draw determines the outcome deterministically

	before := g.At(grid.NewCellIndex(1, 1)).BedrockHeight
	fired := ThermalStress(g, grid.NewCellIndex(1, 1), cfg, rng)
	if fired {
		after := g.At(grid.NewCellIndex(1, 1))
		assert.Less(t, after.BedrockHeight, before)
		assert.Greater(t, after.RockHeight, 0.0)
	}
}

func TestThermalStress_NeverFiresOnFlatGround(t *testing.T) {
	g := grid.NewGrid(4, 10.0, 50)
	cfg := config.Default()
	rng := rand.New(rand.NewSource(42))
	fired := ThermalStress(g, grid.NewCellIndex(1, 1), cfg, rng)
	assert.False(t, fired)
}
