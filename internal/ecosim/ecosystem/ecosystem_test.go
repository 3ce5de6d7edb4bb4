package ecosystem

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landcycle/internal/ecosim/config"
	"landcycle/internal/ecosim/grid"
)

func TestNew_EveryCellHasDefaultBedrockAndHumus(t *testing.T) {
	cfg := config.Default()
	cfg.AreaSideLength = 6
	eco := New(cfg)
	eco.Grid.ForEachCell(func(idx grid.CellIndex) {
		c := eco.Grid.At(idx)
		assert.Equal(t, cfg.DefaultBedrockHeight, c.BedrockHeight)
		assert.Equal(t, cfg.DefaultHumusHeight, c.HumusHeight)
	})
}

func TestNewTest_FlatBedrockNoHumusNoVegetation(t *testing.T) {
	cfg := config.Default()
	eco := NewTest(cfg, 4)
	eco.Grid.ForEachCell(func(idx grid.CellIndex) {
		c := eco.Grid.At(idx)
		assert.Equal(t, cfg.DefaultBedrockHeight, c.BedrockHeight)
		assert.Equal(t, 0.0, c.HumusHeight)
		assert.Nil(t, c.Trees)
		assert.Nil(t, c.Bushes)
		assert.Nil(t, c.Grasses)
	})
}

func TestNewWithPiles_AddsMaterialSomewhere(t *testing.T) {
	cfg := config.Default()
	cfg.AreaSideLength = 10
	rng := rand.New(rand.NewSource(5))
	eco := NewWithPiles(cfg, rng, 4, 3.0, 2.0)

	totalLoose := 0.0
	eco.Grid.ForEachCell(func(idx grid.CellIndex) {
		c := eco.Grid.At(idx)
		totalLoose += c.SandHeight + c.RockHeight
	})
	assert.Greater(t, totalLoose, 0.0)
}

func TestImportHeights_BedrockMatchesSuppliedSamples(t *testing.T) {
	cfg := config.Default()
	heights := make([]float64, 9)
	eco := ImportHeights(cfg, 3, heights)
	require.Equal(t, 3, eco.Grid.SideLength)
	eco.Grid.ForEachCell(func(idx grid.CellIndex) {
		assert.Equal(t, 0.0, eco.Grid.At(idx).BedrockHeight)
		// A flat import accumulates the full default humus everywhere.
		assert.InDelta(t, cfg.DefaultHumusHeight, eco.Grid.At(idx).HumusHeight, 1e-12)
	})
}

func TestImportHeights_HumusThinsOnSteepGround(t *testing.T) {
	cfg := config.Default()
	heights := make([]float64, 25)
	// A single spike makes its cell (and its ring of neighbors) steep.
	heights[grid.NewCellIndex(2, 2).Flat(5)] = 80.0
	eco := ImportHeights(cfg, 5, heights)

	steep := eco.Grid.At(grid.NewCellIndex(2, 2)).HumusHeight
	flat := eco.Grid.At(grid.NewCellIndex(0, 0)).HumusHeight
	assert.Less(t, steep, flat)
	assert.InDelta(t, cfg.DefaultHumusHeight, flat, 1e-12)
}
