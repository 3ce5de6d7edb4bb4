package events

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landcycle/internal/ecosim/grid"
)

func testCriticalAngles() CriticalAngles {
	return CriticalAngles{Rock: 45.0, Sand: 34.0, SandVegetated: 45.0, Humus: 40.0}
}

func TestSlide_FlatTerrainNeverSlides(t *testing.T) {
	g := grid.NewGrid(4, 10.0, 0)
	g.ForEachCell(func(idx grid.CellIndex) { g.At(idx).AddSand(5.0) })
	rng := rand.New(rand.NewSource(1))
	_, ok := Slide(g, grid.NewCellIndex(1, 1), MaterialSand, testCriticalAngles(), rng)
	assert.False(t, ok)
}

func TestSlide_EmptyMaterialNeverSlides(t *testing.T) {
	g := grid.NewGrid(4, 10.0, 0)
	g.At(grid.NewCellIndex(1, 1)).BedrockHeight = 10
	rng := rand.New(rand.NewSource(1))
	_, ok := Slide(g, grid.NewCellIndex(1, 1), MaterialSand, testCriticalAngles(), rng)
	assert.False(t, ok)
}

func TestSlide_SteepSandPileSlidesDownhillAndConservesMass(t *testing.T) {
	g := grid.NewGrid(4, 10.0, 0)
	source := grid.NewCellIndex(2, 2)
	g.At(source).AddBedrock(10.0)
	g.At(source).AddSand(5.0)

	totalBefore := 0.0
	g.ForEachCell(func(idx grid.CellIndex) {
		totalBefore += g.At(idx).SandHeight
	})

	rng := rand.New(rand.NewSource(7))
	target, ok := Slide(g, source, MaterialSand, testCriticalAngles(), rng)
	require.True(t, ok, "a 5m sand pile on bare bedrock should exceed sand's 34 degree critical angle")
	assert.NotEqual(t, source, target)

	totalAfter := 0.0
	g.ForEachCell(func(idx grid.CellIndex) {
		totalAfter += g.At(idx).SandHeight
	})
	assert.InDelta(t, totalBefore, totalAfter, 1e-9)

	// The source cell must have lost sand and the target must have gained it.
	assert.Less(t, g.At(source).SandHeight, 5.0)
	assert.Greater(t, g.At(target).SandHeight, 0.0)
}

func TestSlide_VegetationRaisesSandCriticalAngle(t *testing.T) {
	// A height difference of 0.8 over one cell step yields a slope angle
	// of about 38.7 degrees: above bare sand's 34 degree critical angle
	// but below the 45 degree angle vegetation raises it to.
	g := grid.NewGrid(4, 10.0, 0)
	source := grid.NewCellIndex(2, 2)
	g.At(source).AddSand(0.8)
	g.At(source).Grasses = &grid.Grasses{CoverageDensity: 0.9}

	rng := rand.New(rand.NewSource(3))
	_, ok := Slide(g, source, MaterialSand, testCriticalAngles(), rng)
	assert.False(t, ok)
}

func TestIdealSlideHeight_IncreasesWithCriticalAngle(t *testing.T) {
	shallow := idealSlideHeight(0, 0, 0, 1, 0, 20.0)
	steep := idealSlideHeight(0, 0, 0, 1, 0, 60.0)
	assert.Greater(t, steep, shallow)
}
