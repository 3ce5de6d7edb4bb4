package imagery

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landcycle/internal/ecosim/config"
	"landcycle/internal/ecosim/ecosystem"
	"landcycle/internal/ecosim/grid"
)

func TestGenerateSyntheticHeightmap_IsDeterministicForSameSeed(t *testing.T) {
	a := GenerateSyntheticHeightmap(8, 42, 50.0)
	b := GenerateSyntheticHeightmap(8, 42, 50.0)
	assert.Equal(t, a, b)
}

func TestGenerateSyntheticHeightmap_StaysWithinAmplitude(t *testing.T) {
	heights := GenerateSyntheticHeightmap(16, 7, 100.0)
	for _, h := range heights {
		assert.GreaterOrEqual(t, h, 0.0)
		assert.LessOrEqual(t, h, 100.0)
	}
}

func TestExportHeightmap_ProducesDecodablePNG(t *testing.T) {
	cfg := config.Default()
	cfg.AreaSideLength = 5
	eco := ecosystem.New(cfg)
	data, err := ExportHeightmap(eco)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	bounds := img.Bounds()
	assert.Equal(t, 5, bounds.Dx())
	assert.Equal(t, 5, bounds.Dy())
}

func TestExportHeightmap_FlatWorldIsUniform(t *testing.T) {
	cfg := config.Default()
	cfg.AreaSideLength = 4
	eco := ecosystem.New(cfg)
	data, err := ExportHeightmap(eco)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	first := img.At(0, 0)
	fr, fg, fb, fa := first.RGBA()
	eco.Grid.ForEachCell(func(idx grid.CellIndex) {
		r, g, b, a := img.At(idx.X, idx.Y).RGBA()
		assert.Equal(t, fr, r)
		assert.Equal(t, fg, g)
		assert.Equal(t, fb, b)
		assert.Equal(t, fa, a)
	})
}

func TestParseMapMode_RoundTripsWithString(t *testing.T) {
	for _, mode := range []MapMode{MapModeStandard, MapModeHypsometric, MapModeSunlight, MapModeMoisture} {
		parsed, ok := ParseMapMode(mode.String())
		assert.True(t, ok)
		assert.Equal(t, mode, parsed)
	}
}

func TestParseMapMode_UnknownNameFails(t *testing.T) {
	_, ok := ParseMapMode("not-a-mode")
	assert.False(t, ok)
}

func TestStandardColor_BareBedrockDiffersFromSoil(t *testing.T) {
	bare := &grid.Cell{BedrockHeight: 50}
	soil := &grid.Cell{BedrockHeight: 50, HumusHeight: 0.5}
	assert.NotEqual(t, standardColor(bare), standardColor(soil))
}

func TestStandardColor_GrassOverlayDarkensWithCoverage(t *testing.T) {
	thin := &grid.Cell{HumusHeight: 0.5, Grasses: &grid.Grasses{CoverageDensity: 0.1}}
	thick := &grid.Cell{HumusHeight: 0.5, Grasses: &grid.Grasses{CoverageDensity: 0.95}}
	// Near-full coverage should sit much closer to the grass color than
	// sparse coverage: compare green dominance.
	thinC := standardColor(thin)
	thickC := standardColor(thick)
	assert.Greater(t, int(thickC.G)-int(thickC.R), int(thinC.G)-int(thinC.R))
}

func TestHypsometricColor_InterpolatesAcrossBands(t *testing.T) {
	low := hypsometricColor(0)
	mid := hypsometricColor(120)
	high := hypsometricColor(255)
	assert.Equal(t, hypsometricTints[0], low)
	assert.Equal(t, hypsometricTints[3], high)
	assert.NotEqual(t, low, mid)
	assert.NotEqual(t, high, mid)
}

func TestExportMap_StandardModeProducesDecodablePNG(t *testing.T) {
	cfg := config.Default()
	cfg.AreaSideLength = 3
	eco := ecosystem.New(cfg) // default humus everywhere
	data, err := ExportMap(eco, MapModeStandard)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())
}

func TestExportVegetationMap_EncodesTreeHeightInRedChannel(t *testing.T) {
	cfg := config.Default()
	cfg.AreaSideLength = 3
	eco := ecosystem.New(cfg)
	idx := grid.NewCellIndex(1, 1)
	eco.Grid.At(idx).Trees = &grid.Trees{Count: 2, HeightSum: 20, AgeSum: 20}

	data, err := ExportVegetationMap(eco)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	r, _, _, _ := img.At(1, 1).RGBA()
	// Mean tree height 10 m encodes as 10*8 = 80.
	assert.Equal(t, uint32(80), r>>8)
	rEmpty, _, _, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0), rEmpty>>8)
}

func TestExportAll_ProducesTheFourTickMaps(t *testing.T) {
	cfg := config.Default()
	cfg.AreaSideLength = 3
	eco := ecosystem.New(cfg)
	bundle, err := ExportAll(eco, 7)
	require.NoError(t, err)
	for _, name := range []string{"7-terrain.png", "7-color.png", "7-hypsometric.png", "7-vegetation.png"} {
		assert.Contains(t, bundle, name)
		assert.NotEmpty(t, bundle[name])
	}
}

func TestCellColor_MoistureModeSeparatesDryFromWet(t *testing.T) {
	dry := &grid.Cell{}
	wet := &grid.Cell{SoilMoisture: 200000}
	dryColor := CellColor(dry, MapModeMoisture, 0, 1)
	wetColor := CellColor(wet, MapModeMoisture, 0, 1)
	assert.NotEqual(t, dryColor, wetColor)
}
