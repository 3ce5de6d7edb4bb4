// Package imagery imports and exports the ecosystem as PNG raster maps:
// a grayscale heightmap for terrain import/export, and the false-color
// views the renderer's color modes show (material blend, hypsometric
// tint, sunlight, soil moisture). Synthetic starting terrain, when no
// heightmap is supplied, is generated from Perlin noise.
package imagery

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/aquilax/go-perlin"

	"landcycle/internal/ecosim/config"
	"landcycle/internal/ecosim/ecosystem"
	"landcycle/internal/ecosim/grid"
)

// ImportHeightmap decodes a grayscale (or RGB, using the red channel)
// PNG into a row-major slice of bedrock heights scaled by heightScale,
// and builds a fresh ecosystem from it.
func ImportHeightmap(cfg *config.Config, data []byte, heightScale float64) (*ecosystem.Ecosystem, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	side := bounds.Dx()
	heights := make([]float64, side*side)
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			heights[x+y*side] = float64(r>>8) * heightScale
		}
	}
	return ecosystem.ImportHeights(cfg, side, heights), nil
}

// GenerateSyntheticHeightmap builds a side x side grid of bedrock
// heights from 3-octave Perlin noise, scaled to [0, amplitude], for
// starting a scenario without an imported heightmap.
func GenerateSyntheticHeightmap(side int, seed int64, amplitude float64) []float64 {
	gen := perlin.NewPerlin(2, 2, 3, seed)
	heights := make([]float64, side*side)
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			n := gen.Noise2D(float64(x)/float64(side)*4.0, float64(y)/float64(side)*4.0)
			heights[x+y*side] = (n + 1) / 2 * amplitude
		}
	}
	return heights
}

// heightRange finds the current min/max terrain height, used to
// normalize the grayscale and hypsometric renderings.
func heightRange(g *grid.Grid) (minH, maxH float64) {
	minH, maxH = math.MaxFloat64, -math.MaxFloat64
	g.ForEachCell(func(idx grid.CellIndex) {
		h := g.At(idx).Height()
		if h < minH {
			minH = h
		}
		if h > maxH {
			maxH = h
		}
	})
	return minH, maxH
}

func normalizedHeight(h, minH, maxH float64) float64 {
	if maxH == minH {
		return 0
	}
	return (h - minH) / (maxH - minH)
}

// ExportHeightmap renders the ecosystem's terrain height as a grayscale
// PNG, normalizing the full range of heights present to [0, 255].
func ExportHeightmap(eco *ecosystem.Ecosystem) ([]byte, error) {
	g := eco.Grid
	side := g.SideLength
	minH, maxH := heightRange(g)

	img := image.NewGray(image.Rect(0, 0, side, side))
	g.ForEachCell(func(idx grid.CellIndex) {
		v := uint8(math.Min(255, normalizedHeight(g.At(idx).Height(), minH, maxH)*256.0))
		img.SetGray(idx.X, idx.Y, color.Gray{Y: v})
	})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MapMode selects which false-color rendering ExportMap and the
// observer's color stream produce, matching the renderer's four color
// modes.
type MapMode int

const (
	// MapModeStandard blends the surface material colors, overlaid with
	// grass cover.
	MapModeStandard MapMode = iota
	// MapModeHypsometric tints cells by elevation band.
	MapModeHypsometric
	// MapModeSunlight shades cells by their mean daily sunlight hours.
	MapModeSunlight
	// MapModeMoisture shades cells from dry (yellow) to saturated (blue).
	MapModeMoisture
)

// String names a map mode for logging and API responses.
func (m MapMode) String() string {
	switch m {
	case MapModeHypsometric:
		return "hypsometric"
	case MapModeSunlight:
		return "sunlight"
	case MapModeMoisture:
		return "moisture"
	default:
		return "standard"
	}
}

// ParseMapMode resolves a map mode by its String() name, for decoding
// the control plane's mode-switch requests.
func ParseMapMode(name string) (MapMode, bool) {
	switch name {
	case "standard", "":
		return MapModeStandard, true
	case "hypsometric":
		return MapModeHypsometric, true
	case "sunlight":
		return MapModeSunlight, true
	case "moisture":
		return MapModeMoisture, true
	default:
		return 0, false
	}
}

// Material and overlay colors, shared by the observer stream and the
// exported maps.
var (
	bedrockColor = color.RGBA{R: 51, G: 51, B: 51, A: 255}
	rockColor    = color.RGBA{R: 102, G: 102, B: 102, A: 255}
	sandColor    = color.RGBA{R: 194, G: 178, B: 128, A: 255}
	humusColor   = color.RGBA{R: 118, G: 85, B: 43, A: 255}
	grassColor   = color.RGBA{R: 0, G: 102, B: 26, A: 255}
)

// hypsometricTints are the four elevation-band control colors,
// interpolated across normalized height thresholds 0, 60, 180, 255.
var hypsometricTints = [4]color.RGBA{
	{R: 150, G: 170, B: 101, A: 255},
	{R: 234, G: 225, B: 148, A: 255},
	{R: 146, G: 109, B: 61, A: 255},
	{R: 199, G: 196, B: 195, A: 255},
}

var hypsometricThresholds = [4]float64{0, 60, 180, 255}

// ExportMap renders one of the false-color views as a PNG.
func ExportMap(eco *ecosystem.Ecosystem, mode MapMode) ([]byte, error) {
	g := eco.Grid
	side := g.SideLength
	minH, maxH := heightRange(g)
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	g.ForEachCell(func(idx grid.CellIndex) {
		img.SetRGBA(idx.X, idx.Y, colorForCell(g.At(idx), mode, minH, maxH))
	})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportVegetationMap encodes the woody-plant structure of every cell:
// the red channel carries mean tree height, the green channel mean bush
// height, both scaled so typical stands fill the channel range.
func ExportVegetationMap(eco *ecosystem.Ecosystem) ([]byte, error) {
	g := eco.Grid
	side := g.SideLength
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	g.ForEachCell(func(idx grid.CellIndex) {
		cell := g.At(idx)
		var r, gr float64
		if cell.Trees != nil && cell.Trees.Count > 0 {
			r = cell.Trees.HeightSum / float64(cell.Trees.Count) * 8.0
		}
		if cell.Bushes != nil && cell.Bushes.Count > 0 {
			gr = cell.Bushes.HeightSum / float64(cell.Bushes.Count) * 60.0
		}
		img.SetRGBA(idx.X, idx.Y, color.RGBA{R: clampChannel(r), G: clampChannel(gr), B: 0, A: 255})
	})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportAll produces the full per-tick map bundle, keyed by the file
// name each image should be written under.
func ExportAll(eco *ecosystem.Ecosystem, tick int) (map[string][]byte, error) {
	out := make(map[string][]byte, 4)

	terrain, err := ExportHeightmap(eco)
	if err != nil {
		return nil, fmt.Errorf("exporting terrain map: %w", err)
	}
	out[fmt.Sprintf("%d-terrain.png", tick)] = terrain

	colorMap, err := ExportMap(eco, MapModeStandard)
	if err != nil {
		return nil, fmt.Errorf("exporting color map: %w", err)
	}
	out[fmt.Sprintf("%d-color.png", tick)] = colorMap

	hypso, err := ExportMap(eco, MapModeHypsometric)
	if err != nil {
		return nil, fmt.Errorf("exporting hypsometric map: %w", err)
	}
	out[fmt.Sprintf("%d-hypsometric.png", tick)] = hypso

	veg, err := ExportVegetationMap(eco)
	if err != nil {
		return nil, fmt.Errorf("exporting vegetation map: %w", err)
	}
	out[fmt.Sprintf("%d-vegetation.png", tick)] = veg

	return out, nil
}

// CellColor exposes the same per-cell false-color mapping ExportMap
// uses, packed as 0xRRGGBBAA, for callers (the observer push hub) that
// stream per-cell colors instead of a whole PNG. minH/maxH are the
// grid's current height range, needed by the hypsometric tint.
func CellColor(cell *grid.Cell, mode MapMode, minH, maxH float64) uint32 {
	c := colorForCell(cell, mode, minH, maxH)
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}

func colorForCell(cell *grid.Cell, mode MapMode, minH, maxH float64) color.RGBA {
	switch mode {
	case MapModeHypsometric:
		return hypsometricColor(normalizedHeight(cell.Height(), minH, maxH) * 255.0)
	case MapModeSunlight:
		var mean float64
		for _, h := range cell.HoursOfSunlight {
			mean += h
		}
		mean /= 12.0
		t := math.Min(mean/12.0, 1.0)
		return lerpColor(color.RGBA{R: 20, G: 24, B: 60, A: 255}, color.RGBA{R: 250, G: 235, B: 120, A: 255}, t)
	case MapModeMoisture:
		// Soil moisture is resident liters, not a 0..1 fraction; scale
		// against a saturated-cell reference before clamping for display.
		const saturatedMoistureL = 200000.0
		m := math.Min(math.Max(cell.SoilMoisture/saturatedMoistureL, 0), 1.0)
		return lerpColor(color.RGBA{R: 210, G: 190, B: 60, A: 255}, color.RGBA{R: 30, G: 60, B: 200, A: 255}, m)
	default:
		return standardColor(cell)
	}
}

// standardColor blends the loose-material colors by their relative
// heights, with humus weighted five-fold so even a thin organic layer
// reads as soil, then overlays grass cover with a sigmoid ramp so
// partial cover tints gradually and near-full cover saturates.
func standardColor(cell *grid.Cell) color.RGBA {
	wRock := cell.RockHeight
	wSand := cell.SandHeight
	wHumus := 5.0 * cell.HumusHeight
	sum := wRock + wSand + wHumus

	var base color.RGBA
	if sum == 0 {
		base = bedrockColor
	} else {
		base = blend3(rockColor, wRock/sum, sandColor, wSand/sum, humusColor, wHumus/sum)
	}

	if cell.Grasses != nil && cell.Grasses.CoverageDensity > 0 {
		alpha := sigmoid(7.0*cell.Grasses.CoverageDensity - 4.0)
		base = lerpColor(base, grassColor, alpha)
	}
	return base
}

func hypsometricColor(normalized255 float64) color.RGBA {
	v := math.Min(math.Max(normalized255, 0), 255)
	for i := 1; i < len(hypsometricThresholds); i++ {
		if v <= hypsometricThresholds[i] {
			span := hypsometricThresholds[i] - hypsometricThresholds[i-1]
			t := (v - hypsometricThresholds[i-1]) / span
			return lerpColor(hypsometricTints[i-1], hypsometricTints[i], t)
		}
	}
	return hypsometricTints[len(hypsometricTints)-1]
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func clampChannel(v float64) uint8 {
	return uint8(math.Min(math.Max(v, 0), 255))
}

func blend3(a color.RGBA, wa float64, b color.RGBA, wb float64, c color.RGBA, wc float64) color.RGBA {
	mix := func(x, y, z uint8) uint8 {
		return clampChannel(float64(x)*wa + float64(y)*wb + float64(z)*wc)
	}
	return color.RGBA{
		R: mix(a.R, b.R, c.R),
		G: mix(a.G, b.G, c.G),
		B: mix(a.B, b.B, c.B),
		A: 255,
	}
}

func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return color.RGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 255}
}
