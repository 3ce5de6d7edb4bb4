// Package grid implements the layered cell store described by the
// ecosystem's terrain model: a bounded N x N array of cells, each holding
// stacked material layers (bedrock, rock, sand, humus) and three
// vegetation populations (trees, bushes, grasses) plus dead biomass.
package grid

import "math"

// CellIndex addresses a single cell in the grid by its (X, Y) coordinate.
type CellIndex struct {
	X, Y int
}

// NewCellIndex constructs a CellIndex.
func NewCellIndex(x, y int) CellIndex {
	return CellIndex{X: x, Y: y}
}

// FromFlat converts a flat row-major index back into a CellIndex for a
// grid of the given side length.
func FromFlat(i, sideLength int) CellIndex {
	return CellIndex{X: i % sideLength, Y: i / sideLength}
}

// Flat returns the row-major flat index of this cell within a grid of the
// given side length.
func (c CellIndex) Flat(sideLength int) int {
	return c.X + c.Y*sideLength
}

// Trees tracks an aggregate tree population within a single cell. Rather
// than modeling individual trees, the cell holds running sums so that
// mean height and age can be recovered cheaply.
type Trees struct {
	Count     uint32
	HeightSum float64
	AgeSum    float64
}

// Bushes mirrors Trees for the shrub layer.
type Bushes struct {
	Count     uint32
	HeightSum float64
	AgeSum    float64
}

// Grasses models turf as a continuous ground coverage density rather than
// discrete plants, matching how low grasses are aggregated in the field.
type Grasses struct {
	CoverageDensity float64
}

// DeadVegetation accumulates biomass (kg) of vegetation that has died but
// has not yet decomposed into humus.
type DeadVegetation struct {
	Biomass float64
}

// Cell is a single grid cell: a stack of material layers, the
// vegetation populations, the soil moisture, and the cached monthly
// illumination table.
type Cell struct {
	BedrockHeight float64
	RockHeight    float64
	SandHeight    float64
	HumusHeight   float64

	Trees   *Trees
	Bushes  *Bushes
	Grasses *Grasses
	Dead    *DeadVegetation

	SoilMoisture float64

	// HoursOfSunlight is the precomputed average daily sunlight hours for
	// each of the 12 months, populated by the illumination engine.
	HoursOfSunlight [12]float64
}

// Height returns the cell's total surface elevation: bedrock plus every
// material layer on top of it.
func (c *Cell) Height() float64 {
	return c.BedrockHeight + c.RockHeight + c.SandHeight + c.HumusHeight
}

// AddBedrock/RemoveBedrock and the equivalent accessors for rock, sand,
// and humus never allow a layer height to go negative; callers rely on
// this floor rather than checking it themselves.

func (c *Cell) AddBedrock(h float64) { c.BedrockHeight += h }
func (c *Cell) RemoveBedrock(h float64) {
	c.BedrockHeight = math.Max(0, c.BedrockHeight-h)
}

func (c *Cell) AddRocks(h float64) { c.RockHeight += h }
func (c *Cell) RemoveRocks(h float64) {
	c.RockHeight = math.Max(0, c.RockHeight-h)
}

func (c *Cell) AddSand(h float64) { c.SandHeight += h }
func (c *Cell) RemoveSand(h float64) {
	c.SandHeight = math.Max(0, c.SandHeight-h)
}

func (c *Cell) AddHumus(h float64) { c.HumusHeight += h }
func (c *Cell) RemoveHumus(h float64) {
	c.HumusHeight = math.Max(0, c.HumusHeight-h)
}

// AddDeadVegetation accumulates dead biomass (kg) on the cell,
// materializing the layer on first use.
func (c *Cell) AddDeadVegetation(biomass float64) {
	if biomass <= 0 {
		return
	}
	if c.Dead == nil {
		c.Dead = &DeadVegetation{}
	}
	c.Dead.Biomass += biomass
}

// DeadVegetationBiomass reads the cell's dead biomass, absent meaning 0.
func (c *Cell) DeadVegetationBiomass() float64 {
	if c.Dead == nil {
		return 0
	}
	return c.Dead.Biomass
}

// RemoveAllDeadVegetation clears the dead layer entirely.
func (c *Cell) RemoveAllDeadVegetation() {
	c.Dead = nil
}

// MonthlyTemperature returns the cell's local temperature for month m,
// applying a fixed 0.0065 C/m lapse rate against the site's base
// monthly table so higher cells read colder than the valley floor.
func (c *Cell) MonthlyTemperature(baseMonthlyTemperatures [12]float64, m int) float64 {
	return baseMonthlyTemperatures[m] - 0.0065*c.Height()
}

// MonthlySoilMoisture returns the portion of the cell's resident soil
// moisture attributed to month m, weighted by that month's share of the
// site's annual rainfall. A site with all-zero rainfall has no defined
// share, so every month reads zero rather than dividing by zero.
func (c *Cell) MonthlySoilMoisture(baseMonthlyRainfall [12]float64, m int) float64 {
	var total float64
	for _, r := range baseMonthlyRainfall {
		total += r
	}
	if total == 0 {
		return 0
	}
	return c.SoilMoisture * baseMonthlyRainfall[m] / total
}

// EstimateVegetationDensity combines all three vegetation layers into a
// single 0..~3 scalar used to dampen thermal stress and wind bounce.
// Each layer contributes up to 1.0: trees and bushes saturate at a
// canopy-closure height, grasses contribute their coverage density
// directly.
func (c *Cell) EstimateVegetationDensity() float64 {
	var density float64
	if c.Trees != nil && c.Trees.Count > 0 {
		meanHeight := c.Trees.HeightSum / float64(c.Trees.Count)
		density += math.Min(meanHeight/20.0, 1.0)
	}
	if c.Bushes != nil && c.Bushes.Count > 0 {
		meanHeight := c.Bushes.HeightSum / float64(c.Bushes.Count)
		density += math.Min(meanHeight/3.0, 1.0)
	}
	if c.Grasses != nil {
		density += math.Min(c.Grasses.CoverageDensity, 1.0)
	}
	return density
}

// Grid is the bounded N x N array of cells that backs an Ecosystem.
type Grid struct {
	SideLength int
	CellLength float64 // meters per cell edge
	cells      [][]Cell
}

// NewGrid allocates a flat terrain of the given side length where every
// cell starts with defaultBedrock meters of bare bedrock.
func NewGrid(sideLength int, cellLength, defaultBedrock float64) *Grid {
	cells := make([][]Cell, sideLength)
	for x := range cells {
		row := make([]Cell, sideLength)
		for y := range row {
			row[y] = Cell{BedrockHeight: defaultBedrock}
			for m := range row[y].HoursOfSunlight {
				row[y].HoursOfSunlight[m] = 0
			}
		}
		cells[x] = row
	}
	return &Grid{SideLength: sideLength, CellLength: cellLength, cells: cells}
}

// InBounds reports whether index addresses a real cell of the grid.
func (g *Grid) InBounds(index CellIndex) bool {
	return index.X >= 0 && index.X < g.SideLength && index.Y >= 0 && index.Y < g.SideLength
}

// At returns a pointer to the cell at index. Out-of-bounds access
// panics; internal callers are trusted to have bounds-checked via
// Neighbors/InBounds.
func (g *Grid) At(index CellIndex) *Cell {
	return &g.cells[index.X][index.Y]
}

// NumCells returns the total number of cells in the grid.
func (g *Grid) NumCells() int {
	return g.SideLength * g.SideLength
}

// Neighbors returns the up to 8 orthogonal/diagonal neighbors of index,
// truncated at the grid boundary (the grid is bounded, not toroidal,
// except where the wind kernel explicitly wraps).
func (g *Grid) Neighbors(index CellIndex) []CellIndex {
	out := make([]CellIndex, 0, 8)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := CellIndex{X: index.X + dx, Y: index.Y + dy}
			if g.InBounds(n) {
				out = append(out, n)
			}
		}
	}
	return out
}

// WrapToroidal maps an (x, y) pair that may be outside [0, SideLength)
// onto the toroidal grid, used by the wind kernel which treats the area
// as wrapping rather than bounded.
func (g *Grid) WrapToroidal(x, y int) CellIndex {
	n := g.SideLength
	wx := ((x % n) + n) % n
	wy := ((y % n) + n) % n
	return CellIndex{X: wx, Y: wy}
}

// PositionOf returns the planar (x, y) position of a cell's top-left
// corner in cell units; z is not included since Height() supplies it.
func (g *Grid) PositionOf(index CellIndex) (x, y float64) {
	return float64(index.X), float64(index.Y)
}

// SlopeBetween returns the slope (rise over run) from index a to index b:
// a positive value means a is higher than b. The run is the full 3-D
// distance between the two cell positions (including their height
// difference), matching the source terrain model's slope definition.
func (g *Grid) SlopeBetween(a, b CellIndex) float64 {
	ha := g.At(a).Height()
	hb := g.At(b).Height()
	ax, ay := g.PositionOf(a)
	bx, by := g.PositionOf(b)
	dist := math.Sqrt((ax-bx)*(ax-bx) + (ay-by)*(ay-by) + (ha-hb)*(ha-hb))
	if dist == 0 {
		return 0
	}
	return (ha - hb) / dist
}

// Angle converts a slope (rise/run) into the equivalent signed angle in
// degrees: positive when the origin cell is higher than its neighbor.
func Angle(slope float64) float64 {
	if slope < 0 {
		return -math.Asin(-slope) * 180.0 / math.Pi
	}
	return math.Asin(slope) * 180.0 / math.Pi
}

// ForEachCell visits every cell index with x in the outer loop and y in
// the inner loop, i.e. column by column (not in Flat index order).
func (g *Grid) ForEachCell(fn func(CellIndex)) {
	for x := 0; x < g.SideLength; x++ {
		for y := 0; y < g.SideLength; y++ {
			fn(CellIndex{X: x, Y: y})
		}
	}
}
