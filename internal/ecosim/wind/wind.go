// Package wind models the prevailing wind as a probabilistic wind rose
// and maintains the high/low frequency blurred terrain fields the wind
// kernel uses to warp local wind direction around relief.
package wind

import (
	"math"
	"math/rand"

	"landcycle/internal/ecosim/config"
	"landcycle/internal/ecosim/geometry"
	"landcycle/internal/ecosim/grid"
)

// Rose holds, for each of 8 compass-rose slices (45 degrees wide), the
// range of wind speeds that slice can produce and the probability
// weight of sampling it.
type Rose struct {
	MinSpeed [8]float64
	MaxSpeed [8]float64
	Weights  [8]float64
}

// NewRose creates a rose with all of its probability weight on the
// slice containing direction.
func NewRose(direction, minStrength, maxStrength float64) *Rose {
	r := &Rose{}
	r.Set(direction, minStrength, maxStrength, 1.0)
	return r
}

// Set assigns the speed range and weight for the slice containing
// direction (degrees from north).
func (r *Rose) Set(direction, minStrength, maxStrength, weight float64) {
	bucket := int(direction / 45.0)
	r.MinSpeed[bucket] = minStrength
	r.MaxSpeed[bucket] = maxStrength
	r.Weights[bucket] = weight
}

// Sample draws a (direction, strength) pair from the rose's probability
// distribution. Returns (0, 0) if every slice has zero weight.
func (r *Rose) Sample(rng *rand.Rand) (direction, strength float64) {
	var weightSum float64
	for _, w := range r.Weights {
		weightSum += w
	}
	if weightSum == 0 {
		return 0, 0
	}

	roll := rng.Float64()
	var acc float64
	bucket := len(r.Weights) - 1
	for i := 0; i < 7; i++ {
		acc += r.Weights[i] / weightSum
		if roll < acc {
			bucket = i
			break
		}
	}
	direction = float64(bucket) * 45.0

	diff := r.MaxSpeed[bucket] - r.MinSpeed[bucket]
	strength = rng.Float64()*diff + r.MinSpeed[bucket]
	return direction, strength
}

// State is the ecosystem's current wind condition plus the cached
// blurred-terrain fields the kernel uses to warp local wind vectors
// around relief.
type State struct {
	Rose      *Rose
	Direction float64
	Strength  float64

	highFreq []float64
	lowFreq  []float64
	side     int
}

// NewState constructs the default wind state from config.
func NewState(cfg *config.Config) *State {
	return &State{
		Rose:      NewRose(cfg.WindDirection, cfg.WindStrength, cfg.WindStrength),
		Direction: cfg.WindDirection,
		Strength:  cfg.WindStrength,
	}
}

// ConvolveTerrain recomputes the high- and low-frequency blurred height
// fields used to warp wind around large- and small-scale relief. The
// blur is a box-blur convolution of the given kernel radius.
func (s *State) ConvolveTerrain(g *grid.Grid, highFreqRadius, lowFreqRadius int) {
	heights := make([]float64, g.NumCells())
	g.ForEachCell(func(idx grid.CellIndex) {
		heights[idx.Flat(g.SideLength)] = g.At(idx).Height()
	})

	s.side = g.SideLength
	s.highFreq = boxBlur(heights, g.SideLength, highFreqRadius)
	s.lowFreq = boxBlur(heights, g.SideLength, lowFreqRadius)
}

// boxBlur averages every cell with its radius-neighborhood, clamped at
// the grid boundary (no wraparound — the blur is a smoothing operation,
// not a transport one).
func boxBlur(values []float64, side, radius int) []float64 {
	out := make([]float64, len(values))
	for x := 0; x < side; x++ {
		for y := 0; y < side; y++ {
			var sum float64
			var count int
			for dx := -radius; dx <= radius; dx++ {
				for dy := -radius; dy <= radius; dy++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= side || ny < 0 || ny >= side {
						continue
					}
					sum += values[nx+ny*side]
					count++
				}
			}
			out[x+y*side] = sum / float64(count)
		}
	}
	return out
}

// SlopeBetweenBlurred returns the slope between two cells using the
// blurred (high or low frequency) terrain field rather than the raw
// heights, and the caller-scaled planar distance.
func (s *State) SlopeBetweenBlurred(g *grid.Grid, a, b grid.CellIndex, highFreq bool) float64 {
	field := s.lowFreq
	if highFreq {
		field = s.highFreq
	}
	ha := field[a.Flat(s.side)]
	hb := field[b.Flat(s.side)]
	ax, ay := g.PositionOf(a)
	bx, by := g.PositionOf(b)
	dist := math.Hypot(ax-bx, ay-by)
	if dist == 0 {
		return 0
	}
	return (ha - hb) / dist
}

// SlopeAtPointBlurred returns the steepest slope from idx using the
// blurred terrain field, and the grid offset from the neighbor producing
// it back to idx (idx minus neighbor).
func (s *State) SlopeAtPointBlurred(g *grid.Grid, idx grid.CellIndex, highFreq bool) (float64, int, int) {
	maxSlope := math.Inf(-1)
	dx, dy := 0, 0
	for _, n := range g.Neighbors(idx) {
		slope := s.SlopeBetweenBlurred(g, idx, n, highFreq)
		if slope > maxSlope {
			maxSlope = slope
			dx = idx.X - n.X
			dy = idx.Y - n.Y
		}
	}
	return maxSlope, dx, dy
}

// DirectionVector converts a wind angle (degrees, clockwise from north)
// into a unit vector in the grid's (x, y) plane.
func DirectionVector(angleDeg float64) geometry.Vec2 {
	rad := angleDeg * math.Pi / 180.0
	return geometry.Vec2{X: math.Sin(rad), Y: math.Cos(rad)}.Normalize()
}

// directionAngle is the inverse of DirectionVector: it recovers a wind
// angle in degrees from a (possibly non-unit) direction vector.
func directionAngle(v geometry.Vec2) float64 {
	angle := math.Atan2(v.X, v.Y) * 180.0 / math.Pi
	if angle < 0 {
		angle += 360.0
	}
	return angle
}

// Shadowing estimates how sheltered idx is from the wind by looking up
// to 10 cells along the wind direction for rising terrain, returning a
// value in [0, 1]: rises under 10 degrees cast no shadow, the shadow
// grows linearly from 10 to 15 degrees, and 15 degrees or more shadow
// fully.
func Shadowing(g *grid.Grid, idx grid.CellIndex, windAngleDeg float64) float64 {
	dir := DirectionVector(windAngleDeg)
	steepestSlope := 0.0
	for i := 0; i < 10; i++ {
		targetX := idx.X + int(dir.X*float64(i))
		targetY := idx.Y + int(dir.Y*float64(i))
		if targetX < 0 || targetX >= g.SideLength || targetY < 0 || targetY >= g.SideLength {
			break
		}
		target := grid.CellIndex{X: targetX, Y: targetY}
		slope := g.SlopeBetween(idx, target)
		if slope < steepestSlope {
			steepestSlope = slope
		}
	}
	if steepestSlope >= 0 {
		return 0
	}
	// Slopes shallower than thetaMin cast no shadow; thetaMax and beyond
	// shadow fully.
	angle := math.Atan(steepestSlope) * 180.0 / math.Pi
	const thetaMin, thetaMax = -10.0, -15.0
	return math.Max(0, math.Min((angle-thetaMin)/(thetaMax-thetaMin), 1.0))
}

// SaltationDistance returns how many cells a lifted sand parcel travels
// before landing, proportional to wind strength.
func SaltationDistance(cfg *config.Config, windStrength float64) float64 {
	return windStrength * cfg.WindSaltationDistanceFactor
}

// BounceProbability returns the threshold a landing sand parcel's
// uniform draw must exceed for it to bounce onward (the wind kernel
// deposits it otherwise): wind shadowing plus a surface term (0.6 on
// sand, 0.4 without) plus a vegetation term 1 - min(1, density/3),
// clamped to [0, 1].
func BounceProbability(g *grid.Grid, idx grid.CellIndex, windShadowing float64) float64 {
	cell := g.At(idx)
	fs := 0.6
	if cell.SandHeight == 0 {
		fs = 0.4
	}
	vegetationDensity := math.Min(cell.EstimateVegetationDensity()/3.0, 1.0)
	fv := 1.0 - vegetationDensity
	return math.Max(0, math.Min(windShadowing+fs+fv, 1.0))
}

// SlopeNeighbor pairs a neighbor cell with the slope toward it.
type SlopeNeighbor struct {
	Index grid.CellIndex
	Slope float64
}

// TwoSteepestNeighbors returns the two neighbors of idx that idx slopes
// downward into most steeply (i.e. the lowest two), used to distribute
// reptating sand. Either or both may be absent if idx has no downhill
// neighbors.
func TwoSteepestNeighbors(g *grid.Grid, idx grid.CellIndex) (first, second *SlopeNeighbor) {
	var downhill []SlopeNeighbor
	for _, n := range g.Neighbors(idx) {
		slope := g.SlopeBetween(idx, n)
		if slope >= 0 {
			downhill = append(downhill, SlopeNeighbor{Index: n, Slope: slope})
		}
	}
	for i := 1; i < len(downhill); i++ {
		for j := i; j > 0 && downhill[j-1].Slope < downhill[j].Slope; j-- {
			downhill[j-1], downhill[j] = downhill[j], downhill[j-1]
		}
	}
	if len(downhill) >= 2 {
		return &downhill[0], &downhill[1]
	}
	if len(downhill) == 1 {
		return &downhill[0], nil
	}
	return nil, nil
}

// LocalWind warps the prevailing wind direction/strength at idx based on
// local relief: a Venturi speed-up with elevation, then a blend of
// high- and low-frequency terrain-gradient deflection, then an overall
// damping by wind shadowing.
func (s *State) LocalWind(g *grid.Grid, idx grid.CellIndex, cfg *config.Config, windDir, windStr float64) (direction, strength float64) {
	localStr := windStr * (1.0 + cfg.WindVenturiFactor*g.At(idx).Height())
	localVec := DirectionVector(windDir).Scale(localStr)

	highSlope, hdx, hdy := s.SlopeAtPointBlurred(g, idx, true)
	warpHigh := warpByGradient(localVec, windDir, highSlope, hdx, hdy, cfg.WindHighFreqDeviation)

	lowSlope, ldx, ldy := s.SlopeAtPointBlurred(g, idx, false)
	warpLow := warpByGradient(localVec, windDir, lowSlope, ldx, ldy, cfg.WindLowFreqDeviation)

	combined := warpHigh.Scale(cfg.WindHighFreqWeight).Add(warpLow.Scale(cfg.WindLowFreqWeight))

	shadow := Shadowing(g, idx, windDir)
	combined = combined.Scale(1.0 - shadow)

	return directionAngle(combined.Normalize()), combined.Norm()
}

func warpByGradient(localVec geometry.Vec2, windDir float64, slope float64, dx, dy int, deviation float64) geometry.Vec2 {
	orth := geometry.Vec2{X: float64(dy), Y: -float64(dx)}
	if orth.Dot(DirectionVector(windDir)) < 0 {
		orth = orth.Scale(-1)
	}
	return localVec.Scale(1 - slope).Add(orth.Scale(slope * deviation))
}
