package events

import (
	"math/rand"

	"landcycle/internal/ecosim/config"
	"landcycle/internal/ecosim/grid"
)

// liftModeSlopeThreshold separates fast runoff, which scours loose
// material and bedrock, from slow runoff, which drops part of its load.
const liftModeSlopeThreshold = 0.2

// sedimentLoad is the mix of material a runoff parcel carries downhill.
type sedimentLoad struct {
	humus, rock, sand float64
}

func (s sedimentLoad) total() float64 {
	return s.humus + s.rock + s.sand
}

// Rainfall simulates a parcel of water landing at idx and running off
// downhill. The parcel's water level is proportional to the starting
// cell's height; it hops from cell to cell, each hop chosen among the
// downhill neighbors weighted by slope, carrying a sediment load as it
// goes. On steep ground (slope above 0.2) the parcel lifts loose
// material up to its carrying capacity and scours bedrock once the
// loose material runs out; on gentle ground it drops a fraction of its
// load. Whatever is still in suspension when the parcel reaches a local
// sink, or when it exhausts the hop cap, settles where it stops.
func Rainfall(g *grid.Grid, idx grid.CellIndex, cfg *config.Config, rng *rand.Rand) {
	waterLevel := 0.001 * g.At(idx).Height()
	capacity := cfg.KC * waterLevel

	var load sedimentLoad
	current := idx
	for step := 0; step < cfg.RainfallHopCap; step++ {
		next, slope, ok := chooseDownhillStep(g, current, rng)
		if !ok {
			break
		}

		if slope > liftModeSlopeThreshold {
			lift(g.At(current), capacity, cfg.KS, &load)
		} else {
			deposit(g.At(current), cfg.KD, &load)
		}
		current = next
	}

	settle(g.At(current), &load)
}

// chooseDownhillStep samples the next cell of the runoff path among the
// neighbors that sit strictly downhill, weighted by slope. Reports false
// at a local sink (no downhill neighbor).
func chooseDownhillStep(g *grid.Grid, idx grid.CellIndex, rng *rand.Rand) (grid.CellIndex, float64, bool) {
	var slopes []float64
	var downhill []grid.CellIndex
	var slopeSum float64
	for _, n := range g.Neighbors(idx) {
		slope := g.SlopeBetween(idx, n)
		if slope > 0 {
			slopes = append(slopes, slope)
			downhill = append(downhill, n)
			slopeSum += slope
		}
	}
	if len(slopes) == 0 || slopeSum == 0 {
		return grid.CellIndex{}, 0, false
	}

	roll := rng.Float64() * slopeSum
	var acc float64
	for i, s := range slopes {
		acc += s
		if roll <= acc {
			return downhill[i], slopes[i], true
		}
	}
	last := len(slopes) - 1
	return downhill[last], slopes[last], true
}

// lift scours material from cell into the parcel's load, up to the
// parcel's remaining carrying capacity: loose material first (taken
// proportionally across humus, rock, and sand), then bedrock once the
// loose material cannot fill the capacity, with eroded bedrock joining
// the load as rock.
func lift(cell *grid.Cell, capacity, ks float64, load *sedimentLoad) {
	remaining := capacity - load.total()
	if remaining <= 0 {
		return
	}

	humus := cell.HumusHeight
	rock := cell.RockHeight
	sand := cell.SandHeight
	loose := humus + rock + sand

	if loose >= remaining {
		share := remaining / loose
		cell.RemoveHumus(humus * share)
		cell.RemoveRocks(rock * share)
		cell.RemoveSand(sand * share)
		load.humus += humus * share
		load.rock += rock * share
		load.sand += sand * share
		return
	}

	cell.RemoveHumus(humus)
	cell.RemoveRocks(rock)
	cell.RemoveSand(sand)
	load.humus += humus
	load.rock += rock
	load.sand += sand

	eroded := ks * (capacity - load.total())
	if eroded > cell.BedrockHeight {
		eroded = cell.BedrockHeight
	}
	cell.RemoveBedrock(eroded)
	load.rock += eroded
}

// deposit drops the kd fraction of each component of the load onto cell.
func deposit(cell *grid.Cell, kd float64, load *sedimentLoad) {
	cell.AddHumus(kd * load.humus)
	cell.AddRocks(kd * load.rock)
	cell.AddSand(kd * load.sand)
	load.humus -= kd * load.humus
	load.rock -= kd * load.rock
	load.sand -= kd * load.sand
}

// settle drops everything still in suspension onto cell.
func settle(cell *grid.Cell, load *sedimentLoad) {
	cell.AddHumus(load.humus)
	cell.AddRocks(load.rock)
	cell.AddSand(load.sand)
	*load = sedimentLoad{}
}
