package driver

import (
	"landcycle/internal/ecosim/ecosystem"
	"landcycle/internal/ecosim/grid"
	"landcycle/internal/ecosim/vegetation"
)

// Summary aggregates whole-ecosystem statistics for a single simulated
// year, cheap enough to compute every tick and broadcast to observers or
// record for a time series, without shipping the entire grid.
type Summary struct {
	Year int `json:"year"`

	TotalTreeCount       uint64  `json:"total_tree_count"`
	TotalBushCount       uint64  `json:"total_bush_count"`
	MeanGrassCoverage    float64 `json:"mean_grass_coverage"`
	TotalTreeBiomassKG   float64 `json:"total_tree_biomass_kg"`
	TotalDeadBiomassKG   float64 `json:"total_dead_biomass_kg"`
	MeanSoilMoisture     float64 `json:"mean_soil_moisture"`
	MeanTerrainHeight    float64 `json:"mean_terrain_height"`
	MeanSunlightHoursJul float64 `json:"mean_sunlight_hours_july"`
}

// Summarize scans the whole grid and produces a Summary for the
// ecosystem's current state.
func Summarize(eco *ecosystem.Ecosystem) Summary {
	g := eco.Grid
	n := float64(g.NumCells())

	var s Summary
	s.Year = eco.Year

	var grassSum, moistureSum, heightSum, julySum float64
	g.ForEachCell(func(idx grid.CellIndex) {
		cell := g.At(idx)
		if cell.Trees != nil {
			s.TotalTreeCount += uint64(cell.Trees.Count)
			s.TotalTreeBiomassKG += estimateTreeBiomass(cell.Trees)
		}
		if cell.Bushes != nil {
			s.TotalBushCount += uint64(cell.Bushes.Count)
		}
		if cell.Grasses != nil {
			grassSum += cell.Grasses.CoverageDensity
		}
		if cell.Dead != nil {
			s.TotalDeadBiomassKG += cell.Dead.Biomass
		}
		moistureSum += cell.SoilMoisture
		heightSum += cell.Height()
		julySum += cell.HoursOfSunlight[6]
	})

	s.MeanGrassCoverage = grassSum / n
	s.MeanSoilMoisture = moistureSum / n
	s.MeanTerrainHeight = heightSum / n
	s.MeanSunlightHoursJul = julySum / n
	return s
}

func estimateTreeBiomass(t *grid.Trees) float64 {
	if t.Count == 0 {
		return 0
	}
	meanHeight := t.HeightSum / float64(t.Count)
	diameter := vegetation.TreeDiameterFromHeight(meanHeight)
	return vegetation.TreeBiomassFromDiameter(diameter) * float64(t.Count)
}
