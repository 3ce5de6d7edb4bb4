// Package vegetation computes plant viability, vigor and stress from
// climate and site conditions, and applies the allometric growth,
// establishment, and death equations for trees, bushes, and grasses.
// Viability factors combine by Liebig's law of the minimum; the tree
// allometry uses published red-maple relationships, with the bush and
// grass bands extrapolated from the tree bands.
package vegetation

import (
	"math"
	"math/rand"

	"landcycle/internal/ecosim/config"
	"landcycle/internal/ecosim/grid"
)

// Viability maps a site value (temperature, moisture, or illumination)
// to a score in [-1, 1] using a 5-segment piecewise curve: fatal below
// limitMin or above limitMax, optimal (1.0) between idealMin and
// idealMax, and a linear ramp through the two transition bands.
func Viability(value, limitMin, idealMin, idealMax, limitMax float64) float64 {
	switch {
	case value <= limitMin || value >= limitMax:
		return -1.0
	case value < idealMin:
		return -1.0 + 2.0*(value-limitMin)/(idealMin-limitMin)
	case value <= idealMax:
		return 1.0
	default:
		return 1.0 - 2.0*(value-idealMax)/(limitMax-idealMax)
	}
}

// MonthlyViability describes the temperature/moisture/illumination
// viability scores for a single month, plus their Liebig's-law-of-the-
// minimum combination.
type MonthlyViability struct {
	Temperature  float64
	Moisture     float64
	Illumination float64
}

// Combined returns the overall viability for the month: the minimum of
// the three factor scores, since the scarcest resource limits growth
// regardless of how favorable the others are.
func (m MonthlyViability) Combined() float64 {
	return math.Min(m.Temperature, math.Min(m.Moisture, m.Illumination))
}

// treeLikeViabilities computes the 12 monthly viabilities for a
// tree/bush-shaped species config at a cell. illumFactor scales the
// cell's raw sunlight hours before the viability lookup, so understory
// layers see only the light that filters through the canopy above them.
func treeLikeViabilities(sc config.SpeciesConfig, cfg *config.Config, cell *grid.Cell, illumFactor float64) [12]MonthlyViability {
	var out [12]MonthlyViability
	for m := 0; m < 12; m++ {
		out[m] = MonthlyViability{
			Temperature: Viability(cell.MonthlyTemperature(cfg.AverageMonthlyTemperatures, m),
				sc.TemperatureLimitMin, sc.TemperatureIdealMin, sc.TemperatureIdealMax, sc.TemperatureLimitMax),
			Moisture: Viability(cell.MonthlySoilMoisture(cfg.AverageMonthlyRainfallMM, m),
				sc.MoistureLimitMin, sc.MoistureIdealMin, sc.MoistureIdealMax, sc.MoistureLimitMax),
			Illumination: Viability(cell.HoursOfSunlight[m]*illumFactor,
				sc.IlluminationLimitMin, sc.IlluminationIdealMin, sc.IlluminationIdealMax, sc.IlluminationLimitMax),
		}
	}
	return out
}

// grassViabilities computes the 12 monthly viabilities for grasses.
func grassViabilities(gc config.GrassConfig, cfg *config.Config, cell *grid.Cell, illumFactor float64) [12]MonthlyViability {
	var out [12]MonthlyViability
	for m := 0; m < 12; m++ {
		out[m] = MonthlyViability{
			Temperature: Viability(cell.MonthlyTemperature(cfg.AverageMonthlyTemperatures, m),
				gc.TemperatureLimitMin, gc.TemperatureIdealMin, gc.TemperatureIdealMax, gc.TemperatureLimitMax),
			Moisture: Viability(cell.MonthlySoilMoisture(cfg.AverageMonthlyRainfallMM, m),
				gc.MoistureLimitMin, gc.MoistureIdealMin, gc.MoistureIdealMax, gc.MoistureLimitMax),
			Illumination: Viability(cell.HoursOfSunlight[m]*illumFactor,
				gc.IlluminationLimitMin, gc.IlluminationIdealMin, gc.IlluminationIdealMax, gc.IlluminationLimitMax),
		}
	}
	return out
}

// canopyShadeFactor is the fraction of direct sunlight one taller
// vegetation layer passes through to the layers beneath it: an open sky
// (no layer) passes everything, and a layer of density d passes
// 0.5*d of the light, capped at full transmission.
func canopyShadeFactor(present bool, density float64) float64 {
	if !present {
		return 1.0
	}
	return math.Min(0.5*density, 1.0)
}

// bushIlluminationFactor shades the shrub layer by the tree canopy.
func bushIlluminationFactor(cell *grid.Cell, cfg *config.Config) float64 {
	return canopyShadeFactor(cell.Trees != nil && cell.Trees.Count > 0, TreeDensity(cell, cfg))
}

// grassIlluminationFactor shades the ground layer by every taller layer:
// the factors multiply, so grass under both trees and bushes sees the
// product of the two transmissions.
func grassIlluminationFactor(cell *grid.Cell, cfg *config.Config) float64 {
	f := canopyShadeFactor(cell.Trees != nil && cell.Trees.Count > 0, TreeDensity(cell, cfg))
	f *= canopyShadeFactor(cell.Bushes != nil && cell.Bushes.Count > 0, BushDensity(cell, cfg))
	return f
}

// growingSeasonMonths reports which months belong to the growing
// season: those whose base (valley-floor) temperature exceeds 5 C.
func growingSeasonMonths(baseMonthlyTemperatures [12]float64) []int {
	var months []int
	for m, temp := range baseMonthlyTemperatures {
		if temp > 5.0 {
			months = append(months, m)
		}
	}
	return months
}

// Vigor is the mean combined viability across the growing season
// months. A site whose climate has no growing season has zero vigor.
func Vigor(monthly [12]MonthlyViability, baseMonthlyTemperatures [12]float64) float64 {
	months := growingSeasonMonths(baseMonthlyTemperatures)
	if len(months) == 0 {
		return 0
	}
	var sum float64
	for _, m := range months {
		sum += monthly[m].Combined()
	}
	return sum / float64(len(months))
}

// Stress is the mean of the up-to-four worst (most negative) monthly
// combined viabilities, or 0 if no month is actually negative (a merely
// mediocre year carries no stress).
func Stress(monthly [12]MonthlyViability) float64 {
	values := make([]float64, 12)
	for m := range monthly {
		values[m] = monthly[m].Combined()
	}
	sortAscending(values)
	var sum float64
	var taken int
	for i := 0; i < 4; i++ {
		if values[i] < 0 {
			sum += values[i]
			taken++
		}
	}
	if taken == 0 {
		return 0
	}
	return sum / float64(taken)
}

func sortAscending(v []float64) {
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j-1] > v[j]; j-- {
			v[j-1], v[j] = v[j], v[j-1]
		}
	}
}

// TreeDiameterFromHeight converts a tree's height (m) to trunk diameter
// at breast height (cm), inverting the red maple allometric
// relationship log10(h) = 0.6*log10(d) + 0.4 as log10(d) = (log10(h) -
// 0.4)/0.6, which is exact at diameter(10 m) = 10 cm.
func TreeDiameterFromHeight(heightM float64) float64 {
	if heightM <= 0 {
		return 0
	}
	return math.Pow(10, (math.Log10(heightM)-0.4)/0.6)
}

// TreeBiomassFromDiameter returns above-ground dry biomass (kg) from
// diameter at breast height (cm), using the red maple allometric
// relationship ln(biomass) = -2.047 + 2.385*ln(diameter).
func TreeBiomassFromDiameter(diameterCM float64) float64 {
	if diameterCM <= 0 {
		return 0
	}
	return math.Exp(-2.047 + 2.385*math.Log(diameterCM))
}

// BushBiomassFromHeight returns above-ground dry biomass (kg) from a
// bush's height (m), using the allometric relationship ln(m) = -2.635 +
// 3.614*ln(h).
func BushBiomassFromHeight(heightM float64) float64 {
	if heightM <= 0 {
		return 0
	}
	return math.Exp(-2.635 + 3.614*math.Log(heightM))
}

// BushCrownArea returns a bush's crown area (m^2) from its biomass (kg),
// using the relationship area = exp((ln(m) + 0.435)/1.324).
func BushCrownArea(biomassKG float64) float64 {
	if biomassKG <= 0 {
		return 0
	}
	return math.Exp((math.Log(biomassKG) + 0.435) / 1.324)
}

// TreeCrownArea returns a single tree's canopy area (m^2) from its trunk
// diameter (cm). Crown width follows a + b*d + c*d^2 in diameter; with
// no species-specific curvature term available, c is fixed at 0 and the
// crown-width/diameter relationship stays linear.
func TreeCrownArea(diameterCM float64) float64 {
	if diameterCM <= 0 {
		return 0
	}
	const a, b = 1.0, 0.2
	crownDiameter := a + b*diameterCM
	return math.Pi * crownDiameter * crownDiameter / 4.0
}

// populationDensity is crown area per plant, times count, over cell
// area, shared by trees and bushes, since both
// populations are aggregated the same way (count + height sum) and
// differ only in which allometric equation turns mean height into crown
// area.
func populationDensity(count uint32, heightSum, cellArea float64, crownAreaFromHeight func(meanHeightM float64) float64) float64 {
	if count == 0 || cellArea <= 0 {
		return 0
	}
	meanHeight := heightSum / float64(count)
	return crownAreaFromHeight(meanHeight) * float64(count) / cellArea
}

func treeCrownAreaFromHeight(meanHeightM float64) float64 {
	return TreeCrownArea(TreeDiameterFromHeight(meanHeightM))
}

func bushCrownAreaFromHeight(meanHeightM float64) float64 {
	return BushCrownArea(BushBiomassFromHeight(meanHeightM))
}

// TreeDensity returns the cell's tree stocking density: total canopy
// area divided by cell area. Values above 1 mean the canopy is
// overcrowded for the available ground.
func TreeDensity(cell *grid.Cell, cfg *config.Config) float64 {
	if cell.Trees == nil {
		return 0
	}
	return populationDensity(cell.Trees.Count, cell.Trees.HeightSum, cfg.CellSideLength*cfg.CellSideLength, treeCrownAreaFromHeight)
}

// BushDensity mirrors TreeDensity for the shrub layer.
func BushDensity(cell *grid.Cell, cfg *config.Config) float64 {
	if cell.Bushes == nil {
		return 0
	}
	return populationDensity(cell.Bushes.Count, cell.Bushes.HeightSum, cfg.CellSideLength*cfg.CellSideLength, bushCrownAreaFromHeight)
}

// EstablishTrees applies establishment (new seedlings) to a cell's tree
// population for the year. Germination only happens in an unstressed,
// uncrowded cell: stress must be exactly 0 and density below 1. Expected
// seedlings scale with the establishment rate, cell area, the species'
// seedling-density and seed-vigor constants, the remaining open ground
// (1 - density), and vigor. A fractional expectation below one seedling
// is used as the probability of a single germination instead.
func EstablishTrees(cell *grid.Cell, sc config.SpeciesConfig, cfg *config.Config, vigor, stress, density float64, rng *rand.Rand) {
	if stress != 0 || density >= 1 {
		return
	}
	cellArea := cfg.CellSideLength * cfg.CellSideLength
	expected := sc.EstablishmentRate * cellArea * sc.SeedlingDensityConstant * (1 - density) * sc.SeedlingVigorConstant * vigor
	if expected <= 0 {
		return
	}
	var added uint32
	if expected < 1 {
		if rng.Float64() < expected {
			added = 1
		}
	} else {
		added = uint32(expected)
	}
	if added == 0 {
		return
	}
	if cell.Trees == nil {
		cell.Trees = &grid.Trees{}
	}
	cell.Trees.Count += added
}

// GrowTrees advances every plant in a cell's tree population by the
// species growth rate and one year of age.
func GrowTrees(cell *grid.Cell, sc config.SpeciesConfig) {
	if cell.Trees == nil || cell.Trees.Count == 0 {
		return
	}
	cell.Trees.HeightSum += sc.GrowthRate * float64(cell.Trees.Count)
	cell.Trees.AgeSum += float64(cell.Trees.Count)
}

// DieTrees removes trees from the population due to overpopulation,
// stress mortality, and old-age senescence, moving their biomass into
// dead vegetation. density is the stand's current crown-area density
// (see TreeDensity/BushDensity); biomassPerPlant estimates a single
// plant's biomass (kg) from its mean height so the same death
// bookkeeping serves both trees (diameter -> allometric biomass) and
// bushes (height -> allometric biomass) without duplicating the
// count/height/age update logic.
func DieTrees(cell *grid.Cell, sc config.SpeciesConfig, stress, density float64, biomassPerPlant func(meanHeightM float64) float64) {
	if cell.Trees == nil || cell.Trees.Count == 0 {
		return
	}
	count := cell.Trees.Count
	meanAge := cell.Trees.AgeSum / float64(count)
	meanHeight := cell.Trees.HeightSum / float64(count)

	// Overpopulation: thin the stand until its crown density no longer
	// exceeds 1, but never down to zero plants. Density is proportional
	// to count with every other term held fixed, so the "while density >
	// 1, kill one plant" loop converges to floor(count/density) directly.
	var overpopulationDeaths uint32
	if density > 1 {
		maxCount := uint32(float64(count) / density)
		if maxCount < 1 {
			maxCount = 1
		}
		if count > maxCount {
			overpopulationDeaths = count - maxCount
		}
	}

	stressDeaths := 0.0
	if stress < 0 {
		stressDeaths = math.Floor(sc.StressDeathConstant * -stress)
	}

	senescenceDeaths := 0.0
	if meanAge > sc.LifeExpectancy {
		senescenceDeaths = math.Ceil((1.0 - sc.SenescenceDeathConstant) * float64(count))
	}

	deaths := overpopulationDeaths + uint32(math.Min(float64(count), stressDeaths+senescenceDeaths))
	if deaths > count {
		deaths = count
	}
	if deaths == 0 {
		return
	}

	cell.AddDeadVegetation(biomassPerPlant(meanHeight) * float64(deaths))

	cell.Trees.Count -= deaths
	if cell.Trees.Count == 0 {
		cell.Trees.HeightSum = 0
		cell.Trees.AgeSum = 0
		return
	}
	cell.Trees.HeightSum -= cell.Trees.HeightSum * (float64(deaths) / float64(deaths+cell.Trees.Count))
	cell.Trees.AgeSum -= cell.Trees.AgeSum * (float64(deaths) / float64(deaths+cell.Trees.Count))
}

func treeBiomassPerPlant(meanHeightM float64) float64 {
	return TreeBiomassFromDiameter(TreeDiameterFromHeight(meanHeightM))
}

// StepTrees runs establishment, growth, and death for a cell's tree
// population for one simulated year. A population that falls to zero
// plants is removed outright rather than left as an empty record.
func StepTrees(cell *grid.Cell, cfg *config.Config, rng *rand.Rand) {
	monthly := treeLikeViabilities(cfg.Trees, cfg, cell, 1.0)
	vigor := Vigor(monthly, cfg.AverageMonthlyTemperatures)
	stress := Stress(monthly)
	EstablishTrees(cell, cfg.Trees, cfg, vigor, stress, TreeDensity(cell, cfg), rng)
	GrowTrees(cell, cfg.Trees)
	DieTrees(cell, cfg.Trees, stress, TreeDensity(cell, cfg), treeBiomassPerPlant)
	if cell.Trees != nil && cell.Trees.Count == 0 {
		cell.Trees = nil
	}
}

// StepBushes runs the same establishment/growth/death cycle for bushes,
// reusing the tree machinery for count/height/age bookkeeping since
// bushes share the same population shape, but with the bush-specific
// allometric biomass and crown-area equations for density and deaths,
// and with the shrub layer's sunlight filtered through the tree canopy.
func StepBushes(cell *grid.Cell, cfg *config.Config, rng *rand.Rand) {
	monthly := treeLikeViabilities(cfg.Bushes, cfg, cell, bushIlluminationFactor(cell, cfg))
	vigor := Vigor(monthly, cfg.AverageMonthlyTemperatures)
	stress := Stress(monthly)

	var count uint32
	var heightSum, ageSum float64
	if cell.Bushes != nil {
		count, heightSum, ageSum = cell.Bushes.Count, cell.Bushes.HeightSum, cell.Bushes.AgeSum
	}
	asTrees := &grid.Trees{Count: count, HeightSum: heightSum, AgeSum: ageSum}
	tmp := &grid.Cell{Trees: asTrees, Dead: cell.Dead}
	cellArea := cfg.CellSideLength * cfg.CellSideLength

	preDensity := populationDensity(asTrees.Count, asTrees.HeightSum, cellArea, bushCrownAreaFromHeight)
	EstablishTrees(tmp, cfg.Bushes, cfg, vigor, stress, preDensity, rng)
	GrowTrees(tmp, cfg.Bushes)
	postDensity := populationDensity(asTrees.Count, asTrees.HeightSum, cellArea, bushCrownAreaFromHeight)
	DieTrees(tmp, cfg.Bushes, stress, postDensity, BushBiomassFromHeight)

	cell.Dead = tmp.Dead
	if asTrees.Count == 0 {
		cell.Bushes = nil
		return
	}
	cell.Bushes = &grid.Bushes{Count: asTrees.Count, HeightSum: asTrees.HeightSum, AgeSum: asTrees.AgeSum}
}

// StepGrasses updates a cell's grass coverage density by one year: an
// unstressed year spreads coverage in proportion to vigor, a stressed
// year kills coverage in proportion to stress, and both dieback and any
// coverage pushed past full ground cover become dead biomass. Coverage
// falling to zero removes the population.
func StepGrasses(cell *grid.Cell, cfg *config.Config) {
	monthly := grassViabilities(cfg.Grasses, cfg, cell, grassIlluminationFactor(cell, cfg))
	vigor := Vigor(monthly, cfg.AverageMonthlyTemperatures)
	stress := Stress(monthly)

	density := 0.0
	if cell.Grasses != nil {
		density = cell.Grasses.CoverageDensity
	}
	cellArea := cfg.CellSideLength * cfg.CellSideLength

	if stress == 0 {
		if vigor > 0 {
			density += cfg.Grasses.SpreadRate * vigor
		}
	} else {
		dieback := math.Min(cfg.Grasses.DeathRate*-stress, density)
		density -= dieback
		cell.AddDeadVegetation(dieback * cfg.Grasses.DensityPerM2 * cellArea)
	}

	if density > 1 {
		cell.AddDeadVegetation((density - 1) * cfg.Grasses.DensityPerM2 * cellArea)
		density = 1
	}

	if density <= 0 {
		cell.Grasses = nil
		return
	}
	if cell.Grasses == nil {
		cell.Grasses = &grid.Grasses{}
	}
	cell.Grasses.CoverageDensity = density
}

// DecayDeadVegetation converts last year's dead biomass into humus: a
// fixed fraction becomes humus height while the remainder rots away
// entirely, so dead matter persists for exactly one simulated year.
func DecayDeadVegetation(cell *grid.Cell, cfg *config.Config) {
	biomass := cell.DeadVegetationBiomass()
	if biomass <= 0 {
		cell.RemoveAllDeadVegetation()
		return
	}
	converted := biomass * cfg.DeadVegetationToHumusRate
	humusHeight := converted / (cfg.CellSideLength * cfg.CellSideLength * cfg.HumusDensityKgPerM3)
	cell.AddHumus(humusHeight)
	cell.RemoveAllDeadVegetation()
}
