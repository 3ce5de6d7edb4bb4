// Package config holds every tunable constant of the simulation behind a
// single JSON-reloadable struct: a Default() baseline, LoadFromFile and
// Reload for operator overrides, and thread-safe getters so the driver
// and the control-plane HTTP handlers can read values while a reload is
// in flight.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Config holds the full set of simulation constants.
type Config struct {
	mu *sync.RWMutex

	AreaSideLength       int     `json:"area_side_length"`
	CellSideLength       float64 `json:"cell_side_length_m"`
	DefaultBedrockHeight float64 `json:"default_bedrock_height_m"`
	DefaultHumusHeight   float64 `json:"default_humus_height_m"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  int     `json:"timezone_utc_offset"`

	CriticalAngleRock               float64 `json:"critical_angle_rock_deg"`
	CriticalAngleSand               float64 `json:"critical_angle_sand_deg"`
	CriticalAngleSandWithVegetation float64 `json:"critical_angle_sand_vegetated_deg"`
	CriticalAngleHumus              float64 `json:"critical_angle_humus_deg"`

	AverageMonthlyTemperatures [12]float64 `json:"average_monthly_temperatures_c"`
	AverageSunlightHours       [12]float64 `json:"average_sunlight_hours"`
	AverageMonthlyRainfallMM   [12]float64 `json:"average_monthly_rainfall_mm"`
	PercentSunnyDays           float64     `json:"percent_sunny_days"`

	PerCellRainfall float64 `json:"per_cell_rainfall"`
	KC              float64 `json:"sediment_kc"`
	KD              float64 `json:"sediment_kd"`
	KS              float64 `json:"sediment_ks"`
	RainfallHopCap  int     `json:"rainfall_hop_cap"`

	WindDirection float64 `json:"wind_direction_deg"`
	WindStrength  float64 `json:"wind_strength"`

	WindCarryingCapacity        float64 `json:"wind_carrying_capacity_m"`
	WindReptationHeight         float64 `json:"wind_reptation_height_m"`
	WindSaltationDistanceFactor float64 `json:"wind_saltation_distance_factor"`
	WindVenturiFactor           float64 `json:"wind_venturi_factor"`
	WindHighFreqKernelRadius    int     `json:"wind_high_freq_kernel_radius"`
	WindLowFreqKernelRadius     int     `json:"wind_low_freq_kernel_radius"`
	WindHighFreqDeviation       float64 `json:"wind_high_freq_deviation"`
	WindLowFreqDeviation        float64 `json:"wind_low_freq_deviation"`
	WindHighFreqWeight          float64 `json:"wind_high_freq_weight"`
	WindLowFreqWeight           float64 `json:"wind_low_freq_weight"`

	LightningDisplacementVolume float64 `json:"lightning_displacement_volume_m3"`
	LightningStrikesPerSqKMYear float64 `json:"lightning_strikes_per_sq_km_year"`

	ThermalFractureConstant      float64 `json:"thermal_fracture_constant"`
	ThermalGranularDampening     float64 `json:"thermal_granular_dampening"`
	ThermalVegetationDampening   float64 `json:"thermal_vegetation_dampening"`
	ThermalBedrockFractureHeight float64 `json:"thermal_bedrock_fracture_height_m"`
	ThermalDeltaT                float64 `json:"thermal_delta_t_c"`

	DeadVegetationToHumusRate float64 `json:"dead_vegetation_to_humus_rate"`
	HumusDensityKgPerM3       float64 `json:"humus_density_kg_per_m3"`

	Trees   SpeciesConfig `json:"trees"`
	Bushes  SpeciesConfig `json:"bushes"`
	Grasses GrassConfig   `json:"grasses"`
}

// SpeciesConfig holds the viability bands and allometric constants for
// a woody-plant population (trees or bushes). Bands follow the 5-segment
// piecewise viability shape: below LimitMin or above LimitMax is fatal
// (-1), between IdealMin and IdealMax is optimal (+1), and the two
// transition zones interpolate linearly between them.
type SpeciesConfig struct {
	TemperatureLimitMin, TemperatureIdealMin   float64
	TemperatureIdealMax, TemperatureLimitMax   float64
	MoistureLimitMin, MoistureIdealMin         float64
	MoistureIdealMax, MoistureLimitMax         float64
	IlluminationLimitMin, IlluminationIdealMin float64
	IlluminationIdealMax, IlluminationLimitMax float64

	EstablishmentRate       float64
	SeedlingDensityConstant float64
	SeedlingVigorConstant   float64
	GrowthRate              float64
	LifeExpectancy          float64
	StressDeathConstant     float64
	SenescenceDeathConstant float64
}

// GrassConfig mirrors SpeciesConfig's viability bands but grasses spread
// as a coverage density rather than accumulating height/age sums.
type GrassConfig struct {
	TemperatureLimitMin, TemperatureIdealMin   float64
	TemperatureIdealMax, TemperatureLimitMax   float64
	MoistureLimitMin, MoistureIdealMin         float64
	MoistureIdealMax, MoistureLimitMax         float64
	IlluminationLimitMin, IlluminationIdealMin float64
	IlluminationIdealMax, IlluminationLimitMax float64

	SpreadRate   float64
	DeathRate    float64
	DensityPerM2 float64 // kg of grass per m^2 of full cover, used for dead-biomass conversion
}

// Default returns the baseline configuration: a Providence RI climate,
// red-maple-derived tree constants, and bush/grass viability bands
// extrapolated from the tree bands.
func Default() *Config {
	return &Config{
		mu:                   &sync.RWMutex{},
		AreaSideLength:       100,
		CellSideLength:       10.0,
		DefaultBedrockHeight: 100.0,
		DefaultHumusHeight:   0.5,

		Latitude:  41.8,
		Longitude: -71.4,
		Timezone:  -5,

		CriticalAngleRock:               45.0,
		CriticalAngleSand:               34.0,
		CriticalAngleSandWithVegetation: 45.0,
		CriticalAngleHumus:              40.0,

		AverageMonthlyTemperatures: [12]float64{-2.0, -0.8, 2.8, 8.8, 14.3, 19.2, 23.0, 22.3, 18.7, 12.5, 6.7, 1.5},
		AverageSunlightHours:       [12]float64{6.75, 6.75, 8.25, 9.75, 10.5, 11.25, 11.25, 10.5, 9.75, 9.0, 7.5, 7.5},
		AverageMonthlyRainfallMM:   [12]float64{96.0, 81.0, 111.0, 99.0, 86.0, 91.0, 87.0, 103.0, 93.0, 106.0, 88.0, 110.0},
		PercentSunnyDays:           0.75,

		PerCellRainfall: 1151.0,
		KC:              5.0,
		KD:              0.1,
		KS:              0.3,
		RainfallHopCap:  1000,

		WindDirection: 45.0,
		WindStrength:  10.0,

		WindCarryingCapacity:        0.2,
		WindReptationHeight:         0.1,
		WindSaltationDistanceFactor: 1.0,
		WindVenturiFactor:           5e-3,
		WindHighFreqKernelRadius:    11,
		WindLowFreqKernelRadius:     25,
		WindHighFreqDeviation:       5.0,
		WindLowFreqDeviation:        30.0,
		WindHighFreqWeight:          0.2,
		WindLowFreqWeight:           0.8,

		LightningDisplacementVolume: 4.0,
		LightningStrikesPerSqKMYear: 20.0,

		ThermalFractureConstant:      1.0,
		ThermalGranularDampening:     1.0,
		ThermalVegetationDampening:   1.0,
		ThermalBedrockFractureHeight: 1.0,
		ThermalDeltaT:                10.0,

		DeadVegetationToHumusRate: 0.3,
		HumusDensityKgPerM3:       1500.0,

		Trees: SpeciesConfig{
			TemperatureLimitMin: -10.0, TemperatureIdealMin: 0.0,
			TemperatureIdealMax: 35.0, TemperatureLimitMax: 38.0,
			MoistureLimitMin: 500.0, MoistureIdealMin: 5000.0,
			MoistureIdealMax: 40000.0, MoistureLimitMax: 100000.0,
			IlluminationLimitMin: 4.0, IlluminationIdealMin: 6.0,
			IlluminationIdealMax: 10.0, IlluminationLimitMax: 14.0,
			EstablishmentRate:       0.24,
			SeedlingDensityConstant: 0.05,
			SeedlingVigorConstant:   0.5,
			GrowthRate:              0.3,
			LifeExpectancy:          80.0,
			StressDeathConstant:     1.0,
			SenescenceDeathConstant: 0.05,
		},
		// Bushes: scaled down from the tree bands — shrubs tolerate a
		// wider moisture range but need more direct light since they
		// cannot outcompete the canopy for it, and they turn over faster.
		Bushes: SpeciesConfig{
			TemperatureLimitMin: -8.0, TemperatureIdealMin: 2.0,
			TemperatureIdealMax: 32.0, TemperatureLimitMax: 36.0,
			MoistureLimitMin: 250.0, MoistureIdealMin: 3500.0,
			MoistureIdealMax: 45000.0, MoistureLimitMax: 110000.0,
			IlluminationLimitMin: 5.0, IlluminationIdealMin: 7.0,
			IlluminationIdealMax: 12.0, IlluminationLimitMax: 15.0,
			EstablishmentRate:       0.35,
			SeedlingDensityConstant: 0.08,
			SeedlingVigorConstant:   0.5,
			GrowthRate:              0.5,
			LifeExpectancy:          25.0,
			StressDeathConstant:     1.2,
			SenescenceDeathConstant: 0.08,
		},
		// Grasses: widest tolerance of all three layers and the fastest
		// turnover, consistent with turf grasses colonizing disturbed or
		// marginal ground ahead of woody species.
		Grasses: GrassConfig{
			TemperatureLimitMin: -15.0, TemperatureIdealMin: 3.0,
			TemperatureIdealMax: 30.0, TemperatureLimitMax: 40.0,
			MoistureLimitMin: 100.0, MoistureIdealMin: 2000.0,
			MoistureIdealMax: 50000.0, MoistureLimitMax: 120000.0,
			IlluminationLimitMin: 3.0, IlluminationIdealMin: 5.0,
			IlluminationIdealMax: 14.0, IlluminationLimitMax: 16.0,
			SpreadRate:   0.4,
			DeathRate:    0.1,
			DensityPerM2: 1.0,
		},
	}
}

// LoadFromFile reads a JSON override document and applies it on top of
// Default(), so a partial file only needs to name the fields it changes.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Reload re-reads path and atomically replaces every field of cfg under
// its write lock, so readers holding a *Config never observe a
// half-updated struct.
func (c *Config) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reloading config file %s: %w", path, err)
	}
	next := Default()
	if err := json.Unmarshal(data, next); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	ownMu := c.mu
	*c = *next
	c.mu = ownMu
	return nil
}

// AreaSide returns the configured grid side length under a read lock.
func (c *Config) AreaSide() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.AreaSideLength
}

// CellSide returns the configured cell edge length in meters.
func (c *Config) CellSide() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.CellSideLength
}

// Snapshot returns a copy of the current configuration values safe to
// read without holding any lock afterward.
func (c *Config) Snapshot() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cp := *c
	cp.mu = nil
	return cp
}
