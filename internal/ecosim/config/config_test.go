package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_TreeMoistureBandsAreOrdered(t *testing.T) {
	cfg := Default()
	sc := cfg.Trees
	assert.Less(t, sc.MoistureLimitMin, sc.MoistureIdealMin)
	assert.Less(t, sc.MoistureIdealMin, sc.MoistureIdealMax)
	assert.Less(t, sc.MoistureIdealMax, sc.MoistureLimitMax)
}

func TestDefault_TemperatureBandsAreOrdered(t *testing.T) {
	cfg := Default()
	for _, sc := range []SpeciesConfig{cfg.Trees, cfg.Bushes} {
		assert.Less(t, sc.TemperatureLimitMin, sc.TemperatureIdealMin)
		assert.Less(t, sc.TemperatureIdealMin, sc.TemperatureIdealMax)
		assert.Less(t, sc.TemperatureIdealMax, sc.TemperatureLimitMax)
	}
}

func TestLoadFromFile_PartialOverrideKeepsOtherDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"area_side_length": 42}`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.AreaSideLength)
	assert.Equal(t, Default().CellSideLength, cfg.CellSideLength)
}

func TestLoadFromFile_MissingFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestReload_ReplacesValuesUnderLock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"wind_strength": 99.0}`), 0o644))

	cfg := Default()
	require.NoError(t, cfg.Reload(path))
	assert.Equal(t, 99.0, cfg.WindStrength)
}

func TestSnapshot_ReturnsIndependentCopy(t *testing.T) {
	cfg := Default()
	snap := cfg.Snapshot()
	cfg.WindStrength = 123.0
	assert.NotEqual(t, cfg.WindStrength, snap.WindStrength)
}

func TestAreaSideAndCellSide_ReadUnderLock(t *testing.T) {
	cfg := Default()
	assert.Equal(t, cfg.AreaSideLength, cfg.AreaSide())
	assert.Equal(t, cfg.CellSideLength, cfg.CellSide())
}
