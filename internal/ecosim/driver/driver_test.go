package driver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landcycle/internal/ecosim/config"
	"landcycle/internal/ecosim/ecosystem"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.AreaSideLength = 4
	return cfg
}

func TestStep_AdvancesYearAndReturnsMatchingSummary(t *testing.T) {
	cfg := testConfig()
	eco := ecosystem.New(cfg)
	d := New(eco, 1, 2)

	summary := d.Step(context.Background())
	assert.Equal(t, 1, eco.Year)
	assert.Equal(t, eco.Year, summary.Year)
}

func TestStepN_RunsRequestedNumberOfYears(t *testing.T) {
	cfg := testConfig()
	eco := ecosystem.New(cfg)
	d := New(eco, 2, 2)

	summary := d.StepN(context.Background(), 3)
	assert.Equal(t, 3, eco.Year)
	assert.Equal(t, 3, summary.Year)
}

func TestStep_RespectsCanceledContext(t *testing.T) {
	cfg := testConfig()
	eco := ecosystem.New(cfg)
	d := New(eco, 3, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// A pre-canceled context should not panic; the year still advances
	// since Step always finishes bookkeeping even if per-cell event
	// application is cut short.
	require.NotPanics(t, func() { d.Step(ctx) })
}

func TestSummarize_MeanTerrainHeightMatchesFlatWorld(t *testing.T) {
	cfg := testConfig()
	eco := ecosystem.New(cfg)
	s := Summarize(eco)
	assert.InDelta(t, cfg.DefaultBedrockHeight+cfg.DefaultHumusHeight, s.MeanTerrainHeight, 1e-9)
	assert.Equal(t, uint64(0), s.TotalTreeCount)
}
