package events

import (
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"landcycle/internal/ecosim/config"
	"landcycle/internal/ecosim/ecosystem"
	"landcycle/internal/ecosim/grid"
)

func TestKind_StringLabelsEveryKnownKind(t *testing.T) {
	cases := map[Kind]string{
		KindRainfall:      "rainfall",
		KindThermalStress: "thermal_stress",
		KindLightning:     "lightning",
		KindRockSlide:     "rock_slide",
		KindSandSlide:     "sand_slide",
		KindHumusSlide:    "humus_slide",
		KindWind:          "wind",
		KindVegetation:    "vegetation",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
	assert.Equal(t, "unknown", Kind(999).String())
}

func TestDispatch_UnknownKindIsANoOp(t *testing.T) {
	cfg := config.Default()
	cfg.AreaSideLength = 4
	eco := ecosystem.New(cfg)
	rng := rand.New(rand.NewSource(1))
	assert.NotPanics(t, func() {
		Dispatch(eco, Kind(999), grid.NewCellIndex(1, 1), rng, zerolog.Nop(), nil, "test", 0)
	})
}

func TestDispatch_RainfallTerminatesWithoutPropagation(t *testing.T) {
	cfg := config.Default()
	cfg.AreaSideLength = 4
	eco := ecosystem.New(cfg)
	rng := rand.New(rand.NewSource(1))
	assert.NotPanics(t, func() {
		Dispatch(eco, KindRainfall, grid.NewCellIndex(1, 1), rng, zerolog.Nop(), nil, "test", 0)
	})
}

func TestDispatch_SandSlideChainEventuallyTerminates(t *testing.T) {
	cfg := config.Default()
	eco := ecosystem.NewTest(cfg, 4)
	// A steep isolated sand pile keeps sliding until it spreads out flat
	// enough to stop; the dispatcher's continuation loop must not hang.
	eco.Grid.At(grid.NewCellIndex(1, 1)).AddSand(20.0)
	rng := rand.New(rand.NewSource(1))
	assert.NotPanics(t, func() {
		Dispatch(eco, KindSandSlide, grid.NewCellIndex(1, 1), rng, zerolog.Nop(), nil, "test", 0)
	})
}
