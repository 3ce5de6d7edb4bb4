package events

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"landcycle/internal/ecosim/config"
	"landcycle/internal/ecosim/ecosystem"
	"landcycle/internal/ecosim/eventlog"
	"landcycle/internal/ecosim/grid"
	"landcycle/internal/metrics"
)

// Kind names one of the per-cell events the dispatcher can apply.
type Kind int

const (
	KindRainfall Kind = iota
	KindThermalStress
	KindLightning
	KindRockSlide
	KindSandSlide
	KindHumusSlide
	KindWind
	KindVegetation
)

// maxChainLength bounds a single dispatcher continuation chain. Slides
// and wind bounces are only naturally bounded by the decay of slope or
// probability, not by a hard limit, so a pathological configuration
// (e.g. a perfectly uniform slope) could in principle propagate
// forever; this cap trades a theoretical infinite loop for an
// observable, logged cutoff.
const maxChainLength = 10000

// Dispatch applies a single event at a cell and, if the event propagates
// (e.g. a slide or a bouncing wind parcel landed somewhere new), keeps
// applying the next event in the chain until one of them stops
// propagating: each kernel either ends the chain or hands back the
// next (kind, index) pair to run. elog and scenario are optional: when
// elog is non-nil, every hop of the chain is appended to the event log
// for later audit/replay, independent of the hot simulation path.
func Dispatch(eco *ecosystem.Ecosystem, kind Kind, idx grid.CellIndex, rng *rand.Rand, log zerolog.Logger, elog *eventlog.Log, scenario string, year int) {
	origin := kind
	first := true
	for hops := 0; ; hops++ {
		metrics.RecordKernelInvocation(kind.String())
		if !first {
			metrics.RecordKernelPropagation(kind.String())
		}
		cascaded := !first
		first = false

		if hops >= maxChainLength {
			metrics.RecordKernelPropagationOverflow(origin.String())
			log.Warn().Str("event", origin.String()).Int("hops", hops).
				Msg("dispatcher chain exceeded propagation cap; cutting off")
			return
		}

		next, nextIdx, ok := applyOnce(eco, kind, idx, rng)
		logEvent(elog, scenario, year, kind, idx, cascaded)
		if !ok {
			return
		}
		kind, idx = next, nextIdx
	}
}

// logEvent appends a record of one dispatched hop to elog, best-effort
// and off the hot path: the insert runs in its own goroutine with a
// short timeout so a slow or unreachable Mongo instance never stalls a
// simulation year.
func logEvent(elog *eventlog.Log, scenario string, year int, kind Kind, idx grid.CellIndex, cascaded bool) {
	if elog == nil {
		return
	}
	entry := eventlog.Entry{
		Scenario:  scenario,
		Year:      year,
		Kind:      kind.String(),
		CellX:     idx.X,
		CellY:     idx.Y,
		Cascaded:  cascaded,
		Timestamp: time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = elog.Append(ctx, entry)
	}()
}

// String returns the lowercase event name used as a metrics/log label.
func (k Kind) String() string {
	switch k {
	case KindRainfall:
		return "rainfall"
	case KindThermalStress:
		return "thermal_stress"
	case KindLightning:
		return "lightning"
	case KindRockSlide:
		return "rock_slide"
	case KindSandSlide:
		return "sand_slide"
	case KindHumusSlide:
		return "humus_slide"
	case KindWind:
		return "wind"
	case KindVegetation:
		return "vegetation"
	default:
		return "unknown"
	}
}

func applyOnce(eco *ecosystem.Ecosystem, kind Kind, idx grid.CellIndex, rng *rand.Rand) (Kind, grid.CellIndex, bool) {
	g := eco.Grid
	cfg := eco.Config

	switch kind {
	case KindRainfall:
		Rainfall(g, idx, cfg, rng)
		return 0, grid.CellIndex{}, false

	case KindThermalStress:
		ThermalStress(g, idx, cfg, rng)
		return 0, grid.CellIndex{}, false

	case KindLightning:
		Lightning(g, idx, cfg, rng)
		return 0, grid.CellIndex{}, false

	case KindRockSlide:
		if target, ok := Slide(g, idx, MaterialRock, slideAngles(cfg), rng); ok {
			return KindRockSlide, target, true
		}
		return 0, grid.CellIndex{}, false

	case KindSandSlide:
		if target, ok := Slide(g, idx, MaterialSand, slideAngles(cfg), rng); ok {
			return KindSandSlide, target, true
		}
		return 0, grid.CellIndex{}, false

	case KindHumusSlide:
		if target, ok := Slide(g, idx, MaterialHumus, slideAngles(cfg), rng); ok {
			return KindHumusSlide, target, true
		}
		return 0, grid.CellIndex{}, false

	case KindWind:
		target, bounces := Wind(g, idx, eco.Wind, cfg, rng)
		if bounces {
			return KindWind, target, true
		}
		return 0, grid.CellIndex{}, false

	case KindVegetation:
		Vegetation(g, idx, cfg, rng)
		return 0, grid.CellIndex{}, false

	default:
		return 0, grid.CellIndex{}, false
	}
}

func slideAngles(cfg *config.Config) CriticalAngles {
	return CriticalAngles{
		Rock:          cfg.CriticalAngleRock,
		Sand:          cfg.CriticalAngleSand,
		SandVegetated: cfg.CriticalAngleSandWithVegetation,
		Humus:         cfg.CriticalAngleHumus,
	}
}
