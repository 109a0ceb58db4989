package detector

import (
	"fmt"

	"whaleflow/internal/flow"
	"whaleflow/internal/models"
)

// Kind identifies one detector. The set is closed; dispatch happens through
// a single switch so an unknown mode is rejected at the boundary instead of
// silently defaulting.
type Kind string

const (
	KindFillInsight       Kind = "fill-insight"
	KindFlowSweep         Kind = "flow-sweep"
	KindMicroFlowPulse    Kind = "micro-flow-pulse"
	KindTrendBias         Kind = "trend-bias"
	KindDivergenceRadar   Kind = "divergence-radar"
	KindCompressionRadar  Kind = "compression-radar"
	KindLiquidationSniper Kind = "liquidation-sniper"
	KindLiquidationSweep  Kind = "liquidation-sweep"
	KindOpenInterestPulse Kind = "oi-pulse"
	KindPositionDelta     Kind = "position-delta"
)

// Kinds lists every detector in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindFillInsight,
		KindFlowSweep,
		KindMicroFlowPulse,
		KindTrendBias,
		KindDivergenceRadar,
		KindCompressionRadar,
		KindLiquidationSniper,
		KindLiquidationSweep,
		KindOpenInterestPulse,
		KindPositionDelta,
	}
}

// ParseKind maps a caller-supplied mode string onto a detector kind.
func ParseKind(raw string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == raw {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown mode '%s'", raw)
}

// Requirements names the upstream data a detector consumes. The engine uses
// this to plan fetches instead of pulling every series for every scan.
type Requirements struct {
	Fills        bool
	Liquidations bool
	Positions    bool
	Candles      bool
	OpenInterest bool
}

// Requires reports which inputs the detector reads.
func (k Kind) Requires() Requirements {
	switch k {
	case KindFillInsight, KindFlowSweep, KindMicroFlowPulse, KindTrendBias, KindDivergenceRadar:
		return Requirements{Fills: true}
	case KindCompressionRadar:
		return Requirements{Fills: true, Candles: true}
	case KindLiquidationSniper:
		return Requirements{Fills: true, Liquidations: true}
	case KindLiquidationSweep:
		return Requirements{Liquidations: true}
	case KindOpenInterestPulse:
		return Requirements{Fills: true, OpenInterest: true}
	case KindPositionDelta:
		return Requirements{Fills: true, Positions: true}
	default:
		return Requirements{}
	}
}

// Input carries the normalized series a detector evaluates. Only the fields
// the kind's Requirements name are read; the rest stay nil.
type Input struct {
	Fills        []models.Fill
	Liquidations *flow.LiquidationAggregate
	Positions    map[string][]models.PositionSnapshot
	PriceRanges  map[string]models.PriceRange
	OIDeltas     map[string]models.OpenInterestDelta
}

// Result is the outcome of one detector evaluation. Signal false with a
// reason is the explicit "nothing found" value; it is never an error.
type Result struct {
	Kind   Kind        `json:"kind"`
	Signal bool        `json:"signal"`
	Reason string      `json:"reason,omitempty"`
	Detail interface{} `json:"detail,omitempty"`
}

func noSignal(kind Kind, reason string) *Result {
	return &Result{Kind: kind, Signal: false, Reason: reason}
}

func signal(kind Kind, detail interface{}) *Result {
	return &Result{Kind: kind, Signal: true, Detail: detail}
}

// Run evaluates one detector against its input. Parameter structs left nil
// fall back to their defaults.
func Run(kind Kind, in Input, params Params) (*Result, error) {
	switch kind {
	case KindFillInsight:
		return runFillInsight(in, params.FillInsight.withDefaults()), nil
	case KindFlowSweep:
		return runFlowSweep(in, params.FlowSweep.withDefaults()), nil
	case KindMicroFlowPulse:
		return runMicroFlowPulse(in, params.MicroFlowPulse.withDefaults()), nil
	case KindTrendBias:
		return runTrendBias(in, params.TrendBias.withDefaults()), nil
	case KindDivergenceRadar:
		return runDivergenceRadar(in, params.DivergenceRadar.withDefaults()), nil
	case KindCompressionRadar:
		return runCompressionRadar(in, params.CompressionRadar.withDefaults()), nil
	case KindLiquidationSniper:
		return runLiquidationSniper(in, params.LiquidationSniper.withDefaults()), nil
	case KindLiquidationSweep:
		return runLiquidationSweep(in, params.LiquidationSweep.withDefaults()), nil
	case KindOpenInterestPulse:
		return runOpenInterestPulse(in, params.OpenInterestPulse.withDefaults()), nil
	case KindPositionDelta:
		return runPositionDelta(in, params.PositionDelta.withDefaults()), nil
	default:
		return nil, fmt.Errorf("unknown mode '%s'", kind)
	}
}
