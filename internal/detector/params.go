package detector

import "whaleflow/internal/models"

// Params bundles the per-detector parameter structs. Only the field for the
// dispatched kind is consulted; nil pointers resolve to defaults.
type Params struct {
	FillInsight       *FillInsightParams       `json:"fill_insight,omitempty"`
	FlowSweep         *FlowSweepParams         `json:"flow_sweep,omitempty"`
	MicroFlowPulse    *MicroFlowPulseParams    `json:"micro_flow_pulse,omitempty"`
	TrendBias         *TrendBiasParams         `json:"trend_bias,omitempty"`
	DivergenceRadar   *DivergenceRadarParams   `json:"divergence_radar,omitempty"`
	CompressionRadar  *CompressionRadarParams  `json:"compression_radar,omitempty"`
	LiquidationSniper *LiquidationSniperParams `json:"liquidation_sniper,omitempty"`
	LiquidationSweep  *LiquidationSweepParams  `json:"liquidation_sweep,omitempty"`
	OpenInterestPulse *OpenInterestPulseParams `json:"oi_pulse,omitempty"`
	PositionDelta     *PositionDeltaParams     `json:"position_delta,omitempty"`
}

type FillInsightParams struct {
	BigTradeUSD   float64 `json:"big_trade_usd"`
	SmallCloseUSD float64 `json:"small_close_usd"`
	MinDripCount  int     `json:"min_drip_count"`
}

func (p *FillInsightParams) withDefaults() FillInsightParams {
	out := FillInsightParams{BigTradeUSD: 50000, SmallCloseUSD: 2000, MinDripCount: 5}
	if p == nil {
		return out
	}
	if p.BigTradeUSD > 0 {
		out.BigTradeUSD = p.BigTradeUSD
	}
	if p.SmallCloseUSD > 0 {
		out.SmallCloseUSD = p.SmallCloseUSD
	}
	if p.MinDripCount > 0 {
		out.MinDripCount = p.MinDripCount
	}
	return out
}

type FlowSweepParams struct {
	MinNotionalUSD float64 `json:"min_notional_usd"`
	TopWallets     int     `json:"top_wallets"`
}

func (p *FlowSweepParams) withDefaults() FlowSweepParams {
	out := FlowSweepParams{MinNotionalUSD: 50000, TopWallets: 3}
	if p == nil {
		return out
	}
	if p.MinNotionalUSD > 0 {
		out.MinNotionalUSD = p.MinNotionalUSD
	}
	if p.TopWallets > 0 {
		out.TopWallets = p.TopWallets
	}
	return out
}

type MicroFlowPulseParams struct {
	TopN int `json:"top_n"`
}

func (p *MicroFlowPulseParams) withDefaults() MicroFlowPulseParams {
	out := MicroFlowPulseParams{TopN: 5}
	if p != nil && p.TopN > 0 {
		out.TopN = p.TopN
	}
	return out
}

type TrendBiasParams struct {
	MinNotionalUSD float64 `json:"min_notional_usd"`
	TopN           int     `json:"top_n"`
}

func (p *TrendBiasParams) withDefaults() TrendBiasParams {
	out := TrendBiasParams{MinNotionalUSD: 100000, TopN: 5}
	if p == nil {
		return out
	}
	if p.MinNotionalUSD > 0 {
		out.MinNotionalUSD = p.MinNotionalUSD
	}
	if p.TopN > 0 {
		out.TopN = p.TopN
	}
	return out
}

type DivergenceRadarParams struct {
	CloseThresholdUSD float64 `json:"close_threshold_usd"`
	BuildThresholdUSD float64 `json:"build_threshold_usd"`
	MinClosers        int     `json:"min_closers"`
	MinBuilders       int     `json:"min_builders"`
}

func (p *DivergenceRadarParams) withDefaults() DivergenceRadarParams {
	out := DivergenceRadarParams{CloseThresholdUSD: 25000, BuildThresholdUSD: 25000, MinClosers: 2, MinBuilders: 2}
	if p == nil {
		return out
	}
	if p.CloseThresholdUSD > 0 {
		out.CloseThresholdUSD = p.CloseThresholdUSD
	}
	if p.BuildThresholdUSD > 0 {
		out.BuildThresholdUSD = p.BuildThresholdUSD
	}
	if p.MinClosers > 0 {
		out.MinClosers = p.MinClosers
	}
	if p.MinBuilders > 0 {
		out.MinBuilders = p.MinBuilders
	}
	return out
}

type CompressionRadarParams struct {
	MinTicks          int     `json:"min_ticks"`
	MaxRangeBps       float64 `json:"max_range_bps"`
	BuildThresholdUSD float64 `json:"build_threshold_usd"`
	MinWallets        int     `json:"min_wallets"`
}

func (p *CompressionRadarParams) withDefaults() CompressionRadarParams {
	out := CompressionRadarParams{MinTicks: 20, MaxRangeBps: 75, BuildThresholdUSD: 100000, MinWallets: 3}
	if p == nil {
		return out
	}
	if p.MinTicks > 0 {
		out.MinTicks = p.MinTicks
	}
	if p.MaxRangeBps > 0 {
		out.MaxRangeBps = p.MaxRangeBps
	}
	if p.BuildThresholdUSD > 0 {
		out.BuildThresholdUSD = p.BuildThresholdUSD
	}
	if p.MinWallets > 0 {
		out.MinWallets = p.MinWallets
	}
	return out
}

type LiquidationSniperParams struct {
	LiqThresholdUSD   float64 `json:"liq_threshold_usd"`
	BuildThresholdUSD float64 `json:"build_threshold_usd"`
	MinWallets        int     `json:"min_wallets"`
}

func (p *LiquidationSniperParams) withDefaults() LiquidationSniperParams {
	out := LiquidationSniperParams{LiqThresholdUSD: 250000, BuildThresholdUSD: 25000, MinWallets: 2}
	if p == nil {
		return out
	}
	if p.LiqThresholdUSD > 0 {
		out.LiqThresholdUSD = p.LiqThresholdUSD
	}
	if p.BuildThresholdUSD > 0 {
		out.BuildThresholdUSD = p.BuildThresholdUSD
	}
	if p.MinWallets > 0 {
		out.MinWallets = p.MinWallets
	}
	return out
}

type LiquidationSweepParams struct {
	MaxResults int `json:"max_results"`
}

func (p *LiquidationSweepParams) withDefaults() LiquidationSweepParams {
	out := LiquidationSweepParams{}
	if p != nil && p.MaxResults > 0 {
		out.MaxResults = p.MaxResults
	}
	return out
}

type OpenInterestPulseParams struct {
	DeltaThresholdPct float64     `json:"delta_threshold_pct"`
	SideFilter        models.Side `json:"side_filter,omitempty"`
	MinWallets        int         `json:"min_wallets"`
	TopWallets        int         `json:"top_wallets"`
}

func (p *OpenInterestPulseParams) withDefaults() OpenInterestPulseParams {
	out := OpenInterestPulseParams{DeltaThresholdPct: 3, MinWallets: 2, TopWallets: 3}
	if p == nil {
		return out
	}
	if p.DeltaThresholdPct > 0 {
		out.DeltaThresholdPct = p.DeltaThresholdPct
	}
	if p.SideFilter != "" {
		out.SideFilter = p.SideFilter
	}
	if p.MinWallets > 0 {
		out.MinWallets = p.MinWallets
	}
	if p.TopWallets > 0 {
		out.TopWallets = p.TopWallets
	}
	return out
}

type PositionDeltaParams struct {
	TrimThresholdUSD float64 `json:"trim_threshold_usd"`
	AddThresholdUSD  float64 `json:"add_threshold_usd"`
	NewThresholdUSD  float64 `json:"new_threshold_usd"`
	MaxHits          int     `json:"max_hits"`
}

func (p *PositionDeltaParams) withDefaults() PositionDeltaParams {
	out := PositionDeltaParams{TrimThresholdUSD: 25000, AddThresholdUSD: 25000, NewThresholdUSD: 50000, MaxHits: 20}
	if p == nil {
		return out
	}
	if p.TrimThresholdUSD > 0 {
		out.TrimThresholdUSD = p.TrimThresholdUSD
	}
	if p.AddThresholdUSD > 0 {
		out.AddThresholdUSD = p.AddThresholdUSD
	}
	if p.NewThresholdUSD > 0 {
		out.NewThresholdUSD = p.NewThresholdUSD
	}
	if p.MaxHits > 0 {
		out.MaxHits = p.MaxHits
	}
	return out
}
