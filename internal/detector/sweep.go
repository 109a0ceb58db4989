package detector

import (
	"math"
	"sort"

	"whaleflow/internal/flow"
	"whaleflow/internal/models"
)

// FlowSweepEntry is one instrument in a ranked net-flow sweep.
type FlowSweepEntry struct {
	Coin        string             `json:"coin"`
	NetNotional float64            `json:"net_notional"`
	WalletCount int                `json:"wallet_count"`
	TopWallets  []flow.WalletShare `json:"top_wallets"`
}

// runFlowSweep keeps instruments whose absolute net flow clears the floor
// and ranks them by magnitude, attaching the heaviest wallets per entry.
func runFlowSweep(in Input, p FlowSweepParams) *Result {
	aggs := flow.AggregateNet(in.Fills)

	entries := []FlowSweepEntry{}
	for _, agg := range aggs {
		if math.Abs(agg.NetNotional) < p.MinNotionalUSD {
			continue
		}
		entries = append(entries, FlowSweepEntry{
			Coin:        agg.Coin,
			NetNotional: agg.NetNotional,
			WalletCount: agg.WalletCount,
			TopWallets:  agg.TopWallets(p.TopWallets),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		ai, aj := math.Abs(entries[i].NetNotional), math.Abs(entries[j].NetNotional)
		if ai != aj {
			return ai > aj
		}
		return entries[i].Coin < entries[j].Coin
	})

	if len(entries) == 0 {
		return noSignal(KindFlowSweep, "no instrument above notional floor")
	}
	return signal(KindFlowSweep, entries)
}

// MicroFlowPulseEntry is one instrument's opening activity split by side.
type MicroFlowPulseEntry struct {
	Coin       string  `json:"coin"`
	LongUSD    float64 `json:"long_usd"`
	LongFills  int     `json:"long_fills"`
	ShortUSD   float64 `json:"short_usd"`
	ShortFills int     `json:"short_fills"`
	NetUSD     float64 `json:"net_usd"`
}

// runMicroFlowPulse ranks instruments by absolute opening imbalance with no
// size filter, surfacing raw directional activity.
func runMicroFlowPulse(in Input, p MicroFlowPulseParams) *Result {
	acts := flow.AggregateOpensBySide(in.Fills)

	entries := []MicroFlowPulseEntry{}
	for _, act := range acts {
		entries = append(entries, MicroFlowPulseEntry{
			Coin:       act.Coin,
			LongUSD:    act.LongUSD,
			LongFills:  act.LongFills,
			ShortUSD:   act.ShortUSD,
			ShortFills: act.ShortFills,
			NetUSD:     act.NetUSD(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		ai, aj := math.Abs(entries[i].NetUSD), math.Abs(entries[j].NetUSD)
		if ai != aj {
			return ai > aj
		}
		return entries[i].Coin < entries[j].Coin
	})
	if len(entries) > p.TopN {
		entries = entries[:p.TopN]
	}

	if len(entries) == 0 {
		return noSignal(KindMicroFlowPulse, "no opening activity in window")
	}
	return signal(KindMicroFlowPulse, entries)
}

// TrendBiasEntry is one instrument in the accumulation table.
type TrendBiasEntry struct {
	Coin        string      `json:"coin"`
	NetNotional float64     `json:"net_notional"`
	Bias        models.Side `json:"bias"`
	WalletCount int         `json:"wallet_count"`
}

// runTrendBias builds a ranked accumulation table over a longer window,
// keeping only instruments whose net flow clears the threshold.
func runTrendBias(in Input, p TrendBiasParams) *Result {
	aggs := flow.AggregateNet(in.Fills)

	entries := []TrendBiasEntry{}
	for _, agg := range aggs {
		if math.Abs(agg.NetNotional) < p.MinNotionalUSD {
			continue
		}
		bias := models.SideLong
		if agg.NetNotional < 0 {
			bias = models.SideShort
		}
		entries = append(entries, TrendBiasEntry{
			Coin:        agg.Coin,
			NetNotional: agg.NetNotional,
			Bias:        bias,
			WalletCount: agg.WalletCount,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		ai, aj := math.Abs(entries[i].NetNotional), math.Abs(entries[j].NetNotional)
		if ai != aj {
			return ai > aj
		}
		return entries[i].Coin < entries[j].Coin
	})
	if len(entries) > p.TopN {
		entries = entries[:p.TopN]
	}

	if len(entries) == 0 {
		return noSignal(KindTrendBias, "no sustained accumulation above threshold")
	}
	return signal(KindTrendBias, entries)
}
