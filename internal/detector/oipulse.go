package detector

import (
	"math"
	"sort"

	"whaleflow/internal/flow"
	"whaleflow/internal/models"
)

// OpenInterestPulseDetail describes an instrument whose open interest moved
// sharply while tracked wallets lean the requested way.
type OpenInterestPulseDetail struct {
	Coin        string             `json:"coin"`
	DeltaPct    float64            `json:"delta_pct"`
	DeltaUSD    float64            `json:"delta_usd"`
	Bias        models.Side        `json:"bias"`
	NetNotional float64            `json:"net_notional"`
	WalletCount int                `json:"wallet_count"`
	TopWallets  []flow.WalletShare `json:"top_wallets"`
}

// runOpenInterestPulse returns the first instrument where the OI delta
// clears the threshold and the tracked wallets' bias matches the side
// filter, if one is set.
func runOpenInterestPulse(in Input, p OpenInterestPulseParams) *Result {
	aggs := flow.AggregateNet(in.Fills)

	coins := make([]string, 0, len(in.OIDeltas))
	for coin := range in.OIDeltas {
		coins = append(coins, coin)
	}
	sort.Strings(coins)

	for _, coin := range coins {
		delta := in.OIDeltas[coin]
		if math.Abs(delta.DeltaPct()) < p.DeltaThresholdPct {
			continue
		}
		agg, ok := aggs[coin]
		if !ok || agg.WalletCount < p.MinWallets {
			continue
		}
		bias := models.SideLong
		if agg.NetNotional < 0 {
			bias = models.SideShort
		}
		if p.SideFilter != "" && bias != p.SideFilter {
			continue
		}
		return signal(KindOpenInterestPulse, OpenInterestPulseDetail{
			Coin:        coin,
			DeltaPct:    delta.DeltaPct(),
			DeltaUSD:    delta.DeltaUSD(),
			Bias:        bias,
			NetNotional: agg.NetNotional,
			WalletCount: agg.WalletCount,
			TopWallets:  agg.TopWallets(p.TopWallets),
		})
	}

	return noSignal(KindOpenInterestPulse, "no qualifying open interest move")
}
