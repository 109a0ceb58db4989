package detector

import (
	"math"
	"sort"

	"whaleflow/internal/flow"
)

// CompressionDetail describes an instrument whose price is pinned in a tight
// range while wallets quietly build size.
type CompressionDetail struct {
	Coin        string             `json:"coin"`
	RangeBps    float64            `json:"range_bps"`
	High        float64            `json:"high"`
	Low         float64            `json:"low"`
	TickCount   int                `json:"tick_count"`
	NetNotional float64            `json:"net_notional"`
	WalletCount int                `json:"wallet_count"`
	TopWallets  []flow.WalletShare `json:"top_wallets"`
}

// runCompressionRadar returns the first instrument with enough ticks, a
// range under the ceiling and a build above the floor. Instruments with too
// few ticks are skipped outright; thin data never qualifies.
func runCompressionRadar(in Input, p CompressionRadarParams) *Result {
	aggs := flow.AggregateNet(in.Fills)

	coins := make([]string, 0, len(in.PriceRanges))
	for coin := range in.PriceRanges {
		coins = append(coins, coin)
	}
	sort.Strings(coins)

	for _, coin := range coins {
		r := in.PriceRanges[coin]
		if r.TickCount < p.MinTicks {
			continue
		}
		if r.RangeBps() > p.MaxRangeBps {
			continue
		}
		agg, ok := aggs[coin]
		if !ok {
			continue
		}
		if math.Abs(agg.NetNotional) < p.BuildThresholdUSD || agg.WalletCount < p.MinWallets {
			continue
		}
		return signal(KindCompressionRadar, CompressionDetail{
			Coin:        coin,
			RangeBps:    r.RangeBps(),
			High:        r.High,
			Low:         r.Low,
			TickCount:   r.TickCount,
			NetNotional: agg.NetNotional,
			WalletCount: agg.WalletCount,
			TopWallets:  agg.TopWallets(3),
		})
	}

	return noSignal(KindCompressionRadar, "no compressed build found")
}
