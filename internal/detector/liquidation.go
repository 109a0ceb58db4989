package detector

import (
	"sort"

	"whaleflow/internal/flow"
	"whaleflow/internal/models"
)

// LiquidationSniperDetail describes one liquidation cascade and the wallets
// fading it from the other side.
type LiquidationSniperDetail struct {
	Coin          string             `json:"coin"`
	CascadeSide   models.Side        `json:"cascade_side"`
	LiquidatedUSD float64            `json:"liquidated_usd"`
	Faders        []flow.WalletShare `json:"faders"`
}

// runLiquidationSniper finds the first instrument with a one-sided cascade
// and enough distinct wallets opening against it. Per instrument only the
// dominant liquidated side is treated as the cascade; a smaller cascade on
// the other side is never evaluated, even when it clears the threshold.
func runLiquidationSniper(in Input, p LiquidationSniperParams) *Result {
	if in.Liquidations == nil || len(in.Liquidations.Totals) == 0 {
		return noSignal(KindLiquidationSniper, "no liquidations in window")
	}

	openedBySide := make(map[string]map[models.Side]map[string]float64)
	for _, f := range in.Fills {
		if !f.IsOpen() {
			continue
		}
		sides, ok := openedBySide[f.Coin]
		if !ok {
			sides = map[models.Side]map[string]float64{
				models.SideLong:  {},
				models.SideShort: {},
			}
			openedBySide[f.Coin] = sides
		}
		sides[f.Side][f.Wallet] += f.NotionalUSD()
	}

	for _, coin := range in.Liquidations.Order {
		totals := in.Liquidations.Totals[coin]

		cascadeSide := models.SideLong
		liquidated := totals.LongsLiquidated
		if totals.ShortsLiquidated > totals.LongsLiquidated {
			cascadeSide = models.SideShort
			liquidated = totals.ShortsLiquidated
		}
		if liquidated < p.LiqThresholdUSD {
			continue
		}

		sides, ok := openedBySide[coin]
		if !ok {
			continue
		}
		faders := walletsOver(sides[cascadeSide.Opposite()], p.BuildThresholdUSD)
		if len(faders) < p.MinWallets {
			continue
		}
		return signal(KindLiquidationSniper, LiquidationSniperDetail{
			Coin:          coin,
			CascadeSide:   cascadeSide,
			LiquidatedUSD: liquidated,
			Faders:        faders,
		})
	}

	return noSignal(KindLiquidationSniper, "no faded cascade found")
}

// runLiquidationSweep lists every instrument with nonzero liquidation,
// ranked by the larger side. Ties keep first-seen input order.
func runLiquidationSweep(in Input, p LiquidationSweepParams) *Result {
	if in.Liquidations == nil || len(in.Liquidations.Totals) == 0 {
		return noSignal(KindLiquidationSweep, "no liquidations in window")
	}

	entries := make([]flow.LiquidationTotals, 0, len(in.Liquidations.Order))
	for _, coin := range in.Liquidations.Order {
		totals := in.Liquidations.Totals[coin]
		if totals.LongsLiquidated == 0 && totals.ShortsLiquidated == 0 {
			continue
		}
		entries = append(entries, *totals)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].MaxSide() > entries[j].MaxSide()
	})
	if p.MaxResults > 0 && len(entries) > p.MaxResults {
		entries = entries[:p.MaxResults]
	}

	if len(entries) == 0 {
		return noSignal(KindLiquidationSweep, "no liquidations in window")
	}
	return signal(KindLiquidationSweep, entries)
}
