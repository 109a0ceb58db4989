package detector

import (
	"sort"

	"whaleflow/internal/flow"
	"whaleflow/internal/models"
)

// PositionChange classifies what one wallet did to one position in the
// window. The classes are mutually exclusive per wallet and instrument.
type PositionChange string

const (
	ChangeReduced PositionChange = "reduced"
	ChangeAdded   PositionChange = "added"
	ChangeOpened  PositionChange = "opened"
)

// PositionDeltaEvent is one classified position change.
type PositionDeltaEvent struct {
	Wallet      string         `json:"wallet"`
	Coin        string         `json:"coin"`
	Change      PositionChange `json:"change"`
	Side        models.Side    `json:"side"`
	NotionalUSD float64        `json:"notional_usd"`
}

// runPositionDelta cross-references current positions against the window's
// opened/closed totals per wallet and instrument. A held position is either
// reduced or added, never both; a fresh open without a held position is
// classified as opened.
func runPositionDelta(in Input, p PositionDeltaParams) *Result {
	ledgers := flow.AggregateWalletLedgers(in.Fills)

	wallets := make([]string, 0, len(ledgers))
	for wallet := range ledgers {
		wallets = append(wallets, wallet)
	}
	sort.Strings(wallets)

	held := make(map[string]map[string]models.PositionSnapshot)
	for wallet, snaps := range in.Positions {
		byCoin := make(map[string]models.PositionSnapshot, len(snaps))
		for _, s := range snaps {
			byCoin[s.Coin] = s
		}
		held[wallet] = byCoin
	}

	events := []PositionDeltaEvent{}
	for _, wallet := range wallets {
		coins := make([]string, 0, len(ledgers[wallet]))
		for coin := range ledgers[wallet] {
			coins = append(coins, coin)
		}
		sort.Strings(coins)

		for _, coin := range coins {
			ledger := ledgers[wallet][coin]
			pos, holding := held[wallet][coin]

			if holding {
				if closed := ledger.Closed[pos.Side]; closed >= p.TrimThresholdUSD {
					events = append(events, PositionDeltaEvent{
						Wallet: wallet, Coin: coin, Change: ChangeReduced,
						Side: pos.Side, NotionalUSD: closed,
					})
				} else if opened := ledger.Opened[pos.Side]; opened >= p.AddThresholdUSD {
					events = append(events, PositionDeltaEvent{
						Wallet: wallet, Coin: coin, Change: ChangeAdded,
						Side: pos.Side, NotionalUSD: opened,
					})
				}
				continue
			}

			side, opened := dominantSide(ledger.Opened)
			if opened >= p.NewThresholdUSD {
				events = append(events, PositionDeltaEvent{
					Wallet: wallet, Coin: coin, Change: ChangeOpened,
					Side: side, NotionalUSD: opened,
				})
			}
		}
	}

	if len(events) > p.MaxHits {
		events = events[:p.MaxHits]
	}
	if len(events) == 0 {
		return noSignal(KindPositionDelta, "no position changes above thresholds")
	}
	return signal(KindPositionDelta, events)
}

func dominantSide(opened map[models.Side]float64) (models.Side, float64) {
	if opened[models.SideShort] > opened[models.SideLong] {
		return models.SideShort, opened[models.SideShort]
	}
	return models.SideLong, opened[models.SideLong]
}
