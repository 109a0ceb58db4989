package detector

import (
	"sort"

	"whaleflow/internal/models"
)

// FillEvent is one flagged trade in a fill-insight scan.
type FillEvent struct {
	Coin        string      `json:"coin"`
	Wallet      string      `json:"wallet"`
	Side        models.Side `json:"side"`
	NotionalUSD float64     `json:"notional_usd"`
	Pnl         float64     `json:"pnl,omitempty"`
	TimestampMs int64       `json:"timestamp_ms"`
}

// FillInsightDetail classifies one wallet's trading style over a window.
type FillInsightDetail struct {
	ProfitTakes []FillEvent `json:"profit_takes"`
	Flips       []FillEvent `json:"flips"`
	NewBuilds   []FillEvent `json:"new_builds"`
	DripStyle   bool        `json:"drip_style"`
	SmallCloses int         `json:"small_closes"`
}

// runFillInsight walks one wallet's fills in time order and flags big
// closes, side flips and fresh builds. Many tiny closes mark the wallet as
// a drip-style exiter.
func runFillInsight(in Input, p FillInsightParams) *Result {
	fills := make([]models.Fill, len(in.Fills))
	copy(fills, in.Fills)
	sort.SliceStable(fills, func(i, j int) bool { return fills[i].TimestampMs < fills[j].TimestampMs })

	detail := FillInsightDetail{
		ProfitTakes: []FillEvent{},
		Flips:       []FillEvent{},
		NewBuilds:   []FillEvent{},
	}

	// Side history is tracked per wallet and instrument; one wallet's opens
	// must never read as another wallet's prior side.
	type walletCoin struct {
		wallet string
		coin   string
	}
	lastSide := make(map[walletCoin]models.Side)

	for _, f := range fills {
		notional := f.NotionalUSD()
		event := FillEvent{
			Coin:        f.Coin,
			Wallet:      f.Wallet,
			Side:        f.Side,
			NotionalUSD: notional,
			TimestampMs: f.TimestampMs,
		}

		if f.IsOpen() {
			key := walletCoin{wallet: f.Wallet, coin: f.Coin}
			prev, seen := lastSide[key]
			if notional >= p.BigTradeUSD {
				if seen && prev != f.Side {
					detail.Flips = append(detail.Flips, event)
				} else if !seen {
					detail.NewBuilds = append(detail.NewBuilds, event)
				}
			}
			lastSide[key] = f.Side
			continue
		}

		if notional >= p.BigTradeUSD {
			event.Pnl = f.ClosedPnl
			detail.ProfitTakes = append(detail.ProfitTakes, event)
		}
		if notional <= p.SmallCloseUSD {
			detail.SmallCloses++
		}
	}

	detail.DripStyle = detail.SmallCloses >= p.MinDripCount

	if len(detail.ProfitTakes) == 0 && len(detail.Flips) == 0 && len(detail.NewBuilds) == 0 && !detail.DripStyle {
		return noSignal(KindFillInsight, "no notable fills in window")
	}
	return signal(KindFillInsight, detail)
}
