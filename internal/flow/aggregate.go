package flow

import (
	"sort"

	"whaleflow/internal/models"
)

// Aggregate is the signed net-flow accumulator for one instrument. Positive
// NetNotional reads as net long pressure. Invariant: NetNotional equals the
// sum of PerWallet values.
type Aggregate struct {
	Coin            string             `json:"coin"`
	NetNotional     float64            `json:"net_notional"`
	PerWallet       map[string]float64 `json:"per_wallet"`
	WalletCount     int                `json:"wallet_count"`
	LatestTimestamp int64              `json:"latest_timestamp"`
}

// WalletShare is one wallet's signed contribution to an instrument's flow.
type WalletShare struct {
	Wallet   string  `json:"wallet"`
	Notional float64 `json:"notional"`
}

// TopWallets returns the n wallets with the largest absolute contribution,
// ordered descending. Ties keep a deterministic order by wallet address.
func (a *Aggregate) TopWallets(n int) []WalletShare {
	shares := make([]WalletShare, 0, len(a.PerWallet))
	for wallet, notional := range a.PerWallet {
		shares = append(shares, WalletShare{Wallet: wallet, Notional: notional})
	}
	sort.Slice(shares, func(i, j int) bool {
		ai, aj := abs(shares[i].Notional), abs(shares[j].Notional)
		if ai != aj {
			return ai > aj
		}
		return shares[i].Wallet < shares[j].Wallet
	})
	if n > 0 && len(shares) > n {
		shares = shares[:n]
	}
	return shares
}

// AggregateNet folds fills into per-instrument signed net flow. Every fill
// contributes its signed notional, opens and closes alike.
func AggregateNet(fills []models.Fill) map[string]*Aggregate {
	return aggregate(fills, false)
}

// AggregateOpens folds only opening fills, for detectors that want raw
// directional activity instead of net pressure.
func AggregateOpens(fills []models.Fill) map[string]*Aggregate {
	return aggregate(fills, true)
}

func aggregate(fills []models.Fill, opensOnly bool) map[string]*Aggregate {
	byCoin := make(map[string]*Aggregate)
	for _, f := range fills {
		if opensOnly && !f.IsOpen() {
			continue
		}
		agg, ok := byCoin[f.Coin]
		if !ok {
			agg = &Aggregate{Coin: f.Coin, PerWallet: make(map[string]float64)}
			byCoin[f.Coin] = agg
		}
		signed := f.SignedNotionalUSD()
		agg.NetNotional += signed
		agg.PerWallet[f.Wallet] += signed
		if f.TimestampMs > agg.LatestTimestamp {
			agg.LatestTimestamp = f.TimestampMs
		}
	}

	for _, agg := range byCoin {
		for _, v := range agg.PerWallet {
			if v != 0 {
				agg.WalletCount++
			}
		}
	}
	return byCoin
}

// SideActivity splits opening flow by side, keeping notional and fill counts
// separately per direction.
type SideActivity struct {
	Coin       string  `json:"coin"`
	LongUSD    float64 `json:"long_usd"`
	LongFills  int     `json:"long_fills"`
	ShortUSD   float64 `json:"short_usd"`
	ShortFills int     `json:"short_fills"`
}

// NetUSD is long opening notional minus short opening notional.
func (s *SideActivity) NetUSD() float64 {
	return s.LongUSD - s.ShortUSD
}

// AggregateOpensBySide folds opening fills into per-instrument long/short
// activity totals. No size filter is applied.
func AggregateOpensBySide(fills []models.Fill) map[string]*SideActivity {
	byCoin := make(map[string]*SideActivity)
	for _, f := range fills {
		if !f.IsOpen() {
			continue
		}
		act, ok := byCoin[f.Coin]
		if !ok {
			act = &SideActivity{Coin: f.Coin}
			byCoin[f.Coin] = act
		}
		notional := f.NotionalUSD()
		if f.Side == models.SideLong {
			act.LongUSD += notional
			act.LongFills++
		} else {
			act.ShortUSD += notional
			act.ShortFills++
		}
	}
	return byCoin
}

// LiquidationTotals holds one instrument's forced-closure notional per side.
// A liquidated long is a forced sell; the two totals are thresholded
// independently and never folded into a signed flow.
type LiquidationTotals struct {
	Coin             string  `json:"coin"`
	LongsLiquidated  float64 `json:"longs_liquidated"`
	ShortsLiquidated float64 `json:"shorts_liquidated"`
}

// MaxSide is the larger of the two liquidation totals.
func (l *LiquidationTotals) MaxSide() float64 {
	if l.LongsLiquidated > l.ShortsLiquidated {
		return l.LongsLiquidated
	}
	return l.ShortsLiquidated
}

// LiquidationAggregate keys totals by instrument and remembers first-seen
// input order so ranked output can break ties stably.
type LiquidationAggregate struct {
	Totals map[string]*LiquidationTotals `json:"totals"`
	Order  []string                      `json:"order"`
}

// AggregateLiquidations folds liquidation events into per-instrument,
// per-side notional totals.
func AggregateLiquidations(events []models.LiquidationEvent) *LiquidationAggregate {
	agg := &LiquidationAggregate{Totals: make(map[string]*LiquidationTotals)}
	for _, e := range events {
		totals, ok := agg.Totals[e.Coin]
		if !ok {
			totals = &LiquidationTotals{Coin: e.Coin}
			agg.Totals[e.Coin] = totals
			agg.Order = append(agg.Order, e.Coin)
		}
		if e.LiquidatedSide == models.SideLong {
			totals.LongsLiquidated += e.NotionalUSD()
		} else {
			totals.ShortsLiquidated += e.NotionalUSD()
		}
	}
	return agg
}

// SideLedger tracks one wallet's opened and closed notional per side on one
// instrument.
type SideLedger struct {
	Opened map[models.Side]float64 `json:"opened"`
	Closed map[models.Side]float64 `json:"closed"`
}

// AggregateWalletLedgers folds fills into wallet -> instrument -> side
// ledgers, the shape position-delta classification consumes.
func AggregateWalletLedgers(fills []models.Fill) map[string]map[string]*SideLedger {
	byWallet := make(map[string]map[string]*SideLedger)
	for _, f := range fills {
		coins, ok := byWallet[f.Wallet]
		if !ok {
			coins = make(map[string]*SideLedger)
			byWallet[f.Wallet] = coins
		}
		ledger, ok := coins[f.Coin]
		if !ok {
			ledger = &SideLedger{
				Opened: make(map[models.Side]float64),
				Closed: make(map[models.Side]float64),
			}
			coins[f.Coin] = ledger
		}
		if f.IsOpen() {
			ledger.Opened[f.Side] += f.NotionalUSD()
		} else {
			ledger.Closed[f.Side] += f.NotionalUSD()
		}
	}
	return byWallet
}

// PriceRangeOf condenses a candle series into its extremes and tick count.
// An empty series yields a zero range with zero ticks.
func PriceRangeOf(coin string, candles []models.Candle) models.PriceRange {
	r := models.PriceRange{Coin: coin}
	for i, c := range candles {
		if i == 0 || c.High > r.High {
			r.High = c.High
		}
		if i == 0 || c.Low < r.Low {
			r.Low = c.Low
		}
		r.TickCount += c.Trades
	}
	return r
}

// OpenInterestDeltaOf pairs the earliest and latest samples of a window.
// Fewer than two samples yield a zero delta.
func OpenInterestDeltaOf(coin string, samples []models.OpenInterestSample) models.OpenInterestDelta {
	d := models.OpenInterestDelta{Coin: coin}
	if len(samples) == 0 {
		return d
	}
	first, last := samples[0], samples[0]
	for _, s := range samples[1:] {
		if s.TimestampMs < first.TimestampMs {
			first = s
		}
		if s.TimestampMs > last.TimestampMs {
			last = s
		}
	}
	d.StartUSD = first.ValueUSD
	d.EndUSD = last.ValueUSD
	return d
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
