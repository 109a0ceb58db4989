package flow

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whaleflow/internal/models"
	"whaleflow/internal/reader/hyperliquid"
)

func TestNormalizeFills(t *testing.T) {
	records := []hyperliquid.FillRecord{
		{Coin: "BTC", Px: "50000", Sz: "2", Time: 1000, Dir: "Open Long", ClosedPnl: "0"},
		{Coin: "BTC", Px: "51000", Sz: "2", Time: 2000, Dir: "Close Long", ClosedPnl: "2000"},
		{Coin: "ETH", Px: "3000", Sz: "1", Time: 3000, Dir: "Buy"},
		{Coin: "ETH", Px: "not-a-number", Sz: "1", Time: 4000, Dir: "Open Short"},
	}

	fills := NormalizeFills("0xw1", records)
	require.Len(t, fills, 2, "unparseable rows must be dropped")

	assert.Equal(t, models.ActionOpen, fills[0].Action)
	assert.Equal(t, models.SideLong, fills[0].Side)
	assert.Equal(t, "0xw1", fills[0].Wallet)
	assert.Equal(t, 100000.0, fills[0].NotionalUSD())
	assert.Equal(t, models.ActionClose, fills[1].Action)
	assert.Equal(t, 2000.0, fills[1].ClosedPnl)
}

func TestNormalizePositions(t *testing.T) {
	state := &hyperliquid.ClearinghouseState{
		AssetPositions: []hyperliquid.AssetPosition{
			{Position: hyperliquid.PositionDetail{Coin: "BTC", Szi: "-2", EntryPx: "50000", PositionValue: "100000", UnrealizedPnl: "-500"}},
			{Position: hyperliquid.PositionDetail{Coin: "ETH", Szi: "0", EntryPx: "3000"}},
		},
	}

	snaps := NormalizePositions("0xw1", state)
	require.Len(t, snaps, 1, "flat positions must be omitted")
	assert.Equal(t, models.SideShort, snaps[0].Side)
	assert.Equal(t, 100000.0, snaps[0].SizeUSD)
}

func TestAggregateNetMatchesPerWalletSum(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	coins := []string{"BTC", "ETH", "SOL"}
	wallets := []string{"0xa", "0xb", "0xc", "0xd"}
	sides := []models.Side{models.SideLong, models.SideShort}
	actions := []models.Action{models.ActionOpen, models.ActionClose}

	var fills []models.Fill
	for i := 0; i < 500; i++ {
		fills = append(fills, models.Fill{
			Coin:        coins[rng.Intn(len(coins))],
			Wallet:      wallets[rng.Intn(len(wallets))],
			Side:        sides[rng.Intn(2)],
			Action:      actions[rng.Intn(2)],
			Size:        rng.Float64() * 100,
			Price:       1 + rng.Float64()*1000,
			TimestampMs: int64(i),
		})
	}

	for coin, agg := range AggregateNet(fills) {
		sum := 0.0
		for _, v := range agg.PerWallet {
			sum += v
		}
		assert.InDelta(t, agg.NetNotional, sum, 1e-6, "net notional must equal per-wallet sum for %s", coin)
	}
}

func TestAggregateNetDirection(t *testing.T) {
	fills := []models.Fill{
		{Coin: "BTC", Wallet: "0xa", Side: models.SideLong, Action: models.ActionOpen, Size: 1, Price: 100},
		{Coin: "BTC", Wallet: "0xb", Side: models.SideShort, Action: models.ActionClose, Size: 1, Price: 50},
		{Coin: "BTC", Wallet: "0xc", Side: models.SideShort, Action: models.ActionOpen, Size: 1, Price: 30},
	}

	aggs := AggregateNet(fills)
	require.Contains(t, aggs, "BTC")
	agg := aggs["BTC"]
	assert.Equal(t, 120.0, agg.NetNotional)
	assert.Equal(t, 3, agg.WalletCount)
	assert.Equal(t, 100.0, agg.PerWallet["0xa"])
	assert.Equal(t, -30.0, agg.PerWallet["0xc"])
}

func TestAggregateOpensIgnoresCloses(t *testing.T) {
	fills := []models.Fill{
		{Coin: "BTC", Wallet: "0xa", Side: models.SideLong, Action: models.ActionOpen, Size: 1, Price: 100},
		{Coin: "BTC", Wallet: "0xa", Side: models.SideLong, Action: models.ActionClose, Size: 1, Price: 400},
	}

	aggs := AggregateOpens(fills)
	require.Contains(t, aggs, "BTC")
	assert.Equal(t, 100.0, aggs["BTC"].NetNotional)
}

func TestAggregateOpensBySide(t *testing.T) {
	fills := []models.Fill{
		{Coin: "SOL", Wallet: "0xa", Side: models.SideLong, Action: models.ActionOpen, Size: 10, Price: 10},
		{Coin: "SOL", Wallet: "0xb", Side: models.SideShort, Action: models.ActionOpen, Size: 5, Price: 10},
		{Coin: "SOL", Wallet: "0xb", Side: models.SideShort, Action: models.ActionClose, Size: 5, Price: 10},
	}

	acts := AggregateOpensBySide(fills)
	require.Contains(t, acts, "SOL")
	act := acts["SOL"]
	assert.Equal(t, 100.0, act.LongUSD)
	assert.Equal(t, 1, act.LongFills)
	assert.Equal(t, 50.0, act.ShortUSD)
	assert.Equal(t, 1, act.ShortFills)
	assert.Equal(t, 50.0, act.NetUSD())
}

func TestAggregateLiquidationsKeepsSidesSeparate(t *testing.T) {
	events := []models.LiquidationEvent{
		{Coin: "BTC", LiquidatedSide: models.SideLong, Size: 1, Price: 100},
		{Coin: "BTC", LiquidatedSide: models.SideLong, Size: 1, Price: 200},
		{Coin: "BTC", LiquidatedSide: models.SideShort, Size: 1, Price: 50},
		{Coin: "ETH", LiquidatedSide: models.SideShort, Size: 1, Price: 10},
	}

	agg := AggregateLiquidations(events)
	require.Contains(t, agg.Totals, "BTC")
	assert.Equal(t, 300.0, agg.Totals["BTC"].LongsLiquidated)
	assert.Equal(t, 50.0, agg.Totals["BTC"].ShortsLiquidated)
	assert.Equal(t, []string{"BTC", "ETH"}, agg.Order)
}

func TestTopWallets(t *testing.T) {
	agg := &Aggregate{
		Coin: "BTC",
		PerWallet: map[string]float64{
			"0xa": 100,
			"0xb": -500,
			"0xc": 250,
			"0xd": 10,
		},
	}

	top := agg.TopWallets(3)
	require.Len(t, top, 3)
	assert.Equal(t, "0xb", top[0].Wallet)
	assert.Equal(t, "0xc", top[1].Wallet)
	assert.Equal(t, "0xa", top[2].Wallet)
}

func TestAggregateWalletLedgers(t *testing.T) {
	fills := []models.Fill{
		{Coin: "BTC", Wallet: "0xa", Side: models.SideLong, Action: models.ActionOpen, Size: 1, Price: 100},
		{Coin: "BTC", Wallet: "0xa", Side: models.SideLong, Action: models.ActionClose, Size: 1, Price: 60},
	}

	ledgers := AggregateWalletLedgers(fills)
	require.Contains(t, ledgers, "0xa")
	ledger := ledgers["0xa"]["BTC"]
	require.NotNil(t, ledger)
	assert.Equal(t, 100.0, ledger.Opened[models.SideLong])
	assert.Equal(t, 60.0, ledger.Closed[models.SideLong])
}

func TestOpenInterestDeltaOf(t *testing.T) {
	samples := []models.OpenInterestSample{
		{Coin: "BTC", TimestampMs: 2000, ValueUSD: 150},
		{Coin: "BTC", TimestampMs: 1000, ValueUSD: 200},
		{Coin: "BTC", TimestampMs: 3000, ValueUSD: 120},
	}

	d := OpenInterestDeltaOf("BTC", samples)
	assert.Equal(t, 200.0, d.StartUSD)
	assert.Equal(t, 120.0, d.EndUSD)
	assert.Equal(t, -40.0, d.DeltaPct())
}

func TestPriceRangeOf(t *testing.T) {
	candles := []models.Candle{
		{High: 105, Low: 100, Trades: 4},
		{High: 110, Low: 103, Trades: 6},
	}

	r := PriceRangeOf("BTC", candles)
	assert.Equal(t, 110.0, r.High)
	assert.Equal(t, 100.0, r.Low)
	assert.Equal(t, 10, r.TickCount)
}
