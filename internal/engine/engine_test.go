package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "whaleflow/config"
	"whaleflow/internal/detector"
	"whaleflow/internal/models"
	"whaleflow/internal/reader/hyperliquid"
)

var (
	walletA = "0x" + strings.Repeat("a", 40)
	walletB = "0x" + strings.Repeat("b", 40)
)

type fakeGateway struct {
	fills        map[string][]hyperliquid.FillRecord
	fillErrs     map[string]error
	states       map[string]*hyperliquid.ClearinghouseState
	liquidations []hyperliquid.LiquidationRecord
	liqErr       error
}

func (f *fakeGateway) FetchUserFillsBatch(ctx context.Context, wallets []string, window models.TimeWindow) map[string]hyperliquid.WalletResult[[]hyperliquid.FillRecord] {
	out := make(map[string]hyperliquid.WalletResult[[]hyperliquid.FillRecord])
	for _, w := range wallets {
		out[w] = hyperliquid.WalletResult[[]hyperliquid.FillRecord]{
			Wallet:  w,
			Payload: f.fills[w],
			Err:     f.fillErrs[w],
		}
	}
	return out
}

func (f *fakeGateway) FetchClearinghouseStateBatch(ctx context.Context, wallets []string) map[string]hyperliquid.WalletResult[*hyperliquid.ClearinghouseState] {
	out := make(map[string]hyperliquid.WalletResult[*hyperliquid.ClearinghouseState])
	for _, w := range wallets {
		out[w] = hyperliquid.WalletResult[*hyperliquid.ClearinghouseState]{Wallet: w, Payload: f.states[w]}
	}
	return out
}

func (f *fakeGateway) FetchLiquidations(ctx context.Context, window models.TimeWindow) ([]hyperliquid.LiquidationRecord, error) {
	return f.liquidations, f.liqErr
}

func (f *fakeGateway) FetchCandles(ctx context.Context, coin, interval string, window models.TimeWindow) ([]hyperliquid.CandleRecord, error) {
	return nil, nil
}

func (f *fakeGateway) FetchOpenInterest(ctx context.Context, coin string, window models.TimeWindow) ([]hyperliquid.OpenInterestRecord, error) {
	return nil, nil
}

func testEngine(gw Gateway) *Engine {
	return New(&appconfig.Config{}, gw)
}

func TestRunRejectsUnknownMode(t *testing.T) {
	e := testEngine(&fakeGateway{})
	_, err := e.Run(context.Background(), Request{
		Mode:    "nonsense",
		Wallets: []string{walletA},
		Window:  models.TimeWindow{StartMs: 0, EndMs: 1000},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestRunRejectsBadAddressBeforeFetch(t *testing.T) {
	e := testEngine(&fakeGateway{})
	cases := []string{"0x123", "not-an-address", "0x" + strings.Repeat("g", 40)}
	for _, addr := range cases {
		_, err := e.Run(context.Background(), Request{
			Mode:    string(detector.KindFlowSweep),
			Wallets: []string{addr},
			Window:  models.TimeWindow{StartMs: 0, EndMs: 1000},
		})
		require.Error(t, err, "address %q must be rejected", addr)
		assert.Contains(t, err.Error(), "invalid wallet address")
	}
}

func TestRunRejectsInvalidWindow(t *testing.T) {
	e := testEngine(&fakeGateway{})
	_, err := e.Run(context.Background(), Request{
		Mode:    string(detector.KindFlowSweep),
		Wallets: []string{walletA},
		Window:  models.TimeWindow{StartMs: 1000, EndMs: 1000},
	})
	require.Error(t, err)
}

func TestRunDeduplicatesWallets(t *testing.T) {
	e := testEngine(&fakeGateway{})
	resp, err := e.Run(context.Background(), Request{
		Mode:    string(detector.KindFlowSweep),
		Wallets: []string{walletA, walletB, walletA},
		Window:  models.TimeWindow{StartMs: 0, EndMs: 1000},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{walletA, walletB}, resp.Wallets)
}

func TestRunIsolatesWalletFailures(t *testing.T) {
	gw := &fakeGateway{
		fills: map[string][]hyperliquid.FillRecord{
			walletA: {{Coin: "BTC", Px: "50000", Sz: "4", Time: 500, Dir: "Open Long"}},
		},
		fillErrs: map[string]error{
			walletB: errors.New("upstream timeout"),
		},
	}
	e := testEngine(gw)

	resp, err := e.Run(context.Background(), Request{
		Mode:    string(detector.KindFlowSweep),
		Wallets: []string{walletA, walletB},
		Window:  models.TimeWindow{StartMs: 0, EndMs: 1000},
		Params:  detector.Params{FlowSweep: &detector.FlowSweepParams{MinNotionalUSD: 100000}},
	})
	require.NoError(t, err, "a failing wallet must not abort the scan")

	require.Len(t, resp.WalletErrors, 1)
	assert.Equal(t, walletB, resp.WalletErrors[0].Wallet)

	require.True(t, resp.Result.Signal)
	entries := resp.Result.Detail.([]detector.FlowSweepEntry)
	require.Len(t, entries, 1)
	assert.Equal(t, 200000.0, entries[0].NetNotional)
}

func TestRunLiquidationSweepNeedsNoWallets(t *testing.T) {
	gw := &fakeGateway{
		liquidations: []hyperliquid.LiquidationRecord{
			{Coin: "BTC", LiquidatedSide: "long", Sz: "2", Px: "50000", Time: 100},
		},
	}
	e := testEngine(gw)

	resp, err := e.Run(context.Background(), Request{
		Mode:   string(detector.KindLiquidationSweep),
		Window: models.TimeWindow{StartMs: 0, EndMs: 60_000},
	})
	require.NoError(t, err)
	require.True(t, resp.Result.Signal)
}

func TestRunEmptyLiquidationsIsNoSignalNotError(t *testing.T) {
	e := testEngine(&fakeGateway{liquidations: []hyperliquid.LiquidationRecord{}})

	resp, err := e.Run(context.Background(), Request{
		Mode:   string(detector.KindLiquidationSweep),
		Window: models.TimeWindow{StartMs: 0, EndMs: 60_000},
	})
	require.NoError(t, err)
	assert.False(t, resp.Result.Signal)
	assert.NotEmpty(t, resp.Result.Reason)
}

func TestRunFillDetectorRequiresWallets(t *testing.T) {
	e := testEngine(&fakeGateway{})
	_, err := e.Run(context.Background(), Request{
		Mode:   string(detector.KindFlowSweep),
		Window: models.TimeWindow{StartMs: 0, EndMs: 1000},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least one wallet")
}

func TestRunPositionDelta(t *testing.T) {
	gw := &fakeGateway{
		fills: map[string][]hyperliquid.FillRecord{
			walletA: {{Coin: "BTC", Px: "30000", Sz: "1", Time: 500, Dir: "Close Long"}},
		},
		states: map[string]*hyperliquid.ClearinghouseState{
			walletA: {AssetPositions: []hyperliquid.AssetPosition{
				{Position: hyperliquid.PositionDetail{Coin: "BTC", Szi: "2", EntryPx: "29000", PositionValue: "60000"}},
			}},
		},
	}
	e := testEngine(gw)

	resp, err := e.Run(context.Background(), Request{
		Mode:    string(detector.KindPositionDelta),
		Wallets: []string{walletA},
		Window:  models.TimeWindow{StartMs: 0, EndMs: 1000},
		Params: detector.Params{PositionDelta: &detector.PositionDeltaParams{
			TrimThresholdUSD: 25000, MaxHits: 10,
		}},
	})
	require.NoError(t, err)
	require.True(t, resp.Result.Signal)

	events := resp.Result.Detail.([]detector.PositionDeltaEvent)
	require.Len(t, events, 1)
	assert.Equal(t, detector.ChangeReduced, events[0].Change)
}
