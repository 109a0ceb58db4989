package engine

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	appconfig "whaleflow/config"
	"whaleflow/internal/detector"
	"whaleflow/internal/flow"
	"whaleflow/internal/models"
	"whaleflow/internal/reader/hyperliquid"
	"whaleflow/logger"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Gateway is the upstream surface the engine fetches through. The concrete
// implementation is the hyperliquid client; tests substitute a fake.
type Gateway interface {
	FetchUserFillsBatch(ctx context.Context, wallets []string, window models.TimeWindow) map[string]hyperliquid.WalletResult[[]hyperliquid.FillRecord]
	FetchClearinghouseStateBatch(ctx context.Context, wallets []string) map[string]hyperliquid.WalletResult[*hyperliquid.ClearinghouseState]
	FetchLiquidations(ctx context.Context, window models.TimeWindow) ([]hyperliquid.LiquidationRecord, error)
	FetchCandles(ctx context.Context, coin, interval string, window models.TimeWindow) ([]hyperliquid.CandleRecord, error)
	FetchOpenInterest(ctx context.Context, coin string, window models.TimeWindow) ([]hyperliquid.OpenInterestRecord, error)
}

// Request is one scan: a detector mode, the wallets to inspect and the
// window to inspect them over.
type Request struct {
	Mode           string            `json:"mode"`
	Wallets        []string          `json:"wallets"`
	Window         models.TimeWindow `json:"window"`
	Params         detector.Params   `json:"params"`
	CandleInterval string            `json:"candle_interval,omitempty"`
}

// WalletError marks one wallet whose fetch failed. Failed wallets ride
// alongside the result; they never abort the scan.
type WalletError struct {
	Wallet string `json:"wallet"`
	Error  string `json:"error"`
}

// Response is the structured outcome of one scan.
type Response struct {
	Mode         string            `json:"mode"`
	Window       models.TimeWindow `json:"window"`
	Wallets      []string          `json:"wallets"`
	Result       *detector.Result  `json:"result"`
	WalletErrors []WalletError     `json:"wallet_errors,omitempty"`
	DurationMs   int64             `json:"duration_ms"`
}

// Engine is the inbound call surface: it validates caller input, plans the
// fetches a detector needs, aggregates and dispatches.
type Engine struct {
	config  *appconfig.Config
	gateway Gateway
	log     *logger.Log
}

func New(cfg *appconfig.Config, gateway Gateway) *Engine {
	return &Engine{
		config:  cfg,
		gateway: gateway,
		log:     logger.GetLogger(),
	}
}

// Run executes one scan. Malformed input is rejected before any fetch;
// per-wallet upstream failures surface as markers in the response.
func (e *Engine) Run(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	kind, err := detector.ParseKind(req.Mode)
	if err != nil {
		return nil, err
	}

	wallets, err := validateWallets(req.Wallets)
	if err != nil {
		return nil, err
	}

	if !req.Window.IsValid() {
		return nil, fmt.Errorf("window must have positive span")
	}

	needs := kind.Requires()
	if (needs.Fills || needs.Positions) && len(wallets) == 0 {
		return nil, fmt.Errorf("mode '%s' requires at least one wallet address", req.Mode)
	}

	req.Params = e.applyConfigThresholds(req.Params)

	log := e.log.WithComponent("engine").WithFields(logger.Fields{
		"mode":    req.Mode,
		"wallets": len(wallets),
	})
	log.Info("scan started")

	in := detector.Input{}
	var walletErrors []WalletError

	if needs.Fills {
		results := e.gateway.FetchUserFillsBatch(ctx, wallets, req.Window)
		for _, wallet := range wallets {
			res := results[wallet]
			if res.Err != nil {
				walletErrors = append(walletErrors, WalletError{Wallet: wallet, Error: res.Err.Error()})
				log.WithError(res.Err).WithFields(logger.Fields{"wallet": wallet}).Warn("wallet fill fetch failed")
				continue
			}
			in.Fills = append(in.Fills, flow.NormalizeFills(wallet, res.Payload)...)
		}
	}

	if needs.Positions {
		results := e.gateway.FetchClearinghouseStateBatch(ctx, wallets)
		in.Positions = make(map[string][]models.PositionSnapshot, len(wallets))
		for _, wallet := range wallets {
			res := results[wallet]
			if res.Err != nil {
				walletErrors = append(walletErrors, WalletError{Wallet: wallet, Error: res.Err.Error()})
				log.WithError(res.Err).WithFields(logger.Fields{"wallet": wallet}).Warn("wallet position fetch failed")
				continue
			}
			in.Positions[wallet] = flow.NormalizePositions(wallet, res.Payload)
		}
	}

	if needs.Liquidations {
		records, err := e.gateway.FetchLiquidations(ctx, req.Window)
		if err != nil {
			return nil, fmt.Errorf("liquidation fetch failed: %w", err)
		}
		in.Liquidations = flow.AggregateLiquidations(flow.NormalizeLiquidations(records))
	}

	if needs.Candles {
		in.PriceRanges = e.fetchPriceRanges(ctx, log, instrumentsOf(in.Fills), req)
	}

	if needs.OpenInterest {
		in.OIDeltas = e.fetchOIDeltas(ctx, log, instrumentsOf(in.Fills), req.Window)
	}

	result, err := detector.Run(kind, in, req.Params)
	if err != nil {
		return nil, err
	}

	logger.IncrementScan()
	if result.Signal {
		logger.IncrementSignal()
	} else {
		logger.IncrementNoSignal()
	}

	duration := time.Since(start)
	logger.LogPerformanceEntry(log, "engine", "scan", duration, logger.Fields{
		"mode":          req.Mode,
		"signal":        result.Signal,
		"wallet_errors": len(walletErrors),
	})
	e.log.LogMetric("engine", "ScanDurationMs", float64(duration.Milliseconds()), "gauge", logger.Fields{
		"mode": req.Mode,
	})

	return &Response{
		Mode:         req.Mode,
		Window:       req.Window,
		Wallets:      wallets,
		Result:       result,
		WalletErrors: walletErrors,
		DurationMs:   duration.Milliseconds(),
	}, nil
}

// fetchPriceRanges pulls candles per instrument and condenses them. A coin
// whose fetch fails is skipped, not fatal.
func (e *Engine) fetchPriceRanges(ctx context.Context, log *logger.Entry, coins []string, req Request) map[string]models.PriceRange {
	interval := req.CandleInterval
	if interval == "" {
		interval = "5m"
	}

	ranges := make(map[string]models.PriceRange, len(coins))
	for _, coin := range coins {
		records, err := e.gateway.FetchCandles(ctx, coin, interval, req.Window)
		if err != nil {
			log.WithError(err).WithFields(logger.Fields{"coin": coin}).Warn("candle fetch failed")
			continue
		}
		ranges[coin] = flow.PriceRangeOf(coin, flow.NormalizeCandles(records))
	}
	return ranges
}

// fetchOIDeltas pulls open interest per instrument with the same per-coin
// isolation as candles.
func (e *Engine) fetchOIDeltas(ctx context.Context, log *logger.Entry, coins []string, window models.TimeWindow) map[string]models.OpenInterestDelta {
	deltas := make(map[string]models.OpenInterestDelta, len(coins))
	for _, coin := range coins {
		records, err := e.gateway.FetchOpenInterest(ctx, coin, window)
		if err != nil {
			log.WithError(err).WithFields(logger.Fields{"coin": coin}).Warn("open interest fetch failed")
			continue
		}
		deltas[coin] = flow.OpenInterestDeltaOf(coin, flow.NormalizeOpenInterest(records))
	}
	return deltas
}

// applyConfigThresholds seeds nil parameter structs from the config-wide
// detector thresholds, so a bare request still honors config.yml. Zero
// fields fall through to the per-detector defaults.
func (e *Engine) applyConfigThresholds(p detector.Params) detector.Params {
	d := e.config.Detectors
	if p.FillInsight == nil {
		p.FillInsight = &detector.FillInsightParams{BigTradeUSD: d.BigTradeUSD, SmallCloseUSD: d.SmallCloseUSD}
	}
	if p.FlowSweep == nil {
		p.FlowSweep = &detector.FlowSweepParams{MinNotionalUSD: d.BigTradeUSD, TopWallets: d.TopN}
	}
	if p.MicroFlowPulse == nil {
		p.MicroFlowPulse = &detector.MicroFlowPulseParams{TopN: d.TopN}
	}
	if p.TrendBias == nil {
		p.TrendBias = &detector.TrendBiasParams{TopN: d.TopN}
	}
	if p.DivergenceRadar == nil {
		p.DivergenceRadar = &detector.DivergenceRadarParams{MinClosers: d.MinWallets, MinBuilders: d.MinWallets}
	}
	if p.CompressionRadar == nil {
		p.CompressionRadar = &detector.CompressionRadarParams{MinWallets: d.MinWallets}
	}
	if p.LiquidationSniper == nil {
		p.LiquidationSniper = &detector.LiquidationSniperParams{MinWallets: d.MinWallets}
	}
	if p.OpenInterestPulse == nil {
		p.OpenInterestPulse = &detector.OpenInterestPulseParams{MinWallets: d.MinWallets, TopWallets: d.TopN}
	}
	return p
}

// validateWallets rejects malformed addresses before any fetch and dedupes
// the list preserving first-seen order.
func validateWallets(wallets []string) ([]string, error) {
	seen := make(map[string]bool, len(wallets))
	out := make([]string, 0, len(wallets))
	for _, w := range wallets {
		if !addressPattern.MatchString(w) {
			return nil, fmt.Errorf("invalid wallet address '%s'", w)
		}
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out, nil
}

func instrumentsOf(fills []models.Fill) []string {
	set := make(map[string]bool)
	for _, f := range fills {
		set[f.Coin] = true
	}
	coins := make([]string, 0, len(set))
	for coin := range set {
		coins = append(coins, coin)
	}
	sort.Strings(coins)
	return coins
}
