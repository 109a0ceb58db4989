package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	appconfig "whaleflow/config"
	"whaleflow/internal/models"
	"whaleflow/logger"
)

// ErrRateLimited marks an upstream 429 response. Rate limited requests are
// retried with backoff before the error surfaces.
var ErrRateLimited = errors.New("upstream rate limited")

// ErrUnprocessable marks an upstream 422 response. Liquidation queries map
// this to an empty result instead of an error.
var ErrUnprocessable = errors.New("upstream unprocessable request")

// statusError carries a non-OK HTTP status through the retry loop.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d", e.code)
}

// Client is the fetch gateway for the exchange's /info query endpoint. All
// upstream access goes through a bounded in-flight pool and a shared rate
// limiter; reference universes are served from a short TTL cache.
type Client struct {
	config     *appconfig.Config
	httpClient *http.Client
	limiter    *rate.Limiter
	inflight   chan struct{}
	perpCache  *universeCache
	spotCache  *universeCache
	log        *logger.Log
}

// NewClient constructs a gateway client from configuration.
func NewClient(cfg *appconfig.Config) *Client {
	gw := cfg.Gateway
	log := logger.GetLogger()

	c := &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: gw.Timeout(),
		},
		limiter:   rate.NewLimiter(rate.Limit(gw.RateLimit.RequestsPerSecond), gw.RateLimit.BurstSize),
		inflight:  make(chan struct{}, gw.MaxInflight),
		perpCache: newUniverseCache(gw.CacheTTL()),
		spotCache: newUniverseCache(gw.CacheTTL()),
		log:       log,
	}

	log.WithComponent("gateway").WithFields(logger.Fields{
		"base_url":     gw.BaseURL,
		"max_inflight": gw.MaxInflight,
		"batch_size":   gw.BatchSize,
		"cache_ttl":    gw.CacheTTL().String(),
	}).Info("gateway client initialized")

	return c
}

func (c *Client) acquire(ctx context.Context) error {
	select {
	case c.inflight <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) release() {
	<-c.inflight
}

// post runs one typed query against the /info endpoint with bounded
// concurrency, rate limiting and retries on transient failures.
func (c *Client) post(ctx context.Context, queryType string, body interface{}) ([]byte, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", queryType, err)
	}

	requestID := uuid.New().String()
	log := c.log.WithComponent("gateway").WithFields(logger.Fields{
		"query_type": queryType,
		"request_id": requestID,
	})

	maxAttempts := c.config.Gateway.Retry.MaxAttempts
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			logger.IncrementRetry()
			delay := time.Duration(attempt-1) * c.config.Gateway.Retry.BaseDelay()
			log.WithFields(logger.Fields{"attempt": attempt, "delay_ms": delay.Milliseconds()}).Debug("retrying upstream query")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		start := time.Now()
		data, err := c.doOnce(ctx, payload)
		duration := time.Since(start)

		if err == nil {
			logger.LogPerformanceEntry(log, "gateway", "info_query", duration, logger.Fields{
				"query_type": queryType,
				"attempt":    attempt,
			})
			logger.IncrementFetch(queryType, len(data))
			return data, nil
		}

		lastErr = err
		if errors.Is(err, ErrRateLimited) {
			logger.IncrementRateLimited()
		}
		if !isTransient(err) {
			return nil, err
		}
		log.WithError(err).WithFields(logger.Fields{"attempt": attempt}).Warn("transient upstream failure")
	}

	return nil, fmt.Errorf("%s query failed after %d attempts: %w", queryType, maxAttempts, lastErr)
}

func (c *Client) doOnce(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Gateway.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "WhaleFlow/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, ErrUnprocessable
	default:
		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// isTransient reports whether the failure is worth another attempt: rate
// limits, transport timeouts and upstream 5xx responses.
func isTransient(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	if errors.Is(err, ErrUnprocessable) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	// Transport level failures, timeouts included, are worth another attempt.
	var ue *url.Error
	return errors.As(err, &ue)
}

// FetchUserFills returns the raw fills of one wallet inside the window.
func (c *Client) FetchUserFills(ctx context.Context, wallet string, window models.TimeWindow) ([]FillRecord, error) {
	data, err := c.post(ctx, "userFillsByTime", fillsRequest{
		Type:      "userFillsByTime",
		User:      wallet,
		StartTime: window.StartMs,
		EndTime:   window.EndMs,
	})
	if err != nil {
		return nil, err
	}

	var fills []FillRecord
	if err := json.Unmarshal(data, &fills); err != nil {
		return nil, fmt.Errorf("failed to decode fills: %w", err)
	}
	return fills, nil
}

// FetchLiquidations returns the raw liquidation events inside the window.
// The window is clamped to the upstream's maximum span; an unprocessable
// response reads as zero events rather than an error.
func (c *Client) FetchLiquidations(ctx context.Context, window models.TimeWindow) ([]LiquidationRecord, error) {
	clamped := window.ClampSpan(models.MaxLiquidationSpanMs)
	data, err := c.post(ctx, "liquidations", liquidationsRequest{
		Type:      "liquidations",
		StartTime: clamped.StartMs,
		EndTime:   clamped.EndMs,
	})
	if err != nil {
		if errors.Is(err, ErrUnprocessable) {
			c.log.WithComponent("gateway").WithFields(logger.Fields{
				"start_ms": clamped.StartMs,
				"end_ms":   clamped.EndMs,
			}).Debug("liquidation query unprocessable, treating as empty")
			return []LiquidationRecord{}, nil
		}
		return nil, err
	}

	var events []LiquidationRecord
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to decode liquidations: %w", err)
	}
	return events, nil
}

// FetchClearinghouseState returns the current position state of one wallet.
func (c *Client) FetchClearinghouseState(ctx context.Context, wallet string) (*ClearinghouseState, error) {
	data, err := c.post(ctx, "clearinghouseState", stateRequest{
		Type: "clearinghouseState",
		User: wallet,
	})
	if err != nil {
		return nil, err
	}

	var state ClearinghouseState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode clearinghouse state: %w", err)
	}
	return &state, nil
}

// FetchPerpUniverse returns the names of all tradable perp instruments,
// served from the TTL cache when fresh.
func (c *Client) FetchPerpUniverse(ctx context.Context) ([]string, error) {
	return c.perpCache.get(ctx, func(ctx context.Context) ([]string, error) {
		data, err := c.post(ctx, "meta", metaRequest{Type: "meta"})
		if err != nil {
			return nil, err
		}
		var meta Meta
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, fmt.Errorf("failed to decode meta: %w", err)
		}
		names := make([]string, 0, len(meta.Universe))
		for _, asset := range meta.Universe {
			names = append(names, asset.Name)
		}
		return names, nil
	})
}

// FetchSpotPairs returns the names of all tradable spot pairs, served from
// the TTL cache when fresh.
func (c *Client) FetchSpotPairs(ctx context.Context) ([]string, error) {
	return c.spotCache.get(ctx, func(ctx context.Context) ([]string, error) {
		data, err := c.post(ctx, "spotMeta", metaRequest{Type: "spotMeta"})
		if err != nil {
			return nil, err
		}
		var meta SpotMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, fmt.Errorf("failed to decode spot meta: %w", err)
		}
		names := make([]string, 0, len(meta.Universe))
		for _, pair := range meta.Universe {
			names = append(names, pair.Name)
		}
		return names, nil
	})
}

// FetchCandles returns the raw candle series for one instrument and window.
func (c *Client) FetchCandles(ctx context.Context, coin, interval string, window models.TimeWindow) ([]CandleRecord, error) {
	data, err := c.post(ctx, "candleSnapshot", candleRequest{
		Type: "candleSnapshot",
		Req: candleReq{
			Coin:      coin,
			Interval:  interval,
			StartTime: window.StartMs,
			EndTime:   window.EndMs,
		},
	})
	if err != nil {
		return nil, err
	}

	var candles []CandleRecord
	if err := json.Unmarshal(data, &candles); err != nil {
		return nil, fmt.Errorf("failed to decode candles: %w", err)
	}
	return candles, nil
}

// FetchOpenInterest returns the raw open interest series for one instrument
// over the window.
func (c *Client) FetchOpenInterest(ctx context.Context, coin string, window models.TimeWindow) ([]OpenInterestRecord, error) {
	data, err := c.post(ctx, "openInterestHistory", openInterestRequest{
		Type:      "openInterestHistory",
		Coin:      coin,
		StartTime: window.StartMs,
		EndTime:   window.EndMs,
	})
	if err != nil {
		return nil, err
	}

	var samples []OpenInterestRecord
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("failed to decode open interest: %w", err)
	}
	return samples, nil
}

// WalletResult pairs a wallet with the outcome of its fetch. Failed wallets
// carry an error marker and never abort the surrounding batch.
type WalletResult[T any] struct {
	Wallet  string
	Payload T
	Err     error
}

// FetchUserFillsBatch fetches fills for many wallets. The wallet list is
// split into sequential batches to respect upstream array limits; inside a
// batch, wallets fan out under the gateway's bounded pool. Results arrive
// keyed by wallet with per-wallet errors isolated.
func (c *Client) FetchUserFillsBatch(ctx context.Context, wallets []string, window models.TimeWindow) map[string]WalletResult[[]FillRecord] {
	results := make(map[string]WalletResult[[]FillRecord], len(wallets))
	var mu sync.Mutex

	batchSize := c.config.Gateway.BatchSize
	for start := 0; start < len(wallets); start += batchSize {
		end := start + batchSize
		if end > len(wallets) {
			end = len(wallets)
		}
		batch := wallets[start:end]

		var wg sync.WaitGroup
		for _, wallet := range batch {
			wg.Add(1)
			go func(wallet string) {
				defer wg.Done()
				fills, err := c.FetchUserFills(ctx, wallet, window)
				mu.Lock()
				results[wallet] = WalletResult[[]FillRecord]{Wallet: wallet, Payload: fills, Err: err}
				mu.Unlock()
			}(wallet)
		}
		wg.Wait()

		logger.LogDataFlowEntry(c.log.WithComponent("gateway"), "info_endpoint", "aggregator", len(batch), "wallet_fill_batches")
	}

	return results
}

// FetchClearinghouseStateBatch fetches current position state for many
// wallets with the same batching and isolation rules as fills.
func (c *Client) FetchClearinghouseStateBatch(ctx context.Context, wallets []string) map[string]WalletResult[*ClearinghouseState] {
	results := make(map[string]WalletResult[*ClearinghouseState], len(wallets))
	var mu sync.Mutex

	batchSize := c.config.Gateway.BatchSize
	for start := 0; start < len(wallets); start += batchSize {
		end := start + batchSize
		if end > len(wallets) {
			end = len(wallets)
		}
		batch := wallets[start:end]

		var wg sync.WaitGroup
		for _, wallet := range batch {
			wg.Add(1)
			go func(wallet string) {
				defer wg.Done()
				state, err := c.FetchClearinghouseState(ctx, wallet)
				mu.Lock()
				results[wallet] = WalletResult[*ClearinghouseState]{Wallet: wallet, Payload: state, Err: err}
				mu.Unlock()
			}(wallet)
		}
		wg.Wait()
	}

	return results
}
