package hyperliquid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	appconfig "whaleflow/config"
	"whaleflow/internal/models"
)

func testConfig(baseURL string) *appconfig.Config {
	return &appconfig.Config{
		Gateway: appconfig.GatewayConfig{
			BaseURL:     baseURL,
			TimeoutMs:   2000,
			MaxInflight: 6,
			BatchSize:   20,
			CacheTTLMs:  60000,
			RateLimit: appconfig.RateLimitConfig{
				RequestsPerSecond: 1000,
				BurstSize:         1000,
			},
			Retry: appconfig.RetryConfig{
				MaxAttempts: 3,
				BaseDelayMs: 1,
			},
		},
	}
}

func TestFetchUserFills(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		json.NewEncoder(w).Encode([]FillRecord{
			{Coin: "BTC", Px: "50000", Sz: "2", Side: "B", Time: 1000, Dir: "Open Long"},
		})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	fills, err := client.FetchUserFills(context.Background(), "0xabc", models.TimeWindow{StartMs: 0, EndMs: 60_000})
	if err != nil {
		t.Fatalf("FetchUserFills failed: %v", err)
	}
	if len(fills) != 1 || fills[0].Coin != "BTC" {
		t.Errorf("unexpected fills: %+v", fills)
	}
	if gotBody["type"] != "userFillsByTime" {
		t.Errorf("unexpected request type: %v", gotBody["type"])
	}
	if gotBody["user"] != "0xabc" {
		t.Errorf("unexpected request user: %v", gotBody["user"])
	}
}

func TestRetryOnRateLimit(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode([]FillRecord{})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.FetchUserFills(context.Background(), "0xabc", models.TimeWindow{StartMs: 0, EndMs: 1000})
	if err != nil {
		t.Fatalf("expected retries to recover, got: %v", err)
	}
	if got := atomic.LoadInt64(&calls); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestRetryExhaustion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.FetchUserFills(context.Background(), "0xabc", models.TimeWindow{StartMs: 0, EndMs: 1000})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.FetchUserFills(context.Background(), "0xabc", models.TimeWindow{StartMs: 0, EndMs: 1000})
	if err == nil {
		t.Fatal("expected error on HTTP 400")
	}
	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Errorf("client errors must not be retried, got %d attempts", got)
	}
}

func TestLiquidationUnprocessableIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	events, err := client.FetchLiquidations(context.Background(), models.TimeWindow{StartMs: 0, EndMs: 60_000})
	if err != nil {
		t.Fatalf("HTTP 422 must read as empty, got error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected zero events, got %d", len(events))
	}
}

func TestLiquidationWindowClamp(t *testing.T) {
	var gotBody liquidationsRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		json.NewEncoder(w).Encode([]LiquidationRecord{})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	wide := models.TimeWindow{StartMs: 0, EndMs: 600_000}
	if _, err := client.FetchLiquidations(context.Background(), wide); err != nil {
		t.Fatalf("FetchLiquidations failed: %v", err)
	}
	if gotBody.EndTime != wide.EndMs {
		t.Errorf("clamp must keep the window end, got %d", gotBody.EndTime)
	}
	if span := gotBody.EndTime - gotBody.StartTime; span != models.MaxLiquidationSpanMs {
		t.Errorf("unexpected clamped span: %d", span)
	}
}

func TestFetchUserFillsBatchIsolatesFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req fillsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if req.User == "0xbad" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode([]FillRecord{{Coin: "ETH", Px: "3000", Sz: "1", Time: 500, Dir: "Open Long"}})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	results := client.FetchUserFillsBatch(context.Background(), []string{"0xgood", "0xbad", "0xalso"}, models.TimeWindow{StartMs: 0, EndMs: 1000})

	if len(results) != 3 {
		t.Fatalf("expected a result per wallet, got %d", len(results))
	}
	if results["0xbad"].Err == nil {
		t.Error("failing wallet must carry an error")
	}
	if results["0xgood"].Err != nil {
		t.Errorf("healthy wallet must not be poisoned: %v", results["0xgood"].Err)
	}
	if len(results["0xalso"].Payload) != 1 {
		t.Errorf("healthy wallet payload missing: %+v", results["0xalso"])
	}
}

func TestFetchPerpUniverseCached(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		json.NewEncoder(w).Encode(Meta{Universe: []MetaAsset{{Name: "BTC"}, {Name: "ETH"}}})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	for i := 0; i < 3; i++ {
		names, err := client.FetchPerpUniverse(context.Background())
		if err != nil {
			t.Fatalf("FetchPerpUniverse failed: %v", err)
		}
		if len(names) != 2 {
			t.Errorf("unexpected universe: %v", names)
		}
	}
	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Errorf("universe must be served from cache, got %d upstream calls", got)
	}
}
