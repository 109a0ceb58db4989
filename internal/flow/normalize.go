package flow

import (
	"math"
	"strconv"
	"strings"

	"whaleflow/internal/models"
	"whaleflow/internal/reader/hyperliquid"
	"whaleflow/logger"
)

// NormalizeFills converts raw fill rows for one wallet into typed fills.
// Rows whose direction or numerics cannot be parsed are dropped, never
// guessed; a single malformed row must not poison the aggregate.
func NormalizeFills(wallet string, records []hyperliquid.FillRecord) []models.Fill {
	fills := make([]models.Fill, 0, len(records))
	dropped := 0

	for _, rec := range records {
		action, side, ok := parseDirection(rec.Dir)
		if !ok {
			dropped++
			continue
		}
		size, okSz := parseFloat(rec.Sz)
		price, okPx := parseFloat(rec.Px)
		if !okSz || !okPx || price <= 0 {
			dropped++
			continue
		}
		pnl, _ := parseFloat(rec.ClosedPnl)

		fills = append(fills, models.Fill{
			Coin:        rec.Coin,
			Wallet:      wallet,
			Action:      action,
			Side:        side,
			Size:        size,
			Price:       price,
			TimestampMs: rec.Time,
			ClosedPnl:   pnl,
		})
	}

	if dropped > 0 {
		logger.GetLogger().WithComponent("normalizer").WithFields(logger.Fields{
			"wallet":  wallet,
			"dropped": dropped,
		}).Debug("skipped unparseable fill rows")
	}
	return fills
}

// parseDirection maps the upstream "dir" string onto action and side.
// Expected forms are "Open Long", "Close Short" and the like.
func parseDirection(dir string) (models.Action, models.Side, bool) {
	parts := strings.Fields(strings.ToLower(dir))
	if len(parts) != 2 {
		return "", "", false
	}

	var action models.Action
	switch parts[0] {
	case "open":
		action = models.ActionOpen
	case "close":
		action = models.ActionClose
	default:
		return "", "", false
	}

	var side models.Side
	switch parts[1] {
	case "long":
		side = models.SideLong
	case "short":
		side = models.SideShort
	default:
		return "", "", false
	}

	return action, side, true
}

// NormalizeLiquidations converts raw liquidation rows into typed events.
func NormalizeLiquidations(records []hyperliquid.LiquidationRecord) []models.LiquidationEvent {
	events := make([]models.LiquidationEvent, 0, len(records))
	for _, rec := range records {
		side, ok := parseSide(rec.LiquidatedSide)
		if !ok {
			continue
		}
		size, okSz := parseFloat(rec.Sz)
		price, okPx := parseFloat(rec.Px)
		if !okSz || !okPx || price <= 0 {
			continue
		}
		events = append(events, models.LiquidationEvent{
			Coin:           rec.Coin,
			LiquidatedSide: side,
			Size:           size,
			Price:          price,
			TimestampMs:    rec.Time,
		})
	}
	return events
}

// NormalizePositions flattens one wallet's clearinghouse state into position
// snapshots. Flat positions (zero size) are omitted.
func NormalizePositions(wallet string, state *hyperliquid.ClearinghouseState) []models.PositionSnapshot {
	if state == nil {
		return nil
	}

	snapshots := make([]models.PositionSnapshot, 0, len(state.AssetPositions))
	for _, ap := range state.AssetPositions {
		pos := ap.Position
		szi, ok := parseFloat(pos.Szi)
		if !ok || szi == 0 {
			continue
		}
		side := models.SideLong
		if szi < 0 {
			side = models.SideShort
		}
		entry, _ := parseFloat(pos.EntryPx)
		value, _ := parseFloat(pos.PositionValue)
		liqPx, _ := parseFloat(pos.LiquidationPx)
		upnl, _ := parseFloat(pos.UnrealizedPnl)

		snapshots = append(snapshots, models.PositionSnapshot{
			Coin:             pos.Coin,
			Wallet:           wallet,
			Side:             side,
			SizeUSD:          math.Abs(value),
			EntryPrice:       entry,
			LiquidationPrice: liqPx,
			UnrealizedPnl:    upnl,
		})
	}
	return snapshots
}

// NormalizeCandles converts raw candle rows into typed bars.
func NormalizeCandles(records []hyperliquid.CandleRecord) []models.Candle {
	candles := make([]models.Candle, 0, len(records))
	for _, rec := range records {
		open, ok1 := parseFloat(rec.O)
		high, ok2 := parseFloat(rec.H)
		low, ok3 := parseFloat(rec.L)
		closePx, ok4 := parseFloat(rec.C)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}
		volume, _ := parseFloat(rec.V)
		candles = append(candles, models.Candle{
			Coin:        rec.S,
			TimestampMs: rec.T,
			Open:        open,
			High:        high,
			Low:         low,
			Close:       closePx,
			Volume:      volume,
			Trades:      rec.N,
		})
	}
	return candles
}

// NormalizeOpenInterest converts raw open interest rows into typed samples.
func NormalizeOpenInterest(records []hyperliquid.OpenInterestRecord) []models.OpenInterestSample {
	samples := make([]models.OpenInterestSample, 0, len(records))
	for _, rec := range records {
		value, ok := parseFloat(rec.OiUSD)
		if !ok {
			continue
		}
		samples = append(samples, models.OpenInterestSample{
			Coin:        rec.Coin,
			TimestampMs: rec.Time,
			ValueUSD:    value,
		})
	}
	return samples
}

func parseSide(raw string) (models.Side, bool) {
	switch strings.ToLower(raw) {
	case "long":
		return models.SideLong, true
	case "short":
		return models.SideShort, true
	default:
		return "", false
	}
}

func parseFloat(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
