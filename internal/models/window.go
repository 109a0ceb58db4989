package models

import "time"

// MaxLiquidationSpanMs is the hard upper bound the upstream imposes on the
// span of one liquidation query. Wider windows are clamped, never rejected.
const MaxLiquidationSpanMs int64 = 119_000

// TimeWindow is a half-open interval [StartMs, EndMs) in epoch milliseconds.
type TimeWindow struct {
	StartMs int64 `json:"start_ms"`
	EndMs   int64 `json:"end_ms"`
}

// WindowEndingAt builds a window of the given length that ends at the
// provided instant.
func WindowEndingAt(end time.Time, length time.Duration) TimeWindow {
	endMs := end.UnixMilli()
	return TimeWindow{StartMs: endMs - length.Milliseconds(), EndMs: endMs}
}

// SpanMs is the window length in milliseconds.
func (w TimeWindow) SpanMs() int64 {
	return w.EndMs - w.StartMs
}

// Contains reports whether the timestamp falls inside the half-open window.
func (w TimeWindow) Contains(tsMs int64) bool {
	return tsMs >= w.StartMs && tsMs < w.EndMs
}

// ClampSpan shrinks the window to at most maxSpanMs milliseconds, keeping
// the end fixed. Callers clamp rather than error when an upstream limit is
// narrower than the requested window.
func (w TimeWindow) ClampSpan(maxSpanMs int64) TimeWindow {
	if maxSpanMs <= 0 || w.SpanMs() <= maxSpanMs {
		return w
	}
	return TimeWindow{StartMs: w.EndMs - maxSpanMs, EndMs: w.EndMs}
}

// IsValid reports whether the window has positive span.
func (w TimeWindow) IsValid() bool {
	return w.EndMs > w.StartMs
}
