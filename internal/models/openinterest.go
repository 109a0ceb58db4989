package models

import "math"

// OpenInterestSample is one point-in-time reading of outstanding notional
// exposure on an instrument.
type OpenInterestSample struct {
	Coin        string  `json:"coin"`
	TimestampMs int64   `json:"timestamp_ms"`
	ValueUSD    float64 `json:"value_usd"`
}

// OpenInterestDelta pairs the first and last open interest readings of one
// window for an instrument.
type OpenInterestDelta struct {
	Coin     string  `json:"coin"`
	StartUSD float64 `json:"start_usd"`
	EndUSD   float64 `json:"end_usd"`
}

// DeltaUSD is the signed change in open interest over the window.
func (d OpenInterestDelta) DeltaUSD() float64 {
	return d.EndUSD - d.StartUSD
}

// DeltaPct is the percentage change relative to the window start. A zero
// start reads as no measurable change.
func (d OpenInterestDelta) DeltaPct() float64 {
	if d.StartUSD == 0 {
		return 0
	}
	return (d.EndUSD - d.StartUSD) / math.Abs(d.StartUSD) * 100
}
