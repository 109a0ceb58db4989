package models

import "math"

// Side identifies the direction of a position or trade.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideLong {
		return SideShort
	}
	return SideLong
}

// Action identifies whether a fill opened or closed exposure.
type Action string

const (
	ActionOpen  Action = "open"
	ActionClose Action = "close"
)

// Fill is one executed trade event for a wallet on an instrument. It is
// immutable once normalized and lives only for the duration of one query.
type Fill struct {
	Coin        string  `json:"coin"`
	Wallet      string  `json:"wallet"`
	Action      Action  `json:"action"`
	Side        Side    `json:"side"`
	Size        float64 `json:"size"`
	Price       float64 `json:"price"`
	TimestampMs int64   `json:"timestamp_ms"`
	ClosedPnl   float64 `json:"closed_pnl,omitempty"`
}

// NotionalUSD is the absolute USD value of the fill.
func (f Fill) NotionalUSD() float64 {
	return math.Abs(f.Size) * f.Price
}

// Sign implements the exchange-wide flow convention: opening longs and
// closing shorts are buy pressure (+1), everything else is sell pressure (-1).
func (f Fill) Sign() float64 {
	if (f.Side == SideLong && f.Action == ActionOpen) || (f.Side == SideShort && f.Action == ActionClose) {
		return 1
	}
	return -1
}

// SignedNotionalUSD is the fill's notional with the flow sign applied.
// Positive values read as net long pressure.
func (f Fill) SignedNotionalUSD() float64 {
	return f.Sign() * f.NotionalUSD()
}

// IsOpen reports whether the fill added exposure.
func (f Fill) IsOpen() bool {
	return f.Action == ActionOpen
}
