package models

import "math"

// LiquidationEvent captures one forced position closure on the exchange.
// LiquidatedSide is the side that was force-closed: a liquidated long is a
// forced sell, so no flow sign is ever derived from this value.
type LiquidationEvent struct {
	Coin           string  `json:"coin"`
	LiquidatedSide Side    `json:"liquidated_side"`
	Size           float64 `json:"size"`
	Price          float64 `json:"price"`
	TimestampMs    int64   `json:"timestamp_ms"`
}

// NotionalUSD is the absolute USD value of the liquidated position.
func (l LiquidationEvent) NotionalUSD() float64 {
	return math.Abs(l.Size) * l.Price
}
