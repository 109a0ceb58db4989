package models

// Candle is one OHLCV bar from the exchange's candle snapshot query.
type Candle struct {
	Coin        string  `json:"coin"`
	TimestampMs int64   `json:"timestamp_ms"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	Volume      float64 `json:"volume"`
	Trades      int     `json:"trades"`
}

// PriceRange condenses a candle series into the extremes a detector needs.
type PriceRange struct {
	Coin      string  `json:"coin"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	TickCount int     `json:"tick_count"`
}

// RangeBps is the high-to-low spread expressed in basis points of the low.
func (p PriceRange) RangeBps() float64 {
	if p.Low == 0 {
		return 0
	}
	return (p.High - p.Low) / p.Low * 10000
}
