package models

// PositionSnapshot represents a wallet's current exposure on an instrument,
// independent of any query window.
type PositionSnapshot struct {
	Coin             string  `json:"coin"`
	Wallet           string  `json:"wallet"`
	Side             Side    `json:"side"`
	SizeUSD          float64 `json:"size_usd"`
	EntryPrice       float64 `json:"entry_price"`
	LiquidationPrice float64 `json:"liquidation_price"`
	UnrealizedPnl    float64 `json:"unrealized_pnl"`
}
