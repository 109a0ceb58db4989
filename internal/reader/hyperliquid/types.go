package hyperliquid

// Wire types for the exchange's /info query endpoint. Numeric fields arrive
// as strings and stay strings here; parsing into typed values is the
// normalizer's job.

// FillRecord is one raw fill row from a userFillsByTime query.
type FillRecord struct {
	Coin      string `json:"coin"`
	Px        string `json:"px"`
	Sz        string `json:"sz"`
	Side      string `json:"side"`
	Time      int64  `json:"time"`
	Dir       string `json:"dir"`
	ClosedPnl string `json:"closedPnl"`
	Hash      string `json:"hash"`
}

// LiquidationRecord is one raw liquidation row for a time window query.
type LiquidationRecord struct {
	Coin           string `json:"coin"`
	LiquidatedSide string `json:"liquidatedSide"`
	Sz             string `json:"sz"`
	Px             string `json:"px"`
	Time           int64  `json:"time"`
}

// PositionDetail carries the current state of one perp position.
type PositionDetail struct {
	Coin          string `json:"coin"`
	Szi           string `json:"szi"`
	EntryPx       string `json:"entryPx"`
	PositionValue string `json:"positionValue"`
	UnrealizedPnl string `json:"unrealizedPnl"`
	LiquidationPx string `json:"liquidationPx"`
}

// AssetPosition wraps a position detail the way the upstream nests it.
type AssetPosition struct {
	Position PositionDetail `json:"position"`
}

// ClearinghouseState is the current account state for one wallet.
type ClearinghouseState struct {
	AssetPositions []AssetPosition `json:"assetPositions"`
}

// MetaAsset is one tradable perp instrument in the reference universe.
type MetaAsset struct {
	Name string `json:"name"`
}

// Meta is the perp instrument universe.
type Meta struct {
	Universe []MetaAsset `json:"universe"`
}

// SpotPair is one tradable spot pair, named "BASE/QUOTE".
type SpotPair struct {
	Name string `json:"name"`
}

// SpotMeta is the spot pair universe.
type SpotMeta struct {
	Universe []SpotPair `json:"universe"`
}

// CandleRecord is one raw OHLCV bar from a candleSnapshot query.
type CandleRecord struct {
	T int64  `json:"t"`
	S string `json:"s"`
	I string `json:"i"`
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
	V string `json:"v"`
	N int    `json:"n"`
}

// OpenInterestRecord is one raw open interest reading.
type OpenInterestRecord struct {
	Coin  string `json:"coin"`
	Time  int64  `json:"time"`
	OiUSD string `json:"oiUsd"`
}

type fillsRequest struct {
	Type      string `json:"type"`
	User      string `json:"user"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
}

type liquidationsRequest struct {
	Type      string `json:"type"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
}

type stateRequest struct {
	Type string `json:"type"`
	User string `json:"user"`
}

type metaRequest struct {
	Type string `json:"type"`
}

type candleRequest struct {
	Type string    `json:"type"`
	Req  candleReq `json:"req"`
}

type candleReq struct {
	Coin      string `json:"coin"`
	Interval  string `json:"interval"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
}

type openInterestRequest struct {
	Type      string `json:"type"`
	Coin      string `json:"coin"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
}
