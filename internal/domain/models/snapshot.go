package models

import "time"

// RSTrend is a discretized relative-strength proxy.
type RSTrend string

const (
	RSRising  RSTrend = "rising"
	RSFlat    RSTrend = "flat"
	RSFalling RSTrend = "falling"
)

// IndicatorSnapshot is the per-ticker, per-cycle set of price/volume facts the
// engine consumes. Zero moving averages mean "not enough history".
type IndicatorSnapshot struct {
	Symbol    string  `json:"symbol" validate:"required"`
	Price     float64 `json:"price" validate:"gte=0"`
	High      float64 `json:"high" validate:"gte=0,gtefield=Low"`
	Low       float64 `json:"low" validate:"gte=0"`
	Open      float64 `json:"open"`
	Close     float64 `json:"close"`
	PrevClose float64 `json:"prevClose"`
	ChangePct float64 `json:"changePct"`

	Volume   float64 `json:"volume" validate:"gte=0"`
	AvgVol20 float64 `json:"avgVol20" validate:"gte=0"`
	AvgVol50 float64 `json:"avgVol50" validate:"gte=0"`

	SMA50  float64 `json:"sma50"`
	SMA200 float64 `json:"sma200"`
	EMA9   float64 `json:"ema9"`
	EMA21  float64 `json:"ema21"`

	RSTrend      RSTrend `json:"rsTrend"`
	RecentHigh20 float64 `json:"recentHigh20"`
	RecentLow20  float64 `json:"recentLow20"`

	DaysToEarnings   *int    `json:"daysToEarnings,omitempty"`
	EarningsMoveFlag bool    `json:"earningsMoveFlag"`
	GapPctToday      float64 `json:"gapPctToday"`
	GapPctPrevDay    float64 `json:"gapPctPrevDay"`
}

// OptionsSnapshot is an already-computed liquidity summary of a ticker's option chain.
// SpreadPct is meaningless when HasOptions is false.
type OptionsSnapshot struct {
	HasOptions   bool    `json:"hasOptions"`
	SpreadPct    float64 `json:"spreadPct"`
	OpenInterest int64   `json:"openInterest" validate:"gte=0"`
	TotalVolume  int64   `json:"totalVolume" validate:"gte=0"`
}

// SnapshotEvent is the unit of work for stream ingestion and POST /api/analyze.
type SnapshotEvent struct {
	Indicators IndicatorSnapshot `json:"indicators"`
	Options    OptionsSnapshot   `json:"options"`
}

// Candle represents a daily OHLCV bar.
type Candle struct {
	Time   time.Time `json:"time"`
	Symbol string    `json:"symbol"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// EarningsInfo holds the nearest report dates around now. Either may be nil.
type EarningsInfo struct {
	Next *time.Time `json:"next,omitempty"`
	Last *time.Time `json:"last,omitempty"`
}
