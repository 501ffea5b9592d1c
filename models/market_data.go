package models

import (
	"time"

	"github.com/google/uuid"
)

// Trend is a tri-state direction signal used by the indicator set.
type Trend string

const (
	TrendBullish Trend = "Bullish"
	TrendBearish Trend = "Bearish"
	TrendNeutral Trend = "Neutral"
)

// Bar is a single OHLCV observation. Time carries the exchange timezone
// (Asia/Kolkata); all cross-series comparisons rely on that.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// PriceSeries is an ordered sequence of bars, oldest first.
type PriceSeries []Bar

// Empty reports whether the series has no bars.
func (s PriceSeries) Empty() bool { return len(s) == 0 }

// Closes returns the close prices in order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, b := range s {
		closes[i] = b.Close
	}
	return closes
}

// Volumes returns the traded volumes in order.
func (s PriceSeries) Volumes() []int64 {
	volumes := make([]int64, len(s))
	for i, b := range s {
		volumes[i] = b.Volume
	}
	return volumes
}

// VolumeOn sums the volume of bars falling on the given calendar day,
// compared in the bar's own location.
func (s PriceSeries) VolumeOn(day time.Time) int64 {
	y, m, d := day.Date()
	var total int64
	for _, b := range s {
		by, bm, bd := b.Time.Date()
		if by == y && bm == m && bd == d {
			total += b.Volume
		}
	}
	return total
}

// ClosePoint is a date-normalized close, used for cross-series alignment.
// Date is truncated to midnight with timezone information stripped.
type ClosePoint struct {
	Date  time.Time
	Close float64
}

// ClosePoints flattens the series to date-normalized closes. Bars sharing a
// calendar day each contribute a point; alignment downstream forward-fills
// by date, matching how the benchmark series is indexed.
func (s PriceSeries) ClosePoints() []ClosePoint {
	points := make([]ClosePoint, len(s))
	for i, b := range s {
		points[i] = ClosePoint{Date: NormalizeDate(b.Time), Close: b.Close}
	}
	return points
}

// NormalizeDate truncates a timestamp to its calendar day in UTC,
// discarding both time of day and zone offset.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Quote is a point-in-time snapshot from the live quote source. Numeric
// fields degrade to zero on missing or unparseable upstream data.
type Quote struct {
	Symbol          string
	CompanyName     string
	LastPrice       float64
	OpenPrice       float64
	Volume          int64
	Change          float64
	PercentChange   float64
	DeliveryPercent float64
}

// StockRecord is one assembled output row per symbol. Immutable once
// emitted by a worker.
type StockRecord struct {
	Timestamp        string  `json:"timestamp"`
	Ticker           string  `json:"ticker"`
	CompanyName      string  `json:"company_name"`
	OpenPrice        float64 `json:"open_price"`
	CurrentPrice     float64 `json:"current_price"`
	PriceChange      float64 `json:"price_change"`
	PercentChange    float64 `json:"percentage_change"`
	Volume           int64   `json:"volume"`
	DeliveryPercent  float64 `json:"delivery_percent"`
	RSI              float64 `json:"rsi"`
	VWAP             float64 `json:"vwap"`
	Supertrend       Trend   `json:"supertrend"`
	Support          float64 `json:"support"`
	Resistance       float64 `json:"resistance"`
	IntradayTrend    Trend   `json:"intraday_trend"`
	NiftyCorrelation float64 `json:"nifty_correlation"`
	Link             string  `json:"link"`
}

// RunResult is the full output of one pipeline invocation.
type RunResult struct {
	ID           uuid.UUID     `json:"id"`
	Timestamp    string        `json:"timestamp"`
	Records      []StockRecord `json:"records"`
	IsBearish    bool          `json:"is_bearish"`
	SuccessCount int           `json:"success_count"`
	TotalCount   int           `json:"total_count"`
	DurationMs   int64         `json:"duration_ms"`
	CreatedAt    time.Time     `json:"created_at"`
}

// NewRunResult creates a run result shell with a fresh ID.
func NewRunResult(timestamp string) *RunResult {
	return &RunResult{
		ID:        uuid.New(),
		Timestamp: timestamp,
		CreatedAt: time.Now(),
	}
}

// SuccessRatio returns successCount/totalCount, or 0 for an empty basket.
func (r *RunResult) SuccessRatio() float64 {
	if r.TotalCount == 0 {
		return 0
	}
	return float64(r.SuccessCount) / float64(r.TotalCount)
}
