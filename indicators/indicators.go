// Package indicators implements the derived technical indicators used by the
// per-symbol pipeline. Every function degrades to a defined default (0.0 or
// Neutral) instead of returning an error: a single missing indicator must
// never block the rest of a symbol's record.
package indicators

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"nse-pulse/models"
)

const (
	// DefaultRSIPeriod is the lookback for the relative strength index.
	DefaultRSIPeriod = 14

	// DefaultSupertrendPeriod and DefaultSupertrendMultiplier parameterize
	// the ATR band construction.
	DefaultSupertrendPeriod     = 7
	DefaultSupertrendMultiplier = 3.0

	// minCorrelationPoints is the aligned-observation count a correlation
	// must strictly exceed to be considered meaningful.
	minCorrelationPoints = 10
)

// Round2 rounds to two decimal places, the precision every reported
// indicator value carries.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0.0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// RSI computes the relative strength index over the final period deltas of
// the close series, using a rolling mean of gains and losses. Returns 0.0
// when there are not enough observations to fill one full window. A window
// with no losses reads as maximal strength, 100.0.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) <= period {
		return 0.0
	}

	var gains, losses float64
	for i := len(closes) - period; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100.0
	}

	rs := avgGain / avgLoss
	return Round2(100 - 100/(1+rs))
}

// VWAP returns the cumulative volume-weighted average of the close series,
// i.e. the final value of cumsum(close*volume)/cumsum(volume). Returns 0.0
// on empty input, mismatched lengths, or zero cumulative volume.
func VWAP(closes []float64, volumes []int64) float64 {
	if len(closes) == 0 || len(closes) != len(volumes) {
		return 0.0
	}

	var pv, v float64
	for i := range closes {
		pv += closes[i] * float64(volumes[i])
		v += float64(volumes[i])
	}
	if v == 0 {
		return 0.0
	}
	return Round2(pv / v)
}

// Supertrend runs the ATR band recurrence over the bar series and reports the
// trend state of the final bar. The final-band update is path dependent: each
// step reads the previous step's bands and trend, so the scan is intentionally
// sequential and cannot be split per bar. Returns Neutral when there are
// fewer than period bars.
func Supertrend(bars models.PriceSeries, period int, multiplier float64) models.Trend {
	if period <= 0 || len(bars) < period {
		return models.TrendNeutral
	}

	n := len(bars)
	alpha := 1.0 / float64(period)

	// True range and its exponentially smoothed average. The first bar has
	// no prior close, so its true range is just the high-low span.
	atr := make([]float64, n)
	upper := make([]float64, n)
	lower := make([]float64, n)
	for i := 0; i < n; i++ {
		tr := bars[i].High - bars[i].Low
		if i > 0 {
			prevClose := bars[i-1].Close
			tr = math.Max(tr, math.Max(
				math.Abs(bars[i].High-prevClose),
				math.Abs(bars[i].Low-prevClose),
			))
			atr[i] = alpha*tr + (1-alpha)*atr[i-1]
		} else {
			atr[i] = tr
		}

		hl2 := (bars[i].High + bars[i].Low) / 2
		upper[i] = hl2 + multiplier*atr[i]
		lower[i] = hl2 - multiplier*atr[i]
	}

	finalUpper := upper[0]
	finalLower := lower[0]
	uptrend := true

	for i := 1; i < n; i++ {
		prevClose := bars[i-1].Close
		currClose := bars[i].Close

		// The upper band only ratchets down or carries forward unless the
		// prior close already breached it; symmetric for the lower band.
		if upper[i] < finalUpper || prevClose > finalUpper {
			finalUpper = upper[i]
		}
		if lower[i] > finalLower || prevClose < finalLower {
			finalLower = lower[i]
		}

		if uptrend {
			uptrend = currClose >= finalLower
		} else {
			uptrend = currClose > finalUpper
		}
	}

	if uptrend {
		return models.TrendBullish
	}
	return models.TrendBearish
}

// PivotLevels computes the classic pivot-point support and resistance from a
// prior session's high, low and close: P=(H+L+C)/3, S1=2P-H, R1=2P-L.
func PivotLevels(high, low, close float64) (support, resistance float64) {
	pivot := (high + low + close) / 3
	return Round2(2*pivot - high), Round2(2*pivot - low)
}

// RangeLevels returns the min low and max high of a series as fallback
// support/resistance when no completed prior session is available.
func RangeLevels(bars models.PriceSeries) (support, resistance float64) {
	if len(bars) == 0 {
		return 0.0, 0.0
	}
	low, high := bars[0].Low, bars[0].High
	for _, b := range bars[1:] {
		if b.Low < low {
			low = b.Low
		}
		if b.High > high {
			high = b.High
		}
	}
	return Round2(low), Round2(high)
}

// Correlation computes the Pearson correlation between a symbol's closes and
// the benchmark's, after forward-filling the benchmark onto the symbol's
// date-normalized index. Symbol observations preceding the first benchmark
// date are dropped, matching a forward fill with no seed value. Returns 0.0
// when fewer than ten aligned pairs exist or either side has zero variance.
func Correlation(symbol, benchmark []models.ClosePoint) float64 {
	if len(symbol) == 0 || len(benchmark) == 0 {
		return 0.0
	}

	bench := make([]models.ClosePoint, len(benchmark))
	copy(bench, benchmark)
	sort.Slice(bench, func(i, j int) bool { return bench[i].Date.Before(bench[j].Date) })

	var xs, ys []float64
	j := 0
	var last float64
	seeded := false
	for _, p := range symbol {
		for j < len(bench) && !bench[j].Date.After(p.Date) {
			last = bench[j].Close
			seeded = true
			j++
		}
		if !seeded {
			continue
		}
		xs = append(xs, p.Close)
		ys = append(ys, last)
	}

	if len(xs) <= minCorrelationPoints {
		return 0.0
	}
	return Round2(pearson(xs, ys))
}

// pearson returns the sample correlation coefficient, or 0 when either
// series is degenerate.
func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0.0
	}
	return cov / math.Sqrt(varX*varY)
}
