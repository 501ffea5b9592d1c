// Package pipeline orchestrates the per-symbol market-data aggregation: a
// bounded fan-out of workers that pull live quotes and history from the two
// upstream sources, compute the indicator set, and assemble one record per
// symbol with partial-failure tolerance.
package pipeline

import (
	"context"
	"time"

	"nse-pulse/config"
	"nse-pulse/indicators"
	"nse-pulse/models"
	"nse-pulse/observability"
	"nse-pulse/services"
)

// Worker assembles the output record for a single symbol. Only exhausting
// the live-quote retry budget drops a symbol; every later step degrades the
// affected fields and keeps the record.
type Worker struct {
	quotes  services.QuoteServiceInterface
	history services.HistoryServiceInterface
	retry   services.RetryConfig
	loc     *time.Location
	now     func() time.Time
}

// NewWorker creates a Worker. loc is the exchange timezone used to decide
// what "today" means during volume reconciliation.
func NewWorker(quotes services.QuoteServiceInterface, history services.HistoryServiceInterface, cfg *config.Config, loc *time.Location) *Worker {
	return &Worker{
		quotes:  quotes,
		history: history,
		retry: services.RetryConfig{
			MaxAttempts: cfg.Pipeline.MaxRetries,
			Pause:       time.Duration(cfg.Pipeline.RetryPauseSeconds) * time.Second,
		},
		loc: loc,
		now: time.Now,
	}
}

// Process fetches, reconciles and computes everything for one symbol,
// returning nil when the live quote could not be obtained within the retry
// budget. benchCoarse is the shared benchmark series, fetched once per run.
func (w *Worker) Process(ctx context.Context, symbol, timestamp string, benchCoarse []models.ClosePoint) *models.StockRecord {
	log := observability.WithSymbol(symbol)
	metrics := observability.GetMetrics()
	metrics.RecordSymbolFetch(symbol)
	timer := metrics.NewTimer()

	// Live quote, under the retry budget. This is the only hard failure.
	var quote *models.Quote
	err := services.WithRetry(ctx, w.retry, func() error {
		q, err := w.quotes.GetQuote(ctx, symbol)
		if err != nil {
			return err
		}
		quote = q
		return nil
	})
	if err != nil {
		log.Error("dropping symbol, live quote failed", "error", err)
		metrics.RecordSymbolError(symbol, "quote_failed")
		timer.ObserveSymbol(symbol, "error")
		return nil
	}

	// History windows are independent; a failed or empty window just means
	// the indicators that need it degrade to their defaults.
	fine := w.fetchWindow(ctx, symbol, services.WindowFine)
	coarse := w.fetchWindow(ctx, symbol, services.WindowCoarse)
	daily := w.fetchWindow(ctx, symbol, services.WindowDaily)

	// The quote source sometimes reports zero traded volume intraday;
	// rebuild it from today's fine bars when that happens.
	if quote.Volume == 0 && !fine.Empty() {
		quote.Volume = fine.VolumeOn(w.now().In(w.loc))
	}

	rsi, vwap := 0.0, 0.0
	supertrend := models.TrendNeutral
	intradayTrend := models.TrendNeutral
	if !fine.Empty() {
		closes := fine.Closes()
		rsi = indicators.RSI(closes, indicators.DefaultRSIPeriod)
		vwap = indicators.VWAP(closes, fine.Volumes())
		supertrend = indicators.Supertrend(fine, indicators.DefaultSupertrendPeriod, indicators.DefaultSupertrendMultiplier)

		// Price sitting exactly on VWAP reads Bearish.
		if quote.LastPrice > vwap {
			intradayTrend = models.TrendBullish
		} else {
			intradayTrend = models.TrendBearish
		}
	}

	// Support/resistance from the prior completed session's pivot points,
	// falling back to the coarse range when no prior session exists.
	support, resistance := 0.0, 0.0
	if len(daily) >= 2 {
		prev := daily[len(daily)-2]
		support, resistance = indicators.PivotLevels(prev.High, prev.Low, prev.Close)
	} else if !coarse.Empty() {
		support, resistance = indicators.RangeLevels(coarse)
	}

	correlation := 0.0
	if !coarse.Empty() && len(benchCoarse) > 0 {
		correlation = indicators.Correlation(coarse.ClosePoints(), benchCoarse)
	}

	record := &models.StockRecord{
		Timestamp:        timestamp,
		Ticker:           symbol,
		CompanyName:      quote.CompanyName,
		OpenPrice:        quote.OpenPrice,
		CurrentPrice:     quote.LastPrice,
		PriceChange:      quote.Change,
		PercentChange:    quote.PercentChange,
		Volume:           quote.Volume,
		DeliveryPercent:  quote.DeliveryPercent,
		RSI:              rsi,
		VWAP:             vwap,
		Supertrend:       supertrend,
		Support:          support,
		Resistance:       resistance,
		IntradayTrend:    intradayTrend,
		NiftyCorrelation: correlation,
		Link:             GrowwLink(symbol, quote.CompanyName),
	}

	log.Info("fetched symbol",
		"price", record.CurrentPrice,
		"supertrend", record.Supertrend,
		"volume", record.Volume)
	timer.ObserveSymbol(symbol, "success")

	return record
}

// fetchWindow pulls one history window, degrading to an empty series on
// failure.
func (w *Worker) fetchWindow(ctx context.Context, symbol string, window services.Window) models.PriceSeries {
	series, err := w.history.GetHistory(ctx, symbol, window)
	if err != nil {
		observability.WithSymbol(symbol).Warn("history window unavailable",
			"window", window,
			"error", err)
		return nil
	}
	return series
}
