package pipeline

import (
	"context"
	"sync"
	"time"

	"nse-pulse/config"
	"nse-pulse/models"
	"nse-pulse/observability"
	"nse-pulse/services"
)

// Scheduler fans the per-symbol worker out over the basket under a bounded
// concurrency budget and aggregates the surviving records.
type Scheduler struct {
	worker  *Worker
	history services.HistoryServiceInterface
	tickers services.TickerProviderInterface
	cfg     *config.Config
}

// NewScheduler creates a Scheduler. tickers may be nil when the basket is
// always supplied explicitly.
func NewScheduler(worker *Worker, history services.HistoryServiceInterface, tickers services.TickerProviderInterface, cfg *config.Config) *Scheduler {
	return &Scheduler{
		worker:  worker,
		history: history,
		tickers: tickers,
		cfg:     cfg,
	}
}

// Basket resolves the symbol basket: the configured override first, then
// the live index constituents, then the static fallback list.
func (s *Scheduler) Basket(ctx context.Context) []string {
	if len(s.cfg.Pipeline.Tickers) > 0 {
		return s.cfg.Pipeline.Tickers
	}
	if s.tickers != nil {
		symbols, err := s.tickers.GetIndexConstituents(ctx, s.cfg.NSE.Index)
		if err == nil && len(symbols) > 0 {
			return symbols
		}
		observability.Warn("live index constituents unavailable, using fallback basket",
			"index", s.cfg.NSE.Index,
			"error", err)
	}
	return config.DefaultTickers()
}

// FetchAll runs the full pipeline for the given basket: one shared benchmark
// fetch, then one worker per symbol under the bounded pool. The returned
// flag is the market-wide bearish signal. A run where every symbol fails
// yields an empty slice, not an error.
func (s *Scheduler) FetchAll(ctx context.Context, symbols []string, timestamp string) ([]models.StockRecord, bool, error) {
	start := time.Now()
	metrics := observability.GetMetrics()

	// The benchmark is fetched once, before fan-out, and shared read-only
	// by every worker. Its failure degrades the trend flag and the
	// correlation column, never the run.
	_, isBearish, err := s.history.GetBenchmark(ctx)
	if err != nil {
		observability.Warn("benchmark fetch failed", "error", err)
		isBearish = false
	}
	metrics.SetMarketBearish(isBearish)

	benchCoarse, err := s.history.GetBenchmarkCoarse(ctx)
	if err != nil {
		observability.Warn("benchmark coarse fetch failed", "error", err)
		benchCoarse = nil
	}

	records := s.fanOut(ctx, symbols, timestamp, benchCoarse)

	ratio := 0.0
	if len(symbols) > 0 {
		ratio = float64(len(records)) / float64(len(symbols))
	}
	metrics.RecordRun("success", time.Since(start), ratio)
	observability.Info("pipeline run completed",
		"success", len(records),
		"total", len(symbols),
		"is_bearish", isBearish,
		"duration_ms", time.Since(start).Milliseconds())

	return records, isBearish, nil
}

// fanOut dispatches one worker per symbol under a channel semaphore and
// collects completed records over a fan-in channel; no worker ever writes
// shared state directly.
func (s *Scheduler) fanOut(ctx context.Context, symbols []string, timestamp string, benchCoarse []models.ClosePoint) []models.StockRecord {
	results := make(chan models.StockRecord, len(symbols))
	sem := make(chan struct{}, s.cfg.Pipeline.ConcurrencyLimit)
	var wg sync.WaitGroup

	for _, symbol := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			symbolCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.Pipeline.SymbolTimeoutSec)*time.Second)
			defer cancel()

			if record := s.worker.Process(symbolCtx, sym, timestamp, benchCoarse); record != nil {
				results <- *record
			}
		}(symbol)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	records := make([]models.StockRecord, 0, len(symbols))
	for record := range results {
		records = append(records, record)
	}
	return records
}

// Run executes FetchAll and wraps the output in a RunResult.
func (s *Scheduler) Run(ctx context.Context, symbols []string, timestamp string) (*models.RunResult, error) {
	start := time.Now()
	result := models.NewRunResult(timestamp)

	records, isBearish, err := s.FetchAll(ctx, symbols, timestamp)
	if err != nil {
		return nil, err
	}

	result.Records = records
	result.IsBearish = isBearish
	result.SuccessCount = len(records)
	result.TotalCount = len(symbols)
	result.DurationMs = time.Since(start).Milliseconds()
	return result, nil
}

// FetchBenchmarkSeries exposes the benchmark intraday series and its
// bearish flag as a standalone entry point for chart rendering.
func (s *Scheduler) FetchBenchmarkSeries(ctx context.Context) (models.PriceSeries, bool, error) {
	return s.history.GetBenchmark(ctx)
}
