package services

import (
	"context"

	"nse-pulse/models"
)

// QuoteServiceInterface defines the live quote source contract.
type QuoteServiceInterface interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// HistoryServiceInterface defines the historical series and benchmark
// source contract.
type HistoryServiceInterface interface {
	GetHistory(ctx context.Context, symbol string, window Window) (models.PriceSeries, error)
	GetBenchmark(ctx context.Context) (models.PriceSeries, bool, error)
	GetBenchmarkCoarse(ctx context.Context) ([]models.ClosePoint, error)
}

// TickerProviderInterface supplies the symbol basket.
type TickerProviderInterface interface {
	GetIndexConstituents(ctx context.Context, index string) ([]string, error)
}

// Compile-time interface verification
var _ QuoteServiceInterface = (*NSEService)(nil)
var _ TickerProviderInterface = (*NSEService)(nil)
var _ HistoryServiceInterface = (*YahooService)(nil)
