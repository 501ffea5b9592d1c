package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"nse-pulse/models"
	"nse-pulse/services"
)

// mockQuoteService is a configurable live-quote source for tests.
type mockQuoteService struct {
	mu         sync.Mutex
	calls      map[string]int
	failFor    map[string]bool // symbols that always fail
	failFirstN map[string]int  // symbols that fail the first N attempts
	delay      time.Duration

	concurrent    int
	maxConcurrent int
}

func newMockQuoteService() *mockQuoteService {
	return &mockQuoteService{
		calls:      make(map[string]int),
		failFor:    make(map[string]bool),
		failFirstN: make(map[string]int),
	}
}

func (m *mockQuoteService) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	m.mu.Lock()
	m.calls[symbol]++
	attempt := m.calls[symbol]
	m.concurrent++
	if m.concurrent > m.maxConcurrent {
		m.maxConcurrent = m.concurrent
	}
	m.mu.Unlock()

	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	m.concurrent--
	m.mu.Unlock()

	if m.failFor[symbol] {
		return nil, errors.New("upstream unavailable")
	}
	if attempt <= m.failFirstN[symbol] {
		return nil, errors.New("transient upstream error")
	}

	return &models.Quote{
		Symbol:        symbol,
		CompanyName:   symbol + " Limited",
		LastPrice:     100.0,
		OpenPrice:     99.0,
		Volume:        1000,
		Change:        1.0,
		PercentChange: 1.01,
	}, nil
}

func (m *mockQuoteService) callCount(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

// mockHistoryService serves canned series per window plus a benchmark.
type mockHistoryService struct {
	fine        models.PriceSeries
	coarse      models.PriceSeries
	daily       models.PriceSeries
	historyErr  error
	benchFine   models.PriceSeries
	benchFlag   bool
	benchErr    error
	benchCoarse []models.ClosePoint
}

func (m *mockHistoryService) GetHistory(ctx context.Context, symbol string, window services.Window) (models.PriceSeries, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	switch window {
	case services.WindowFine:
		return m.fine, nil
	case services.WindowCoarse:
		return m.coarse, nil
	default:
		return m.daily, nil
	}
}

func (m *mockHistoryService) GetBenchmark(ctx context.Context) (models.PriceSeries, bool, error) {
	if m.benchErr != nil {
		return nil, false, m.benchErr
	}
	return m.benchFine, m.benchFlag, nil
}

func (m *mockHistoryService) GetBenchmarkCoarse(ctx context.Context) ([]models.ClosePoint, error) {
	if m.benchErr != nil {
		return nil, m.benchErr
	}
	return m.benchCoarse, nil
}

// intraBars builds a fine series of closes with fixed spreads, starting at
// the given time with 5-minute spacing.
func intraBars(start time.Time, closes []float64, volume int64) models.PriceSeries {
	bars := make(models.PriceSeries, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			Time:   start.Add(time.Duration(i) * 5 * time.Minute),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: volume,
		}
	}
	return bars
}
