package pipeline

import (
	"context"
	"sort"
	"testing"
	"time"

	"nse-pulse/config"
)

func newTestScheduler(quotes *mockQuoteService, history *mockHistoryService) *Scheduler {
	cfg := config.NewTestConfig()
	worker := NewWorker(quotes, history, cfg, time.UTC)
	return NewScheduler(worker, history, nil, cfg)
}

func TestScheduler_PartialBasketFailure(t *testing.T) {
	quotes := newMockQuoteService()
	quotes.failFor["HDFCBANK"] = true
	quotes.failFor["AXISBANK"] = true

	s := newTestScheduler(quotes, &mockHistoryService{})
	symbols := []string{"RELIANCE", "HDFCBANK", "INFY", "AXISBANK", "TCS"}

	result, err := s.Run(context.Background(), symbols, "2025-01-06 10:00:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Records) != 3 {
		t.Errorf("expected 3 records, got %d", len(result.Records))
	}
	if result.SuccessCount != 3 || result.TotalCount != 5 {
		t.Errorf("counts = %d/%d, want 3/5", result.SuccessCount, result.TotalCount)
	}
	if got := result.SuccessRatio(); got != 0.6 {
		t.Errorf("success ratio = %v, want 0.6", got)
	}

	for _, rec := range result.Records {
		if rec.Ticker == "HDFCBANK" || rec.Ticker == "AXISBANK" {
			t.Errorf("failed symbol %s must not appear in output", rec.Ticker)
		}
	}
}

func TestScheduler_TotalFailureYieldsEmptyResult(t *testing.T) {
	quotes := newMockQuoteService()
	symbols := []string{"A", "B", "C"}
	for _, sym := range symbols {
		quotes.failFor[sym] = true
	}

	s := newTestScheduler(quotes, &mockHistoryService{})
	records, _, err := s.FetchAll(context.Background(), symbols, "2025-01-06 10:00:00")
	if err != nil {
		t.Fatalf("total failure must not surface as an error, got: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty result set, got %d records", len(records))
	}
}

func TestScheduler_BearishFlagPropagates(t *testing.T) {
	quotes := newMockQuoteService()
	history := &mockHistoryService{benchFlag: true}

	s := newTestScheduler(quotes, history)
	_, isBearish, err := s.FetchAll(context.Background(), []string{"INFY"}, "2025-01-06 10:00:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isBearish {
		t.Error("expected bearish flag to propagate from the benchmark")
	}
}

func TestScheduler_BenchmarkFailureDegradesFlag(t *testing.T) {
	quotes := newMockQuoteService()
	history := &mockHistoryService{benchErr: context.DeadlineExceeded}

	s := newTestScheduler(quotes, history)
	records, isBearish, err := s.FetchAll(context.Background(), []string{"INFY"}, "2025-01-06 10:00:00")
	if err != nil {
		t.Fatalf("benchmark failure must not fail the run: %v", err)
	}
	if isBearish {
		t.Error("expected not-bearish when the benchmark is unavailable")
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record, got %d", len(records))
	}
}

func TestScheduler_BoundedConcurrency(t *testing.T) {
	quotes := newMockQuoteService()
	quotes.delay = 20 * time.Millisecond

	cfg := config.NewTestConfig()
	cfg.Pipeline.ConcurrencyLimit = 2
	history := &mockHistoryService{}
	worker := NewWorker(quotes, history, cfg, time.UTC)
	s := NewScheduler(worker, history, nil, cfg)

	symbols := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	if _, _, err := s.FetchAll(context.Background(), symbols, "2025-01-06 10:00:00"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	quotes.mu.Lock()
	max := quotes.maxConcurrent
	quotes.mu.Unlock()
	if max > 2 {
		t.Errorf("observed %d concurrent quote calls, pool width is 2", max)
	}
}

func TestScheduler_RepeatRunsAreDeterministic(t *testing.T) {
	quotes := newMockQuoteService()
	day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	history := &mockHistoryService{
		fine: intraBars(day.Add(9*time.Hour), []float64{100, 101, 102, 103, 104, 105, 106, 107}, 10),
	}

	s := newTestScheduler(quotes, history)
	symbols := []string{"RELIANCE", "INFY", "TCS"}

	first, _, err := s.FetchAll(context.Background(), symbols, "2025-01-06 10:00:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _, err := s.FetchAll(context.Background(), symbols, "2025-01-06 11:00:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("record counts differ: %d vs %d", len(first), len(second))
	}

	// Completion order is not contractual; sort before comparing.
	sort.Slice(first, func(i, j int) bool { return first[i].Ticker < first[j].Ticker })
	sort.Slice(second, func(i, j int) bool { return second[i].Ticker < second[j].Ticker })

	for i := range first {
		a, b := first[i], second[i]
		a.Timestamp, b.Timestamp = "", ""
		if a != b {
			t.Errorf("records for %s differ between runs:\n%+v\n%+v", first[i].Ticker, a, b)
		}
	}
}

func TestScheduler_BasketFallsBackToDefault(t *testing.T) {
	s := newTestScheduler(newMockQuoteService(), &mockHistoryService{})

	basket := s.Basket(context.Background())
	if len(basket) != 50 {
		t.Errorf("expected the 50-symbol fallback basket, got %d symbols", len(basket))
	}
}

func TestScheduler_BasketOverride(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.Pipeline.Tickers = []string{"INFY", "TCS"}
	history := &mockHistoryService{}
	worker := NewWorker(newMockQuoteService(), history, cfg, time.UTC)
	s := NewScheduler(worker, history, nil, cfg)

	basket := s.Basket(context.Background())
	if len(basket) != 2 || basket[0] != "INFY" {
		t.Errorf("expected the configured override basket, got %v", basket)
	}
}
