package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"nse-pulse/models"
	"nse-pulse/observability"
)

// Window selects one of the three canonical history granularities.
type Window string

const (
	// WindowFine is 5-minute bars over the recent sessions.
	WindowFine Window = "fine"
	// WindowCoarse is 15-minute bars over the last five sessions.
	WindowCoarse Window = "coarse"
	// WindowDaily is one bar per session over the last five sessions.
	WindowDaily Window = "daily"
)

// benchmarkSymbol is the market-wide index used for the trend flag and as
// the correlation reference.
const benchmarkSymbol = "^NSEI"

// windowParams maps a window to the chart API range and interval.
func windowParams(w Window) (rng, interval string) {
	switch w {
	case WindowCoarse:
		return "5d", "15m"
	case WindowDaily:
		return "5d", "1d"
	default:
		return "5d", "5m"
	}
}

// YahooService fetches OHLCV history from the Yahoo Finance chart API.
// Each call is independent; an empty series is a valid non-failure outcome.
type YahooService struct {
	baseURL    string
	httpClient *http.Client
	loc        *time.Location
}

// NewYahooService creates a new YahooService. An empty baseURL selects the
// production endpoint. Bar timestamps are converted to the exchange
// timezone (Asia/Kolkata) before they leave this service.
func NewYahooService(baseURL string) (*YahooService, error) {
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return nil, fmt.Errorf("failed to load exchange timezone: %w", err)
	}
	return &YahooService{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		loc:        loc,
	}, nil
}

// Location returns the exchange timezone all series are normalized to.
func (s *YahooService) Location() *time.Location { return s.loc }

// chartResponse is the Yahoo v8 chart payload. Missing observations arrive
// as JSON nulls, which decode to zero values and are dropped bar-wise.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetHistory fetches the OHLCV series for an NSE ticker at the given window.
func (s *YahooService) GetHistory(ctx context.Context, symbol string, window Window) (models.PriceSeries, error) {
	return s.fetchSeries(ctx, symbol+".NS", window, string(window))
}

// GetBenchmark fetches the benchmark index intraday series for the current
// session and derives the market-wide trend flag: bearish when the session
// opened above where it currently trades. An empty upstream result yields an
// empty series and a not-bearish flag.
func (s *YahooService) GetBenchmark(ctx context.Context) (models.PriceSeries, bool, error) {
	series, err := s.fetchChart(ctx, benchmarkSymbol, "1d", "5m", "benchmark")
	if err != nil {
		return nil, false, err
	}
	if series.Empty() {
		return series, false, nil
	}
	isBearish := series[0].Close > series[len(series)-1].Close
	return series, isBearish, nil
}

// GetBenchmarkCoarse fetches the benchmark multi-day series as
// date-normalized closes, the shape the correlation alignment consumes.
func (s *YahooService) GetBenchmarkCoarse(ctx context.Context) ([]models.ClosePoint, error) {
	series, err := s.fetchSeries(ctx, benchmarkSymbol, WindowCoarse, "benchmark_coarse")
	if err != nil {
		return nil, err
	}
	return series.ClosePoints(), nil
}

func (s *YahooService) fetchSeries(ctx context.Context, chartSymbol string, window Window, operation string) (models.PriceSeries, error) {
	rng, interval := windowParams(window)
	return s.fetchChart(ctx, chartSymbol, rng, interval, operation)
}

func (s *YahooService) fetchChart(ctx context.Context, chartSymbol, rng, interval, operation string) (models.PriceSeries, error) {
	metrics := observability.GetMetrics()
	metrics.RecordUpstreamRequest("yahoo", operation)
	timer := metrics.NewTimer()

	series, err := WithCircuitBreaker(ctx, BreakerYahoo, func() (models.PriceSeries, error) {
		params := url.Values{}
		params.Set("range", rng)
		params.Set("interval", interval)

		endpoint := s.baseURL + "/v8/finance/chart/" + url.PathEscape(chartSymbol) + "?" + params.Encode()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build chart request: %w", err)
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch chart for %s: %w", chartSymbol, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("chart request for %s returned status %d", chartSymbol, resp.StatusCode)
		}

		var payload chartResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("failed to decode chart for %s: %w", chartSymbol, err)
		}
		if payload.Chart.Error != nil {
			return nil, fmt.Errorf("chart API error for %s: %s", chartSymbol, payload.Chart.Error.Description)
		}
		if len(payload.Chart.Result) == 0 {
			return models.PriceSeries{}, nil
		}

		return s.toSeries(payload), nil
	})

	timer.ObserveUpstream("yahoo", operation)
	if err != nil {
		metrics.RecordUpstreamError("yahoo", operation)
		return nil, err
	}
	return series, nil
}

// toSeries converts a chart payload into a bar series in the exchange
// timezone. Bars whose close is missing (null upstream) are dropped.
func (s *YahooService) toSeries(payload chartResponse) models.PriceSeries {
	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return models.PriceSeries{}
	}
	quote := result.Indicators.Quote[0]

	series := make(models.PriceSeries, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == 0 {
			continue
		}
		bar := models.Bar{
			Time:  time.Unix(ts, 0).In(s.loc),
			Close: quote.Close[i],
		}
		if i < len(quote.Open) {
			bar.Open = quote.Open[i]
		}
		if i < len(quote.High) {
			bar.High = quote.High[i]
		}
		if i < len(quote.Low) {
			bar.Low = quote.Low[i]
		}
		if i < len(quote.Volume) {
			bar.Volume = quote.Volume[i]
		}
		series = append(series, bar)
	}
	return series
}
