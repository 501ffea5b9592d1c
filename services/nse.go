package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"nse-pulse/indicators"
	"nse-pulse/models"
	"nse-pulse/observability"
)

// NSEService fetches live quote snapshots from the NSE public API.
// It never retries internally; the per-symbol worker owns the retry budget.
type NSEService struct {
	baseURL    string
	httpClient *http.Client
}

// NewNSEService creates a new NSEService. An empty baseURL selects the
// production endpoint.
func NewNSEService(baseURL string) *NSEService {
	if baseURL == "" {
		baseURL = "https://www.nseindia.com"
	}
	return &NSEService{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// nseQuoteResponse is the equity quote shape. Numeric fields arrive as a mix
// of JSON numbers and formatted strings, so they decode as any and go
// through SafeFloat.
type nseQuoteResponse struct {
	Info struct {
		CompanyName string `json:"companyName"`
	} `json:"info"`
	PriceInfo *struct {
		LastPrice         any `json:"lastPrice"`
		Open              any `json:"open"`
		TotalTradedVolume any `json:"totalTradedVolume"`
		Change            any `json:"change"`
		PChange           any `json:"pChange"`
	} `json:"priceInfo"`
	Metadata *struct {
		DeliveryQuantity any `json:"deliveryQuantity"`
		TradedQuantity   any `json:"tradedQuantity"`
	} `json:"metadata"`
	SecurityWiseDP *struct {
		DeliveryQuantity any `json:"deliveryQuantity"`
		QuantityTraded   any `json:"quantityTraded"`
	} `json:"securityWiseDP"`
}

// nseDerivativeResponse is the fallback shape for symbols the equity
// endpoint does not recognize; only the underlying price is usable.
type nseDerivativeResponse struct {
	UnderlyingValue any `json:"underlyingValue"`
}

// GetQuote fetches a live quote snapshot for the given exchange symbol.
// It tries the equity quote shape first and falls back to the derivatives
// shape, which yields only a price. All numeric sub-fields degrade to zero
// individually; the call fails only on network or payload errors.
func (s *NSEService) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	metrics := observability.GetMetrics()
	metrics.RecordUpstreamRequest("nse", "quote")
	timer := metrics.NewTimer()

	quote, err := WithCircuitBreaker(ctx, BreakerNSE, func() (*models.Quote, error) {
		var resp nseQuoteResponse
		if err := s.getJSON(ctx, "/api/quote-equity", symbol, &resp); err != nil {
			return nil, err
		}

		if resp.PriceInfo == nil {
			return s.derivativeQuote(ctx, symbol)
		}

		p := resp.PriceInfo
		quote := &models.Quote{
			Symbol:        symbol,
			CompanyName:   resp.Info.CompanyName,
			LastPrice:     SafeFloat(p.LastPrice),
			OpenPrice:     SafeFloat(p.Open),
			Volume:        SafeInt64(p.TotalTradedVolume),
			Change:        SafeFloat(p.Change),
			PercentChange: indicators.Round2(SafeFloat(p.PChange)),
		}
		quote.DeliveryPercent = deliveryPercent(&resp)
		return quote, nil
	})

	timer.ObserveUpstream("nse", "quote")
	if err != nil {
		metrics.RecordUpstreamError("nse", "quote")
		return nil, err
	}
	return quote, nil
}

// derivativeQuote handles symbols only quoted on the derivatives segment.
func (s *NSEService) derivativeQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	var resp nseDerivativeResponse
	if err := s.getJSON(ctx, "/api/quote-derivative", symbol, &resp); err != nil {
		return nil, err
	}
	return &models.Quote{
		Symbol:    symbol,
		LastPrice: SafeFloat(resp.UnderlyingValue),
	}, nil
}

// deliveryPercent computes delivered/traded quantity from the primary
// metadata pair, falling back to the security-wise delivery pair. The first
// pair with a non-zero traded-quantity denominator wins.
func deliveryPercent(resp *nseQuoteResponse) float64 {
	if resp.Metadata != nil {
		if traded := SafeFloat(resp.Metadata.TradedQuantity); traded > 0 {
			delivered := SafeFloat(resp.Metadata.DeliveryQuantity)
			return indicators.Round2(delivered / traded * 100)
		}
	}
	if resp.SecurityWiseDP != nil {
		if traded := SafeFloat(resp.SecurityWiseDP.QuantityTraded); traded > 0 {
			delivered := SafeFloat(resp.SecurityWiseDP.DeliveryQuantity)
			return indicators.Round2(delivered / traded * 100)
		}
	}
	return 0.0
}

// nseIndexResponse is the index constituents shape.
type nseIndexResponse struct {
	Data []struct {
		Symbol   string `json:"symbol"`
		Priority int    `json:"priority"`
	} `json:"data"`
}

// GetIndexConstituents fetches the current constituent symbols of an index
// (e.g. "NIFTY 50"). Index header rows carry a non-zero priority and are
// skipped.
func (s *NSEService) GetIndexConstituents(ctx context.Context, index string) ([]string, error) {
	metrics := observability.GetMetrics()
	metrics.RecordUpstreamRequest("nse", "index")
	timer := metrics.NewTimer()

	symbols, err := WithCircuitBreaker(ctx, BreakerNSE, func() ([]string, error) {
		endpoint := s.baseURL + "/api/equity-stockIndices?index=" + url.QueryEscape(index)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build index request: %w", err)
		}
		setNSEHeaders(req)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch index constituents: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("index request returned status %d", resp.StatusCode)
		}

		var payload nseIndexResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("failed to decode index payload: %w", err)
		}

		symbols := make([]string, 0, len(payload.Data))
		for _, row := range payload.Data {
			if row.Priority == 0 && row.Symbol != "" {
				symbols = append(symbols, row.Symbol)
			}
		}
		return symbols, nil
	})

	timer.ObserveUpstream("nse", "index")
	if err != nil {
		metrics.RecordUpstreamError("nse", "index")
		return nil, err
	}
	return symbols, nil
}

// getJSON performs a GET against an NSE API path and decodes the body.
func (s *NSEService) getJSON(ctx context.Context, path, symbol string, out any) error {
	endpoint := s.baseURL + path + "?symbol=" + url.QueryEscape(symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build quote request: %w", err)
	}
	setNSEHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("quote request for %s returned status %d", symbol, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode quote for %s: %w", symbol, err)
	}
	return nil
}

// setNSEHeaders sets the browser-like headers the NSE API requires.
func setNSEHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", "https://www.nseindia.com/")
}
