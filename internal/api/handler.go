package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"nse-pulse/config"
	"nse-pulse/models"
	"nse-pulse/observability"
	"nse-pulse/pipeline"
	"nse-pulse/services"
)

// Handler handles HTTP API requests. The stock table is always served
// through the run cache; only an explicit refresh recomputes it.
type Handler struct {
	cache     *pipeline.RunCache
	scheduler *pipeline.Scheduler
	cfg       *config.Config
}

// NewHandler creates a new Handler.
func NewHandler(cache *pipeline.RunCache, scheduler *pipeline.Scheduler, cfg *config.Config) *Handler {
	return &Handler{cache: cache, scheduler: scheduler, cfg: cfg}
}

// HandleHealth returns the health status of the service, including the
// upstream circuit breakers.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status": "ok",
	}

	cbStatus := services.GetGlobalRegistry().Status()
	status["circuit_breakers"] = cbStatus
	for _, cb := range cbStatus {
		if cb.State == "open" {
			status["status"] = "degraded"
			break
		}
	}

	if cached := h.cache.Peek(); cached != nil {
		status["cached_run"] = map[string]any{
			"id":            cached.ID,
			"timestamp":     cached.Timestamp,
			"success_count": cached.SuccessCount,
			"total_count":   cached.TotalCount,
		}
	}

	h.jsonResponse(w, status)
}

// HandleGetStocks returns the aggregated stock table, computing it on the
// first call after startup or invalidation.
func (h *Handler) HandleGetStocks(w http.ResponseWriter, r *http.Request) {
	result, err := h.cache.Get(r.Context())
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.jsonResponse(w, result)
}

// HandleRefresh invalidates the cached run and computes a fresh one.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	h.cache.Invalidate()
	observability.Info("result cache invalidated, recomputing")

	result, err := h.cache.Get(r.Context())
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.jsonResponse(w, result)
}

// benchmarkResponse is the benchmark chart payload.
type benchmarkResponse struct {
	IsBearish bool               `json:"is_bearish"`
	Series    []benchmarkPoint   `json:"series"`
}

type benchmarkPoint struct {
	Time  time.Time `json:"time"`
	Close float64   `json:"close"`
}

// HandleGetBenchmark returns the benchmark intraday series and trend flag.
func (h *Handler) HandleGetBenchmark(w http.ResponseWriter, r *http.Request) {
	series, isBearish, err := h.scheduler.FetchBenchmarkSeries(r.Context())
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}

	resp := benchmarkResponse{
		IsBearish: isBearish,
		Series:    make([]benchmarkPoint, 0, len(series)),
	}
	for _, bar := range series {
		resp.Series = append(resp.Series, benchmarkPoint{Time: bar.Time, Close: bar.Close})
	}
	h.jsonResponse(w, resp)
}

// RunOnce executes one pipeline run outside the request path, used by the
// CLI entry point for a warm-up fetch.
func (h *Handler) RunOnce(ctx context.Context) (*models.RunResult, error) {
	return h.cache.Get(ctx)
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		observability.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
