package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	// Upstream source configuration
	NSE   NSEConfig
	Yahoo YahooConfig

	// Pipeline configuration
	Pipeline PipelineConfig

	// HTTP configuration
	HTTP HTTPConfig
}

// NSEConfig holds NSE API configuration
type NSEConfig struct {
	BaseURL string
	Index   string // index whose constituents form the default basket
}

// YahooConfig holds Yahoo Finance chart API configuration
type YahooConfig struct {
	BaseURL string
}

// PipelineConfig holds fan-out and retry configuration
type PipelineConfig struct {
	Tickers            []string // basket override; empty means fetch from the index
	MaxRetries         int      // live quote attempts per symbol
	RetryPauseSeconds  int      // fixed pause between attempts
	ConcurrencyLimit   int      // bounded worker pool width
	SymbolTimeoutSec   int      // per-symbol deadline
	RunTimeoutSec      int      // overall run deadline
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port               string
	CORSAllowedOrigins string
}

// defaultTickers is the fallback basket when neither the TICKERS env var nor
// the live index constituents are available.
var defaultTickers = []string{
	"ADANIENT", "ADANIPORTS", "APOLLOHOSP", "ASIANPAINT", "AXISBANK",
	"BAJAJ-AUTO", "BAJFINANCE", "BAJAJFINSV", "BHARTIARTL", "BPCL",
	"BRITANNIA", "CIPLA", "COALINDIA", "DIVISLAB", "DRREDDY",
	"EICHERMOT", "GRASIM", "HCLTECH", "HDFCBANK", "HDFCLIFE",
	"HEROMOTOCO", "HINDALCO", "HINDUNILVR", "ICICIBANK", "INDUSINDBK",
	"INFY", "ITC", "JSWSTEEL", "KOTAKBANK", "LT",
	"LTIM", "M&M", "MARUTI", "NESTLEIND", "NTPC",
	"ONGC", "POWERGRID", "RELIANCE", "SBILIFE", "SBIN",
	"SHRIRAMFIN", "SUNPHARMA", "TATACONSUM", "TATAMOTORS", "TATASTEEL",
	"TCS", "TECHM", "TITAN", "ULTRACEMCO", "WIPRO",
}

// DefaultTickers returns a copy of the fallback basket.
func DefaultTickers() []string {
	out := make([]string, len(defaultTickers))
	copy(out, defaultTickers)
	return out
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		NSE: NSEConfig{
			BaseURL: getEnvString("NSE_BASE_URL", ""),
			Index:   getEnvString("NSE_INDEX", "NIFTY 50"),
		},
		Yahoo: YahooConfig{
			BaseURL: getEnvString("YAHOO_BASE_URL", ""),
		},
		Pipeline: PipelineConfig{
			Tickers:           getEnvList("TICKERS"),
			MaxRetries:        getEnvInt("FETCH_MAX_RETRIES", 3),
			RetryPauseSeconds: getEnvInt("FETCH_RETRY_PAUSE_SECONDS", 1),
			ConcurrencyLimit:  getEnvInt("FETCH_CONCURRENCY_LIMIT", 10),
			SymbolTimeoutSec:  getEnvInt("FETCH_SYMBOL_TIMEOUT_SECONDS", 60),
			RunTimeoutSec:     getEnvInt("FETCH_RUN_TIMEOUT_SECONDS", 600),
		},
		HTTP: HTTPConfig{
			Port:               getEnvString("HTTP_PORT", "8080"),
			CORSAllowedOrigins: getEnvString("CORS_ALLOWED_ORIGINS", "*"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Pipeline.MaxRetries <= 0 {
		return fmt.Errorf("FETCH_MAX_RETRIES must be positive, got %d", c.Pipeline.MaxRetries)
	}
	if c.Pipeline.ConcurrencyLimit <= 0 {
		return fmt.Errorf("FETCH_CONCURRENCY_LIMIT must be positive, got %d", c.Pipeline.ConcurrencyLimit)
	}
	if c.Pipeline.SymbolTimeoutSec <= 0 {
		return fmt.Errorf("FETCH_SYMBOL_TIMEOUT_SECONDS must be positive, got %d", c.Pipeline.SymbolTimeoutSec)
	}
	if c.Pipeline.RunTimeoutSec <= 0 {
		return fmt.Errorf("FETCH_RUN_TIMEOUT_SECONDS must be positive, got %d", c.Pipeline.RunTimeoutSec)
	}
	if c.NSE.Index == "" {
		return fmt.Errorf("NSE_INDEX must not be empty")
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		NSE: NSEConfig{
			BaseURL: "",
			Index:   "NIFTY 50",
		},
		Yahoo: YahooConfig{
			BaseURL: "",
		},
		Pipeline: PipelineConfig{
			MaxRetries:        3,
			RetryPauseSeconds: 0,
			ConcurrencyLimit:  10,
			SymbolTimeoutSec:  60,
			RunTimeoutSec:     600,
		},
		HTTP: HTTPConfig{
			Port:               "8080",
			CORSAllowedOrigins: "*",
		},
	}
}
