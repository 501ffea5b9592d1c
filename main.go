package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"nse-pulse/config"
	"nse-pulse/internal/api"
	"nse-pulse/models"
	"nse-pulse/observability"
	"nse-pulse/pipeline"
	"nse-pulse/services"
)

func main() {
	// Load .env file if present (ignore error if it doesn't exist)
	_ = godotenv.Load()

	production := os.Getenv("ENV") == "production"
	observability.InitLogger(production)
	observability.InitMetrics()

	cfg, err := config.Load()
	if err != nil {
		observability.Fatal("failed to load configuration", "error", err)
	}

	nse := services.NewNSEService(cfg.NSE.BaseURL)
	yahoo, err := services.NewYahooService(cfg.Yahoo.BaseURL)
	if err != nil {
		observability.Fatal("failed to initialize history source", "error", err)
	}

	worker := pipeline.NewWorker(nse, yahoo, cfg, yahoo.Location())
	scheduler := pipeline.NewScheduler(worker, yahoo, nse, cfg)

	cache := pipeline.NewRunCache(func(ctx context.Context) (*models.RunResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Pipeline.RunTimeoutSec)*time.Second)
		defer cancel()

		timestamp := time.Now().In(yahoo.Location()).Format("2006-01-02 15:04:05")
		return scheduler.Run(runCtx, scheduler.Basket(runCtx), timestamp)
	})

	handler := api.NewHandler(cache, scheduler, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Duration(cfg.Pipeline.RunTimeoutSec+30) * time.Second,
	}

	go func() {
		observability.Info("server starting", "port", cfg.HTTP.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			observability.Fatal("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Error("graceful shutdown failed", "error", err)
	}
}
