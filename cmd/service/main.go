package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-sdk/internal/config"
	httphandler "github.com/kjstillabower/weather-sdk/internal/http"
	"github.com/kjstillabower/weather-sdk/internal/observability"
	"github.com/kjstillabower/weather-sdk/weather"
)

func main() {
	logger, err := observability.NewLogger("service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	client, err := weather.Create(cfg.WeatherAPIKey, cfg.PollingEnabled,
		weather.WithBaseURL(cfg.WeatherAPIURL),
		weather.WithHTTPClient(&http.Client{Timeout: cfg.WeatherAPITimeout}),
		weather.WithPollInterval(cfg.PollInterval),
		weather.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal("weather client", zap.Error(err))
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	handler := httphandler.NewHandler(client, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httphandler.NewRouter(handler, logger, limiter),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.WeatherAPITimeout + 10*time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.Bool("polling", cfg.PollingEnabled))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	handler.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	weather.Delete(cfg.WeatherAPIKey)

	if err := observability.Flush(context.Background(), logger); err != nil {
		fmt.Fprintf(os.Stderr, "flush: %v\n", err)
	}
}
