package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/densign01/baby-tracker/internal/config"
	"github.com/densign01/baby-tracker/internal/observability"
	"github.com/densign01/baby-tracker/internal/outbox"
	"github.com/densign01/baby-tracker/internal/persistence/postgres"
)

const defaultDLQBatchSize = 50

func main() {
	cfg, err := config.Load()
	logger := observability.NewLogger("babylog-dlqmanager", cfg.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.PostgresURL, 30*time.Second, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	manager := outbox.NewDLQManager(pool, logger, cfg.DLQMaxRetries, cfg.DLQBaseDelay, cfg.DLQMaxDelay)

	metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: promhttp.Handler()}
	go func() {
		logger.Info().Str("address", cfg.MetricsAddress).Msg("dlq manager metrics listening")
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		manager.Run(ctx, cfg.DLQPollInterval, defaultDLQBatchSize)
	}()
	logger.Info().
		Dur("interval", cfg.DLQPollInterval).
		Int("max_retries", cfg.DLQMaxRetries).
		Msg("dlq manager started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info().Msg("dlq manager received shutdown signal")
	cancel()
	<-done

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("metrics server shutdown error")
	}
}
