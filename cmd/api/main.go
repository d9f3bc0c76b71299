package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/densign01/baby-tracker/internal/api"
	"github.com/densign01/baby-tracker/internal/auth"
	"github.com/densign01/baby-tracker/internal/config"
	"github.com/densign01/baby-tracker/internal/observability"
	"github.com/densign01/baby-tracker/internal/outbox"
	"github.com/densign01/baby-tracker/internal/persistence/postgres"
	"github.com/densign01/baby-tracker/internal/service"
	httptransport "github.com/densign01/baby-tracker/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	logger := observability.NewLogger("babylog-api", cfg.LogLevel)
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

	if cfg.AutoMigrate {
		applied, err := postgres.Migrate(ctx, pool)
		if err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Int("applied", applied).Msg("migrations applied")
	}

	repo := postgres.NewRepository(pool)
	producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
	defer producer.Close()

	registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
	dispatcher := outbox.NewDispatcher(pool, producer, registry, logger, cfg.OutboxPollInterval, cfg.OutboxBatchSize)

	go dispatcher.Start(ctx)

	svc := service.NewService(repo, repo,
		service.WithLogger(logger),
		service.WithSummaryStore(repo),
		service.WithDefaultTimeZone(cfg.DefaultTimeZone),
	)
	handler := api.NewHandler(svc, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:       logger,
		CORSOrigins:  cfg.CORSOrigins,
		Auth:         auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer},
		MaxBodyBytes: api.MaxImportBytes,
	}, handler.RegisterRoutes)

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, router)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info().Str("address", cfg.HTTPAddress).Msg("babylog api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	dispatcher.Wait()
}
