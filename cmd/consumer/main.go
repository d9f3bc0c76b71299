package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"github.com/densign01/baby-tracker/internal/aggregate"
	"github.com/densign01/baby-tracker/internal/config"
	"github.com/densign01/baby-tracker/internal/consumer"
	"github.com/densign01/baby-tracker/internal/observability"
	"github.com/densign01/baby-tracker/internal/persistence/postgres"
)

func main() {
	cfg, err := config.Load()
	logger := observability.NewLogger("babylog-consumer", cfg.LogLevel)
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

	repo := postgres.NewRepository(pool)
	// one board for every topic reader keeps version checks process wide
	board := aggregate.NewBoard()
	handler := consumer.Handlers{
		consumer.NewEventLogHandler(pool),
		consumer.NewSummaryHandler(repo, repo, repo, board, logger),
	}

	metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: promhttp.Handler()}

	go func() {
		logger.Info().Str("address", cfg.MetricsAddress).Msg("consumer metrics listening")
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()

	var wg sync.WaitGroup
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	for _, topic := range cfg.ConsumerTopics {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:         cfg.KafkaBrokers,
			GroupID:         cfg.ConsumerGroupID,
			Topic:           topic,
			MinBytes:        1e3,
			MaxBytes:        10e6,
			CommitInterval:  time.Second,
			RetentionTime:   24 * time.Hour,
			ReadLagInterval: -1,
		})

		topicLogger := logger.With().Str("topic", topic).Logger()
		proc := consumer.NewProcessor(reader, handler, consumer.WithLogger(topicLogger))

		wg.Add(1)
		go func(r *kafka.Reader) {
			defer wg.Done()
			defer r.Close()

			topicLogger.Info().Str("group", cfg.ConsumerGroupID).Msg("consumer started")
			if err := proc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				topicLogger.Error().Err(err).Msg("consumer stopped with error")
			}
		}(reader)
	}

	<-stop
	logger.Info().Msg("consumer shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("metrics server shutdown error")
	}

	wg.Wait()
}
