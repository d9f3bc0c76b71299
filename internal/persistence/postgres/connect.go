package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Connect opens a pool and waits until the database answers a ping, retrying with exponential
// backoff for at most maxWait.
func Connect(ctx context.Context, url string, maxWait time.Duration, logger zerolog.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("postgres.Connect: %w", err)
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 250 * time.Millisecond
	exp.MaxInterval = 5 * time.Second
	exp.MaxElapsedTime = maxWait

	ping := func() error { return pool.Ping(ctx) }
	notify := func(err error, wait time.Duration) {
		logger.Warn().Err(err).Dur("retry_in", wait).Msg("postgres not ready")
	}
	if err := backoff.RetryNotify(ping, backoff.WithContext(exp, ctx), notify); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.Connect: %w", err)
	}
	return pool, nil
}
