//go:build integration

// Package testsupport starts the containers integration tests run against.
package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/densign01/baby-tracker/internal/persistence/postgres"
)

// StartPostgres launches a Postgres container, applies every migration and returns a pool.
// The container and pool are released when the test finishes.
func StartPostgres(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("babylog"),
		postgrescontainer.WithUsername("babylog"),
		postgrescontainer.WithPassword("babylog"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(pg) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := postgres.Connect(ctx, connStr, 30*time.Second, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	applied, err := postgres.Migrate(ctx, pool)
	require.NoError(t, err)
	require.NotZero(t, applied)
	return pool
}
