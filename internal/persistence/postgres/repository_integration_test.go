//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/densign01/baby-tracker/internal/aggregate"
	"github.com/densign01/baby-tracker/internal/domain"
	"github.com/densign01/baby-tracker/internal/events"
	"github.com/densign01/baby-tracker/internal/persistence/postgres"
	"github.com/densign01/baby-tracker/internal/testsupport"
)

func TestRepositoryRecordLifecycle(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)
	repo := postgres.NewRepository(pool)

	subject := domain.Subject{
		ID:        uuid.NewString(),
		Name:      "Ada",
		TimeZone:  "America/New_York",
		OwnerID:   "parent-1",
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, repo.CreateSubject(ctx, subject))
	require.NoError(t, repo.AddCaregiver(ctx, subject.ID, "parent-2"))
	require.NoError(t, repo.AddCaregiver(ctx, subject.ID, "parent-2"))

	shared, err := repo.ListSubjects(ctx, "parent-2")
	require.NoError(t, err)
	require.Len(t, shared, 1)
	require.Equal(t, []string{"parent-2"}, shared[0].SharedWith)

	amount := 4.5
	feeding := domain.Record{
		ID:         uuid.NewString(),
		SubjectID:  subject.ID,
		Kind:       domain.KindFeeding,
		OccurredAt: time.Date(2024, 5, 20, 13, 0, 0, 0, time.UTC),
		RecordedBy: "parent-1",
		CreatedAt:  time.Now().UTC(),
		Feeding:    &domain.Feeding{Method: domain.FeedingBottle, AmountOz: &amount},
	}
	require.NoError(t, repo.Create(ctx, feeding, "key-1"))

	replay, err := repo.FindByIdempotency(ctx, subject.ID, "parent-1", "key-1")
	require.NoError(t, err)
	require.NotNil(t, replay)
	require.Equal(t, feeding.ID, replay.ID)
	require.Equal(t, 4.5, *replay.Feeding.AmountOz)

	dup := feeding
	dup.ID = uuid.NewString()
	require.ErrorIs(t, repo.Create(ctx, dup, "key-1"), domain.ErrIdempotentReplay)

	started := time.Date(2024, 5, 20, 2, 0, 0, 0, time.UTC)
	sleep := domain.Record{
		ID:         uuid.NewString(),
		SubjectID:  subject.ID,
		Kind:       domain.KindSleep,
		OccurredAt: started,
		RecordedBy: "parent-2",
		CreatedAt:  time.Now().UTC(),
		Sleep:      &domain.Sleep{StartedAt: &started},
	}
	require.NoError(t, repo.Create(ctx, sleep, ""))

	second := sleep
	second.ID = uuid.NewString()
	require.ErrorIs(t, repo.Create(ctx, second, ""), domain.ErrSleepInProgress)

	active, err := repo.FindActiveSleep(ctx, subject.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, sleep.ID, active.ID)

	ended := started.Add(90 * time.Minute)
	require.NoError(t, repo.CloseSleep(ctx, subject.ID, sleep.ID, ended, (90 * time.Minute).Milliseconds()))
	require.ErrorIs(t, repo.CloseSleep(ctx, subject.ID, sleep.ID, ended, 1), domain.ErrNoActiveSleep)

	closed, err := repo.Get(ctx, subject.ID, sleep.ID)
	require.NoError(t, err)
	require.True(t, closed.OccurredAt.Equal(ended))
	require.True(t, closed.Sleep.StartedAt.Equal(started))
	require.False(t, closed.IsActiveSleep())

	day, err := aggregate.ParseDay("2024-05-20", time.UTC)
	require.NoError(t, err)
	between, err := repo.ListBetween(ctx, subject.ID, aggregate.StartOfDay(day), aggregate.EndOfDay(day))
	require.NoError(t, err)
	require.Len(t, between, 2)
	require.Equal(t, sleep.ID, between[0].ID)

	page, next, err := repo.ListBySubject(ctx, subject.ID, nil, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, feeding.ID, page[0].ID)
	require.NotNil(t, next)

	page, _, err = repo.ListBySubject(ctx, subject.ID, next, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, sleep.ID, page[0].ID)

	require.NoError(t, repo.Delete(ctx, subject.ID, feeding.ID))
	require.ErrorIs(t, repo.Delete(ctx, subject.ID, feeding.ID), domain.ErrRecordNotFound)

	rows, err := pool.Query(ctx, `SELECT event_type FROM outbox WHERE subject_id=$1 ORDER BY event_id`, subject.ID)
	require.NoError(t, err)
	var types []string
	for rows.Next() {
		var eventType string
		require.NoError(t, rows.Scan(&eventType))
		types = append(types, eventType)
	}
	rows.Close()
	require.Equal(t, []string{
		events.TypeActivityLogged,
		events.TypeActivityLogged,
		events.TypeActivityClosed,
		events.TypeActivityDeleted,
	}, types)
}

func TestRepositoryDailySummaryVersionGuard(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)
	repo := postgres.NewRepository(pool)

	subject := domain.Subject{ID: uuid.NewString(), Name: "Ada", TimeZone: "Europe/Berlin", OwnerID: "p", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.CreateSubject(ctx, subject))

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	day, err := aggregate.ParseDay("2024-03-31", berlin)
	require.NoError(t, err)

	write := func(version int64, feedings int) bool {
		ok, err := repo.UpsertDailySummary(ctx, aggregate.Materialized{
			SubjectID:  subject.ID,
			TimeZone:   subject.TimeZone,
			Summary:    aggregate.DailySummary{Date: day, FeedingCount: feedings},
			Version:    version,
			ComputedAt: time.Now().UTC(),
		})
		require.NoError(t, err)
		return ok
	}

	require.True(t, write(5, 3))
	require.False(t, write(4, 1))
	require.True(t, write(5, 3))
	require.True(t, write(9, 4))

	stored, err := repo.ListDailySummaries(ctx, subject.ID, day, day)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, int64(9), stored[0].Version)
	require.Equal(t, 4, stored[0].Summary.FeedingCount)
	require.True(t, stored[0].Summary.Date.Equal(day))
}
