//go:build integration

package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/densign01/baby-tracker/internal/domain"
	"github.com/densign01/baby-tracker/internal/persistence/postgres"
	"github.com/densign01/baby-tracker/internal/testsupport"
)

func seedRecord(t *testing.T, ctx context.Context, repo *postgres.Repository) string {
	t.Helper()
	subject := domain.Subject{ID: uuid.NewString(), Name: "Ada", TimeZone: "UTC", OwnerID: "p", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.CreateSubject(ctx, subject))
	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.Create(ctx, domain.Record{
		ID: uuid.NewString(), SubjectID: subject.ID, Kind: domain.KindDiaper, OccurredAt: now,
		RecordedBy: "p", CreatedAt: now, Diaper: &domain.Diaper{Kind: domain.DiaperWet},
	}, ""))
	return subject.ID
}

func TestDispatcherPublishesPendingEvents(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)
	subjectID := seedRecord(t, ctx, postgres.NewRepository(pool))

	writer := &stubWriter{}
	d := NewDispatcher(pool, writer, &stubRegistry{id: 3}, zerolog.Nop(), time.Second, 10)
	require.NoError(t, d.processBatch(ctx))

	require.Len(t, writer.written[postgres.RecordsTopic], 1)
	require.Equal(t, []byte(subjectID), writer.written[postgres.RecordsTopic][0].Key)

	var pending int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`).Scan(&pending))
	require.Zero(t, pending)
}

func TestDispatcherRoutesFailuresToDLQAndManagerRequeues(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)
	subjectID := seedRecord(t, ctx, postgres.NewRepository(pool))

	d := NewDispatcher(pool, &stubWriter{err: errors.New("broker down")}, &stubRegistry{id: 3}, zerolog.Nop(), time.Second, 10)
	require.NoError(t, d.processBatch(ctx))

	var dlqSubject, reason string
	require.NoError(t, pool.QueryRow(ctx, `SELECT subject_id, reason FROM outbox_dlq`).Scan(&dlqSubject, &reason))
	require.Equal(t, subjectID, dlqSubject)
	require.Contains(t, reason, "broker down")

	manager := NewDLQManager(pool, zerolog.Nop(), 3, time.Minute, time.Hour)
	processed, err := manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, processed)

	var dlqCount, pending int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_dlq`).Scan(&dlqCount))
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`).Scan(&pending))
	require.Zero(t, dlqCount)
	require.Equal(t, 1, pending)
}

func TestDLQManagerQuarantinesExhaustedEntries(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)

	_, err := pool.Exec(ctx, `INSERT INTO outbox_dlq (subject_id, event_id, event_type, topic, payload, reason, aggregate_type, aggregate_id, schema_subject, partition_key, retry_count, next_retry_at)
        VALUES ('s', 1, 'activity.logged', 'activity_records', '{}', 'boom', 'activity_record', 'r', 'activity_records-activity.logged', 's', 3, NOW())`)
	require.NoError(t, err)

	manager := NewDLQManager(pool, zerolog.Nop(), 3, time.Minute, time.Hour)
	processed, err := manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, processed)

	var quarantined bool
	require.NoError(t, pool.QueryRow(ctx, `SELECT quarantined_at IS NOT NULL FROM outbox_dlq`).Scan(&quarantined))
	require.True(t, quarantined)
}
