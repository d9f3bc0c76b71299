package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/densign01/baby-tracker/internal/aggregate"
	"github.com/densign01/baby-tracker/internal/domain"
	"github.com/densign01/baby-tracker/internal/events"
	"github.com/densign01/baby-tracker/internal/persistence/memory"
)

var newYork, _ = time.LoadLocation("America/New_York")

func seededRepo(t *testing.T) *memory.Repository {
	t.Helper()
	repo := memory.NewRepository()
	require.NoError(t, repo.CreateSubject(context.Background(), domain.Subject{
		ID: "child-1", Name: "Ada", TimeZone: "America/New_York", OwnerID: "parent-1",
	}))
	return repo
}

func addDiaper(t *testing.T, repo *memory.Repository, id string, at time.Time, kind domain.DiaperKind) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), domain.Record{
		ID: id, SubjectID: "child-1", Kind: domain.KindDiaper, OccurredAt: at, RecordedBy: "parent-1",
		CreatedAt: at, Diaper: &domain.Diaper{Kind: kind},
	}, ""))
}

func eventMessage(t *testing.T, eventType string, offset int64, payload any) Message {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return Message{Topic: "activity_records", EventType: eventType, SubjectID: "child-1", Offset: offset, Payload: raw}
}

func TestSummaryHandlerMaterializesTouchedDay(t *testing.T) {
	ctx := context.Background()
	repo := seededRepo(t)
	// 23:30 in New York on May 20 is already May 21 in UTC
	late := time.Date(2024, 5, 20, 23, 30, 0, 0, newYork)
	addDiaper(t, repo, "d1", late, domain.DiaperWet)
	addDiaper(t, repo, "d2", late.Add(-time.Hour), domain.DiaperDirty)

	handler := NewSummaryHandler(repo, repo, repo, nil, zerolog.Nop())
	msg := eventMessage(t, events.TypeActivityLogged, 4, events.ActivityLogged{RecordID: "d1", SubjectID: "child-1", Kind: "diaper", OccurredAt: late.UTC()})
	require.NoError(t, handler.Handle(ctx, msg))

	day := time.Date(2024, 5, 20, 0, 0, 0, 0, newYork)
	stored, err := repo.ListDailySummaries(ctx, "child-1", day, day)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, int64(4), stored[0].Version)
	require.Equal(t, "America/New_York", stored[0].TimeZone)
	require.Equal(t, 2, stored[0].Summary.DiaperCount)
	require.Equal(t, 1, stored[0].Summary.WetDiaperCount)
	require.Equal(t, 1, stored[0].Summary.DirtyDiaperCount)
}

func TestSummaryHandlerRefreshesBothDaysOfAClosedSleep(t *testing.T) {
	ctx := context.Background()
	repo := seededRepo(t)
	started := time.Date(2024, 5, 20, 21, 0, 0, 0, newYork)
	ended := started.Add(9 * time.Hour)
	duration := (9 * time.Hour).Milliseconds()
	require.NoError(t, repo.Create(ctx, domain.Record{
		ID: "s1", SubjectID: "child-1", Kind: domain.KindSleep, OccurredAt: ended, RecordedBy: "parent-1",
		CreatedAt: ended, Sleep: &domain.Sleep{StartedAt: &started, DurationMs: &duration},
	}, ""))

	handler := NewSummaryHandler(repo, repo, repo, nil, zerolog.Nop())
	msg := eventMessage(t, events.TypeActivityClosed, 9, events.ActivityClosed{
		RecordID: "s1", SubjectID: "child-1", OccurredAt: ended.UTC(), PreviousOccurredAt: started.UTC(), DurationMs: duration,
	})
	require.NoError(t, handler.Handle(ctx, msg))

	stored, err := repo.ListDailySummaries(ctx, "child-1",
		time.Date(2024, 5, 20, 0, 0, 0, 0, newYork), time.Date(2024, 5, 21, 0, 0, 0, 0, newYork))
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.Zero(t, stored[0].Summary.SleepCount, "the start day no longer holds the sleep")
	require.Equal(t, 1, stored[1].Summary.SleepCount)
	require.Equal(t, duration, stored[1].Summary.TotalSleepMs)
}

func TestSummaryHandlerIgnoresOlderVersions(t *testing.T) {
	ctx := context.Background()
	repo := seededRepo(t)
	at := time.Date(2024, 5, 20, 9, 0, 0, 0, newYork)
	addDiaper(t, repo, "d1", at, domain.DiaperWet)

	handler := NewSummaryHandler(repo, repo, repo, nil, zerolog.Nop())
	payload := events.ActivityLogged{RecordID: "d1", SubjectID: "child-1", Kind: "diaper", OccurredAt: at}
	require.NoError(t, handler.Handle(ctx, eventMessage(t, events.TypeActivityLogged, 8, payload)))

	addDiaper(t, repo, "d2", at.Add(time.Hour), domain.DiaperWet)
	require.NoError(t, handler.Handle(ctx, eventMessage(t, events.TypeActivityLogged, 3, payload)))

	summary, version, ok := handler.board.Get("child-1", at)
	require.True(t, ok)
	require.Equal(t, int64(8), version)
	require.Equal(t, 1, summary.DiaperCount)

	stored, err := repo.ListDailySummaries(ctx, "child-1", at, at)
	require.NoError(t, err)
	require.Equal(t, 1, stored[0].Summary.DiaperCount)
}

func TestSummaryHandlerSkipsUnrecoverableInput(t *testing.T) {
	ctx := context.Background()
	repo := seededRepo(t)
	at := time.Date(2024, 5, 20, 9, 0, 0, 0, newYork)
	addDiaper(t, repo, "d1", at, domain.DiaperKind("mystery"))
	handler := NewSummaryHandler(repo, repo, repo, nil, zerolog.Nop())

	malformed := eventMessage(t, events.TypeActivityLogged, 1, events.ActivityLogged{RecordID: "d1", SubjectID: "child-1", OccurredAt: at})
	require.NoError(t, handler.Handle(ctx, malformed))

	unknown := Message{EventType: "activity.renamed", Payload: json.RawMessage(`{}`)}
	require.NoError(t, handler.Handle(ctx, unknown))

	orphan := eventMessage(t, events.TypeActivityDeleted, 2, events.ActivityDeleted{RecordID: "x", SubjectID: "gone", OccurredAt: at})
	require.NoError(t, handler.Handle(ctx, orphan))

	stored, err := repo.ListDailySummaries(ctx, "child-1", aggregate.StartOfDay(at), aggregate.StartOfDay(at))
	require.NoError(t, err)
	require.Empty(t, stored)
}

type recordingExecer struct {
	sql  string
	args []any
}

func (e *recordingExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e.sql = sql
	e.args = args
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestEventLogHandlerIgnoresRedeliveredOffsets(t *testing.T) {
	db := &recordingExecer{}
	msg := Message{Topic: "activity_records", Partition: 2, Offset: 17, EventType: events.TypeActivityDeleted, SubjectID: "child-1", SchemaID: 5}

	require.NoError(t, NewEventLogHandler(db).Handle(context.Background(), msg))
	require.Contains(t, db.sql, "ON CONFLICT (topic, partition, record_offset) DO NOTHING")
	require.Equal(t, "child-1", db.args[1])
	require.Equal(t, int64(17), db.args[6])
}
