//go:build integration

package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/densign01/baby-tracker/internal/domain"
	"github.com/densign01/baby-tracker/internal/events"
	"github.com/densign01/baby-tracker/internal/persistence/postgres"
	"github.com/densign01/baby-tracker/internal/testsupport"
)

func TestEventLogHandlerStoresEventOnce(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)
	handler := NewEventLogHandler(pool)

	payload := json.RawMessage(`{"record_id":"abc","subject_id":"child-1"}`)
	msg := Message{
		EventType:     events.TypeActivityLogged,
		SubjectID:     "child-1",
		SchemaID:      42,
		SchemaSubject: "activity_records-activity.logged",
		Topic:         "activity_records",
		Partition:     0,
		Offset:        5,
		Payload:       payload,
		Timestamp:     time.Now().UTC(),
	}

	require.NoError(t, handler.Handle(ctx, msg))
	require.NoError(t, handler.Handle(ctx, msg))

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM activity_event_log`).Scan(&count))
	require.Equal(t, 1, count)

	var storedPayload []byte
	require.NoError(t, pool.QueryRow(ctx, `SELECT payload FROM activity_event_log LIMIT 1`).Scan(&storedPayload))
	require.JSONEq(t, string(payload), string(storedPayload))
}

func TestSummaryHandlerWritesDailySummariesTable(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)
	repo := postgres.NewRepository(pool)

	require.NoError(t, repo.CreateSubject(ctx, domain.Subject{
		ID: "child-1", Name: "Ada", TimeZone: "Europe/Berlin", OwnerID: "parent-1", CreatedAt: time.Now().UTC(),
	}))
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	amount := 4.0
	at := time.Date(2024, 3, 31, 10, 0, 0, 0, berlin)
	require.NoError(t, repo.Create(ctx, domain.Record{
		ID: "f1", SubjectID: "child-1", Kind: domain.KindFeeding, OccurredAt: at, RecordedBy: "parent-1",
		CreatedAt: at, Feeding: &domain.Feeding{Method: domain.FeedingBottle, AmountOz: &amount},
	}, ""))

	raw, err := json.Marshal(events.ActivityLogged{RecordID: "f1", SubjectID: "child-1", Kind: "feeding", OccurredAt: at.UTC()})
	require.NoError(t, err)
	handler := NewSummaryHandler(repo, repo, repo, nil, zerolog.Nop())
	require.NoError(t, handler.Handle(ctx, Message{EventType: events.TypeActivityLogged, SubjectID: "child-1", Offset: 12, Payload: raw}))

	stored, err := repo.ListDailySummaries(ctx, "child-1", at, at)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, 1, stored[0].Summary.FeedingCount)
	require.Equal(t, 4.0, stored[0].Summary.BottleTotalOz)
	require.Equal(t, int64(12), stored[0].Version)
}
