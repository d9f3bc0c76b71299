package consumer

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EventLogHandler appends consumed events to activity_event_log for auditing. Redelivered
// offsets are ignored.
type EventLogHandler struct {
	db execer
}

// NewEventLogHandler constructs a handler backed by db, typically a *pgxpool.Pool.
func NewEventLogHandler(db execer) *EventLogHandler {
	return &EventLogHandler{db: db}
}

// Handle implements Handler.
func (h *EventLogHandler) Handle(ctx context.Context, msg Message) error {
	_, err := h.db.Exec(ctx,
		`INSERT INTO activity_event_log (event_type, subject_id, schema_id, schema_subject, topic, partition, record_offset, payload, received_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
         ON CONFLICT (topic, partition, record_offset) DO NOTHING`,
		msg.EventType,
		msg.SubjectID,
		msg.SchemaID,
		msg.SchemaSubject,
		msg.Topic,
		msg.Partition,
		msg.Offset,
		msg.Payload,
		msg.Timestamp,
	)
	return err
}
