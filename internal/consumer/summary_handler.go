package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/densign01/baby-tracker/internal/aggregate"
	"github.com/densign01/baby-tracker/internal/domain"
	"github.com/densign01/baby-tracker/internal/events"
	"github.com/densign01/baby-tracker/internal/observability"
)

// RecordSource loads the records of a window.
type RecordSource interface {
	ListBetween(ctx context.Context, subjectID string, from, to time.Time) ([]domain.Record, error)
}

// SubjectSource resolves the subject whose zone defines day boundaries.
type SubjectSource interface {
	GetSubject(ctx context.Context, subjectID string) (*domain.Subject, error)
}

// SummaryWriter persists materialized summaries. It reports false when a newer version is
// already stored.
type SummaryWriter interface {
	UpsertDailySummary(ctx context.Context, m aggregate.Materialized) (bool, error)
}

// SummaryHandler recomputes the daily summaries touched by each record event.
//
// The Kafka offset is the summary version. Events for one subject share a partition, so a
// higher offset always reflects a later state of the subject's records.
type SummaryHandler struct {
	records  RecordSource
	subjects SubjectSource
	writer   SummaryWriter
	board    *aggregate.Board
	now      func() time.Time
	logger   zerolog.Logger
}

// NewSummaryHandler constructs a SummaryHandler. A nil board gets a fresh one.
func NewSummaryHandler(records RecordSource, subjects SubjectSource, writer SummaryWriter, board *aggregate.Board, logger zerolog.Logger) *SummaryHandler {
	if board == nil {
		board = aggregate.NewBoard()
	}
	return &SummaryHandler{
		records:  records,
		subjects: subjects,
		writer:   writer,
		board:    board,
		now:      time.Now,
		logger:   logger.With().Str("component", "summary_handler").Logger(),
	}
}

// Handle implements Handler.
func (h *SummaryHandler) Handle(ctx context.Context, msg Message) error {
	touched, err := events.Affected(msg.EventType, msg.Payload)
	if err != nil {
		// retrying cannot repair the payload
		h.logger.Warn().Err(err).Int64("offset", msg.Offset).Msg("skipping undecodable event")
		return nil
	}
	if touched.SubjectID == "" {
		touched.SubjectID = msg.SubjectID
	}

	subject, err := h.subjects.GetSubject(ctx, touched.SubjectID)
	if err != nil {
		return fmt.Errorf("consumer.SummaryHandler.Handle: load subject: %w", err)
	}
	if subject == nil {
		h.logger.Debug().Str("subject_id", touched.SubjectID).Msg("subject gone, nothing to summarize")
		return nil
	}
	loc, err := subject.Location()
	if err != nil {
		return fmt.Errorf("consumer.SummaryHandler.Handle: %w", err)
	}

	for _, day := range distinctDays(touched.Instants, loc) {
		if err := h.refresh(ctx, *subject, day, msg.Offset); err != nil {
			return err
		}
	}
	return nil
}

func (h *SummaryHandler) refresh(ctx context.Context, subject domain.Subject, day time.Time, version int64) error {
	records, err := h.records.ListBetween(ctx, subject.ID, aggregate.StartOfDay(day), aggregate.EndOfDay(day))
	if err != nil {
		return fmt.Errorf("consumer.SummaryHandler.refresh: list records: %w", err)
	}

	summary, err := aggregate.Aggregate(records, day)
	if err != nil {
		var malformed *domain.MalformedRecordError
		if errors.As(err, &malformed) {
			observability.RecordMalformed()
			h.logger.Error().Err(err).
				Str("subject_id", subject.ID).
				Str("day", day.Format(aggregate.DateLayout)).
				Msg("summary skipped")
			return nil
		}
		return fmt.Errorf("consumer.SummaryHandler.refresh: %w", err)
	}

	if !h.board.Publish(subject.ID, summary, version) {
		staleSummaryCounter.Inc()
		return nil
	}
	stored, err := h.writer.UpsertDailySummary(ctx, aggregate.Materialized{
		SubjectID:  subject.ID,
		TimeZone:   subject.TimeZone,
		Summary:    summary,
		Version:    version,
		ComputedAt: h.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("consumer.SummaryHandler.refresh: store summary: %w", err)
	}
	if !stored {
		staleSummaryCounter.Inc()
	}
	return nil
}

func distinctDays(instants []time.Time, loc *time.Location) []time.Time {
	seen := make(map[string]struct{}, len(instants))
	days := make([]time.Time, 0, len(instants))
	for _, instant := range instants {
		if instant.IsZero() {
			continue
		}
		day := aggregate.StartOfDay(instant.In(loc))
		key := day.Format(aggregate.DateLayout)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		days = append(days, day)
	}
	return days
}
