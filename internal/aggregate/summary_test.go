package aggregate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/densign01/baby-tracker/internal/domain"
)

func ms(v int64) *int64     { return &v }
func oz(v float64) *float64 { return &v }

func at(loc *time.Location, y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, loc)
}

func sleepRecord(id string, occurredAt time.Time, duration *int64) domain.Record {
	return domain.Record{ID: id, SubjectID: "baby-1", Kind: domain.KindSleep, OccurredAt: occurredAt, Sleep: &domain.Sleep{DurationMs: duration}}
}

func feedingRecord(id string, occurredAt time.Time, method domain.FeedingMethod, amount *float64) domain.Record {
	return domain.Record{ID: id, SubjectID: "baby-1", Kind: domain.KindFeeding, OccurredAt: occurredAt, Feeding: &domain.Feeding{Method: method, AmountOz: amount}}
}

func diaperRecord(id string, occurredAt time.Time, kind domain.DiaperKind) domain.Record {
	return domain.Record{ID: id, SubjectID: "baby-1", Kind: domain.KindDiaper, OccurredAt: occurredAt, Diaper: &domain.Diaper{Kind: kind}}
}

func TestAggregateSampleDay(t *testing.T) {
	loc := time.UTC
	records := []domain.Record{
		sleepRecord("s1", at(loc, 2024, 1, 1, 8, 0), ms(5400000)),
		diaperRecord("d1", at(loc, 2024, 1, 1, 9, 0), domain.DiaperBoth),
		feedingRecord("f1", at(loc, 2024, 1, 1, 10, 0), domain.FeedingBottle, oz(4)),
	}

	summary, err := Aggregate(records, at(loc, 2024, 1, 1, 15, 30))
	require.NoError(t, err)
	require.Equal(t, DailySummary{
		Date:             at(loc, 2024, 1, 1, 0, 0),
		TotalSleepMs:     5400000,
		SleepCount:       1,
		FeedingCount:     1,
		BottleTotalOz:    4,
		DiaperCount:      1,
		WetDiaperCount:   1,
		DirtyDiaperCount: 1,
	}, summary)
}

func TestAggregateInProgressSleepCountsWithoutDuration(t *testing.T) {
	loc := time.UTC
	records := []domain.Record{
		sleepRecord("s1", at(loc, 2024, 1, 1, 8, 0), ms(3600000)),
		sleepRecord("s2", at(loc, 2024, 1, 1, 20, 0), nil),
		{ID: "s3", Kind: domain.KindSleep, OccurredAt: at(loc, 2024, 1, 1, 21, 0)},
	}

	summary, err := Aggregate(records, at(loc, 2024, 1, 1, 0, 0))
	require.NoError(t, err)
	require.Equal(t, 3, summary.SleepCount)
	require.Equal(t, int64(3600000), summary.TotalSleepMs)
}

func TestAggregateBottleTotalIgnoresOtherMethods(t *testing.T) {
	loc := time.UTC
	records := []domain.Record{
		feedingRecord("f1", at(loc, 2024, 1, 1, 1, 0), domain.FeedingBottle, oz(3.5)),
		feedingRecord("f2", at(loc, 2024, 1, 1, 4, 0), domain.FeedingBottle, nil),
		feedingRecord("f3", at(loc, 2024, 1, 1, 7, 0), domain.FeedingSolid, oz(2)),
		{ID: "f4", Kind: domain.KindFeeding, OccurredAt: at(loc, 2024, 1, 1, 9, 0), Feeding: &domain.Feeding{Method: domain.FeedingBreast, Side: domain.SideLeft}},
	}

	summary, err := Aggregate(records, at(loc, 2024, 1, 1, 12, 0))
	require.NoError(t, err)
	require.Equal(t, 4, summary.FeedingCount)
	require.InDelta(t, 3.5, summary.BottleTotalOz, 1e-9)
}

func TestAggregateDiaperBothCountsOnce(t *testing.T) {
	loc := time.UTC
	summary, err := Aggregate([]domain.Record{
		diaperRecord("d1", at(loc, 2024, 1, 1, 9, 0), domain.DiaperBoth),
	}, at(loc, 2024, 1, 1, 9, 0))
	require.NoError(t, err)
	require.Equal(t, 1, summary.DiaperCount)
	require.Equal(t, 1, summary.WetDiaperCount)
	require.Equal(t, 1, summary.DirtyDiaperCount)
}

func TestAggregateLegacyRecordCountsLikeNative(t *testing.T) {
	loc := time.UTC
	ts := at(loc, 2024, 1, 1, 9, 0)

	legacy, err := Aggregate([]domain.Record{{ID: "l1", Kind: domain.KindLegacyPee, OccurredAt: ts}}, ts)
	require.NoError(t, err)
	native, err := Aggregate([]domain.Record{diaperRecord("n1", ts, domain.DiaperWet)}, ts)
	require.NoError(t, err)
	require.Equal(t, native, legacy)
}

func TestAggregateExcludesOtherDays(t *testing.T) {
	loc := time.UTC
	records := []domain.Record{
		diaperRecord("before", at(loc, 2023, 12, 31, 23, 59), domain.DiaperWet),
		diaperRecord("today", at(loc, 2024, 1, 1, 12, 0), domain.DiaperDirty),
		diaperRecord("after", at(loc, 2024, 1, 2, 0, 0), domain.DiaperWet),
	}

	summary, err := Aggregate(records, at(loc, 2024, 1, 1, 6, 0))
	require.NoError(t, err)
	require.Equal(t, 1, summary.DiaperCount)
	require.Equal(t, 0, summary.WetDiaperCount)
	require.Equal(t, 1, summary.DirtyDiaperCount)
}

func TestAggregateIsIdempotentAndDoesNotMutateInput(t *testing.T) {
	loc := time.UTC
	records := []domain.Record{
		sleepRecord("s1", at(loc, 2024, 1, 1, 8, 0), ms(5400000)),
		{ID: "l1", Kind: domain.KindLegacyPoop, OccurredAt: at(loc, 2024, 1, 1, 9, 0)},
		{ID: "d1", Kind: domain.KindDiaper, OccurredAt: at(loc, 2024, 1, 1, 10, 0), Diaper: &domain.Diaper{Kind: domain.DiaperLegacyPee}},
	}
	snapshot := []domain.Record{records[0], records[1], records[2]}
	snapshotDiaper := *records[2].Diaper

	first, err := Aggregate(records, at(loc, 2024, 1, 1, 0, 0))
	require.NoError(t, err)
	second, err := Aggregate(records, at(loc, 2024, 1, 1, 0, 0))
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, snapshot, records)
	require.Equal(t, snapshotDiaper, *records[2].Diaper)
	require.Equal(t, domain.KindLegacyPoop, records[1].Kind)
}

func TestAggregateEmptyDay(t *testing.T) {
	loc := time.UTC
	summary, err := Aggregate(nil, at(loc, 2024, 3, 5, 17, 45))
	require.NoError(t, err)
	require.Equal(t, DailySummary{Date: at(loc, 2024, 3, 5, 0, 0)}, summary)
}

func TestAggregateFailsFastOnUnknownKind(t *testing.T) {
	loc := time.UTC
	records := []domain.Record{
		diaperRecord("d1", at(loc, 2024, 1, 1, 9, 0), domain.DiaperWet),
		{ID: "x1", Kind: "bath", OccurredAt: at(loc, 2024, 1, 1, 10, 0)},
	}

	_, err := Aggregate(records, at(loc, 2024, 1, 1, 0, 0))
	var malformedErr *domain.MalformedRecordError
	require.True(t, errors.As(err, &malformedErr))
	require.Equal(t, "x1", malformedErr.RecordID)
	require.Equal(t, domain.Kind("bath"), malformedErr.Kind)
}

func TestReportSummaryIgnoresFilter(t *testing.T) {
	loc := time.UTC
	records := []domain.Record{
		diaperRecord("d1", at(loc, 2024, 1, 1, 9, 0), domain.DiaperWet),
		sleepRecord("s1", at(loc, 2024, 1, 1, 8, 0), ms(600000)),
		{ID: "l1", Kind: domain.KindLegacyDirty, OccurredAt: at(loc, 2024, 1, 1, 11, 0)},
		feedingRecord("f1", at(loc, 2024, 1, 1, 10, 0), domain.FeedingBottle, oz(2)),
		diaperRecord("old", at(loc, 2023, 12, 31, 11, 0), domain.DiaperWet),
	}

	all, err := Report(records, at(loc, 2024, 1, 1, 12, 0), "")
	require.NoError(t, err)
	require.Equal(t, CategoryAll, all.Filter)
	require.Len(t, all.Entries, 4)

	diapers, err := Report(records, at(loc, 2024, 1, 1, 12, 0), CategoryDiaper)
	require.NoError(t, err)
	require.Equal(t, all.Summary, diapers.Summary)
	require.Equal(t, []string{"l1", "d1"}, ids(diapers.Entries))
	require.Equal(t, domain.KindDiaper, diapers.Entries[0].Kind)
	require.Equal(t, domain.DiaperDirty, diapers.Entries[0].Diaper.Kind)
}

func TestReportEntriesNewestFirst(t *testing.T) {
	loc := time.UTC
	records := []domain.Record{
		diaperRecord("a", at(loc, 2024, 1, 1, 9, 0), domain.DiaperWet),
		diaperRecord("b", at(loc, 2024, 1, 1, 14, 0), domain.DiaperWet),
		diaperRecord("c", at(loc, 2024, 1, 1, 11, 0), domain.DiaperWet),
		diaperRecord("d", at(loc, 2024, 1, 1, 14, 0), domain.DiaperWet),
	}

	report, err := Report(records, at(loc, 2024, 1, 1, 0, 0), CategoryAll)
	require.NoError(t, err)
	require.Equal(t, []string{"b", "d", "c", "a"}, ids(report.Entries))
}

func TestSummarizeRangeIncludesEmptyDays(t *testing.T) {
	loc := time.UTC
	records := []domain.Record{
		sleepRecord("s1", at(loc, 2024, 1, 1, 8, 0), ms(1000)),
		sleepRecord("s2", at(loc, 2024, 1, 3, 8, 0), ms(2000)),
		sleepRecord("s3", at(loc, 2024, 1, 5, 8, 0), ms(4000)),
	}

	summaries, err := SummarizeRange(records, at(loc, 2024, 1, 1, 12, 0), at(loc, 2024, 1, 4, 1, 0))
	require.NoError(t, err)
	require.Len(t, summaries, 4)
	require.Equal(t, int64(1000), summaries[0].TotalSleepMs)
	require.Equal(t, DailySummary{Date: at(loc, 2024, 1, 2, 0, 0)}, summaries[1])
	require.Equal(t, int64(2000), summaries[2].TotalSleepMs)
	require.Equal(t, 0, summaries[3].SleepCount)
}

func TestSummarizeRangeRejectsInvertedRange(t *testing.T) {
	loc := time.UTC
	_, err := SummarizeRange(nil, at(loc, 2024, 1, 5, 0, 0), at(loc, 2024, 1, 4, 0, 0))
	require.ErrorIs(t, err, domain.ErrValidation)
}

func ids(records []domain.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}
