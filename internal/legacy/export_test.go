package legacy

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/densign01/baby-tracker/internal/aggregate"
	"github.com/densign01/baby-tracker/internal/domain"
)

const export = `[
  {"id": 1716300000000, "type": "poop", "timestamp": "2024-05-21T14:00:00.000Z"},
  {"id": 1716290000000, "type": "feeding", "feedingType": "bottle", "amount": 4.5, "notes": " top-up ", "timestamp": "2024-05-21T11:00:00.000Z"},
  {"id": 1716280000000, "type": "feeding", "feedingType": "breast", "side": "left", "timestamp": "2024-05-21T09:00:00.000Z"},
  {"id": 1716270000000, "type": "sleep", "startTime": "2024-05-21T01:00:00.000Z", "endTime": "2024-05-21T06:30:00.000Z", "duration": 19800000, "timestamp": "2024-05-21T06:30:00.000Z"},
  {"id": 1716260000000, "type": "pee", "timestamp": "2024-05-21T00:30:00.000Z"}
]`

func TestDecodeConvertsEveryActivity(t *testing.T) {
	records, err := Decode(strings.NewReader(export))
	require.NoError(t, err)
	require.Len(t, records, 5)

	require.Equal(t, "legacy-1716300000000", records[0].ID)
	require.Equal(t, domain.KindLegacyPoop, records[0].Kind)
	require.Nil(t, records[0].Diaper)

	bottle := records[1]
	require.Equal(t, domain.FeedingBottle, bottle.Feeding.Method)
	require.Equal(t, 4.5, *bottle.Feeding.AmountOz)
	require.Equal(t, "top-up", bottle.Notes)

	require.Equal(t, domain.SideLeft, records[2].Feeding.Side)

	sleep := records[3]
	require.Equal(t, int64(19800000), *sleep.Sleep.DurationMs)
	require.True(t, sleep.Sleep.StartedAt.Equal(time.Date(2024, 5, 21, 1, 0, 0, 0, time.UTC)))
	require.True(t, sleep.OccurredAt.Equal(time.Date(2024, 5, 21, 6, 30, 0, 0, time.UTC)))
}

func TestDecodedExportAggregates(t *testing.T) {
	records, err := Decode(strings.NewReader(export))
	require.NoError(t, err)

	summary, err := aggregate.Aggregate(records, time.Date(2024, 5, 21, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 2, summary.DiaperCount)
	require.Equal(t, 1, summary.WetDiaperCount)
	require.Equal(t, 1, summary.DirtyDiaperCount)
	require.Equal(t, 2, summary.FeedingCount)
	require.Equal(t, 4.5, summary.BottleTotalOz)
	require.Equal(t, int64(19800000), summary.TotalSleepMs)
}

func TestDecodeAcceptsLocalStorageDump(t *testing.T) {
	dump := `{"babyActivities": "[{\"id\":1,\"type\":\"pee\",\"timestamp\":\"2024-05-21T00:30:00Z\"}]", "sleepStartTime": null}`
	records, err := Decode(strings.NewReader(dump))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, domain.KindLegacyPee, records[0].Kind)

	direct := `{"babyActivities": [{"id":2,"type":"wet","timestamp":"2024-05-21T00:30:00Z"}]}`
	records, err = Decode(strings.NewReader(direct))
	require.NoError(t, err)
	require.Equal(t, "legacy-2", records[0].ID)
}

func TestDecodeRejectsBrokenInput(t *testing.T) {
	_, err := Decode(strings.NewReader(`not json`))
	require.Error(t, err)

	_, err = Decode(strings.NewReader(`[{"id":1,"type":"pee"}]`))
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestSleepWithoutStartDerivesItFromDuration(t *testing.T) {
	rec, err := Activity{Type: "sleep", Timestamp: time.Date(2024, 5, 21, 6, 0, 0, 0, time.UTC), Duration: ptr(int64(3_600_000))}.Record()
	require.NoError(t, err)
	require.True(t, rec.Sleep.StartedAt.Equal(time.Date(2024, 5, 21, 5, 0, 0, 0, time.UTC)))
	require.Equal(t, "", rec.ID)
}

func ptr[T any](v T) *T { return &v }
