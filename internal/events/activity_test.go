package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAffectedClosedTouchesStartAndEnd(t *testing.T) {
	start := time.Date(2024, 5, 19, 22, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 20, 6, 30, 0, 0, time.UTC)
	body, err := json.Marshal(ActivityClosed{
		RecordID:           "r1",
		SubjectID:          "s1",
		OccurredAt:         end,
		PreviousOccurredAt: start,
		DurationMs:         end.Sub(start).Milliseconds(),
	})
	require.NoError(t, err)

	touched, err := Affected(TypeActivityClosed, body)
	require.NoError(t, err)
	require.Equal(t, "s1", touched.SubjectID)
	require.Len(t, touched.Instants, 2)
	require.True(t, touched.Instants[0].Equal(start))
	require.True(t, touched.Instants[1].Equal(end))
}

func TestAffectedLoggedAndDeleted(t *testing.T) {
	at := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)
	for _, tc := range []struct {
		eventType string
		payload   any
	}{
		{TypeActivityLogged, ActivityLogged{RecordID: "r1", SubjectID: "s1", Kind: "feeding", OccurredAt: at}},
		{TypeActivityDeleted, ActivityDeleted{RecordID: "r1", SubjectID: "s1", Kind: "feeding", OccurredAt: at}},
	} {
		t.Run(tc.eventType, func(t *testing.T) {
			body, err := json.Marshal(tc.payload)
			require.NoError(t, err)
			touched, err := Affected(tc.eventType, body)
			require.NoError(t, err)
			require.Equal(t, "s1", touched.SubjectID)
			require.Len(t, touched.Instants, 1)
			require.True(t, touched.Instants[0].Equal(at))
		})
	}
}

func TestAffectedRejectsUnknownAndBrokenPayloads(t *testing.T) {
	_, err := Affected("activity.renamed", []byte(`{}`))
	require.Error(t, err)

	_, err = Affected(TypeActivityLogged, []byte(`{"occurred_at":`))
	require.Error(t, err)
}
