package persistence

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/densign01/baby-tracker/internal/domain"
)

func TestCursorRoundTrip(t *testing.T) {
	cursor := &domain.Cursor{OccurredAt: time.Date(2024, 2, 3, 4, 5, 6, 789000000, time.UTC), ID: "rec-1"}

	token := EncodeCursor(cursor)
	require.NotEmpty(t, token)

	decoded, err := DecodeCursor(token)
	require.NoError(t, err)
	require.True(t, cursor.OccurredAt.Equal(decoded.OccurredAt))
	require.Equal(t, cursor.ID, decoded.ID)
}

func TestCursorEmpty(t *testing.T) {
	require.Empty(t, EncodeCursor(nil))

	decoded, err := DecodeCursor("  ")
	require.NoError(t, err)
	require.Nil(t, decoded)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, token := range []string{
		"%%%",
		base64.RawURLEncoding.EncodeToString([]byte("no-separator")),
		base64.RawURLEncoding.EncodeToString([]byte("yesterday|rec-1")),
	} {
		_, err := DecodeCursor(token)
		require.ErrorIs(t, err, domain.ErrValidation, token)
	}
}
