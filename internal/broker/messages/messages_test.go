package messages

import (
	"testing"
	"time"

	"github.com/chetanft/Summary-Dashboard-sub000/internal/models"
	"github.com/stretchr/testify/require"
)

func TestNewJourneyUpdated(t *testing.T) {
	at := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	j := models.NewJourney("JRN-1", models.JourneyCreateInput{TripID: "T"}, at)
	j.Timeline = append(j.Timeline, models.TimelineEvent{Milestone: "AT_LOADING"})

	msg := NewJourneyUpdated(KindUpdated, j)
	require.Equal(t, "JRN-1", msg.JourneyID)
	require.Equal(t, "PLANNED", msg.Status)
	require.Equal(t, "PENDING", msg.PODStatus)
	require.Equal(t, "AT_LOADING", msg.Milestone)
	require.Equal(t, at, msg.UpdatedAt)
}

func TestDecodeJourneyIngest(t *testing.T) {
	j, err := DecodeJourneyIngest([]byte(`{"id":"JRN-9","tripId":"T-9","type":"ptl","status":"in_transit"}`))
	require.NoError(t, err)
	require.Equal(t, models.JourneyTypePTL, j.Type)
	require.Equal(t, models.StatusInTransit, j.Status)
	require.NotNil(t, j.Timeline)

	_, err = DecodeJourneyIngest([]byte(`{"tripId":"T"}`))
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = DecodeJourneyIngest([]byte(`not json`))
	require.Error(t, err)
}
