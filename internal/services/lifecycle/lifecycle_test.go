package lifecycle

import (
	"fmt"
	"testing"
	"time"

	"github.com/chetanft/Summary-Dashboard-sub000/internal/models"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

// testEngine: часы идут по минуте на вызов, id последовательные.
func testEngine() *Engine {
	tick := 0
	seq := 0
	return NewWithClock(
		func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Minute)
		},
		func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	)
}

func journey() models.Journey {
	j := models.Journey{
		ID:     "J1",
		Status: models.StatusPlanned,
		Timeline: []models.TimelineEvent{
			{ID: "e0", Milestone: "created", Timestamp: base},
		},
		Alerts: []models.Alert{
			{ID: "A1", Type: models.AlertDelay, Severity: models.SeverityHigh, Timestamp: base, Location: "Pune"},
		},
		Stops: []models.Stop{
			{ID: "S1", Type: models.StopPickup, Location: "Pune"},
		},
	}
	j.Normalize()
	return j
}

func TestUpdateStatus_WalksHappyPath(t *testing.T) {
	e := testEngine()
	j := journey()

	path := []models.JourneyStatus{
		models.StatusEnRouteToLoading,
		models.StatusAtLoading,
		models.StatusInTransit,
		models.StatusAtUnloading,
		models.StatusDelivered,
	}
	var err error
	for _, s := range path {
		j, err = e.UpdateStatus(j, s, StatusExtra{Actor: "ops"})
		require.NoError(t, err)
		require.Equal(t, s, j.Status)
		require.Equal(t, s.Label(), j.StatusText)
		require.Equal(t, string(s), j.Timeline[len(j.Timeline)-1].Milestone)
	}
	require.Len(t, j.Timeline, 1+len(path))
	require.NotNil(t, j.ActualDeparture)
	require.NotNil(t, j.ActualArrival)
	require.Equal(t, 100.0, j.ProgressPercentage())
}

func TestUpdateStatus_IllegalTransition(t *testing.T) {
	e := testEngine()
	j := journey()

	out, err := e.UpdateStatus(j, models.StatusDelivered, StatusExtra{})
	require.ErrorIs(t, err, models.ErrInvalidTransition)
	require.Equal(t, j, out)

	_, err = e.UpdateStatus(j, "TELEPORTED", StatusExtra{})
	require.ErrorIs(t, err, models.ErrInvalidTransition)

	done := journey()
	done.Status = models.StatusDelivered
	_, err = e.UpdateStatus(done, models.StatusInTransit, StatusExtra{})
	require.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestUpdateStatus_MergesExtraWithoutMutatingInput(t *testing.T) {
	e := testEngine()
	j := journey()
	j.Status = models.StatusAtLoading
	dep := base.Add(-time.Hour)
	eta := base.Add(5 * time.Hour)

	out, err := e.UpdateStatus(j, models.StatusInTransit, StatusExtra{
		CurrentLocation: &models.GeoPoint{Lat: 18.5, Lng: 73.8},
		ETA:             &eta,
		ActualDeparture: &dep,
		Location:        "Pune",
		Notes:           "left dock 3",
	})
	require.NoError(t, err)
	require.Equal(t, models.GeoPoint{Lat: 18.5, Lng: 73.8}, out.CurrentLocation)
	require.Equal(t, eta, *out.ETA)
	require.Equal(t, dep, *out.ActualDeparture)
	require.Equal(t, "left dock 3", out.Timeline[1].Notes)
	require.Equal(t, out.Timeline[1].Timestamp, out.UpdatedAt)

	require.Equal(t, models.StatusAtLoading, j.Status)
	require.Len(t, j.Timeline, 1)
	require.Nil(t, j.ETA)
}

func TestCanTransition_ReturnLoop(t *testing.T) {
	require.True(t, CanTransition(models.StatusAtUnloading, models.StatusInTransit))
	require.True(t, CanTransition(models.StatusAtUnloading, models.StatusInReturn))
	require.True(t, CanTransition(models.StatusInReturn, models.StatusDelivered))
	require.False(t, CanTransition(models.StatusInReturn, models.StatusPlanned))
	require.Empty(t, NextStatuses(models.StatusDelivered))
	require.Empty(t, NextStatuses("PARKED"))
}

func TestPOD_PreconditionLeavesJourneyUnchanged(t *testing.T) {
	e := testEngine()
	for _, st := range []models.PODStatus{models.PODPending, models.PODApproved, models.PODRejected} {
		j := journey()
		j.PODStatus = st
		before := j.Clone()

		out, err := e.ApprovePOD(j, "ok", "qa")
		require.ErrorIs(t, err, models.ErrInvalidState)
		require.Equal(t, st, out.PODStatus)
		require.Equal(t, before, j)

		out, err = e.RejectPOD(j, "blurry", "qa")
		require.ErrorIs(t, err, models.ErrInvalidState)
		require.Equal(t, st, out.PODStatus)
		require.Equal(t, before, j)
	}
}

func TestPOD_SubmitApprove(t *testing.T) {
	e := testEngine()
	j := journey()

	j, err := e.SubmitPOD(j, []models.Document{{Name: "pod.pdf", URL: "s3://pod.pdf"}}, "signed", "driver")
	require.NoError(t, err)
	require.Equal(t, models.PODSubmitted, j.PODStatus)
	require.NotNil(t, j.PODSubmittedAt)
	require.Len(t, j.Documents, 1)
	doc := j.Documents[0]
	require.NotEmpty(t, doc.ID)
	require.Equal(t, "J1", doc.JourneyID)
	require.Equal(t, "pod", doc.Type)
	require.Equal(t, "driver", doc.UploadedBy)

	last := j.Timeline[len(j.Timeline)-1]
	require.Equal(t, MilestonePODSubmitted, last.Milestone)
	require.Equal(t, []string{doc.ID}, last.Documents)

	j, err = e.ApprovePOD(j, "looks good", "qa")
	require.NoError(t, err)
	require.Equal(t, models.PODApproved, j.PODStatus)
	require.NotNil(t, j.PODApprovedAt)
	require.Equal(t, MilestonePODApproved, j.Timeline[len(j.Timeline)-1].Milestone)
}

func TestPOD_SubmitDoesNotAliasCallerDocuments(t *testing.T) {
	e := testEngine()
	docs := []models.Document{{Name: "pod.pdf", Metadata: map[string]string{"pages": "2"}}}

	j, err := e.SubmitPOD(journey(), docs, "", "driver")
	require.NoError(t, err)

	docs[0].Metadata["pages"] = "9"
	docs[0].Metadata["extra"] = "x"
	require.Equal(t, map[string]string{"pages": "2"}, j.Documents[0].Metadata)
	require.Empty(t, docs[0].ID)
}

func TestPOD_RejectThenResubmit(t *testing.T) {
	e := testEngine()
	j := journey()
	j, err := e.SubmitPOD(j, nil, "", "driver")
	require.NoError(t, err)

	j, err = e.RejectPOD(j, "signature missing", "qa")
	require.NoError(t, err)
	require.Equal(t, models.PODRejected, j.PODStatus)
	require.Equal(t, "signature missing", j.PODRejectionReason)
	require.NotNil(t, j.PODRejectedAt)

	j, err = e.SubmitPOD(j, nil, "resigned", "driver")
	require.NoError(t, err)
	require.Equal(t, models.PODSubmitted, j.PODStatus)
	require.Empty(t, j.PODRejectionReason)
}

func TestResolveAlert(t *testing.T) {
	e := testEngine()
	j := journey()

	_, err := e.ResolveAlert(j, "nope", "", "ops")
	require.ErrorIs(t, err, models.ErrNotFound)

	first, err := e.ResolveAlert(j, "A1", "called driver", "ops")
	require.NoError(t, err)
	a := first.Alerts[0]
	require.True(t, a.IsResolved)
	require.Equal(t, "called driver", a.ResolutionNotes)
	require.False(t, j.Alerts[0].IsResolved)

	// повторно: isResolved остаётся, время и заметки обновляются
	second, err := e.ResolveAlert(first, "A1", "driver confirmed", "ops")
	require.NoError(t, err)
	b := second.Alerts[0]
	require.True(t, b.IsResolved)
	require.Equal(t, "driver confirmed", b.ResolutionNotes)
	require.True(t, b.ResolvedAt.After(*a.ResolvedAt))
	require.Equal(t, MilestoneAlertResolved, second.Timeline[len(second.Timeline)-1].Milestone)
}

func TestResolveAlert_NeverBeforeAlertTimestamp(t *testing.T) {
	e := testEngine()
	j := journey()
	j.Alerts[0].Timestamp = base.Add(24 * time.Hour)

	out, err := e.ResolveAlert(j, "A1", "", "ops")
	require.NoError(t, err)
	require.Equal(t, base.Add(24*time.Hour), *out.Alerts[0].ResolvedAt)
}

func TestRaiseAlert(t *testing.T) {
	e := testEngine()
	j := journey()

	out, err := e.RaiseAlert(j, models.Alert{Type: models.AlertSOS, Message: "panic button"}, "system")
	require.NoError(t, err)
	require.Len(t, out.Alerts, 2)
	a := out.Alerts[1]
	require.NotEmpty(t, a.ID)
	require.Equal(t, "J1", a.JourneyID)
	require.Equal(t, models.SeverityLow, a.Severity)
	require.False(t, a.Timestamp.IsZero())
	require.Equal(t, MilestoneAlertRaised, out.Timeline[len(out.Timeline)-1].Milestone)

	_, err = e.RaiseAlert(j, models.Alert{Type: "METEOR"}, "system")
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestCompleteStop(t *testing.T) {
	e := testEngine()
	j := journey()

	out, err := e.CompleteStop(j, "S1", models.StopCompleted, "loaded", "ops")
	require.NoError(t, err)
	require.Equal(t, models.StopCompleted, out.Stops[0].Status)
	require.NotNil(t, out.Stops[0].ActualArrival)
	require.Equal(t, "stop-completed", out.Timeline[len(out.Timeline)-1].Milestone)
	require.Equal(t, models.StopPending, j.Stops[0].Status)

	_, err = e.CompleteStop(j, "S9", models.StopSkipped, "", "ops")
	require.ErrorIs(t, err, models.ErrNotFound)

	_, err = e.CompleteStop(j, "S1", models.StopPending, "", "ops")
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestEveryOperationAppendsExactlyOneEvent(t *testing.T) {
	e := testEngine()

	ops := map[string]func(models.Journey) (models.Journey, error){
		"status": func(j models.Journey) (models.Journey, error) {
			return e.UpdateStatus(j, models.StatusEnRouteToLoading, StatusExtra{})
		},
		"submit": func(j models.Journey) (models.Journey, error) {
			return e.SubmitPOD(j, nil, "", "")
		},
		"approve": func(j models.Journey) (models.Journey, error) {
			j.PODStatus = models.PODSubmitted
			return e.ApprovePOD(j, "", "")
		},
		"reject": func(j models.Journey) (models.Journey, error) {
			j.PODStatus = models.PODSubmitted
			return e.RejectPOD(j, "", "")
		},
		"resolve": func(j models.Journey) (models.Journey, error) {
			return e.ResolveAlert(j, "A1", "", "")
		},
		"raise": func(j models.Journey) (models.Journey, error) {
			return e.RaiseAlert(j, models.Alert{Type: models.AlertDiversion}, "")
		},
		"stop": func(j models.Journey) (models.Journey, error) {
			return e.CompleteStop(j, "S1", models.StopSkipped, "", "")
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			in := journey()
			out, err := op(in)
			require.NoError(t, err)
			require.Len(t, out.Timeline, len(in.Timeline)+1)
			require.Equal(t, in.Timeline, out.Timeline[:len(in.Timeline)])
		})
	}
}
