package journeys

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/cache/rediscache"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/integrations/source/fake"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/models"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/services/lifecycle"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/services/query"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/storage/memjourney"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestService(t *testing.T) (*Service, *clock) {
	t.Helper()
	mr := miniredis.RunT(t)
	clk := &clock{t: time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)}
	svc := New(memjourney.New(), rediscache.New(mr.Addr()), nil, Options{
		StatsTTL:       time.Minute,
		BaselinePeriod: time.Hour,
		Now:            clk.Now,
	})
	return svc, clk
}

func TestService_LifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	svc, clk := newTestService(t)

	j, err := svc.Create(ctx, models.JourneyCreateInput{TripID: "TRIP-1", Type: "FTL", SourceBranch: "BR-PUN"})
	require.NoError(t, err)
	require.NotEmpty(t, j.ID)

	for _, st := range []models.JourneyStatus{
		models.StatusEnRouteToLoading,
		models.StatusAtLoading,
		models.StatusInTransit,
		models.StatusAtUnloading,
		models.StatusDelivered,
	} {
		clk.Advance(time.Hour)
		j, err = svc.UpdateStatus(ctx, j.ID, st, lifecycle.StatusExtra{Actor: "ops"})
		require.NoError(t, err)
	}

	_, err = svc.ApprovePOD(ctx, j.ID, "", "qa")
	require.ErrorIs(t, err, models.ErrInvalidState)

	_, err = svc.SubmitPOD(ctx, j.ID, []models.Document{{Name: "pod.jpg"}}, "", "driver")
	require.NoError(t, err)
	j, err = svc.ApprovePOD(ctx, j.ID, "ok", "qa")
	require.NoError(t, err)
	require.Equal(t, models.PODApproved, j.PODStatus)

	// created + 5 статусов + submit + approve
	got, err := svc.Get(ctx, j.ID)
	require.NoError(t, err)
	require.Len(t, got.Timeline, 8)
	require.Equal(t, models.StatusDelivered, got.Status)

	evs, err := svc.ListEvents(ctx, j.ID, 3, 0)
	require.NoError(t, err)
	require.Len(t, evs, 3)
	require.Equal(t, "pod-approved", evs[0].Milestone)
}

func TestService_ConcurrentWritersDoNotLoseUpdates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	j, err := svc.Create(ctx, models.JourneyCreateInput{TripID: "TRIP-1"})
	require.NoError(t, err)

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RaiseAlert(ctx, j.ID, models.Alert{Type: models.AlertLongStoppage}, "system")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := svc.Get(ctx, j.ID)
	require.NoError(t, err)
	require.Len(t, got.Alerts, writers)
	require.Len(t, got.Timeline, writers+1)
}

func TestService_QueryStatisticsKPIs(t *testing.T) {
	ctx := context.Background()
	svc, clk := newTestService(t)

	demo, err := fake.New("svc", clk.Now(), 30).Journeys(ctx)
	require.NoError(t, err)
	for _, j := range demo {
		require.NoError(t, svc.Ingest(ctx, j))
	}

	res, err := svc.Query(ctx, query.Spec{Page: 2, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 30, res.TotalCount)
	require.Equal(t, 3, res.TotalPages)
	require.Len(t, res.Items, 10)

	st, err := svc.Statistics(ctx, query.Spec{})
	require.NoError(t, err)
	require.Equal(t, 30, st.TotalJourneys)

	k, err := svc.KPIs(ctx)
	require.NoError(t, err)
	require.Equal(t, 30.0, k.TotalJourneys.Value)
	require.Zero(t, k.TotalJourneys.Trend)

	// новая журни сбрасывает кэш статистики; база ещё свежая, тренд считается от неё
	_, err = svc.Create(ctx, models.JourneyCreateInput{TripID: "EXTRA"})
	require.NoError(t, err)
	clk.Advance(2 * time.Hour)

	k, err = svc.KPIs(ctx)
	require.NoError(t, err)
	require.Equal(t, 31.0, k.TotalJourneys.Value)
	require.InDelta(t, 1.0/30.0, k.TotalJourneys.Trend, 1e-9)

	// база сдвинулась на предыдущем вызове
	k, err = svc.KPIs(ctx)
	require.NoError(t, err)
	require.Zero(t, k.TotalJourneys.Trend)
}

func TestService_IngestLastWriterWins(t *testing.T) {
	ctx := context.Background()
	svc, clk := newTestService(t)

	newer := models.Journey{ID: "EXT-1", TripID: "new", UpdatedAt: clk.Now()}
	older := models.Journey{ID: "EXT-1", TripID: "old", UpdatedAt: clk.Now().Add(-time.Hour)}
	require.NoError(t, svc.Ingest(ctx, newer))
	require.NoError(t, svc.Ingest(ctx, older))

	got, err := svc.Get(ctx, "EXT-1")
	require.NoError(t, err)
	require.Equal(t, "new", got.TripID)
}

func TestService_IngestKeepsTimelineAndStatus(t *testing.T) {
	ctx := context.Background()
	svc, clk := newTestService(t)

	j, err := svc.Create(ctx, models.JourneyCreateInput{TripID: "TRIP-1"})
	require.NoError(t, err)
	clk.Advance(time.Minute)
	j, err = svc.UpdateStatus(ctx, j.ID, models.StatusEnRouteToLoading, lifecycle.StatusExtra{Actor: "ops"})
	require.NoError(t, err)
	require.Len(t, j.Timeline, 2)

	// внешний документ свежее, но без нашего таймлайна и со старым статусом
	clk.Advance(time.Minute)
	ext := models.Journey{
		ID:            j.ID,
		TripID:        "TRIP-1",
		VehicleNumber: "MH12AB1234",
		Status:        models.StatusPlanned,
		UpdatedAt:     clk.Now(),
		Timeline: []models.TimelineEvent{
			j.Timeline[0],
			{ID: "ext-1", Milestone: "gps-ping", Timestamp: clk.Now()},
		},
	}
	require.NoError(t, svc.Ingest(ctx, ext))

	got, err := svc.Get(ctx, j.ID)
	require.NoError(t, err)
	require.Len(t, got.Timeline, 3)
	require.Equal(t, j.Timeline[0].ID, got.Timeline[0].ID)
	require.Equal(t, j.Timeline[1].ID, got.Timeline[1].ID)
	require.Equal(t, "ext-1", got.Timeline[2].ID)
	require.Equal(t, models.StatusEnRouteToLoading, got.Status)
	require.Equal(t, "MH12AB1234", got.VehicleNumber)
	require.Equal(t, j.CreatedAt, got.CreatedAt)

	// дальше по потоку статус принимается
	clk.Advance(time.Minute)
	ext.Status = models.StatusAtLoading
	ext.UpdatedAt = clk.Now()
	ext.Timeline = nil
	require.NoError(t, svc.Ingest(ctx, ext))
	got, err = svc.Get(ctx, j.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusAtLoading, got.Status)
	require.Len(t, got.Timeline, 3)
}
