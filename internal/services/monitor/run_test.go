package monitor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chetanft/Summary-Dashboard-sub000/internal/models"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	calls atomic.Int64
}

func (r *countingRepo) ClaimDueJourneys(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]models.Journey, error) {
	r.calls.Add(1)
	return []models.Journey{}, nil
}

func TestMonitor_Run_StopsOnContextCancel(t *testing.T) {
	repo := &countingRepo{}
	m := New(repo, nil).WithSettings(5*time.Millisecond, 1, 1, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := m.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.GreaterOrEqual(t, repo.calls.Load(), int64(1))
}

func TestMonitor_TriggerRunsCycle(t *testing.T) {
	repo := &countingRepo{}
	m := New(repo, nil).WithSettings(time.Hour, 1, 1, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	m.Trigger()
	require.Eventually(t, func() bool { return repo.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	require.NotNil(t, m.Stats().LastTriggerAt)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
