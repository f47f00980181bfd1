package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chetanft/Summary-Dashboard-sub000/internal/models"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/services/lifecycle"
	"github.com/pkg/errors"
)

const Actor = "delay-monitor"

// errNoChange прерывает Update без записи, когда свежая копия уже актуальна.
var errNoChange = errors.New("journey unchanged")

type Repository interface {
	ClaimDueJourneys(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]models.Journey, error)
}

// Updater — путь записи (journeys.Service): лок по id, CAS, инвалидация кэша, публикация.
type Updater interface {
	Update(ctx context.Context, id string, fn func(models.Journey) (models.Journey, error)) (models.Journey, error)
	Engine() *lifecycle.Engine
}

// Monitor периодически забирает активные журни (lease = интервал перепроверки),
// пересчитывает isDelayed/delayTime и поднимает один DELAY-алерт на журни.
type Monitor struct {
	repo   Repository
	svc    Updater
	policy *Policy
	now    func() time.Time

	pollInterval time.Duration
	batchSize    int
	concurrency  int
	lease        time.Duration

	triggerCh chan struct{}

	startedAtUnixNano   int64
	lastCycleUnixNano   atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalClaimed        atomic.Int64
	totalProcessed      atomic.Int64
	totalUpdated        atomic.Int64
	alertsRaised        atomic.Int64
	totalErrors         atomic.Int64
	inFlight            atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(repo Repository, svc Updater) *Monitor {
	return &Monitor{
		repo:              repo,
		svc:               svc,
		policy:            NewPolicy(DefaultPolicyConfig()),
		now:               func() time.Time { return time.Now().UTC() },
		pollInterval:      5 * time.Second,
		batchSize:         100,
		concurrency:       10,
		lease:             5 * time.Minute,
		triggerCh:         make(chan struct{}, 1),
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (m *Monitor) WithSettings(pollInterval time.Duration, batchSize, concurrency int, lease time.Duration) *Monitor {
	if pollInterval > 0 {
		m.pollInterval = pollInterval
	}
	if batchSize > 0 {
		m.batchSize = batchSize
	}
	if concurrency > 0 {
		m.concurrency = concurrency
	}
	if lease > 0 {
		m.lease = lease
	}
	return m
}

func (m *Monitor) WithPolicy(cfg PolicyConfig) *Monitor {
	m.policy = NewPolicy(cfg)
	return m
}

func (m *Monitor) WithClock(now func() time.Time) *Monitor {
	if now != nil {
		m.now = now
	}
	return m
}

// Trigger forces an immediate cycle (best-effort, non-blocking).
func (m *Monitor) Trigger() {
	m.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case m.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt      time.Time  `json:"startedAt"`
	LastCycleAt    *time.Time `json:"lastCycleAt,omitempty"`
	LastTriggerAt  *time.Time `json:"lastTriggerAt,omitempty"`
	TotalClaimed   int64      `json:"totalClaimed"`
	TotalProcessed int64      `json:"totalProcessed"`
	TotalUpdated   int64      `json:"totalUpdated"`
	AlertsRaised   int64      `json:"alertsRaised"`
	TotalErrors    int64      `json:"totalErrors"`
	InFlight       int64      `json:"inFlight"`
	LastError      string     `json:"lastError,omitempty"`
}

func (m *Monitor) Stats() Stats {
	st := Stats{
		StartedAt:      time.Unix(0, m.startedAtUnixNano).UTC(),
		TotalClaimed:   m.totalClaimed.Load(),
		TotalProcessed: m.totalProcessed.Load(),
		TotalUpdated:   m.totalUpdated.Load(),
		AlertsRaised:   m.alertsRaised.Load(),
		TotalErrors:    m.totalErrors.Load(),
		InFlight:       m.inFlight.Load(),
	}
	if n := m.lastCycleUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastCycleAt = &t
	}
	if n := m.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	m.lastErrorMu.Lock()
	st.LastError = m.lastError
	m.lastErrorMu.Unlock()
	return st
}

func (m *Monitor) Run(ctx context.Context) error {
	t := time.NewTicker(m.pollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			m.runOnce(ctx)
		case <-m.triggerCh:
			m.runOnce(ctx)
		}
	}
}

func (m *Monitor) runOnce(ctx context.Context) {
	now := m.now()
	m.lastCycleUnixNano.Store(time.Now().UTC().UnixNano())

	items, err := m.repo.ClaimDueJourneys(ctx, now, m.batchSize, m.lease)
	if err != nil {
		slog.Error("claim due journeys", "error", err.Error())
		m.setLastError(err)
		return
	}
	m.totalClaimed.Add(int64(len(items)))

	sem := make(chan struct{}, m.concurrency)
	var wg sync.WaitGroup
	for _, j := range items {
		sem <- struct{}{}
		wg.Add(1)
		m.inFlight.Add(1)
		go func() {
			defer func() {
				m.inFlight.Add(-1)
				<-sem
				wg.Done()
			}()
			if err := m.processOne(ctx, j, now); err != nil {
				m.totalErrors.Add(1)
				m.setLastError(err)
				slog.Error("check journey delay", "journey_id", j.ID, "error", err.Error())
			}
			m.totalProcessed.Add(1)
		}()
	}
	wg.Wait()
}

func (m *Monitor) processOne(ctx context.Context, j models.Journey, now time.Time) error {
	if !m.needsUpdate(&j, now) {
		return nil
	}

	raised := false
	_, err := m.svc.Update(ctx, j.ID, func(cur models.Journey) (models.Journey, error) {
		// claimed копия могла устареть, считаем по свежей
		raised = false
		if !m.needsUpdate(&cur, now) {
			return models.Journey{}, errNoChange
		}
		d, _ := m.policy.Delay(&cur, now)
		out := cur.Clone()
		out.IsDelayed = d > 0
		out.DelayTime = models.FormatDelay(d)
		out.UpdatedAt = now
		if !out.IsDelayed || hasActiveDelayAlert(&cur) {
			return out, nil
		}
		raised = true
		return m.svc.Engine().RaiseAlert(out, models.Alert{
			Type:     models.AlertDelay,
			Severity: m.policy.Severity(d),
			Message:  fmt.Sprintf("journey %s is late by %s", cur.TripID, out.DelayTime),
		}, Actor)
	})
	if errors.Is(err, errNoChange) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "update journey %s", j.ID)
	}
	m.totalUpdated.Add(1)
	if raised {
		m.alertsRaised.Add(1)
		slog.Info("delay alert raised", "journey_id", j.ID, "trip_id", j.TripID)
	}
	return nil
}

func (m *Monitor) needsUpdate(j *models.Journey, now time.Time) bool {
	d, ok := m.policy.Delay(j, now)
	if !ok {
		return false
	}
	late := d > 0
	if late != j.IsDelayed {
		return true
	}
	if !late {
		return false
	}
	return models.FormatDelay(d) != j.DelayTime || !hasActiveDelayAlert(j)
}

func (m *Monitor) setLastError(err error) {
	m.lastErrorMu.Lock()
	m.lastError = err.Error()
	m.lastErrorMu.Unlock()
}

func hasActiveDelayAlert(j *models.Journey) bool {
	for _, a := range j.Alerts {
		if a.Type == models.AlertDelay && !a.IsResolved {
			return true
		}
	}
	return false
}
