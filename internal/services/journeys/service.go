package journeys

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/chetanft/Summary-Dashboard-sub000/internal/broker/messages"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/cache"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/models"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/services/lifecycle"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/services/query"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/services/stats"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	statsKey    = "journeys:statistics"
	baselineKey = "journeys:kpi:baseline"

	MilestoneCreated = "created"
)

type Repository interface {
	CreateJourney(ctx context.Context, j models.Journey) error
	GetJourney(ctx context.Context, id string) (models.Journey, error)
	ListJourneys(ctx context.Context) ([]models.Journey, error)
	SaveJourney(ctx context.Context, j models.Journey, prevUpdatedAt time.Time) error
	UpsertJourney(ctx context.Context, j models.Journey) error
	ListJourneyEvents(ctx context.Context, journeyID string, limit, offset int) ([]models.TimelineEvent, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type Options struct {
	// UpdatedTopic — куда публиковать journey.updated. Пусто — не публикуем.
	UpdatedTopic   string
	// StatsTTL — сколько держать в кэше статистику по всей коллекции. 0 — не кэшируем.
	StatsTTL       time.Duration
	// BaselinePeriod — как часто сдвигается база для трендов KPI.
	BaselinePeriod time.Duration
	KPIDefinitions stats.Definitions

	Now   func() time.Time
	NewID func() string
}

type Service struct {
	repo   Repository
	cache  cache.BytesCache
	pub    Publisher
	engine *lifecycle.Engine
	opts   Options
	locks  *keyedMutex
	valid  *validator.Validate
}

func New(repo Repository, c cache.BytesCache, pub Publisher, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.BaselinePeriod <= 0 {
		opts.BaselinePeriod = 24 * time.Hour
	}
	if opts.KPIDefinitions == nil {
		opts.KPIDefinitions = stats.DefaultDefinitions()
	}
	return &Service{
		repo:   repo,
		cache:  c,
		pub:    pub,
		engine: lifecycle.NewWithClock(opts.Now, opts.NewID),
		opts:   opts,
		locks:  newKeyedMutex(),
		valid:  validator.New(),
	}
}

func (s *Service) Create(ctx context.Context, in models.JourneyCreateInput) (models.Journey, error) {
	if err := s.valid.Struct(in); err != nil {
		return models.Journey{}, errors.Wrap(models.ErrValidation, err.Error())
	}
	if in.ExpectedDeparture != nil && in.ExpectedArrival != nil && in.ExpectedArrival.Before(*in.ExpectedDeparture) {
		return models.Journey{}, errors.Wrap(models.ErrValidation, "expectedArrival is before expectedDeparture")
	}

	now := s.opts.Now()
	j := models.NewJourney(s.opts.NewID(), in, now)
	for i := range j.Stops {
		if j.Stops[i].ID == "" {
			j.Stops[i].ID = s.opts.NewID()
		}
	}
	j.Timeline = append(j.Timeline, models.TimelineEvent{
		ID:        s.opts.NewID(),
		JourneyID: j.ID,
		Milestone: MilestoneCreated,
		Timestamp: now,
		Location:  j.From.Location,
		Documents: []string{},
		CreatedBy: in.CreatedBy,
	})

	if err := s.repo.CreateJourney(ctx, j); err != nil {
		return models.Journey{}, err
	}
	s.afterWrite(ctx, messages.KindCreated, j)
	return j, nil
}

func (s *Service) Get(ctx context.Context, id string) (models.Journey, error) {
	if id == "" {
		return models.Journey{}, errors.Wrap(models.ErrValidation, "journey id is required")
	}
	return s.repo.GetJourney(ctx, id)
}

func (s *Service) ListEvents(ctx context.Context, id string, limit, offset int) ([]models.TimelineEvent, error) {
	return s.repo.ListJourneyEvents(ctx, id, limit, offset)
}

// Query validates the spec up-front; the engine itself never fails.
func (s *Service) Query(ctx context.Context, spec query.Spec) (query.Result, error) {
	if err := query.Validate(spec); err != nil {
		return query.Result{}, err
	}
	all, err := s.repo.ListJourneys(ctx)
	if err != nil {
		return query.Result{}, err
	}
	return query.Query(all, spec), nil
}

// Statistics aggregates over the journeys matching spec's filters; pagination is ignored.
// Статистика по всей коллекции кэшируется на StatsTTL.
func (s *Service) Statistics(ctx context.Context, spec query.Spec) (stats.Statistics, error) {
	if err := query.Validate(spec); err != nil {
		return stats.Statistics{}, err
	}
	whole := isUnfiltered(spec)
	if whole {
		if st, ok := s.cachedStatistics(ctx); ok {
			return st, nil
		}
	}

	all, err := s.repo.ListJourneys(ctx)
	if err != nil {
		return stats.Statistics{}, err
	}
	st := stats.Compute(query.Filter(all, spec))

	if whole && s.cache != nil && s.opts.StatsTTL > 0 {
		b, _ := json.Marshal(st)
		_ = s.cache.Set(ctx, statsKey, b, s.opts.StatsTTL)
	}
	return st, nil
}

// KPIs считает значения по всей коллекции и тренды относительно базового снимка из кэша.
// Если базы нет, она создаётся и тренды равны 0. Когда база старше BaselinePeriod,
// тренд ещё считается от неё, а затем база заменяется текущим снимком.
func (s *Service) KPIs(ctx context.Context) (stats.KPIs, error) {
	st, err := s.Statistics(ctx, query.Spec{})
	if err != nil {
		return stats.KPIs{}, err
	}
	now := s.opts.Now()
	baseline := s.loadBaseline(ctx)
	kpis := stats.ComputeKPIs(st, baseline, s.opts.KPIDefinitions)

	if baseline == nil || now.Sub(baseline.TakenAt) >= s.opts.BaselinePeriod {
		s.storeBaseline(ctx, stats.SnapshotOf(st, now))
	}
	return kpis, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, to models.JourneyStatus, extra lifecycle.StatusExtra) (models.Journey, error) {
	return s.Update(ctx, id, func(j models.Journey) (models.Journey, error) {
		return s.engine.UpdateStatus(j, to, extra)
	})
}

func (s *Service) SubmitPOD(ctx context.Context, id string, docs []models.Document, notes, actor string) (models.Journey, error) {
	return s.Update(ctx, id, func(j models.Journey) (models.Journey, error) {
		return s.engine.SubmitPOD(j, docs, notes, actor)
	})
}

func (s *Service) ApprovePOD(ctx context.Context, id, notes, actor string) (models.Journey, error) {
	return s.Update(ctx, id, func(j models.Journey) (models.Journey, error) {
		return s.engine.ApprovePOD(j, notes, actor)
	})
}

func (s *Service) RejectPOD(ctx context.Context, id, reason, actor string) (models.Journey, error) {
	return s.Update(ctx, id, func(j models.Journey) (models.Journey, error) {
		return s.engine.RejectPOD(j, reason, actor)
	})
}

func (s *Service) ResolveAlert(ctx context.Context, id, alertID, notes, actor string) (models.Journey, error) {
	return s.Update(ctx, id, func(j models.Journey) (models.Journey, error) {
		return s.engine.ResolveAlert(j, alertID, notes, actor)
	})
}

func (s *Service) RaiseAlert(ctx context.Context, id string, a models.Alert, actor string) (models.Journey, error) {
	return s.Update(ctx, id, func(j models.Journey) (models.Journey, error) {
		return s.engine.RaiseAlert(j, a, actor)
	})
}

func (s *Service) CompleteStop(ctx context.Context, id, stopID string, status models.StopStatus, notes, actor string) (models.Journey, error) {
	return s.Update(ctx, id, func(j models.Journey) (models.Journey, error) {
		return s.engine.CompleteStop(j, stopID, status, notes, actor)
	})
}

// Engine exposes the lifecycle engine so callers of Update can chain operations.
func (s *Service) Engine() *lifecycle.Engine { return s.engine }

// Update — единственный путь записи: читает журни под локом по id, применяет fn
// и сохраняет через CAS по updatedAt. fn не должен менять свой аргумент.
func (s *Service) Update(ctx context.Context, id string, fn func(models.Journey) (models.Journey, error)) (models.Journey, error) {
	if id == "" {
		return models.Journey{}, errors.Wrap(models.ErrValidation, "journey id is required")
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	cur, err := s.repo.GetJourney(ctx, id)
	if err != nil {
		return models.Journey{}, err
	}
	next, err := fn(cur)
	if err != nil {
		return models.Journey{}, err
	}
	// CAS требует, чтобы updatedAt строго рос
	if !next.UpdatedAt.After(cur.UpdatedAt) {
		next.UpdatedAt = cur.UpdatedAt.Add(time.Microsecond)
	}

	if err := s.repo.SaveJourney(ctx, next, cur.UpdatedAt); err != nil {
		return models.Journey{}, err
	}
	s.afterWrite(ctx, messages.KindUpdated, next)
	return next, nil
}

// Ingest принимает журни из внешнего источника (kafka journey.ingest, демо-данные).
// Побеждает запись с более поздним updatedAt.
func (s *Service) Ingest(ctx context.Context, j models.Journey) error {
	if j.ID == "" {
		return errors.Wrap(models.ErrValidation, "journey id is required")
	}
	j.Normalize()
	now := s.opts.Now()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	if j.UpdatedAt.IsZero() {
		j.UpdatedAt = j.CreatedAt
	}
	for i := range j.Timeline {
		if j.Timeline[i].ID == "" {
			j.Timeline[i].ID = s.opts.NewID()
		}
	}

	unlock := s.locks.Lock(j.ID)
	defer unlock()

	cur, err := s.repo.GetJourney(ctx, j.ID)
	switch {
	case errors.Is(err, models.ErrNotFound):
	case err != nil:
		return err
	case !cur.UpdatedAt.Before(j.UpdatedAt):
		return nil
	default:
		j = mergeIngested(cur, j)
	}

	if err := s.repo.UpsertJourney(ctx, j); err != nil {
		return err
	}
	s.afterWrite(ctx, messages.KindIngested, j)
	return nil
}

// mergeIngested накладывает более свежий внешний документ на сохранённый.
// Таймлайн только дописывается: события с уже известными id пропускаются.
// Статус назад по потоку не откатывается.
func mergeIngested(cur, in models.Journey) models.Journey {
	seen := make(map[string]struct{}, len(cur.Timeline))
	timeline := make([]models.TimelineEvent, 0, len(cur.Timeline)+len(in.Timeline))
	for _, e := range cur.Timeline {
		seen[e.ID] = struct{}{}
		timeline = append(timeline, e)
	}
	for _, e := range in.Timeline {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		timeline = append(timeline, e)
	}
	in.Timeline = timeline

	if in.Status.Index() < cur.Status.Index() {
		in.Status = cur.Status
		in.StatusText = cur.StatusText
	}
	in.CreatedAt = cur.CreatedAt
	return in
}

func (s *Service) afterWrite(ctx context.Context, kind string, j models.Journey) {
	if s.cache != nil && s.opts.StatsTTL > 0 {
		if err := s.cache.Del(ctx, statsKey); err != nil {
			slog.Warn("invalidate statistics cache", "err", err)
		}
	}
	if s.pub == nil || s.opts.UpdatedTopic == "" {
		return
	}
	b, err := json.Marshal(messages.NewJourneyUpdated(kind, j))
	if err != nil {
		slog.Error("marshal journey.updated", "journey_id", j.ID, "err", err)
		return
	}
	// запись уже закоммичена; падение брокера не откатывает её
	if err := s.pub.Publish(ctx, s.opts.UpdatedTopic, []byte(j.ID), b); err != nil {
		slog.Warn("publish journey.updated", "journey_id", j.ID, "kind", kind, "err", err)
	}
}

func (s *Service) cachedStatistics(ctx context.Context) (stats.Statistics, bool) {
	if s.cache == nil || s.opts.StatsTTL <= 0 {
		return stats.Statistics{}, false
	}
	b, ok, err := s.cache.Get(ctx, statsKey)
	if err != nil || !ok {
		return stats.Statistics{}, false
	}
	var st stats.Statistics
	if json.Unmarshal(b, &st) != nil {
		return stats.Statistics{}, false
	}
	return st, true
}

func (s *Service) loadBaseline(ctx context.Context) *stats.Snapshot {
	if s.cache == nil {
		return nil
	}
	b, ok, err := s.cache.Get(ctx, baselineKey)
	if err != nil {
		slog.Warn("load kpi baseline", "err", err)
		return nil
	}
	if !ok {
		return nil
	}
	var snap stats.Snapshot
	if json.Unmarshal(b, &snap) != nil {
		return nil
	}
	return &snap
}

func (s *Service) storeBaseline(ctx context.Context, snap stats.Snapshot) {
	if s.cache == nil {
		return
	}
	b, _ := json.Marshal(snap)
	if err := s.cache.Set(ctx, baselineKey, b, 0); err != nil {
		slog.Warn("store kpi baseline", "err", err)
	}
}

func isUnfiltered(spec query.Spec) bool {
	return spec.Type == "" && spec.Status == "" && spec.SourceBranch == "" && spec.DestinationBranch == "" &&
		spec.FromDate == nil && spec.ToDate == nil && spec.Search == ""
}
