package memjourney

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/chetanft/Summary-Dashboard-sub000/internal/models"
	"github.com/pkg/errors"
)

// Storage — хранилище журни в памяти: для тестов и демо-режима без postgres.
// Наружу всегда отдаются копии.
type Storage struct {
	mu        sync.RWMutex
	journeys  map[string]models.Journey
	nextCheck map[string]time.Time
}

func New() *Storage {
	return &Storage{
		journeys:  make(map[string]models.Journey),
		nextCheck: make(map[string]time.Time),
	}
}

func (s *Storage) CreateJourney(ctx context.Context, j models.Journey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.journeys[j.ID]; ok {
		return errors.Wrapf(models.ErrConflict, "journey %s already exists", j.ID)
	}
	s.journeys[j.ID] = j.Clone()
	s.nextCheck[j.ID] = j.CreatedAt
	return nil
}

func (s *Storage) GetJourney(ctx context.Context, id string) (models.Journey, error) {
	if err := ctx.Err(); err != nil {
		return models.Journey{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.journeys[id]
	if !ok {
		return models.Journey{}, errors.Wrapf(models.ErrNotFound, "journey %s", id)
	}
	return j.Clone(), nil
}

// ListJourneys returns copies, newest first.
func (s *Storage) ListJourneys(ctx context.Context) ([]models.Journey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Journey, 0, len(s.journeys))
	for _, j := range s.journeys {
		out = append(out, j.Clone())
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Storage) SaveJourney(ctx context.Context, j models.Journey, prevUpdatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.journeys[j.ID]
	if !ok {
		return errors.Wrapf(models.ErrNotFound, "journey %s", j.ID)
	}
	if !cur.UpdatedAt.Equal(prevUpdatedAt) {
		return errors.Wrapf(models.ErrConflict, "journey %s", j.ID)
	}
	s.journeys[j.ID] = j.Clone()
	return nil
}

func (s *Storage) UpsertJourney(ctx context.Context, j models.Journey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.journeys[j.ID]; ok {
		if !cur.UpdatedAt.Before(j.UpdatedAt) {
			return nil
		}
	} else {
		s.nextCheck[j.ID] = time.Now().UTC()
	}
	s.journeys[j.ID] = j.Clone()
	return nil
}

func (s *Storage) ClaimDueJourneys(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]models.Journey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	due := make([]models.Journey, 0)
	for id, j := range s.journeys {
		if j.Status == models.StatusDelivered || s.nextCheck[id].After(now) {
			continue
		}
		due = append(due, j)
	}
	sort.Slice(due, func(a, b int) bool {
		ta, tb := s.nextCheck[due[a].ID], s.nextCheck[due[b].ID]
		if !ta.Equal(tb) {
			return ta.Before(tb)
		}
		return due[a].ID < due[b].ID
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	out := make([]models.Journey, 0, len(due))
	for _, j := range due {
		s.nextCheck[j.ID] = now.Add(lease)
		out = append(out, j.Clone())
	}
	return out, nil
}

func (s *Storage) ListJourneyEvents(ctx context.Context, journeyID string, limit, offset int) ([]models.TimelineEvent, error) {
	j, err := s.GetJourney(ctx, journeyID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	// при равном времени позже добавленное событие идёт первым
	evs := make([]models.TimelineEvent, 0, len(j.Timeline))
	for i := len(j.Timeline) - 1; i >= 0; i-- {
		evs = append(evs, j.Timeline[i])
	}
	sort.SliceStable(evs, func(a, b int) bool { return evs[a].Timestamp.After(evs[b].Timestamp) })
	if offset >= len(evs) {
		return []models.TimelineEvent{}, nil
	}
	end := offset + limit
	if end > len(evs) {
		end = len(evs)
	}
	return evs[offset:end], nil
}

func sortNewestFirst(js []models.Journey) {
	sort.SliceStable(js, func(a, b int) bool {
		if !js[a].CreatedAt.Equal(js[b].CreatedAt) {
			return js[a].CreatedAt.After(js[b].CreatedAt)
		}
		return js[a].ID < js[b].ID
	})
}
