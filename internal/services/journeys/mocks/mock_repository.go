package mocks

import (
	"context"
	"time"

	"github.com/chetanft/Summary-Dashboard-sub000/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a testify mock of journeys.Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateJourney(ctx context.Context, j models.Journey) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func (m *MockRepository) GetJourney(ctx context.Context, id string) (models.Journey, error) {
	args := m.Called(ctx, id)
	j, _ := args.Get(0).(models.Journey)
	return j, args.Error(1)
}

func (m *MockRepository) ListJourneys(ctx context.Context) ([]models.Journey, error) {
	args := m.Called(ctx)
	js, _ := args.Get(0).([]models.Journey)
	return js, args.Error(1)
}

func (m *MockRepository) SaveJourney(ctx context.Context, j models.Journey, prevUpdatedAt time.Time) error {
	args := m.Called(ctx, j, prevUpdatedAt)
	return args.Error(0)
}

func (m *MockRepository) UpsertJourney(ctx context.Context, j models.Journey) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func (m *MockRepository) ListJourneyEvents(ctx context.Context, journeyID string, limit, offset int) ([]models.TimelineEvent, error) {
	args := m.Called(ctx, journeyID, limit, offset)
	evs, _ := args.Get(0).([]models.TimelineEvent)
	return evs, args.Error(1)
}
