package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockPublisher is a testify mock of journeys.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, key, value []byte) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}
