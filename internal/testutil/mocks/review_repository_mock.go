package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/speakflash/internal/models"
)

// MockReviewRepository is a mock implementation of repository.ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Insert(ctx context.Context, event models.ReviewEvent) (int64, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReviewRepository) List(ctx context.Context, filter models.ReviewFilter) ([]models.ReviewEvent, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ReviewEvent), args.Error(1)
}
