package mocks

import (
	"github.com/stretchr/testify/mock"
	"github.com/vytor/speakflash/internal/worker"
)

// MockSubmitter is a mock implementation of review.Submitter
type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) TrySubmit(job worker.Job) error {
	args := m.Called(job)
	return args.Error(0)
}
