package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"tributa/internal/domain"
)

// MockReformRateReader is a mock implementation of port.ReformRateReader.
type MockReformRateReader struct {
	mock.Mock
}

func (m *MockReformRateReader) PhaseAt(ctx context.Context, at time.Time) (*domain.ReformPhase, error) {
	args := m.Called(ctx, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReformPhase), args.Error(1)
}

func (m *MockReformRateReader) ClassificationReductions(ctx context.Context, at time.Time) ([]domain.ClassificationReduction, error) {
	args := m.Called(ctx, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ClassificationReduction), args.Error(1)
}
