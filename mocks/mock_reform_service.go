package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"tributa/internal/reform"
)

// MockReformService is a mock implementation of service.ReformService.
type MockReformService struct {
	mock.Mock
}

func (m *MockReformService) Calculate(ctx context.Context, in reform.Input) (*reform.Result, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reform.Result), args.Error(1)
}

func (m *MockReformService) Compare(ctx context.Context, in reform.CompareInput) (*reform.Comparison, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reform.Comparison), args.Error(1)
}
