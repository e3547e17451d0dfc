package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"tributa/internal/service"
	"tributa/internal/sped"
)

// MockSpedService is a mock implementation of service.SpedService.
type MockSpedService struct {
	mock.Mock
}

func (m *MockSpedService) Generate(ctx context.Context, variant sped.Variant, p sped.Period) (*sped.Result, error) {
	args := m.Called(ctx, variant, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sped.Result), args.Error(1)
}

func (m *MockSpedService) Layouts(year int) []service.Layout {
	args := m.Called(year)
	return args.Get(0).([]service.Layout)
}
