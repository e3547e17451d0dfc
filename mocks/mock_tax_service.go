package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"tributa/internal/service"
	"tributa/internal/tax"
)

// MockTaxService is a mock implementation of service.TaxService.
type MockTaxService struct {
	mock.Mock
}

func (m *MockTaxService) Calculate(ctx context.Context, req service.TaxRequest) (*tax.AggregateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tax.AggregateResult), args.Error(1)
}
