package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"tributa/internal/domain"
)

// MockTaxMatrixReader is a mock implementation of port.TaxMatrixReader.
type MockTaxMatrixReader struct {
	mock.Mock
}

func (m *MockTaxMatrixReader) ICMSRate(ctx context.Context, originUF, destinationUF string, at time.Time) (*domain.ICMSMatrixEntry, error) {
	args := m.Called(ctx, originUF, destinationUF, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ICMSMatrixEntry), args.Error(1)
}
