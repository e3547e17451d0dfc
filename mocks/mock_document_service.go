package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"tributa/internal/service"
	"tributa/internal/validator"
)

// MockDocumentService is a mock implementation of service.DocumentService.
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Issue(ctx context.Context, req service.IssueRequest) (*service.IssueResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IssueResult), args.Error(1)
}

func (m *MockDocumentService) Validate(ctx context.Context, payload []byte) (*validator.Report, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*validator.Report), args.Error(1)
}
