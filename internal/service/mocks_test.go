package service_test

import (
	"context"

	"membership-backend/internal/domain"
	"membership-backend/internal/gateway"
	"membership-backend/internal/repository"

	"github.com/stretchr/testify/mock"
)

// MockGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreatePreference(ctx context.Context, req gateway.PreferenceRequest) (*gateway.Preference, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Preference), args.Error(1)
}
func (m *MockGateway) GetPayment(ctx context.Context, paymentID string) (*gateway.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Payment), args.Error(1)
}

// MockProvisioner
type MockProvisioner struct {
	mock.Mock
}

func (m *MockProvisioner) Provision(ctx context.Context, accounts repository.AccountRepository, app *domain.MembershipApplication) (*domain.ProvisionResult, error) {
	args := m.Called(ctx, accounts, app)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProvisionResult), args.Error(1)
}
