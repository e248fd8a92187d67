package http

import (
	"context"
	"time"

	"membership-backend/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockAdmissionService
type MockAdmissionService struct {
	mock.Mock
}

func (m *MockAdmissionService) Submit(ctx context.Context, app *domain.MembershipApplication) (*domain.MembershipApplication, error) {
	args := m.Called(ctx, app)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MembershipApplication), args.Error(1)
}
func (m *MockAdmissionService) GetApplication(ctx context.Context, id int32) (*domain.MembershipApplication, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MembershipApplication), args.Error(1)
}
func (m *MockAdmissionService) ListApplications(ctx context.Context, filter domain.ApplicationFilter) ([]domain.MembershipApplication, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.MembershipApplication), args.Error(1)
}
func (m *MockAdmissionService) UpdateApplication(ctx context.Context, id int32, update domain.ApplicationUpdate) (*domain.MembershipApplication, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MembershipApplication), args.Error(1)
}
func (m *MockAdmissionService) DeleteApplication(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockAdmissionService) Approve(ctx context.Context, id int32) (*domain.ApprovalResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ApprovalResult), args.Error(1)
}
func (m *MockAdmissionService) Reject(ctx context.Context, id int32) (*domain.MembershipApplication, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MembershipApplication), args.Error(1)
}
func (m *MockAdmissionService) BulkApprove(ctx context.Context, ids []int32) (*domain.BulkResult, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BulkResult), args.Error(1)
}
func (m *MockAdmissionService) BulkReject(ctx context.Context, ids []int32) (*domain.BulkResult, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BulkResult), args.Error(1)
}
func (m *MockAdmissionService) RetrieveCredential(ctx context.Context, id int32) (*domain.IssuedCredential, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IssuedCredential), args.Error(1)
}
func (m *MockAdmissionService) ResetCredential(ctx context.Context, id int32) (*domain.IssuedCredential, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IssuedCredential), args.Error(1)
}
func (m *MockAdmissionService) ListProvisioningFailures(ctx context.Context, limit int32) ([]domain.ProvisioningFailure, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.ProvisioningFailure), args.Error(1)
}
func (m *MockAdmissionService) RetryProvisioning(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
func (m *MockAdmissionService) ClearStaleCredentials(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

// MockPaymentService
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) InitiateCheckout(ctx context.Context, item domain.CheckoutItem) (*domain.CheckoutResult, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckoutResult), args.Error(1)
}
func (m *MockPaymentService) HandleNotification(ctx context.Context, n domain.PaymentNotification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
func (m *MockPaymentService) ListDonations(ctx context.Context, page, pageSize int32) ([]domain.DonationOrder, int32, error) {
	args := m.Called(ctx, page, pageSize)
	return args.Get(0).([]domain.DonationOrder), args.Get(1).(int32), args.Error(2)
}
func (m *MockPaymentService) ExportDonations(ctx context.Context) ([]domain.DonationOrder, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.DonationOrder), args.Error(1)
}
func (m *MockPaymentService) ListStaleDonations(ctx context.Context, olderThan time.Duration) ([]domain.DonationOrder, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).([]domain.DonationOrder), args.Error(1)
}

// MockAuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (string, *domain.Account, error) {
	args := m.Called(ctx, username, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*domain.Account), args.Error(2)
}
func (m *MockAuthService) ChangePassword(ctx context.Context, accountID int32, req domain.PasswordChange) (string, error) {
	args := m.Called(ctx, accountID, req)
	return args.String(0), args.Error(1)
}
