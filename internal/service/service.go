package service

import (
	"context"
	"time"

	"membership-backend/internal/domain"
)

type AdmissionService interface {
	Submit(ctx context.Context, app *domain.MembershipApplication) (*domain.MembershipApplication, error)
	GetApplication(ctx context.Context, id int32) (*domain.MembershipApplication, error)
	ListApplications(ctx context.Context, filter domain.ApplicationFilter) ([]domain.MembershipApplication, error)
	UpdateApplication(ctx context.Context, id int32, update domain.ApplicationUpdate) (*domain.MembershipApplication, error)
	DeleteApplication(ctx context.Context, id int32) error
	Approve(ctx context.Context, id int32) (*domain.ApprovalResult, error)
	Reject(ctx context.Context, id int32) (*domain.MembershipApplication, error)
	BulkApprove(ctx context.Context, ids []int32) (*domain.BulkResult, error)
	BulkReject(ctx context.Context, ids []int32) (*domain.BulkResult, error)
	RetrieveCredential(ctx context.Context, id int32) (*domain.IssuedCredential, error)
	ResetCredential(ctx context.Context, id int32) (*domain.IssuedCredential, error)
	ListProvisioningFailures(ctx context.Context, limit int32) ([]domain.ProvisioningFailure, error)
	RetryProvisioning(ctx context.Context) (int, error)
	ClearStaleCredentials(ctx context.Context, olderThan time.Duration) (int64, error)
}

type PaymentService interface {
	InitiateCheckout(ctx context.Context, item domain.CheckoutItem) (*domain.CheckoutResult, error)
	HandleNotification(ctx context.Context, n domain.PaymentNotification) error
	ListDonations(ctx context.Context, page, pageSize int32) ([]domain.DonationOrder, int32, error)
	ExportDonations(ctx context.Context) ([]domain.DonationOrder, error)
	ListStaleDonations(ctx context.Context, olderThan time.Duration) ([]domain.DonationOrder, error)
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (string, *domain.Account, error)
	ChangePassword(ctx context.Context, accountID int32, req domain.PasswordChange) (string, error)
}
