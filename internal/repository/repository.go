package repository

import (
	"context"
	"time"

	"membership-backend/internal/domain"
)

type ApplicationRepository interface {
	Create(ctx context.Context, app *domain.MembershipApplication) error
	GetByID(ctx context.Context, id int32) (*domain.MembershipApplication, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.MembershipApplication, error)
	Update(ctx context.Context, app *domain.MembershipApplication) error
	Delete(ctx context.Context, id int32) error
	List(ctx context.Context, filter domain.ApplicationFilter) ([]domain.MembershipApplication, error)
	ListApprovedWithoutAccount(ctx context.Context) ([]domain.MembershipApplication, error)
	ClearCredentialsIssuedBefore(ctx context.Context, before time.Time) (int64, error)
}

// AccountRepository is the identity provider port.
type AccountRepository interface {
	Create(ctx context.Context, acc *domain.Account) error
	GetByID(ctx context.Context, id int32) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	// GetByEmail returns the oldest account with that email (first match wins).
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	SetActive(ctx context.Context, id int32, active bool) error
	UpdatePassword(ctx context.Context, id int32, passwordHash string) error
	AddRole(ctx context.Context, id int32, role domain.Role) error
	HasRole(ctx context.Context, id int32, role domain.Role) (bool, error)
	ListRoles(ctx context.Context, id int32) ([]domain.Role, error)
}

type DonationRepository interface {
	Create(ctx context.Context, order *domain.DonationOrder) error
	GetByID(ctx context.Context, id int32) (*domain.DonationOrder, error)
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.DonationOrder, error)
	AttachPreference(ctx context.Context, id int32, preferenceID string) error
	Settle(ctx context.Context, order *domain.DonationOrder) error
	List(ctx context.Context, page, pageSize int32) ([]domain.DonationOrder, int32, error)
	ListAll(ctx context.Context) ([]domain.DonationOrder, error)
	ListPendingCreatedBefore(ctx context.Context, before time.Time) ([]domain.DonationOrder, error)
}

type ProvisioningFailureRepository interface {
	Create(ctx context.Context, failure *domain.ProvisioningFailure) error
	List(ctx context.Context, limit int32) ([]domain.ProvisioningFailure, error)
}

// Tx exposes repositories bound to one database transaction.
type Tx interface {
	Applications() ApplicationRepository
	Accounts() AccountRepository
	Donations() DonationRepository
	ProvisioningFailures() ProvisioningFailureRepository
	// Savepoint runs fn inside a nested savepoint. When fn fails only its writes are
	// rolled back and the outer transaction stays usable.
	Savepoint(ctx context.Context, name string, fn func() error) error
}

type Transactor interface {
	// WithinTx commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
