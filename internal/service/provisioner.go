package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"membership-backend/internal/domain"
	"membership-backend/internal/logger"
	"membership-backend/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

const credentialAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Provisioner creates or repairs the account behind an application.
type Provisioner interface {
	// Provision links app to an active account holding the member role. It mutates app
	// (account link, active flag, credential) but does not persist it.
	Provision(ctx context.Context, accounts repository.AccountRepository, app *domain.MembershipApplication) (*domain.ProvisionResult, error)
}

type accountProvisioner struct {
	maxAttempts      int
	credentialLength int
	now              func() time.Time
}

func NewAccountProvisioner(maxAttempts, credentialLength int) Provisioner {
	if maxAttempts <= 0 {
		maxAttempts = 100
	}
	if credentialLength <= 0 {
		credentialLength = 12
	}
	return &accountProvisioner{
		maxAttempts:      maxAttempts,
		credentialLength: credentialLength,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (p *accountProvisioner) Provision(ctx context.Context, accounts repository.AccountRepository, app *domain.MembershipApplication) (*domain.ProvisionResult, error) {
	logger.EnterMethod("accountProvisioner.Provision", "applicationID", app.ID)

	if app.AccountID != nil {
		acc, err := accounts.GetByID(ctx, *app.AccountID)
		switch {
		case err == nil:
			res, err := p.repair(ctx, accounts, app, acc)
			if err != nil {
				logger.ExitMethodWithError("accountProvisioner.Provision", err)
				return nil, err
			}
			logger.ExitMethod("accountProvisioner.Provision", "accountID", acc.ID, "repaired", true)
			return res, nil
		case errors.Is(err, domain.ErrNotFound):
			// Linked account was removed from the identity store; provision from scratch.
			logger.Warn("Linked account missing, provisioning again", "applicationID", app.ID, "accountID", *app.AccountID)
			app.AccountID = nil
		default:
			logger.ExitMethodWithError("accountProvisioner.Provision", err)
			return nil, fmt.Errorf("failed to load linked account: %w", err)
		}
	}

	existing, err := accounts.GetByEmail(ctx, app.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.ExitMethodWithError("accountProvisioner.Provision", err)
		return nil, fmt.Errorf("failed to look up account by email: %w", err)
	}
	if existing != nil {
		res, err := p.repair(ctx, accounts, app, existing)
		if err != nil {
			logger.ExitMethodWithError("accountProvisioner.Provision", err)
			return nil, err
		}
		res.Reused = true
		logger.ExitMethod("accountProvisioner.Provision", "accountID", existing.ID, "reused", true)
		return res, nil
	}

	res, err := p.create(ctx, accounts, app)
	if err != nil {
		logger.ExitMethodWithError("accountProvisioner.Provision", err)
		return nil, err
	}
	logger.ExitMethod("accountProvisioner.Provision", "accountID", res.Account.ID, "created", true)
	return res, nil
}

// repair links acc to app, activates it and makes sure it holds the member role.
func (p *accountProvisioner) repair(ctx context.Context, accounts repository.AccountRepository, app *domain.MembershipApplication, acc *domain.Account) (*domain.ProvisionResult, error) {
	if !acc.Active {
		if err := accounts.SetActive(ctx, acc.ID, true); err != nil {
			return nil, fmt.Errorf("failed to activate account: %w", err)
		}
		acc.Active = true
	}

	hasRole, err := accounts.HasRole(ctx, acc.ID, domain.RoleMember)
	if err != nil {
		return nil, fmt.Errorf("failed to check member role: %w", err)
	}
	if !hasRole {
		if err := accounts.AddRole(ctx, acc.ID, domain.RoleMember); err != nil {
			return nil, fmt.Errorf("failed to grant member role: %w", err)
		}
	}

	app.AccountID = &acc.ID
	app.AccountActive = true
	return &domain.ProvisionResult{Account: acc, RoleGranted: !hasRole}, nil
}

func (p *accountProvisioner) create(ctx context.Context, accounts repository.AccountRepository, app *domain.MembershipApplication) (*domain.ProvisionResult, error) {
	username, err := p.uniqueUsername(ctx, accounts, app.NationalID)
	if err != nil {
		return nil, err
	}

	credential, err := generateCredential(p.credentialLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate credential: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash credential: %w", err)
	}

	first, last := splitFullName(app.FullName)
	acc := &domain.Account{
		Username:     username,
		Email:        app.Email,
		PasswordHash: string(hash),
		FirstName:    first,
		LastName:     last,
		Active:       true,
	}
	if err := accounts.Create(ctx, acc); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	if err := accounts.AddRole(ctx, acc.ID, domain.RoleMember); err != nil {
		return nil, fmt.Errorf("failed to grant member role: %w", err)
	}
	acc.Roles = []domain.Role{domain.RoleMember}

	issuedAt := p.now()
	app.AccountID = &acc.ID
	app.AccountActive = true
	app.GeneratedCredential = &credential
	app.CredentialIssuedAt = &issuedAt

	return &domain.ProvisionResult{
		Account:             acc,
		Created:             true,
		RoleGranted:         true,
		CredentialGenerated: true,
		Credential:          credential,
	}, nil
}

func (p *accountProvisioner) uniqueUsername(ctx context.Context, accounts repository.AccountRepository, nationalID string) (string, error) {
	base := NormalizeHandle(nationalID)
	if base == "" {
		return "", domain.Provisioning("national ID yields an empty username")
	}

	candidate := base
	for suffix := 1; ; suffix++ {
		taken, err := accounts.UsernameExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check username: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		if suffix > p.maxAttempts {
			return "", domain.Provisioning(fmt.Sprintf("could not derive a unique username from %q", base))
		}
		candidate = fmt.Sprintf("%s%d", base, suffix)
	}
}

// NormalizeHandle lowercases s and keeps only letters and digits.
func NormalizeHandle(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func splitFullName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func generateCredential(length int) (string, error) {
	max := big.NewInt(int64(len(credentialAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = credentialAlphabet[n.Int64()]
	}
	return string(buf), nil
}
