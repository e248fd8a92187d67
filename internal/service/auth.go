package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"membership-backend/internal/domain"
	"membership-backend/internal/logger"
	"membership-backend/internal/repository"
	"membership-backend/internal/security"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var ErrInvalidCredentials = domain.NewError(domain.ErrUnauthorized, "invalid username or password")

type authService struct {
	accounts     repository.AccountRepository
	tokenManager security.TokenManager
}

func NewAuthService(accounts repository.AccountRepository, tm security.TokenManager) AuthService {
	return &authService{
		accounts:     accounts,
		tokenManager: tm,
	}
}

func (s *authService) Login(ctx context.Context, username, password string) (string, *domain.Account, error) {
	acc, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !acc.Active {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, acc)
	if err != nil {
		return "", nil, err
	}
	logger.Info("Account logged in", "accountID", acc.ID)
	return token, acc, nil
}

// ChangePassword replaces the caller's password and returns a fresh access token so the
// session keeps working.
func (s *authService) ChangePassword(ctx context.Context, accountID int32, req domain.PasswordChange) (string, error) {
	switch {
	case req.Current == "" || req.New == "" || req.Confirm == "":
		return "", domain.Validation("all password fields are required")
	case req.New != req.Confirm:
		return "", domain.Validation("new password and confirmation do not match")
	case req.New == req.Current:
		return "", domain.Validation("new password must differ from the current password")
	case utf8.RuneCountInString(req.New) < minPasswordLength:
		return "", domain.Validation(fmt.Sprintf("new password must be at least %d characters", minPasswordLength))
	}

	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return "", fmt.Errorf("failed to load account: %w", err)
	}
	if !acc.Active {
		return "", domain.NewError(domain.ErrUnauthorized, "account is inactive")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Current)); err != nil {
		return "", domain.Validation("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.New), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.accounts.UpdatePassword(ctx, acc.ID, string(hash)); err != nil {
		return "", fmt.Errorf("failed to update password: %w", err)
	}

	logger.Info("Password changed", "accountID", acc.ID)
	return s.issueToken(ctx, acc)
}

func (s *authService) issueToken(ctx context.Context, acc *domain.Account) (string, error) {
	roles, err := s.accounts.ListRoles(ctx, acc.ID)
	if err != nil {
		return "", fmt.Errorf("failed to load roles: %w", err)
	}
	acc.Roles = roles
	token, err := s.tokenManager.GenerateAccessToken(acc.ID, acc.Username, domain.RoleNames(roles))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}
