package service

import (
	"context"
	"fmt"
	"time"

	"membership-backend/internal/domain"
	"membership-backend/internal/logger"
	"membership-backend/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// RetrieveCredential hands out the generated password once and erases it.
func (s *admissionService) RetrieveCredential(ctx context.Context, id int32) (*domain.IssuedCredential, error) {
	var issued *domain.IssuedCredential
	err := s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		app, err := tx.Applications().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !app.HasPendingCredential() || app.AccountID == nil {
			return domain.NotFound("no generated credential is waiting for this application")
		}
		acc, err := tx.Accounts().GetByID(ctx, *app.AccountID)
		if err != nil {
			return err
		}

		issued = &domain.IssuedCredential{
			ApplicationID: app.ID,
			Username:      acc.Username,
			Password:      *app.GeneratedCredential,
		}
		app.GeneratedCredential = nil
		app.CredentialIssuedAt = nil
		return tx.Applications().Update(ctx, app)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve credential: %w", err)
	}
	logger.Info("Generated credential retrieved", "applicationID", id)
	return issued, nil
}

// ResetCredential sets a fresh password on the linked account and returns it. Any
// credential still stored on the application is discarded.
func (s *admissionService) ResetCredential(ctx context.Context, id int32) (*domain.IssuedCredential, error) {
	var issued *domain.IssuedCredential
	err := s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		app, err := tx.Applications().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if app.AccountID == nil {
			return domain.Conflict("application has no linked account")
		}
		acc, err := tx.Accounts().GetByID(ctx, *app.AccountID)
		if err != nil {
			return err
		}

		credential, err := generateCredential(s.credentialLength)
		if err != nil {
			return fmt.Errorf("failed to generate credential: %w", err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash credential: %w", err)
		}
		if err := tx.Accounts().UpdatePassword(ctx, acc.ID, string(hash)); err != nil {
			return err
		}

		issued = &domain.IssuedCredential{ApplicationID: app.ID, Username: acc.Username, Password: credential}
		if app.GeneratedCredential == nil {
			return nil
		}
		app.GeneratedCredential = nil
		app.CredentialIssuedAt = nil
		return tx.Applications().Update(ctx, app)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reset credential: %w", err)
	}
	logger.Info("Credential reset", "applicationID", id)
	return issued, nil
}

// ClearStaleCredentials erases generated credentials nobody retrieved in time.
func (s *admissionService) ClearStaleCredentials(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := s.apps.ClearCredentialsIssuedBefore(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to clear stale credentials: %w", err)
	}
	return n, nil
}
