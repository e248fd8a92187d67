package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"membership-backend/internal/domain"
	"membership-backend/internal/logger"
	"membership-backend/internal/repository"
)

// Stages recorded with provisioning failures.
const (
	StageSubmit      = "submit"
	StageApprove     = "approve"
	StageBulkApprove = "bulk_approve"
	StageRetry       = "retry"
)

type admissionService struct {
	apps             repository.ApplicationRepository
	accounts         repository.AccountRepository
	failures         repository.ProvisioningFailureRepository
	tx               repository.Transactor
	provisioner      Provisioner
	credentialLength int
	now              func() time.Time
}

func NewAdmissionService(
	apps repository.ApplicationRepository,
	accounts repository.AccountRepository,
	failures repository.ProvisioningFailureRepository,
	tx repository.Transactor,
	provisioner Provisioner,
	credentialLength int,
) AdmissionService {
	if credentialLength <= 0 {
		credentialLength = 12
	}
	return &admissionService{
		apps:             apps,
		accounts:         accounts,
		failures:         failures,
		tx:               tx,
		provisioner:      provisioner,
		credentialLength: credentialLength,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *admissionService) Submit(ctx context.Context, app *domain.MembershipApplication) (*domain.MembershipApplication, error) {
	logger.EnterMethod("admissionService.Submit", "email", app.Email)

	normalizeApplication(app)
	app.ID = 0
	app.Status = domain.ApplicationStatusPending
	app.AccountID = nil
	app.AccountActive = false
	app.GeneratedCredential = nil
	app.CredentialIssuedAt = nil

	if err := s.apps.Create(ctx, app); err != nil {
		logger.ExitMethodWithError("admissionService.Submit", err)
		return nil, fmt.Errorf("failed to submit application: %w", err)
	}

	// Account provisioning never fails the submission.
	if err := s.provisionBestEffort(ctx, app.ID, StageSubmit); err != nil {
		logger.Warn("Provisioning after submission failed", "applicationID", app.ID, "error", err)
	}

	created, err := s.apps.GetByID(ctx, app.ID)
	if err != nil {
		logger.Warn("Failed to reload submitted application", "applicationID", app.ID, "error", err)
		created = app
	}
	logger.ExitMethod("admissionService.Submit", "applicationID", created.ID)
	return created, nil
}

func (s *admissionService) provisionBestEffort(ctx context.Context, id int32, stage string) error {
	var provisionErr error
	err := s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		app, err := tx.Applications().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if _, provisionErr = s.provisionInTx(ctx, tx, app, stage); provisionErr != nil {
			return nil
		}
		return tx.Applications().Update(ctx, app)
	})
	if err != nil {
		return err
	}
	return provisionErr
}

// provisionInTx runs the provisioner inside a savepoint. On failure app is restored, the
// failure is recorded and the surrounding transaction stays usable.
func (s *admissionService) provisionInTx(ctx context.Context, tx repository.Tx, app *domain.MembershipApplication, stage string) (*domain.ProvisionResult, error) {
	snapshot := *app
	var res *domain.ProvisionResult
	err := tx.Savepoint(ctx, "provision", func() error {
		var err error
		res, err = s.provisioner.Provision(ctx, tx.Accounts(), app)
		return err
	})
	if err != nil {
		*app = snapshot
		s.recordFailure(ctx, tx.ProvisioningFailures(), app.ID, stage, err)
		return nil, err
	}
	return res, nil
}

func (s *admissionService) recordFailure(ctx context.Context, repo repository.ProvisioningFailureRepository, appID int32, stage string, cause error) {
	logger.Error("Account provisioning failed", "applicationID", appID, "stage", stage, "error", cause)
	failure := &domain.ProvisioningFailure{
		ApplicationID: appID,
		Stage:         stage,
		Reason:        cause.Error(),
	}
	if err := repo.Create(ctx, failure); err != nil {
		logger.Error("Failed to record provisioning failure", "applicationID", appID, "error", err)
	}
}

func (s *admissionService) GetApplication(ctx context.Context, id int32) (*domain.MembershipApplication, error) {
	return s.apps.GetByID(ctx, id)
}

func (s *admissionService) ListApplications(ctx context.Context, filter domain.ApplicationFilter) ([]domain.MembershipApplication, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.Validation(fmt.Sprintf("unknown status %q", filter.Status))
	}
	return s.apps.List(ctx, filter)
}

func (s *admissionService) UpdateApplication(ctx context.Context, id int32, update domain.ApplicationUpdate) (*domain.MembershipApplication, error) {
	var app *domain.MembershipApplication
	err := s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		app, err = tx.Applications().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		update.Apply(app)
		normalizeApplication(app)
		return tx.Applications().Update(ctx, app)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update application: %w", err)
	}
	return app, nil
}

func (s *admissionService) DeleteApplication(ctx context.Context, id int32) error {
	if err := s.apps.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	logger.Info("Application deleted", "applicationID", id)
	return nil
}

func (s *admissionService) Approve(ctx context.Context, id int32) (*domain.ApprovalResult, error) {
	return s.approve(ctx, id, StageApprove)
}

func (s *admissionService) approve(ctx context.Context, id int32, stage string) (*domain.ApprovalResult, error) {
	logger.EnterMethod("admissionService.Approve", "applicationID", id, "stage", stage)

	var (
		result       *domain.ApprovalResult
		provisionErr error
	)
	err := s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		app, err := tx.Applications().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		switch app.Status {
		case domain.ApplicationStatusApproved:
			result = &domain.ApprovalResult{
				Application:     app,
				AccountActive:   app.AccountActive,
				AlreadyApproved: true,
			}
			if app.AccountID != nil {
				if acc, err := tx.Accounts().GetByID(ctx, *app.AccountID); err == nil {
					result.Username = acc.Username
				}
			}
			return nil
		case domain.ApplicationStatusRejected:
			return domain.Conflict("application has already been rejected")
		}

		app.Status = domain.ApplicationStatusApproved
		res, err := s.provisionInTx(ctx, tx, app, stage)
		provisionErr = err
		// A single approve shows the password in its response, so nothing is kept for
		// RetrieveCredential. Bulk approvals leave it stored for later retrieval.
		showPassword := stage == StageApprove && res != nil && res.CredentialGenerated
		if showPassword {
			app.GeneratedCredential = nil
			app.CredentialIssuedAt = nil
		}
		if err := tx.Applications().Update(ctx, app); err != nil {
			return err
		}

		result = &domain.ApprovalResult{Application: app, AccountActive: app.AccountActive}
		if res != nil {
			result.Username = res.Account.Username
			result.RoleGranted = res.RoleGranted
			result.CredentialGenerated = res.CredentialGenerated
			if showPassword {
				result.Password = res.Credential
			}
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("admissionService.Approve", err)
		return nil, fmt.Errorf("failed to approve application: %w", err)
	}
	if provisionErr != nil {
		logger.ExitMethodWithError("admissionService.Approve", provisionErr)
		return nil, domain.Provisioning("application approved but the account could not be provisioned: " +
			domain.Message(provisionErr, "internal error"))
	}

	logger.ExitMethod("admissionService.Approve", "applicationID", id, "alreadyApproved", result.AlreadyApproved)
	return result, nil
}

func (s *admissionService) Reject(ctx context.Context, id int32) (*domain.MembershipApplication, error) {
	var app *domain.MembershipApplication
	err := s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		app, err = tx.Applications().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		switch app.Status {
		case domain.ApplicationStatusRejected:
			return nil
		case domain.ApplicationStatusApproved:
			return domain.Conflict("application has already been approved")
		}
		app.Status = domain.ApplicationStatusRejected
		return tx.Applications().Update(ctx, app)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reject application: %w", err)
	}
	logger.Info("Application rejected", "applicationID", id)
	return app, nil
}

func (s *admissionService) BulkApprove(ctx context.Context, ids []int32) (*domain.BulkResult, error) {
	return s.bulk(ctx, ids, func(id int32) error {
		_, err := s.approve(ctx, id, StageBulkApprove)
		return err
	})
}

func (s *admissionService) BulkReject(ctx context.Context, ids []int32) (*domain.BulkResult, error) {
	return s.bulk(ctx, ids, func(id int32) error {
		_, err := s.Reject(ctx, id)
		return err
	})
}

// bulk applies fn to every matching pending application. A failing record never stops
// the others.
func (s *admissionService) bulk(ctx context.Context, ids []int32, fn func(id int32) error) (*domain.BulkResult, error) {
	apps, err := s.apps.List(ctx, domain.ApplicationFilter{Status: domain.ApplicationStatusPending, IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending applications: %w", err)
	}

	result := &domain.BulkResult{Matched: len(apps)}
	for _, app := range apps {
		if err := fn(app.ID); err != nil {
			logger.Warn("Bulk action failed for application", "applicationID", app.ID, "error", err)
			result.Failed++
			result.Failures = append(result.Failures, domain.BulkFailure{
				ApplicationID: app.ID,
				Error:         domain.Message(err, err.Error()),
			})
			continue
		}
		result.Succeeded++
	}
	logger.Info("Bulk action finished", "matched", result.Matched, "succeeded", result.Succeeded, "failed", result.Failed)
	return result, nil
}

func (s *admissionService) ListProvisioningFailures(ctx context.Context, limit int32) ([]domain.ProvisioningFailure, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.failures.List(ctx, limit)
}

// RetryProvisioning provisions approved applications that are still missing an account.
func (s *admissionService) RetryProvisioning(ctx context.Context) (int, error) {
	apps, err := s.apps.ListApprovedWithoutAccount(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list approved applications without account: %w", err)
	}

	provisioned := 0
	for _, app := range apps {
		if err := s.provisionBestEffort(ctx, app.ID, StageRetry); err != nil {
			logger.Warn("Provisioning retry failed", "applicationID", app.ID, "error", err)
			continue
		}
		provisioned++
	}
	return provisioned, nil
}

func normalizeApplication(app *domain.MembershipApplication) {
	app.FullName = strings.Join(strings.Fields(app.FullName), " ")
	app.NationalID = strings.TrimSpace(app.NationalID)
	app.Email = strings.TrimSpace(app.Email)
	app.Phone = strings.TrimSpace(app.Phone)
	if app.Profession != nil {
		p := strings.TrimSpace(*app.Profession)
		if p == "" {
			app.Profession = nil
		} else {
			app.Profession = &p
		}
	}
}
