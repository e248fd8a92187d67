package jobs

import (
	"context"

	"membership-backend/internal/logger"
)

// RetryProvisioning provisions accounts for approved applications that still have none.
func (jr *JobRunner) RetryProvisioning() {
	jr.runWithRecovery("RetryProvisioning", func() {
		ctx := context.Background()

		count, err := jr.services.Admission.RetryProvisioning(ctx)
		if err != nil {
			logger.Error("Failed to retry provisioning", "error", err)
			return
		}
		logger.Info("Provisioning retried", "provisioned", count)
	})
}

// ClearStaleCredentials erases generated credentials nobody retrieved in time.
func (jr *JobRunner) ClearStaleCredentials() {
	jr.runWithRecovery("ClearStaleCredentials", func() {
		ctx := context.Background()

		cleared, err := jr.services.Admission.ClearStaleCredentials(ctx, jr.config.CredentialTTL())
		if err != nil {
			logger.Error("Failed to clear stale credentials", "error", err)
			return
		}
		logger.Info("Stale credentials cleared", "count", cleared)
	})
}
