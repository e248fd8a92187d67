package jobs

import (
	"context"

	"membership-backend/internal/logger"
)

// ReportStaleDonations logs pending orders that never received a settling notification.
func (jr *JobRunner) ReportStaleDonations() {
	jr.runWithRecovery("ReportStaleDonations", func() {
		ctx := context.Background()

		orders, err := jr.services.Payments.ListStaleDonations(ctx, jr.config.StaleDonationAge())
		if err != nil {
			logger.Error("Failed to list stale donations", "error", err)
			return
		}

		for _, o := range orders {
			logger.Warn("Donation order still pending",
				"orderID", o.ID,
				"amount", o.Amount.StringFixed(2),
				"preferenceID", o.PreferenceID,
				"createdAt", o.CreatedAt,
			)
		}
		logger.Info("Stale donation report finished", "count", len(orders))
	})
}
