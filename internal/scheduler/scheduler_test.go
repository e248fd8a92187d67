package scheduler

import (
	"testing"

	"membership-backend/internal/config"
	"membership-backend/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduler(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{
		RetryProvisioning:     "0 */15 * * * *",
		ClearStaleCredentials: "0 0 3 * * *",
		ReportStaleDonations:  "0 0 6 * * *",
	}}

	s, err := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, cfg))
	require.NoError(t, err)
	assert.Equal(t, 3, s.EntryCount())

	s.Start()
	s.Stop()
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{
		RetryProvisioning:     "every fifteen minutes",
		ClearStaleCredentials: "0 0 3 * * *",
		ReportStaleDonations:  "0 0 6 * * *",
	}}

	_, err := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, cfg))
	assert.Error(t, err)
}
