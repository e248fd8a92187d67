package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"membership-backend/internal/config"
	"membership-backend/internal/domain"
	"membership-backend/internal/service"

	"github.com/stretchr/testify/assert"
)

type stubAdmission struct {
	service.AdmissionService
	retryCalls int
	retryPanic bool
	clearedTTL time.Duration
}

func (s *stubAdmission) RetryProvisioning(ctx context.Context) (int, error) {
	s.retryCalls++
	if s.retryPanic {
		panic("boom")
	}
	return 2, nil
}

func (s *stubAdmission) ClearStaleCredentials(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.clearedTTL = olderThan
	return 1, nil
}

type stubPayments struct {
	service.PaymentService
	olderThan time.Duration
	err       error
}

func (s *stubPayments) ListStaleDonations(ctx context.Context, olderThan time.Duration) ([]domain.DonationOrder, error) {
	s.olderThan = olderThan
	if s.err != nil {
		return nil, s.err
	}
	return []domain.DonationOrder{{ID: 1, Status: domain.DonationStatusPending}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Payments:  config.PaymentsConfig{StaleAfterHours: 48},
		Admission: config.AdmissionConfig{CredentialTTLHours: 72},
	}
}

func TestJobRunner_RunAll(t *testing.T) {
	adm := &stubAdmission{}
	pay := &stubPayments{}
	jr := NewJobRunner(&Services{Admission: adm, Payments: pay}, testConfig())

	jr.RunAll()

	assert.Equal(t, 1, adm.retryCalls)
	assert.Equal(t, 72*time.Hour, adm.clearedTTL)
	assert.Equal(t, 48*time.Hour, pay.olderThan)
}

func TestJobRunner_RecoversFromPanic(t *testing.T) {
	adm := &stubAdmission{retryPanic: true}
	jr := NewJobRunner(&Services{Admission: adm, Payments: &stubPayments{}}, testConfig())

	assert.NotPanics(t, jr.RetryProvisioning)
	assert.Equal(t, 1, adm.retryCalls)
}

func TestJobRunner_ReportStaleDonationsError(t *testing.T) {
	pay := &stubPayments{err: errors.New("database is down")}
	jr := NewJobRunner(&Services{Admission: &stubAdmission{}, Payments: pay}, testConfig())

	assert.NotPanics(t, jr.ReportStaleDonations)
	assert.Equal(t, 48*time.Hour, pay.olderThan)
}
