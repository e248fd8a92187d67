package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockGateway keeps preferences and payments in memory.
// This is for local development without a Mercado Pago account
type MockGateway struct {
	mu          sync.Mutex
	preferences map[string]PreferenceRequest
	payments    map[string]*Payment
}

func NewMockGateway() *MockGateway {
	return &MockGateway{
		preferences: make(map[string]PreferenceRequest),
		payments:    make(map[string]*Payment),
	}
}

func (m *MockGateway) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := "mock-pref-" + uuid.NewString()
	m.preferences[id] = req
	return &Preference{ID: id, InitPoint: "http://localhost/mock-checkout/" + id}, nil
}

func (m *MockGateway) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s not found", paymentID)
	}
	cp := *p
	return &cp, nil
}

// SetPayment registers a payment so a later notification can resolve it.
func (m *MockGateway) SetPayment(p Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.Status == PaymentApproved && p.ApprovedAt == nil {
		now := time.Now().UTC()
		p.ApprovedAt = &now
	}
	m.payments[p.ID] = &p
}

// Preference returns a previously created preference request.
func (m *MockGateway) Preference(id string) (PreferenceRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.preferences[id]
	return req, ok
}
