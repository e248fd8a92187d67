package gateway

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentGateway is the port to the hosted checkout provider.
type PaymentGateway interface {
	// CreatePreference registers a checkout and returns the provider's preference id.
	CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error)

	// GetPayment fetches the current state of a payment by its provider id.
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
}

type PreferenceItem struct {
	Title      string
	Quantity   int
	UnitPrice  decimal.Decimal
	CurrencyID string
}

type BackURLs struct {
	Success string
	Failure string
	Pending string
}

type PreferenceRequest struct {
	Items             []PreferenceItem
	ExternalReference string
	BackURLs          BackURLs
	AutoReturn        string
	NotificationURL   string
}

type Preference struct {
	ID        string
	InitPoint string
}

// Payment statuses reported by the provider.
const (
	PaymentApproved = "approved"
	PaymentRejected = "rejected"
)

type Payment struct {
	ID                string
	Status            string
	ExternalReference string
	Amount            decimal.Decimal
	ApprovedAt        *time.Time
}
