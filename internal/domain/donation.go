package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "pending"
	DonationStatusValidated DonationStatus = "validated"
	DonationStatusRejected  DonationStatus = "rejected"
)

const DefaultDonorName = "Anonymous"

type DonationOrder struct {
	ID           int32           `json:"id"`
	DonorName    string          `json:"donor_name"`
	Amount       decimal.Decimal `json:"amount"`
	PreferenceID *string         `json:"preference_id,omitempty"`
	PaymentID    *string         `json:"payment_id,omitempty"`
	Status       DonationStatus  `json:"status"`
	SettledAt    *time.Time      `json:"settled_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CheckoutItem is a validated checkout line.
type CheckoutItem struct {
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
	DonorName string
}

// Total is unit price times quantity, kept at two decimals.
func (i CheckoutItem) Total() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))).Round(2)
}

// PaymentNotification is what the gateway tells us about a resource.
type PaymentNotification struct {
	Topic      string
	ResourceID string
}

// CheckoutResult is returned to the donor so the client can redirect to the payment page.
type CheckoutResult struct {
	OrderID      int32  `json:"order_id"`
	PreferenceID string `json:"id"`
	InitPoint    string `json:"init_point,omitempty"`
}
