package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"membership-backend/internal/logger"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/shopspring/decimal"
)

const serviceName = "mercadopago"

// MercadoPagoClient adapts the Mercado Pago SDK to PaymentGateway.
type MercadoPagoClient struct {
	preferences preference.Client
	payments    payment.Client
}

// NewMercadoPagoClient builds the SDK clients. A nil httpClient uses the SDK default.
func NewMercadoPagoClient(accessToken string, httpClient *http.Client) (*MercadoPagoClient, error) {
	var opts []mpconfig.Option
	if httpClient != nil {
		opts = append(opts, mpconfig.WithHTTPClient(httpClient))
	}
	cfg, err := mpconfig.New(accessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to configure mercadopago sdk: %w", err)
	}
	return &MercadoPagoClient{
		preferences: preference.NewClient(cfg),
		payments:    payment.NewClient(cfg),
	}, nil
}

func (c *MercadoPagoClient) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	body := preference.Request{
		ExternalReference: req.ExternalReference,
		AutoReturn:        req.AutoReturn,
		NotificationURL:   req.NotificationURL,
	}
	for _, it := range req.Items {
		// the preferences API takes unit_price as a JSON number
		body.Items = append(body.Items, preference.ItemRequest{
			Title:      it.Title,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice.InexactFloat64(),
			CurrencyID: it.CurrencyID,
		})
	}
	if req.BackURLs != (BackURLs{}) {
		body.BackURLs = &preference.BackURLsRequest{
			Success: req.BackURLs.Success,
			Failure: req.BackURLs.Failure,
			Pending: req.BackURLs.Pending,
		}
	}

	logger.ExternalServiceCall(serviceName, "CreatePreference", "external_reference", req.ExternalReference)
	resp, err := c.preferences.Create(ctx, body)
	if err == nil && resp.ID == "" {
		err = fmt.Errorf("preference response has no id")
	}
	if err != nil {
		logger.ExternalServiceResult(serviceName, "CreatePreference", err)
		return nil, fmt.Errorf("%s create preference failed: %w", serviceName, err)
	}
	logger.ExternalServiceResult(serviceName, "CreatePreference", nil, "preference_id", resp.ID)
	return &Preference{ID: resp.ID, InitPoint: resp.InitPoint}, nil
}

func (c *MercadoPagoClient) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	id, err := strconv.Atoi(paymentID)
	if err != nil {
		return nil, fmt.Errorf("invalid payment id %q", paymentID)
	}

	logger.ExternalServiceCall(serviceName, "GetPayment", "payment_id", paymentID)
	resp, err := c.payments.Get(ctx, id)
	if err != nil {
		logger.ExternalServiceResult(serviceName, "GetPayment", err, "payment_id", paymentID)
		return nil, fmt.Errorf("%s get payment failed: %w", serviceName, err)
	}
	logger.ExternalServiceResult(serviceName, "GetPayment", nil, "payment_id", paymentID, "status", resp.Status)

	return &Payment{
		ID:                strconv.Itoa(resp.ID),
		Status:            resp.Status,
		ExternalReference: resp.ExternalReference,
		Amount:            decimal.NewFromFloat(resp.TransactionAmount),
		ApprovedAt:        approvedAt(resp.DateApproved),
	}, nil
}

// approvedAt accepts the SDK's approval date whether it arrives as a value or a pointer.
func approvedAt(v any) *time.Time {
	switch t := v.(type) {
	case *time.Time:
		if t == nil || t.IsZero() {
			return nil
		}
		return t
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return &t
	}
	return nil
}
