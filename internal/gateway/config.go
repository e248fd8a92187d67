package gateway

import (
	"fmt"
	"net/http"
	"time"
)

// Config holds gateway client settings
type Config struct {
	Type        string // "mercadopago" or "mock"
	AccessToken string
	Timeout     time.Duration
}

// New builds the gateway selected by cfg.Type.
func New(cfg Config) (PaymentGateway, error) {
	switch cfg.Type {
	case "mock":
		return NewMockGateway(), nil
	case "mercadopago", "":
		if cfg.AccessToken == "" {
			return nil, fmt.Errorf("mercadopago access token is required")
		}
		client, err := NewMercadoPagoClient(cfg.AccessToken, &http.Client{Timeout: cfg.Timeout})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown payment gateway: %s", cfg.Type)
	}
}
