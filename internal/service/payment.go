package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"membership-backend/internal/domain"
	"membership-backend/internal/gateway"
	"membership-backend/internal/logger"
	"membership-backend/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	TopicPayment        = "payment"
	defaultItemTitle    = "Donation"
	autoReturnApproved  = "approved"
	maxDonationPageSize = 100
)

// amountCeiling is the first value that does not fit NUMERIC(10,2).
var amountCeiling = decimal.New(1, 8)

type PaymentOptions struct {
	Currency        string
	NotificationURL string
	BackURLs        gateway.BackURLs
}

type paymentService struct {
	donations repository.DonationRepository
	tx        repository.Transactor
	gateway   gateway.PaymentGateway
	opts      PaymentOptions
	now       func() time.Time
}

func NewPaymentService(donations repository.DonationRepository, tx repository.Transactor, gw gateway.PaymentGateway, opts PaymentOptions) PaymentService {
	return &paymentService{
		donations: donations,
		tx:        tx,
		gateway:   gw,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *paymentService) InitiateCheckout(ctx context.Context, item domain.CheckoutItem) (*domain.CheckoutResult, error) {
	logger.EnterMethod("paymentService.InitiateCheckout", "quantity", item.Quantity, "unitPrice", item.UnitPrice.String())

	if err := validateCheckoutItem(&item); err != nil {
		logger.ExitMethodWithError("paymentService.InitiateCheckout", err)
		return nil, err
	}

	order := &domain.DonationOrder{
		DonorName: item.DonorName,
		Amount:    item.Total(),
		Status:    domain.DonationStatusPending,
	}

	var pref *gateway.Preference
	err := s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.Donations().Create(ctx, order); err != nil {
			return fmt.Errorf("failed to create donation order: %w", err)
		}

		var err error
		pref, err = s.gateway.CreatePreference(ctx, gateway.PreferenceRequest{
			Items: []gateway.PreferenceItem{{
				Title:      item.Title,
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice,
				CurrencyID: s.opts.Currency,
			}},
			ExternalReference: strconv.Itoa(int(order.ID)),
			BackURLs:          s.opts.BackURLs,
			AutoReturn:        autoReturnApproved,
			NotificationURL:   s.opts.NotificationURL,
		})
		if err != nil {
			logger.Error("Payment preference creation failed", "orderID", order.ID, "error", err)
			return domain.Gateway("the payment service is unavailable, please try again")
		}

		if err := tx.Donations().AttachPreference(ctx, order.ID, pref.ID); err != nil {
			return fmt.Errorf("failed to attach preference: %w", err)
		}
		order.PreferenceID = &pref.ID
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("paymentService.InitiateCheckout", err)
		return nil, err
	}

	logger.ExitMethod("paymentService.InitiateCheckout", "orderID", order.ID, "preferenceID", pref.ID)
	return &domain.CheckoutResult{OrderID: order.ID, PreferenceID: pref.ID, InitPoint: pref.InitPoint}, nil
}

func validateCheckoutItem(item *domain.CheckoutItem) error {
	item.Title = strings.TrimSpace(item.Title)
	if item.Title == "" {
		item.Title = defaultItemTitle
	}
	item.DonorName = strings.TrimSpace(item.DonorName)
	if item.DonorName == "" {
		item.DonorName = domain.DefaultDonorName
	}
	if item.Quantity < 1 {
		return domain.Validation("quantity must be at least 1")
	}
	if item.UnitPrice.IsNegative() {
		return domain.Validation("unit_price must not be negative")
	}
	if !item.UnitPrice.Equal(item.UnitPrice.Round(2)) {
		return domain.Validation("unit_price must have at most 2 decimals")
	}
	if item.Total().GreaterThanOrEqual(amountCeiling) {
		return domain.Validation("donation amount is too large")
	}
	return nil
}

// HandleNotification reconciles a gateway notification with its donation order. Orders
// only move out of pending once; repeated or late notifications are no-ops.
func (s *paymentService) HandleNotification(ctx context.Context, n domain.PaymentNotification) error {
	if n.Topic != TopicPayment || n.ResourceID == "" {
		logger.Debug("Ignoring notification", "topic", n.Topic, "resourceID", n.ResourceID)
		return nil
	}
	logger.EnterMethod("paymentService.HandleNotification", "paymentID", n.ResourceID)

	payment, err := s.gateway.GetPayment(ctx, n.ResourceID)
	if err != nil {
		err = fmt.Errorf("%w: failed to fetch payment %s: %v", domain.ErrGateway, n.ResourceID, err)
		logger.ExitMethodWithError("paymentService.HandleNotification", err)
		return err
	}

	orderID, err := strconv.ParseInt(strings.TrimSpace(payment.ExternalReference), 10, 32)
	if err != nil {
		err = domain.Validation(fmt.Sprintf("payment %s carries external reference %q", payment.ID, payment.ExternalReference))
		logger.ExitMethodWithError("paymentService.HandleNotification", err)
		return err
	}

	outcome := "settled"
	err = s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		order, err := tx.Donations().GetByIDForUpdate(ctx, int32(orderID))
		if err != nil {
			return err
		}
		if order.Status != domain.DonationStatusPending {
			outcome = "already settled"
			return nil
		}

		switch payment.Status {
		case gateway.PaymentApproved:
			settledAt := s.now()
			if payment.ApprovedAt != nil {
				settledAt = payment.ApprovedAt.UTC()
			}
			order.Status = domain.DonationStatusValidated
			order.SettledAt = &settledAt
		case gateway.PaymentRejected:
			order.Status = domain.DonationStatusRejected
		default:
			outcome = "ignored status " + payment.Status
			return nil
		}
		paymentID := payment.ID
		order.PaymentID = &paymentID
		return tx.Donations().Settle(ctx, order)
	})
	if err != nil {
		err = fmt.Errorf("failed to reconcile order %d: %w", orderID, err)
		logger.ExitMethodWithError("paymentService.HandleNotification", err)
		return err
	}

	logger.Info("Payment notification processed", "orderID", orderID, "paymentID", payment.ID, "gatewayStatus", payment.Status, "outcome", outcome)
	logger.ExitMethod("paymentService.HandleNotification")
	return nil
}

func (s *paymentService) ListDonations(ctx context.Context, page, pageSize int32) ([]domain.DonationOrder, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > maxDonationPageSize {
		pageSize = maxDonationPageSize
	}
	return s.donations.List(ctx, page, pageSize)
}

func (s *paymentService) ExportDonations(ctx context.Context) ([]domain.DonationOrder, error) {
	return s.donations.ListAll(ctx)
}

func (s *paymentService) ListStaleDonations(ctx context.Context, olderThan time.Duration) ([]domain.DonationOrder, error) {
	return s.donations.ListPendingCreatedBefore(ctx, s.now().Add(-olderThan))
}
