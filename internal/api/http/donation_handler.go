package http

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"membership-backend/internal/domain"
	"membership-backend/internal/logger"
	"membership-backend/internal/service"

	"github.com/shopspring/decimal"
)

const maxWebhookBody = 64 << 10

type DonationHandler struct {
	payments service.PaymentService
	verifier *SignatureVerifier
}

// NewDonationHandler wires the checkout and webhook endpoints. A nil verifier disables
// signature checks.
func NewDonationHandler(payments service.PaymentService, verifier *SignatureVerifier) *DonationHandler {
	return &DonationHandler{payments: payments, verifier: verifier}
}

type checkoutRequest struct {
	Item *checkoutItemRequest `json:"item"`
}

// Numbers may arrive as JSON numbers or as numeric strings.
type checkoutItemRequest struct {
	Title     string          `json:"title"`
	Quantity  json.RawMessage `json:"quantity"`
	UnitPrice json.RawMessage `json:"unit_price"`
	DonorName string          `json:"donor_name"`
}

func (h *DonationHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if req.Item == nil {
		writeError(w, http.StatusBadRequest, "item is required")
		return
	}

	item, err := req.Item.toDomain()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res, err := h.payments.InitiateCheckout(r.Context(), item)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (c *checkoutItemRequest) toDomain() (domain.CheckoutItem, error) {
	item := domain.CheckoutItem{
		Title:     c.Title,
		Quantity:  1,
		UnitPrice: decimal.Zero,
		DonorName: c.DonorName,
	}

	if raw, ok := rawScalar(c.Quantity); ok {
		q, err := strconv.Atoi(raw)
		if err != nil {
			return item, domain.Validation("quantity must be an integer")
		}
		item.Quantity = q
	}
	if raw, ok := rawScalar(c.UnitPrice); ok {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			return item, domain.Validation("unit_price must be a number")
		}
		item.UnitPrice = p
	}
	return item, nil
}

// rawScalar unwraps a JSON number or string. Absent, null and empty values report false.
func rawScalar(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return string(raw), true
		}
	} else {
		s = string(raw)
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

type webhookBody struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
	Data  struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
}

// Webhook receives gateway notifications. It answers 200 for anything delivered by POST so
// the gateway does not retry; failures are only logged.
func (h *DonationHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	topic := firstNonEmpty(q.Get("topic"), q.Get("type"))
	resourceID := firstNonEmpty(q.Get("id"), q.Get("data.id"))

	if topic == "" || resourceID == "" {
		body, _ := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		var payload webhookBody
		if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
			topic = firstNonEmpty(topic, payload.Type, payload.Topic)
			if id, ok := rawScalar(payload.Data.ID); ok {
				resourceID = firstNonEmpty(resourceID, id)
			}
		}
	}

	// IPN deliveries (?topic=&id=) are never signed. They only trigger a payment lookup
	// with our access token, so the gateway's answer decides the outcome.
	unsignedIPN := r.Header.Get("X-Signature") == "" && q.Get("topic") != "" && q.Get("id") != ""
	if h.verifier != nil && !unsignedIPN {
		sigID := firstNonEmpty(q.Get("data.id"), resourceID)
		if err := h.verifier.Verify(r.Header.Get("X-Signature"), r.Header.Get("X-Request-Id"), sigID); err != nil {
			logger.WarnContext(r.Context(), "Rejected webhook with bad signature", "topic", topic, "resourceID", resourceID, "error", err)
			writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}
	}

	n := domain.PaymentNotification{Topic: topic, ResourceID: resourceID}
	if err := h.payments.HandleNotification(r.Context(), n); err != nil {
		logger.ErrorContext(r.Context(), "Webhook processing failed", "topic", topic, "resourceID", resourceID, "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type donationPage struct {
	Items []domain.DonationOrder `json:"items"`
	Page  int32                  `json:"page"`
	Limit int32                  `json:"limit"`
	Total int32                  `json:"total"`
}

func (h *DonationHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt32(r, "page", 1)
	limit := queryInt32(r, "limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	orders, total, err := h.payments.ListDonations(r.Context(), page, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if orders == nil {
		orders = []domain.DonationOrder{}
	}
	writeJSON(w, http.StatusOK, donationPage{Items: orders, Page: page, Limit: limit, Total: total})
}

func (h *DonationHandler) Export(w http.ResponseWriter, r *http.Request) {
	orders, err := h.payments.ExportDonations(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="donations-%s.csv"`, time.Now().UTC().Format("20060102")))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "donor_name", "amount", "status", "preference_id", "payment_id", "settled_at", "created_at"})
	for _, o := range orders {
		settled := ""
		if o.SettledAt != nil {
			settled = o.SettledAt.UTC().Format(time.RFC3339)
		}
		_ = cw.Write([]string{
			strconv.Itoa(int(o.ID)),
			o.DonorName,
			o.Amount.StringFixed(2),
			string(o.Status),
			derefString(o.PreferenceID),
			derefString(o.PaymentID),
			settled,
			o.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		logger.ErrorContext(r.Context(), "Failed to write donation export", "error", err)
	}
}

func queryInt32(r *http.Request, key string, def int32) int32 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return def
	}
	return int32(n)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
