package http

import (
	"net/http"

	"membership-backend/internal/config"

	"github.com/gorilla/mux"
)

type Handlers struct {
	Applications *ApplicationHandler
	Donations    *DonationHandler
	Auth         *AuthHandler
	AuthMW       *AuthMiddleware
}

// NewRouter registers every endpoint under /api plus the liveness probe.
func NewRouter(h Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(Recovery, RequestLogger)

	r.HandleFunc("/healthz", Health).Methods(http.MethodGet).Name(config.RouteHealth)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(h.AuthMW.Handler)

	apps := h.Applications
	api.HandleFunc("/applications", apps.Submit).Methods(http.MethodPost).Name(config.RouteSubmitApplication)
	api.HandleFunc("/applications", apps.List).Methods(http.MethodGet).Name(config.RouteListApplications)
	api.HandleFunc("/applications/bulk-approve", apps.BulkApprove).Methods(http.MethodPost).Name(config.RouteBulkApprove)
	api.HandleFunc("/applications/bulk-reject", apps.BulkReject).Methods(http.MethodPost).Name(config.RouteBulkReject)
	api.HandleFunc("/applications/{id:[0-9]+}", apps.Get).Methods(http.MethodGet).Name(config.RouteGetApplication)
	api.HandleFunc("/applications/{id:[0-9]+}", apps.Update).Methods(http.MethodPatch).Name(config.RouteUpdateApplication)
	api.HandleFunc("/applications/{id:[0-9]+}", apps.Delete).Methods(http.MethodDelete).Name(config.RouteDeleteApplication)
	api.HandleFunc("/applications/{id:[0-9]+}/approve", apps.Approve).Methods(http.MethodPost).Name(config.RouteApproveApplication)
	api.HandleFunc("/applications/{id:[0-9]+}/reject", apps.Reject).Methods(http.MethodPost).Name(config.RouteRejectApplication)
	api.HandleFunc("/applications/{id:[0-9]+}/credential", apps.RetrieveCredential).Methods(http.MethodPost).Name(config.RouteRetrieveCredential)
	api.HandleFunc("/applications/{id:[0-9]+}/credential/reset", apps.ResetCredential).Methods(http.MethodPost).Name(config.RouteResetCredential)
	api.HandleFunc("/provisioning-failures", apps.ListProvisioningFailures).Methods(http.MethodGet).Name(config.RouteListProvisionFailures)

	dons := h.Donations
	api.HandleFunc("/checkout", dons.Checkout).Methods(http.MethodPost).Name(config.RouteCheckout)
	// Any method is routed so the handler can answer 405 itself.
	api.HandleFunc("/webhook", dons.Webhook).Name(config.RouteWebhook)
	api.HandleFunc("/donations", dons.List).Methods(http.MethodGet).Name(config.RouteListDonations)
	api.HandleFunc("/donations/export", dons.Export).Methods(http.MethodGet).Name(config.RouteExportDonations)

	api.HandleFunc("/token", h.Auth.Login).Methods(http.MethodPost).Name(config.RouteLogin)
	api.HandleFunc("/password", h.Auth.ChangePassword).Methods(http.MethodPost).Name(config.RouteChangePassword)

	return r
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
