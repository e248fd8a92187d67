package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "membership-backend/internal/api/http"
	"membership-backend/internal/config"
	"membership-backend/internal/gateway"
	"membership-backend/internal/logger"
	"membership-backend/internal/repository/postgres"
	"membership-backend/internal/security"
	"membership-backend/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting membership backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Payment configuration", "gateway", cfg.Payments.Gateway, "currency", cfg.Payments.Currency, "signature_check", cfg.Payments.WebhookSecret != "")
	if cfg.Payments.WebhookSecret == "" {
		logger.Warn("Webhook signature verification disabled, MP_WEBHOOK_SECRET is not set")
	}

	// Initialize Database
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if cfg.Database.MaxOpen > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpen)
	}

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL())

	// Initialize Payment Gateway
	paymentGateway, err := gateway.New(gateway.Config{
		Type:        cfg.Payments.Gateway,
		AccessToken: cfg.Payments.AccessToken,
		Timeout:     cfg.GatewayTimeout(),
	})
	if err != nil {
		logger.Error("Failed to initialize payment gateway", "error", err)
		log.Fatalf("Failed to initialize payment gateway: %v", err)
	}

	// Initialize Services
	provisioner := service.NewAccountProvisioner(cfg.Admission.HandleMaxAttempts, cfg.Admission.CredentialLength)
	admissionSvc := service.NewAdmissionService(
		store.ApplicationRepository,
		store.AccountRepository,
		store.ProvisioningFailureRepository,
		store,
		provisioner,
		cfg.Admission.CredentialLength,
	)
	paymentSvc := service.NewPaymentService(store.DonationRepository, store, paymentGateway, service.PaymentOptions{
		Currency:        cfg.Payments.Currency,
		NotificationURL: cfg.Payments.NotificationURL,
		BackURLs: gateway.BackURLs{
			Success: cfg.Payments.SuccessURL,
			Failure: cfg.Payments.FailureURL,
			Pending: cfg.Payments.PendingURL,
		},
	})
	authSvc := service.NewAuthService(store.AccountRepository, tokenManager)

	// Initialize HTTP handlers
	router := httpapi.NewRouter(httpapi.Handlers{
		Applications: httpapi.NewApplicationHandler(admissionSvc),
		Donations:    httpapi.NewDonationHandler(paymentSvc, httpapi.NewSignatureVerifier(cfg.Payments.WebhookSecret)),
		Auth:         httpapi.NewAuthHandler(authSvc),
		AuthMW:       httpapi.NewAuthMiddleware(tokenManager),
	})

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("HTTP server stopped")
}
