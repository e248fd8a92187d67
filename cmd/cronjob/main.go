package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"membership-backend/internal/config"
	"membership-backend/internal/gateway"
	"membership-backend/internal/jobs"
	"membership-backend/internal/logger"
	"membership-backend/internal/repository/postgres"
	"membership-backend/internal/scheduler"
	"membership-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'retry-provisioning', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting membership cronjob runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// The stale-donation report never calls the gateway, but the payment service needs one.
	paymentGateway, err := gateway.New(gateway.Config{
		Type:        cfg.Payments.Gateway,
		AccessToken: cfg.Payments.AccessToken,
		Timeout:     cfg.GatewayTimeout(),
	})
	if err != nil {
		log.Fatalf("Failed to initialize payment gateway: %v", err)
	}

	// Initialize Services
	provisioner := service.NewAccountProvisioner(cfg.Admission.HandleMaxAttempts, cfg.Admission.CredentialLength)
	jobServices := &jobs.Services{
		Admission: service.NewAdmissionService(
			store.ApplicationRepository,
			store.AccountRepository,
			store.ProvisioningFailureRepository,
			store,
			provisioner,
			cfg.Admission.CredentialLength,
		),
		Payments: service.NewPaymentService(store.DonationRepository, store, paymentGateway, service.PaymentOptions{
			Currency: cfg.Payments.Currency,
		}),
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobServices, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to register jobs: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.", "jobs", cronScheduler.EntryCount())

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "retry-provisioning":
		jobRunner.RetryProvisioning()
	case "clear-stale-credentials":
		jobRunner.ClearStaleCredentials()
	case "report-stale-donations":
		jobRunner.ReportStaleDonations()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - retry-provisioning\n")
		fmt.Printf("  - clear-stale-credentials\n")
		fmt.Printf("  - report-stale-donations\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
