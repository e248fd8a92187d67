package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Payments  PaymentsConfig  `yaml:"payments"`
	Admission AdmissionConfig `yaml:"admission"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxOpen  int    `yaml:"max_open_conns"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// PaymentsConfig contains the payment gateway settings
type PaymentsConfig struct {
	Gateway         string `yaml:"gateway"` // "mercadopago" or "mock"
	AccessToken     string `yaml:"access_token"`
	WebhookSecret   string `yaml:"webhook_secret"` // verifies signed webhooks; unsigned IPN is confirmed by payment lookup
	Currency        string `yaml:"currency"`
	NotificationURL string `yaml:"notification_url"`
	SuccessURL      string `yaml:"success_url"`
	FailureURL      string `yaml:"failure_url"`
	PendingURL      string `yaml:"pending_url"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	StaleAfterHours int    `yaml:"stale_after_hours"`
}

// AdmissionConfig contains account provisioning settings
type AdmissionConfig struct {
	HandleMaxAttempts  int `yaml:"handle_max_attempts"`
	CredentialLength   int `yaml:"credential_length"`
	CredentialTTLHours int `yaml:"credential_ttl_hours"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	RetryProvisioning     string `yaml:"retry_provisioning"`
	ClearStaleCredentials string `yaml:"clear_stale_credentials"`
	ReportStaleDonations  string `yaml:"report_stale_donations"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	setString(&c.Database.Host, "DB_HOST")
	setInt(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Database, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSL_MODE")

	// JWT
	setString(&c.JWT.Secret, "JWT_SECRET")

	// Server
	setString(&c.Server.Host, "SERVER_HOST")
	setInt(&c.Server.Port, "SERVER_PORT")

	// Log
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	// Payments
	setString(&c.Payments.Gateway, "PAYMENTS_GATEWAY")
	setString(&c.Payments.AccessToken, "MP_ACCESS_TOKEN")
	setString(&c.Payments.WebhookSecret, "MP_WEBHOOK_SECRET")
	setString(&c.Payments.NotificationURL, "MP_NOTIFICATION_URL")
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 30
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	switch c.Payments.Gateway {
	case "":
		c.Payments.Gateway = "mercadopago"
		fallthrough
	case "mercadopago":
		if c.Payments.AccessToken == "" {
			return fmt.Errorf("payment gateway access token is required")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown payment gateway: %s", c.Payments.Gateway)
	}
	if c.Payments.Currency == "" {
		c.Payments.Currency = "CLP"
	}
	if c.Payments.TimeoutSeconds == 0 {
		c.Payments.TimeoutSeconds = 10
	}
	if c.Payments.StaleAfterHours == 0 {
		c.Payments.StaleAfterHours = 48
	}

	if c.Admission.HandleMaxAttempts == 0 {
		c.Admission.HandleMaxAttempts = 100
	}
	if c.Admission.CredentialLength == 0 {
		c.Admission.CredentialLength = 12
	}
	if c.Admission.CredentialLength < 8 {
		return fmt.Errorf("credential length must be at least 8")
	}
	if c.Admission.CredentialTTLHours == 0 {
		c.Admission.CredentialTTLHours = 72
	}

	if c.Scheduler.RetryProvisioning == "" {
		c.Scheduler.RetryProvisioning = "0 */15 * * * *" // every 15 minutes
	}
	if c.Scheduler.ClearStaleCredentials == "" {
		c.Scheduler.ClearStaleCredentials = "0 0 3 * * *" // 3 AM UTC
	}
	if c.Scheduler.ReportStaleDonations == "" {
		c.Scheduler.ReportStaleDonations = "0 0 6 * * *" // 6 AM UTC
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWT.AccessTokenExpiry) * time.Minute
}

func (c *Config) CredentialTTL() time.Duration {
	return time.Duration(c.Admission.CredentialTTLHours) * time.Hour
}

func (c *Config) StaleDonationAge() time.Duration {
	return time.Duration(c.Payments.StaleAfterHours) * time.Hour
}

func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.Payments.TimeoutSeconds) * time.Second
}
