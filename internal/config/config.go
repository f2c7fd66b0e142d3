package config

import (
	"fmt"
	"os"
)

// Config holds application configuration
type Config struct {
	Port     string
	DBConn   string
	LogLevel string

	// Account Aggregator API
	AATokenURL     string
	AABaseURL      string
	AAClientID     string
	AAClientSecret string
	AAProductID    string
	AAFIPID        string

	// Notifications
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
	AdminEmail   string

	// Cron spec for the pending data-session poller
	SessionPollSpec string

	// Minimum eligibility rules a loan product must satisfy to match
	MatchThreshold int
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBConn:          getEnv("DB_CONN", "host=localhost port=5432 user=test password=test dbname=quickcredit sslmode=disable"),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		AATokenURL:      getEnv("AA_TOKEN_URL", "https://orgservice-prod.setu.co/v1/users/login"),
		AABaseURL:       getEnv("AA_BASE_URL", "https://fiu-sandbox.setu.co/v2"),
		AAClientID:      getEnv("AA_CLIENT_ID", ""),
		AAClientSecret:  getEnv("AA_CLIENT_SECRET", ""),
		AAProductID:     getEnv("AA_PRODUCT_ID", ""),
		AAFIPID:         getEnv("AA_FIP_ID", "setu-fip-2"),
		SMTPHost:        getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:        getEnv("SMTP_PORT", "587"),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		SenderEmail:     getEnv("SENDER_EMAIL", "no-reply@quickcredit.local"),
		AdminEmail:      getEnv("ADMIN_EMAIL", "admin@lender.com"),
		SessionPollSpec: getEnv("SESSION_POLL_SPEC", "@every 2m"),
		MatchThreshold:  2,
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.AAClientID == "" || cfg.AAClientSecret == "" {
		return nil, fmt.Errorf("AA_CLIENT_ID and AA_CLIENT_SECRET are required")
	}
	if cfg.AAProductID == "" {
		return nil, fmt.Errorf("AA_PRODUCT_ID is required")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
