// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	GetMigrationsEnabled() bool
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetBrevoAPIKey() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
}

// NotificationConfig provides settings for the notification module.
type NotificationConfig interface {
	GetAppBaseURL() string
	GetOpsAlertEmail() string
}

// SchedulerConfig provides settings for the asynq background queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// ConversionConfig provides settings for the lead conversion pipeline.
type ConversionConfig interface {
	GetConversionSessionTTL() time.Duration
	GetConversionPasswordMinLength() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                         string
	HTTPAddr                    string
	DatabaseURL                 string
	MigrationsEnabled           bool
	JWTAccessSecret             string
	CORSAllowAll                bool
	CORSOrigins                 []string
	CORSAllowCreds              bool
	AppBaseURL                  string
	EmailEnabled                bool
	BrevoAPIKey                 string
	EmailFromName               string
	EmailFromAddress            string
	SMTPHost                    string
	SMTPPort                    int
	SMTPUsername                string
	SMTPPassword                string
	OpsAlertEmail               string
	RedisURL                    string
	RedisTLSInsecure            bool
	AsynqQueueName              string
	AsynqConcurrency            int
	ConversionSessionTTL        time.Duration
	ConversionPasswordMinLength int
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string     { return c.DatabaseURL }
func (c *Config) GetMigrationsEnabled() bool { return c.MigrationsEnabled }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetBrevoAPIKey() string      { return c.BrevoAPIKey }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }

// NotificationConfig implementation
func (c *Config) GetAppBaseURL() string    { return c.AppBaseURL }
func (c *Config) GetOpsAlertEmail() string { return c.OpsAlertEmail }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// ConversionConfig implementation
func (c *Config) GetConversionSessionTTL() time.Duration { return c.ConversionSessionTTL }
func (c *Config) GetConversionPasswordMinLength() int    { return c.ConversionPasswordMinLength }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	brevoAPIKey := getEnv("BREVO_API_KEY", "")
	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:                         getEnv("APP_ENV", "development"),
		HTTPAddr:                    getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:                 getEnv("DATABASE_URL", ""),
		MigrationsEnabled:           strings.EqualFold(getEnv("MIGRATIONS_ENABLED", "true"), "true"),
		JWTAccessSecret:             getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:                corsAllowAll,
		CORSOrigins:                 corsOrigins,
		CORSAllowCreds:              strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:                  getEnv("APP_BASE_URL", "http://localhost:4200"),
		EmailEnabled:                emailEnabled && (brevoAPIKey != "" || smtpHost != ""),
		BrevoAPIKey:                 brevoAPIKey,
		EmailFromName:               getEnv("EMAIL_FROM_NAME", "Portal"),
		EmailFromAddress:            getEnv("EMAIL_FROM_ADDRESS", ""),
		SMTPHost:                    smtpHost,
		SMTPPort:                    mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:                getEnv("SMTP_USERNAME", ""),
		SMTPPassword:                getEnv("SMTP_PASSWORD", ""),
		OpsAlertEmail:               getEnv("OPS_ALERT_EMAIL", ""),
		RedisURL:                    getEnv("REDIS_URL", ""),
		RedisTLSInsecure:            strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:              getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:            mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		ConversionSessionTTL:        mustDuration(getEnv("CONVERSION_SESSION_TTL", "2h")),
		ConversionPasswordMinLength: mustInt(getEnv("CONVERSION_PASSWORD_MIN_LENGTH", "8")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTAccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if c.EmailEnabled && c.EmailFromAddress == "" {
		return fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if c.ConversionSessionTTL <= 0 {
		return fmt.Errorf("CONVERSION_SESSION_TTL must be a positive duration")
	}
	if c.ConversionPasswordMinLength < 8 {
		return fmt.Errorf("CONVERSION_PASSWORD_MIN_LENGTH must be at least 8")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
