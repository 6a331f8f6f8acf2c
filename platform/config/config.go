// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"estimate_portal_backend/platform/phone"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// RedisConfig provides the Redis connection used by the session store.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// EmailConfig provides settings for SMTP delivery of operator notices.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetLeadNotifyEmail() string
}

// DynamoDBConfig provides settings for the DynamoDB lead store.
type DynamoDBConfig interface {
	GetAWSRegion() string
	GetDynamoDBEndpoint() string
	GetDynamoDBLeadsTable() string
}

// LeadStoreConfig selects the lead persistence backend.
type LeadStoreConfig interface {
	DatabaseConfig
	DynamoDBConfig
	GetLeadStore() string
}

// CatalogConfig provides the optional catalog override path.
type CatalogConfig interface {
	GetCatalogPath() string
}

// EstimateConfig provides conversation runtime settings.
type EstimateConfig interface {
	GetSessionTTL() time.Duration
	GetPersistTimeout() time.Duration
}

// BusinessConfig provides the manual contact channels offered when a lead
// could not be recorded.
type BusinessConfig interface {
	GetBusinessName() string
	GetBusinessPhone() string
	GetBusinessPhoneFormatted() string
	GetBusinessEmail() string
}

// Lead store backends.
const (
	LeadStorePostgres = "postgres"
	LeadStoreDynamoDB = "dynamodb"
	LeadStoreNone     = "none"
)

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                    string
	HTTPAddr               string
	DatabaseURL            string
	RedisURL               string
	RedisTLSInsecure       bool
	AsynqQueueName         string
	AsynqConcurrency       int
	CORSAllowAll           bool
	CORSOrigins            []string
	RateLimitRPS           float64
	RateLimitBurst         int
	LeadStore              string
	AWSRegion              string
	DynamoDBEndpoint       string
	DynamoDBLeadsTable     string
	CatalogPath            string
	SessionTTL             time.Duration
	PersistTimeout         time.Duration
	EmailEnabled           bool
	SMTPHost               string
	SMTPPort               int
	SMTPUsername           string
	SMTPPassword           string
	EmailFromName          string
	EmailFromAddress       string
	LeadNotifyEmail        string
	BusinessName           string
	BusinessPhone          string
	BusinessPhoneFormatted string
	BusinessEmail          string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetRateLimitRPS() float64 { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int   { return c.RateLimitBurst }

// RedisConfig / SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetLeadNotifyEmail() string  { return c.LeadNotifyEmail }

// LeadStoreConfig / DynamoDBConfig implementation
func (c *Config) GetLeadStore() string          { return c.LeadStore }
func (c *Config) GetAWSRegion() string          { return c.AWSRegion }
func (c *Config) GetDynamoDBEndpoint() string   { return c.DynamoDBEndpoint }
func (c *Config) GetDynamoDBLeadsTable() string { return c.DynamoDBLeadsTable }

// CatalogConfig implementation
func (c *Config) GetCatalogPath() string { return c.CatalogPath }

// EstimateConfig implementation
func (c *Config) GetSessionTTL() time.Duration     { return c.SessionTTL }
func (c *Config) GetPersistTimeout() time.Duration { return c.PersistTimeout }

// BusinessConfig implementation
func (c *Config) GetBusinessName() string           { return c.BusinessName }
func (c *Config) GetBusinessPhone() string          { return c.BusinessPhone }
func (c *Config) GetBusinessPhoneFormatted() string { return c.BusinessPhoneFormatted }
func (c *Config) GetBusinessEmail() string          { return c.BusinessEmail }

// MaxPersistTimeout bounds PERSIST_TIMEOUT. It stays below the session
// lock TTL so a turn that is still saving a lead keeps its session locked.
const MaxPersistTimeout = 25 * time.Second

// Load reads configuration from the environment (and a .env file if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		RedisURL:               getEnv("REDIS_URL", ""),
		RedisTLSInsecure:       strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:         getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:       mustInt(getEnv("ASYNQ_CONCURRENCY", "5")),
		CORSAllowAll:           corsAllowAll,
		CORSOrigins:            corsOrigins,
		RateLimitRPS:           mustFloat(getEnv("RATE_LIMIT_RPS", "2")),
		RateLimitBurst:         mustInt(getEnv("RATE_LIMIT_BURST", "20")),
		LeadStore:              strings.ToLower(getEnv("LEAD_STORE", LeadStorePostgres)),
		AWSRegion:              getEnv("AWS_REGION", "us-east-1"),
		DynamoDBEndpoint:       getEnv("DYNAMODB_ENDPOINT", ""),
		DynamoDBLeadsTable:     getEnv("DYNAMODB_LEADS_TABLE", "leads"),
		CatalogPath:            getEnv("CATALOG_PATH", ""),
		SessionTTL:             mustDuration(getEnv("SESSION_TTL", "2h")),
		PersistTimeout:         mustDuration(getEnv("PERSIST_TIMEOUT", "10s")),
		EmailEnabled:           emailEnabled && smtpHost != "",
		SMTPHost:               smtpHost,
		SMTPPort:               mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:           getEnv("SMTP_USERNAME", ""),
		SMTPPassword:           getEnv("SMTP_PASSWORD", ""),
		EmailFromName:          getEnv("EMAIL_FROM_NAME", "Estimate Assistant"),
		EmailFromAddress:       getEnv("EMAIL_FROM_ADDRESS", ""),
		LeadNotifyEmail:        getEnv("LEAD_NOTIFY_EMAIL", ""),
		BusinessName:           getEnv("BUSINESS_NAME", "Mafair HVAC"),
		BusinessPhone:          getEnv("BUSINESS_PHONE", "9083612183"),
		BusinessPhoneFormatted: getEnv("BUSINESS_PHONE_FORMATTED", ""),
		BusinessEmail:          getEnv("BUSINESS_EMAIL", "Mafairhvac@gmail.com"),
	}
	if cfg.BusinessPhoneFormatted == "" {
		cfg.BusinessPhoneFormatted = phone.FormatNational(cfg.BusinessPhone)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LeadStore {
	case LeadStorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when LEAD_STORE is %q", LeadStorePostgres)
		}
	case LeadStoreDynamoDB:
		if c.DynamoDBLeadsTable == "" {
			return fmt.Errorf("DYNAMODB_LEADS_TABLE is required when LEAD_STORE is %q", LeadStoreDynamoDB)
		}
	case LeadStoreNone:
	default:
		return fmt.Errorf("LEAD_STORE must be one of postgres, dynamodb, none (got %q)", c.LeadStore)
	}
	if c.EmailEnabled && c.EmailFromAddress == "" {
		return fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if c.EmailEnabled && c.LeadNotifyEmail == "" {
		return fmt.Errorf("LEAD_NOTIFY_EMAIL is required when email is enabled")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be a positive duration")
	}
	if c.PersistTimeout <= 0 {
		return fmt.Errorf("PERSIST_TIMEOUT must be a positive duration")
	}
	if c.PersistTimeout > MaxPersistTimeout {
		return fmt.Errorf("PERSIST_TIMEOUT must not exceed %s (got %s)", MaxPersistTimeout, c.PersistTimeout)
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

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
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
