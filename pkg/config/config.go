// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	AWS        AWSConfig
	Cache      CacheConfig
	Settlement SettlementConfig
	Events     EventsConfig
	Identity   IdentityConfig
	LogLevel   slog.Level
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

type StorageConfig struct {
	Backend            string
	FlightsTableName   string
	AccountsTableName  string
	PurchasesTableName string
	DatabaseURL        string
}

// AWSConfig tunes the SDK standard retryer shared by every AWS client.
type AWSConfig struct {
	MaxAttempts int
	MaxBackoff  time.Duration
}

// CacheConfig selects Redis when Addr is set and the in-memory cache otherwise.
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type SettlementConfig struct {
	Enabled     bool
	Interval    time.Duration
	GraceWindow time.Duration
}

type EventsConfig struct {
	Enabled       bool
	PurchaseQueue string
	MilesQueue    string
	AccountQueue  string
}

// IdentityConfig points at a Cognito app client. Without a client ID the
// in-memory provider is used.
type IdentityConfig struct {
	CognitoClientID   string
	CognitoUserPoolID string
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables, applying defaults.
func FromEnv() (*Config, error) {
	p := &parser{}
	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("HTTP_PORT", "8080"),
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
			RequestTimeout: p.getDuration("REQUEST_TIMEOUT", 10*time.Second),
		},
		Storage: StorageConfig{
			Backend:            strings.ToLower(getEnv("STORAGE_BACKEND", BackendDynamoDB)),
			FlightsTableName:   os.Getenv("DYNAMODB_FLIGHTS_TABLE_NAME"),
			AccountsTableName:  os.Getenv("DYNAMODB_ACCOUNTS_TABLE_NAME"),
			PurchasesTableName: os.Getenv("DYNAMODB_PURCHASES_TABLE_NAME"),
			DatabaseURL:        os.Getenv("DATABASE_URL"),
		},
		AWS: AWSConfig{
			MaxAttempts: p.getInt("AWS_MAX_ATTEMPTS", 5),
			MaxBackoff:  p.getDuration("AWS_MAX_BACKOFF", 5*time.Second),
		},
		Cache: CacheConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       p.getInt("REDIS_DB", 0),
			TTL:      p.getDuration("SEARCH_CACHE_TTL", 60*time.Second),
		},
		Settlement: SettlementConfig{
			Enabled:     p.getBool("SETTLEMENT_ENABLED", true),
			Interval:    p.getDuration("SETTLEMENT_INTERVAL", time.Minute),
			GraceWindow: p.getDuration("SETTLEMENT_GRACE_WINDOW", 3*time.Minute),
		},
		Events: EventsConfig{
			Enabled:       p.getBool("EVENTS_ENABLED", true),
			PurchaseQueue: getEnv("SQS_PURCHASE_QUEUE", "ticket_notifications"),
			MilesQueue:    getEnv("SQS_MILES_QUEUE", "miles_notifications"),
			AccountQueue:  getEnv("SQS_ACCOUNT_QUEUE", "ticket_notifications"),
		},
		Identity: IdentityConfig{
			CognitoClientID:   os.Getenv("COGNITO_CLIENT_ID"),
			CognitoUserPoolID: os.Getenv("COGNITO_USER_POOL_ID"),
		},
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
			p.errs = append(p.errs, fmt.Errorf("LOG_LEVEL: %w", err))
		}
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("HTTP_PORT is required"))
	}
	switch c.Storage.Backend {
	case BackendDynamoDB:
		if c.Storage.FlightsTableName == "" || c.Storage.AccountsTableName == "" || c.Storage.PurchasesTableName == "" {
			errs = append(errs, errors.New("one or more DynamoDB table name environment variables are not set"))
		}
	case BackendPostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend))
	}
	if c.AWS.MaxAttempts <= 0 {
		errs = append(errs, errors.New("AWS_MAX_ATTEMPTS must be positive"))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("SEARCH_CACHE_TTL must be positive"))
	}
	if c.Settlement.Enabled && c.Settlement.Interval <= 0 {
		errs = append(errs, errors.New("SETTLEMENT_INTERVAL must be positive"))
	}
	if c.Settlement.GraceWindow < 0 {
		errs = append(errs, errors.New("SETTLEMENT_GRACE_WINDOW must not be negative"))
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// parser collects malformed values instead of silently falling back to defaults.
type parser struct {
	errs []error
}

func (p *parser) getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return i
}

func (p *parser) getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return b
}

func (p *parser) getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}

// getEnv gets an environment variable or returns the default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
