// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mmynk/payroll/internal/models"
	"github.com/mmynk/payroll/pkg/logging"
)

// Storage backends for the payroll aggregates.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

const devJWTSecret = "dev-secret-key-change-in-production"

// Server captures everything main needs to assemble the service.
type Server struct {
	Addr string

	StorageBackend string
	DBPath         string
	DatabaseURL    string

	DynamoTable    string
	DynamoEndpoint string
	AWSRegion      string

	JWTSecret string
	JWTTTL    time.Duration

	AmountPolicy models.AmountPolicy
	LogLevel     slog.Level
}

// FromEnv builds a Server config from environment variables so main stays
// lean. Malformed values are reported rather than replaced by defaults.
func FromEnv() (Server, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Server, error) {
	get := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}

	cfg := Server{
		Addr:           get("ADDR", ":8080"),
		StorageBackend: get("STORAGE_BACKEND", BackendSQLite),
		DBPath:         get("DB_PATH", "./data/payroll.db"),
		DatabaseURL:    getenv("DATABASE_URL"),
		DynamoTable:    get("DYNAMO_TABLE", "employees"),
		DynamoEndpoint: getenv("DYNAMO_ENDPOINT"),
		AWSRegion:      get("AWS_REGION", "us-east-1"),
		// Use a default for development - should be overridden in production
		JWTSecret: get("JWT_SECRET", devJWTSecret),
	}

	var errs []error

	switch cfg.StorageBackend {
	case BackendSQLite:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORAGE_BACKEND=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND: unknown backend %q", cfg.StorageBackend))
	}

	ttl, err := time.ParseDuration(get("JWT_TTL", "24h"))
	if err != nil {
		errs = append(errs, fmt.Errorf("JWT_TTL: %w", err))
	} else if ttl <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	cfg.JWTTTL = ttl

	cfg.AmountPolicy, err = models.ParseAmountPolicy(getenv("PAY_ENTRY_AMOUNT_POLICY"))
	if err != nil {
		errs = append(errs, fmt.Errorf("PAY_ENTRY_AMOUNT_POLICY: %w", err))
	}

	cfg.LogLevel, err = logging.ParseLevel(getenv("LOG_LEVEL"))
	if err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return Server{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// UsesDevSecret reports whether the JWT secret is the built-in development value.
func (s Server) UsesDevSecret() bool {
	return s.JWTSecret == devJWTSecret
}
