package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mmynk/payroll/internal/models"
)

func envFunc(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}

func TestDefaults(t *testing.T) {
	cfg, err := load(envFunc(nil))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.StorageBackend != BackendSQLite || cfg.DBPath != "./data/payroll.db" {
		t.Errorf("storage = %q %q", cfg.StorageBackend, cfg.DBPath)
	}
	if cfg.DynamoTable != "employees" || cfg.AWSRegion != "us-east-1" || cfg.DynamoEndpoint != "" {
		t.Errorf("dynamo = %q %q %q", cfg.DynamoTable, cfg.AWSRegion, cfg.DynamoEndpoint)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Errorf("JWTTTL = %v", cfg.JWTTTL)
	}
	if !cfg.UsesDevSecret() {
		t.Error("expected development JWT secret")
	}
	if cfg.AmountPolicy != models.AmountAny {
		t.Errorf("AmountPolicy = %q", cfg.AmountPolicy)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
}

func TestOverrides(t *testing.T) {
	cfg, err := load(envFunc(map[string]string{
		"ADDR":                    ":9090",
		"STORAGE_BACKEND":         "postgres",
		"DATABASE_URL":            "postgres://payroll@localhost/payroll",
		"DYNAMO_ENDPOINT":         "http://localhost:8000",
		"JWT_SECRET":              "s3cret",
		"JWT_TTL":                 "90m",
		"PAY_ENTRY_AMOUNT_POLICY": "positive",
		"LOG_LEVEL":               "debug",
	}))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Addr != ":9090" || cfg.StorageBackend != BackendPostgres {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.DynamoEndpoint != "http://localhost:8000" {
		t.Errorf("DynamoEndpoint = %q", cfg.DynamoEndpoint)
	}
	if cfg.UsesDevSecret() || cfg.JWTTTL != 90*time.Minute {
		t.Errorf("jwt = %q %v", cfg.JWTSecret, cfg.JWTTTL)
	}
	if cfg.AmountPolicy != models.AmountPositive || cfg.LogLevel != slog.LevelDebug {
		t.Errorf("policy/level = %q %v", cfg.AmountPolicy, cfg.LogLevel)
	}
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown backend", map[string]string{"STORAGE_BACKEND": "mysql"}, "STORAGE_BACKEND"},
		{"postgres without url", map[string]string{"STORAGE_BACKEND": "postgres"}, "DATABASE_URL"},
		{"bad ttl", map[string]string{"JWT_TTL": "forever"}, "JWT_TTL"},
		{"negative ttl", map[string]string{"JWT_TTL": "-1h"}, "JWT_TTL"},
		{"bad policy", map[string]string{"PAY_ENTRY_AMOUNT_POLICY": "sometimes"}, "PAY_ENTRY_AMOUNT_POLICY"},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}, "LOG_LEVEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(envFunc(tt.env))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %s", err, tt.want)
			}
		})
	}
}
