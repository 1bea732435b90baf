package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/payroll/internal/auth"
	"github.com/mmynk/payroll/internal/config"
	"github.com/mmynk/payroll/internal/metrics"
	"github.com/mmynk/payroll/internal/middleware"
	"github.com/mmynk/payroll/internal/service"
	"github.com/mmynk/payroll/internal/storage"
	"github.com/mmynk/payroll/internal/storage/dynamo"
	"github.com/mmynk/payroll/internal/storage/postgres"
	"github.com/mmynk/payroll/internal/storage/sqlite"
	"github.com/mmynk/payroll/pkg/api/apiconnect"
	"github.com/mmynk/payroll/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logging.Setup()
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.SetupWithLevel(cfg.LogLevel)

	if cfg.UsesDevSecret() {
		slog.Warn("JWT_SECRET not set, using the development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "backend", cfg.StorageBackend)

	dynamoClient, err := dynamo.NewClient(ctx, cfg.AWSRegion, cfg.DynamoEndpoint)
	if err != nil {
		slog.Error("Failed to create DynamoDB client", "error", err)
		os.Exit(1)
	}
	employees := dynamo.New(dynamoClient, cfg.DynamoTable)
	if err := employees.EnsureTable(ctx); err != nil {
		slog.Error("Failed to prepare employee table", "table", cfg.DynamoTable, "error", err)
		os.Exit(1)
	}
	slog.Info("Employee directory initialized", "table", cfg.DynamoTable, "endpoint", cfg.DynamoEndpoint)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// Auth runs before logging so RPC logs carry the actor.
	interceptors := connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		middleware.AuthByProcedure(jwtManager, service.ReadOnlyProcedures...),
		middleware.LoggingInterceptor(service.ReadOnlyProcedures...),
	)

	mux := http.NewServeMux()

	mux.Handle(apiconnect.NewPayGroupServiceHandler(service.NewPayGroupService(store, m), interceptors))
	mux.Handle(apiconnect.NewDisbursementServiceHandler(service.NewDisbursementService(store), interceptors))
	mux.Handle(apiconnect.NewPayEntryServiceHandler(service.NewPayEntryService(store, cfg.AmountPolicy, m), interceptors))
	mux.Handle(apiconnect.NewBusinessEmployeeServiceHandler(service.NewBusinessEmployeeService(store), interceptors))
	mux.Handle(apiconnect.NewEmployeeServiceHandler(service.NewEmployeeService(employees), interceptors))

	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Add logging and CORS middleware
	loggedHandler := loggingMiddleware(corsMiddleware(mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	h2cHandler := h2c.NewHandler(loggedHandler, &http2.Server{})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h2cHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Connect server starting", "address", cfg.Addr, "amount_policy", cfg.AmountPolicy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}

func openStore(cfg config.Server) (storage.PayrollStore, error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		return postgres.New(cfg.DatabaseURL)
	default:
		return sqlite.New(cfg.DBPath)
	}
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Scrapes and probes are too chatty for info.
		level := slog.LevelInfo
		if r.URL.Path == "/metrics" || r.URL.Path == "/healthz" {
			level = slog.LevelDebug
		}

		slog.Log(r.Context(), level, "Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		slog.Log(r.Context(), level, "Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{
			"Content-Type", "Connect-Protocol-Version", "Connect-Timeout-Ms", "Authorization",
		}, ", "))
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
