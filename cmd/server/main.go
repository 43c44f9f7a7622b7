package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kevin07696/payment-metrics/internal/adapters/logging"
	adapterports "github.com/kevin07696/payment-metrics/internal/adapters/ports"
	"github.com/kevin07696/payment-metrics/internal/adapters/postgres"
	"github.com/kevin07696/payment-metrics/internal/adapters/secrets"
	"github.com/kevin07696/payment-metrics/internal/adapters/stripe"
	"github.com/kevin07696/payment-metrics/internal/config"
	"github.com/kevin07696/payment-metrics/internal/domain/ports"
	reportHandler "github.com/kevin07696/payment-metrics/internal/handlers/report"
	"github.com/kevin07696/payment-metrics/internal/services/metrics"
	pkghttp "github.com/kevin07696/payment-metrics/pkg/http"
	"github.com/kevin07696/payment-metrics/pkg/observability"
)

func main() {
	// Load .env file if present (development convenience)
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logger)
	defer logger.Sync()

	logger.Info("Starting payment metrics service",
		zap.String("source_driver", cfg.Source.Driver),
		zap.String("approval_basis", cfg.Metrics.ApprovalBasis),
		zap.String("gmv_basis", cfg.Metrics.GMVBasis),
	)

	ctx := context.Background()

	source, cleanup, err := initEventSource(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize event source", zap.Error(err))
	}
	defer cleanup()

	classifier, err := metrics.NewClassifier(
		metrics.ApprovalBasis(cfg.Metrics.ApprovalBasis),
		metrics.GMVBasis(cfg.Metrics.GMVBasis),
	)
	if err != nil {
		logger.Fatal("Invalid classification basis", zap.Error(err))
	}

	aggregator, err := metrics.NewAggregator(source, classifier, logger)
	if err != nil {
		logger.Fatal("Failed to initialize aggregator", zap.Error(err))
	}

	handler := reportHandler.NewReportHandler(aggregator, logger)

	httpMux := http.NewServeMux()
	httpMux.HandleFunc("/v1/report", handler.GetReport)
	httpMux.HandleFunc("/healthz", handler.HealthCheck)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: httpMux,
	}

	metricsServer := observability.StartMetricsServer(fmt.Sprintf("%d", cfg.Server.MetricsPort))
	logger.Info("Prometheus metrics server listening", zap.Int("port", cfg.Server.MetricsPort))

	go func() {
		logger.Info("HTTP server listening",
			zap.String("address", httpServer.Addr),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down servers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	if err := observability.ShutdownMetricsServer(metricsServer); err != nil {
		logger.Error("Metrics server shutdown error", zap.Error(err))
	}

	logger.Info("Servers stopped")
}

// initEventSource wires the configured source driver. The returned
// cleanup releases driver resources (the pgx pool for postgres) and is
// a no-op for stripe.
func initEventSource(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.EventSource, func(), error) {
	switch cfg.Source.Driver {
	case "stripe":
		apiKey, err := resolveAPIKey(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}

		stripeCfg := stripe.DefaultConfig()
		stripeCfg.BaseURL = cfg.Source.BaseURL
		stripeCfg.APIKey = apiKey
		stripeCfg.MaxRetries = cfg.Source.MaxRetries
		stripeCfg.RequestsPerSecond = cfg.Source.RequestsPerSecond

		httpClient := pkghttp.NewClient(pkghttp.SourceClientConfig(), time.Duration(cfg.Source.TimeoutSeconds)*time.Second)
		source := stripe.NewEventSource(stripeCfg, httpClient, logging.NewZapLogger(logger))
		return source, func() {}, nil

	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}
		logger.Info("Database connection established")
		return postgres.NewEventSource(pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown source driver %q", cfg.Source.Driver)
	}
}

// resolveAPIKey obtains the Stripe secret key from the configured
// secrets backend, falling back to the direct env value
func resolveAPIKey(ctx context.Context, cfg *config.Config, logger *zap.Logger) (string, error) {
	if cfg.Secrets.Backend == "env" || cfg.Source.APIKeySecretPath == "" {
		if cfg.Source.APIKey == "" {
			return "", fmt.Errorf("no Stripe API key configured")
		}
		return cfg.Source.APIKey, nil
	}

	var (
		manager adapterports.SecretManagerAdapter
		err     error
	)
	switch cfg.Secrets.Backend {
	case "local":
		manager = secrets.NewLocalSecretManager(cfg.Secrets.LocalPath, logger)
	case "aws":
		manager, err = secrets.NewAWSSecretsManagerAdapter(ctx, &secrets.AWSSecretsManagerConfig{
			Region: cfg.Secrets.AWSRegion,
		}, logger)
	case "vault":
		manager, err = secrets.NewVaultAdapter(&secrets.VaultConfig{
			Address:   cfg.Secrets.VaultAddress,
			Token:     cfg.Secrets.VaultToken,
			MountPath: cfg.Secrets.VaultMountPath,
		}, logger)
	default:
		return "", fmt.Errorf("unknown secrets backend %q", cfg.Secrets.Backend)
	}
	if err != nil {
		return "", fmt.Errorf("failed to initialize secrets backend: %w", err)
	}

	secret, err := manager.GetSecret(ctx, cfg.Source.APIKeySecretPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve Stripe API key: %w", err)
	}
	return secret.Value, nil
}

// initLogger creates a zap logger based on environment
func initLogger(cfg config.LoggerConfig) *zap.Logger {
	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}
