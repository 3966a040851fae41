package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/BarkinBalci/lifecycle-analytics-service/docs"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/config"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/handler"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/idempotency"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/logger"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/profile"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/queue/sqs"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/repository/backend"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/secrets"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/service"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/sink"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

// @title Lifecycle Analytics Service API
// @version 1.0
// @description API for tracking funnel lifecycle events and requesting weekly reports
// @host localhost:8080
// @BasePath /
// @schemes http https
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment, cfg.Service.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		_ = log.Sync()
	}(log)

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort),
		zap.String("store", cfg.Store.Backend))

	// Configure Swagger host dynamically
	docs.SwaggerInfo.Host = cfg.Service.Host

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry, cfg.Service.Version)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.Error("Failed to shut down telemetry", zap.Error(err))
		}
	}()

	metrics, err := telemetry.NewMetrics(telemetry.Meter())
	if err != nil {
		log.Fatal("Failed to create metrics", zap.Error(err))
	}

	// Initialize document store
	documents, err := backend.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open document store", zap.Error(err))
	}
	defer func() {
		if err := documents.Close(); err != nil {
			log.Error("Failed to close document store", zap.Error(err))
		}
	}()

	store := profile.NewStore(documents, cfg.Store.Timeout, logger.Component(log, "profile"))

	// Initialize analytics sinks
	resolver, err := secrets.NewResolver(ctx, cfg.Secrets, log)
	if err != nil {
		log.Fatal("Failed to create secrets resolver", zap.Error(err))
	}

	sinks, err := buildSinks(ctx, cfg, resolver, logger.Component(log, "sink"))
	if err != nil {
		log.Fatal("Failed to configure analytics sinks", zap.Error(err))
	}
	fanout := sink.NewFanout(sinks, cfg.Tracking.SinkTimeout, logger.Component(log, "sink"))

	// Initialize idempotency guard
	var guard service.IdempotencyGuard = idempotency.Noop{}
	if cfg.Valkey.IdempotencyEnabled && cfg.Valkey.Host != "" {
		valkey, err := idempotency.NewClient(ctx, &cfg.Valkey)
		if err != nil {
			log.Fatal("Failed to connect to Valkey", zap.Error(err))
		}
		defer func() {
			if err := valkey.Close(); err != nil {
				log.Error("Failed to close Valkey client", zap.Error(err))
			}
		}()
		guard = idempotency.NewGuard(valkey, "event:", cfg.Valkey.IdempotencyTTL, cfg.Valkey.IdempotencyFailOpen, log)
	}

	// Initialize SQS client
	sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}

	// Initialize services
	tracker := service.NewTrackingService(store, fanout, guard, cfg.Tracking, metrics, logger.Component(log, "tracking"))
	reporter := service.NewReportService(sqsClient, store, cfg.Report.Recipients, logger.Component(log, "report"))

	// Initialize handler
	h := handler.NewHandler(tracker, reporter, documents, log)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Service.APIPort),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("API server starting", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down API server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down API server", zap.Error(err))
	}
}

// buildSinks creates the enabled analytics sinks with credentials from the resolver
func buildSinks(ctx context.Context, cfg *config.Config, resolver secrets.Resolver, log *zap.Logger) ([]sink.Sink, error) {
	client := &http.Client{Timeout: cfg.Tracking.SinkTimeout}
	ids := sink.UUIDGenerator{}

	var sinks []sink.Sink
	if cfg.GA4.Enabled {
		apiSecret, err := secrets.ResolveRequired(ctx, resolver, cfg.GA4.APISecretName)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink.NewGA4(sink.GA4Config{
			Endpoint:      cfg.GA4.Endpoint,
			MeasurementID: cfg.GA4.MeasurementID,
			APISecret:     apiSecret,
			Debug:         cfg.Tracking.Debug,
		}, client, ids, log))
	}

	if cfg.Mixpanel.Enabled {
		token, err := secrets.ResolveRequired(ctx, resolver, cfg.Mixpanel.TokenName)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink.NewMixpanel(sink.MixpanelConfig{
			Endpoint: cfg.Mixpanel.Endpoint,
			Token:    token,
		}, client, ids, log))
	}

	log.Info("Analytics sinks configured", zap.Int("count", len(sinks)))
	return sinks, nil
}
