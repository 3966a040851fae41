package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/config"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/consumer"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/idempotency"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/logger"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/notify"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/profile"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/queue/sqs"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/report"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/repository/backend"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/scheduler"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/secrets"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/telemetry"
)

// slotTTL outlives a weekly slot so late replicas still see the claim
const slotTTL = 8 * 24 * time.Hour

func main() {
	_ = godotenv.Load()

	// Load configuration
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

	log.Info("Starting reporter service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("store", cfg.Store.Backend),
		zap.Bool("schedule_enabled", cfg.Report.ScheduleEnabled))

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

	// Initialize notification channel
	channel, err := buildChannel(ctx, cfg, logger.Component(log, "notify"))
	if err != nil {
		log.Fatal("Failed to configure notification channel", zap.Error(err))
	}

	aggregator := report.NewAggregator(store, channel, metrics, logger.Component(log, "aggregator"))

	// Initialize SQS client
	sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}

	c := consumer.NewConsumer(cfg, sqsClient, aggregator, logger.Component(log, "consumer"))

	// Start health check endpoint
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			if err := documents.Ping(r.Context()); err != nil {
				log.Warn("Health check failed", zap.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})

		addr := ":" + cfg.Consumer.HealthCheckPort
		log.Info("Health check server starting", zap.String("address", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("Health check server error", zap.Error(err))
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	log.Info("Consumer starting")
	g.Go(func() error {
		return c.Start(gctx)
	})

	if cfg.Report.ScheduleEnabled {
		var claimer scheduler.SlotClaimer = idempotency.Noop{}
		if cfg.Valkey.Host != "" {
			valkey, err := idempotency.NewClient(ctx, &cfg.Valkey)
			if err != nil {
				log.Fatal("Failed to connect to Valkey", zap.Error(err))
			}
			defer func() {
				if err := valkey.Close(); err != nil {
					log.Error("Failed to close Valkey client", zap.Error(err))
				}
			}()
			claimer = idempotency.NewGuard(valkey, "report-slot:", slotTTL, false, log)
		}

		s := scheduler.NewScheduler(sqsClient, claimer, cfg.Report, logger.Component(log, "scheduler"))
		g.Go(func() error {
			return s.Start(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("Reporter stopped with error", zap.Error(err))
		return
	}
	log.Info("Reporter shut down gracefully")
}

// buildChannel creates the configured notification channel
func buildChannel(ctx context.Context, cfg *config.Config, log *zap.Logger) (notify.Channel, error) {
	if cfg.Notify.Channel != "smtp" {
		return notify.NewLogChannel(log), nil
	}

	resolver, err := secrets.NewResolver(ctx, cfg.Secrets, log)
	if err != nil {
		return nil, err
	}

	var password string
	if cfg.SMTP.User != "" {
		password, err = secrets.ResolveRequired(ctx, resolver, cfg.SMTP.PasswordName)
		if err != nil {
			return nil, err
		}
	}

	return notify.NewSMTPChannel(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: password,
		From:     cfg.SMTP.From,
	}, log), nil
}
