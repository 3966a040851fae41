// Package telemetry initializes OpenTelemetry tracing and metrics exporters.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/config"
)

const instrumentationName = "github.com/BarkinBalci/lifecycle-analytics-service"

// Shutdown flushes and stops the providers
type Shutdown func(ctx context.Context) error

// Init configures the global tracer and meter providers. With no endpoint the
// global no-op providers stay in place.
func Init(ctx context.Context, cfg config.Telemetry, version string) (Shutdown, error) {
	if cfg.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry resource: %w", err)
	}

	traceOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
	}
	traceExp, err := otlptracehttp.New(ctx, traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
	}
	metricExp, err := otlpmetrichttp.New(ctx, metricOpts...)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(15*time.Second))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

// Tracer returns the service tracer from the global provider
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// Metrics holds the service counters
type Metrics struct {
	EventsTracked    metric.Int64Counter
	SinkFailures     metric.Int64Counter
	ReportsGenerated metric.Int64Counter
}

// Meter returns the service meter from the global provider
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// NewMetrics registers the service counters on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	tracked, err := meter.Int64Counter("lifecycle.events.tracked",
		metric.WithDescription("Tracked lifecycle events by stage and outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create events counter: %w", err)
	}

	sinkFailures, err := meter.Int64Counter("lifecycle.sink.failures",
		metric.WithDescription("Failed analytics sink deliveries by sink"))
	if err != nil {
		return nil, fmt.Errorf("failed to create sink failure counter: %w", err)
	}

	reports, err := meter.Int64Counter("lifecycle.reports.generated",
		metric.WithDescription("Generated weekly reports by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create reports counter: %w", err)
	}

	return &Metrics{
		EventsTracked:    tracked,
		SinkFailures:     sinkFailures,
		ReportsGenerated: reports,
	}, nil
}

// NoopMetrics returns counters that record nothing
func NoopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter(instrumentationName))
	return m
}
