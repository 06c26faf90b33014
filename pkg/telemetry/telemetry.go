// Package telemetry provides the ambient logging and instrumentation the
// core carries regardless of which features a given deployment enables:
// structured logging via log/slog, and an OpenTelemetry tracer/meter pair
// built from the SDK with no exporter attached. Spans and metrics are real
// — they are created, recorded, and ended — they are simply not shipped
// anywhere; wiring an exporter is a telemetry sink, out of scope for the
// core itself.
package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config names the service for logging and tracing purposes.
type Config struct {
	ServiceName string
}

// Provider bundles the logger, tracer, and meter the orchestrator and PDO
// store use for their ambient instrumentation points.
type Provider struct {
	Logger *slog.Logger
	Tracer trace.Tracer
	Meter  metric.Meter

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

// New constructs a Provider with in-memory-only SDK providers.
func New(cfg Config) *Provider {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "governor-core"
	}

	tp := sdktrace.NewTracerProvider()
	mp := sdkmetric.NewMeterProvider()

	// Registering globally lets any package reach the same no-exporter
	// providers via otel.Tracer/otel.Meter without threading a *Provider
	// through it, matching how the teacher's observability package exposes
	// its providers process-wide.
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	return &Provider{
		Logger:         slog.Default().With("service", cfg.ServiceName),
		Tracer:         tp.Tracer(cfg.ServiceName),
		Meter:          mp.Meter(cfg.ServiceName),
		tracerProvider: tp,
		meterProvider:  mp,
	}
}

// Shutdown releases the underlying SDK providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if err := p.tracerProvider.Shutdown(ctx); err != nil {
		return err
	}
	return p.meterProvider.Shutdown(ctx)
}
