// Package trace configures the OpenTelemetry tracer used across the module.
package trace

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/wolfeidau/mapzip"

var tracer trace.Tracer

// Provider owns the tracer provider for the lifetime of the process.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// NewProvider installs a global tracer provider. The span exporter is
// selected with the TRACE_EXPORTER environment variable: "grpc" for OTLP,
// "stdout" for pretty-printed spans, anything else for a no-op exporter.
func NewProvider(ctx context.Context, name, version string) (*Provider, error) {
	exp, err := newExporter(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	res, err := newResource(ctx, name, version)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	tracer = tp.Tracer(name)

	return &Provider{tp: tp}, nil
}

// Start opens a span on the configured tracer. When NewProvider has not been
// called it falls back to the global provider, which is a no-op by default,
// so library callers pay nothing for tracing they did not set up.
func Start(ctx context.Context, name string) (context.Context, trace.Span) {
	if tracer != nil {
		return tracer.Start(ctx, name)
	}
	return otel.Tracer(instrumentationName).Start(ctx, name)
}

func (p *Provider) Shutdown(ctx context.Context) error {
	return p.tp.Shutdown(ctx)
}

func newExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	exporter := os.Getenv("TRACE_EXPORTER")

	switch exporter {
	case "grpc":
		return otlptrace.New(ctx, otlptracegrpc.NewClient())
	case "stdout":
		return stdouttrace.New()
	default:
		return tracetest.NewNoopExporter(), nil
	}
}

func newResource(ctx context.Context, name, version string) (*resource.Resource, error) {
	options := []resource.Option{
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithHost(),
		resource.WithFromEnv(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(name),
			semconv.ServiceVersionKey.String(version),
			semconv.TelemetrySDKLanguageGo,
		),
	}

	return resource.New(ctx, options...)
}
