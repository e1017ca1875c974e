// Package tracer wires OpenTelemetry for the backend: an OTLP/HTTP exporter,
// a ratio sampler that follows the caller's decision, and span helpers for
// the long-running analysis work.
package tracer

import (
	"context"

	"speech-rehearsal-be/internal/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName    = "speech-rehearsal-backend"
	instrumentName = "speech-rehearsal-be"
)

type Options struct {
	Enabled     bool
	Endpoint    string
	SampleRatio float64
	Environment string
}

type ShutdownFunc func(context.Context) error

// Init installs the tracer provider described by opts. Disabled tracing, or an
// exporter that cannot be built, leaves the global no-op provider in place.
func Init(ctx context.Context, opts Options, log logger.ILogger) ShutdownFunc {
	noop := func(context.Context) error { return nil }
	if !opts.Enabled {
		log.Info("Tracer", "Tracing disabled", map[string]interface{}{"hint": "set OTEL_ENABLED=true"})
		return noop
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(opts.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		log.Warn("Tracer", "Could not create OTLP exporter, tracing disabled", map[string]interface{}{
			"endpoint": opts.Endpoint,
			"error":    err.Error(),
		})
		return noop
	}

	tp := NewProvider(exporter, opts)
	otel.SetTracerProvider(tp)
	log.Info("Tracer", "Tracing enabled", map[string]interface{}{
		"endpoint":     opts.Endpoint,
		"sample_ratio": opts.SampleRatio,
	})
	return tp.Shutdown
}

// NewProvider builds a provider batching spans to exporter.
func NewProvider(exporter sdktrace.SpanExporter, opts Options) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sampler(opts.SampleRatio)),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.DeploymentEnvironmentKey.String(opts.Environment),
		)),
	)
}

func sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// Start opens a span on the global provider.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
