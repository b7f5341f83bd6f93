package bootstrap

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	log "github.com/sirupsen/logrus"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/Goden-Gun/balthazar/pkg/config"
)

// ShutdownFunc flushes and stops a subsystem.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// NewSpanExporter builds the exporter selected by cfg.Exporter. Exporters
// connect lazily, so an unreachable collector does not fail startup.
func NewSpanExporter(ctx context.Context, cfg config.TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case config.ExporterStdout:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case config.ExporterOTLPGRPC:
		return otlptracegrpc.New(ctx, otlptracegrpc.WithEndpointURL(cfg.Endpoint))
	case config.ExporterOTLPHTTP, "":
		return otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	default:
		return nil, fmt.Errorf("unsupported span exporter %q", cfg.Exporter)
	}
}

// jaegerCollectorPort is the legacy Jaeger HTTP collector port the default
// endpoint points at. OTLP collectors listen on 4317 and 4318.
const jaegerCollectorPort = "14268"

var jaegerPortWarning sync.Once

// warnJaegerEndpoint logs once when an OTLP exporter targets the Jaeger
// collector port, where spans would be rejected.
func warnJaegerEndpoint(cfg config.TracingConfig) {
	switch cfg.Exporter {
	case config.ExporterOTLPHTTP, config.ExporterOTLPGRPC, "":
	default:
		return
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Port() != jaegerCollectorPort {
		return
	}
	jaegerPortWarning.Do(func() {
		log.WithFields(log.Fields{
			"component": "tracing",
			"endpoint":  cfg.Endpoint,
			"exporter":  string(cfg.Exporter),
		}).Warn("tracing endpoint uses the jaeger collector port; OTLP collectors listen on 4317 (grpc) and 4318 (http)")
	})
}

// InitTracing installs the global tracer provider and W3C propagators, and
// returns the shutdown function that flushes pending spans. With telemetry
// disabled it only installs the propagators.
func InitTracing(ctx context.Context, serviceName string, cfg config.TracingConfig) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if cfg.DisableOpenTelemetry {
		return noopShutdown, nil
	}

	warnJaegerEndpoint(cfg)
	exporter, err := NewSpanExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create span exporter: %w", err)
	}
	provider, err := NewTracerProvider(serviceName, cfg, exporter)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}

// NewTracerProvider wires exporter into a batching provider tagged with
// service.name.
func NewTracerProvider(serviceName string, cfg config.TracingConfig, exporter sdktrace.SpanExporter) (*sdktrace.TracerProvider, error) {
	if serviceName == "" {
		serviceName = "unknown-service"
	}
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, fmt.Errorf("build tracing resource: %w", err)
	}

	ratio := cfg.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	), nil
}
