// Package tracing carries trace context across process boundaries: gRPC
// metadata, HTTP headers and inbound HTTP requests.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/metadata"
)

// TraceIDHeader carries the bare trace id for systems that cannot parse
// traceparent.
const TraceIDHeader = "x-trace-id"

// metadataCarrier adapts gRPC metadata, whose keys are lower case, to
// propagation.TextMapCarrier.
type metadataCarrier metadata.MD

func (c metadataCarrier) Get(key string) string {
	if values := metadata.MD(c).Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}

func (c metadataCarrier) Set(key, value string) { metadata.MD(c).Set(key, value) }

func (c metadataCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// InjectMetadata injects tracing context into gRPC metadata.
func InjectMetadata(ctx context.Context, md metadata.MD) metadata.MD {
	if md == nil {
		md = metadata.New(nil)
	}
	otel.GetTextMapPropagator().Inject(ctx, metadataCarrier(md))
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		md.Set(TraceIDHeader, sc.TraceID().String())
	}
	return md
}

// ExtractMetadata extracts tracing context from gRPC metadata.
func ExtractMetadata(ctx context.Context, md metadata.MD) context.Context {
	if md == nil {
		return ctx
	}
	ctx = otel.GetTextMapPropagator().Extract(ctx, metadataCarrier(md))
	if traceIDs := md.Get(TraceIDHeader); len(traceIDs) > 0 {
		trace.SpanFromContext(ctx).SetAttributes(attribute.String(TraceIDHeader, traceIDs[0]))
	}
	return ctx
}

// InjectHeaders is InjectMetadata for a map of outbound headers, such as
// broker record headers.
func InjectHeaders(ctx context.Context, headers map[string]string) map[string]string {
	if headers == nil {
		headers = make(map[string]string)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(headers))
	return headers
}

// Tracer returns a named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
