// Package correlation propagates correlation identifiers across HTTP requests
// and outbox events.
package correlation

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"
)

type correlationKey struct{}

// ExtractCorrelationID fetches a correlation ID from the context if present.
func ExtractCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if val, ok := ctx.Value(correlationKey{}).(string); ok {
		return val
	}
	return ""
}

func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// EnsureCorrelationID guarantees a correlation ID on the context, generating one when missing.
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	cid := ExtractCorrelationID(ctx)
	if cid == "" {
		cid = ulid.Make().String()
	}
	return ContextWithCorrelationID(ctx, cid), cid
}

// Metadata builds the envelope metadata stamped on outgoing events.
func Metadata(ctx context.Context, now time.Time) map[string]string {
	cid := ExtractCorrelationID(ctx)
	if cid == "" {
		cid = ulid.Make().String()
	}
	md := map[string]string{
		"correlation_id": cid,
		"published_at":   now.UTC().Format(time.RFC3339),
	}
	sc := trace.SpanContextFromContext(ctx)
	if sc.IsValid() {
		md["trace_id"] = sc.TraceID().String()
		md["span_id"] = sc.SpanID().String()
	}
	return md
}

// ContextFromMetadata restores the correlation ID and remote span carried by an event.
func ContextFromMetadata(ctx context.Context, md map[string]string) context.Context {
	ctx = ContextWithCorrelationID(ctx, md["correlation_id"])
	return ContextWithRemoteSpan(ctx, md["trace_id"], md["span_id"])
}

// ContextWithRemoteSpan seeds the context with a remote span if valid identifiers are provided.
func ContextWithRemoteSpan(ctx context.Context, traceIDHex, spanIDHex string) context.Context {
	if traceIDHex == "" || spanIDHex == "" {
		return ctx
	}

	traceID, err := trace.TraceIDFromHex(traceIDHex)
	if err != nil {
		return ctx
	}
	spanID, err := trace.SpanIDFromHex(spanIDHex)
	if err != nil {
		return ctx
	}

	parent := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled, Remote: true})
	return trace.ContextWithSpanContext(ctx, parent)
}
