package otel

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// TraceContextFrom returns trace_id and span_id from the span in ctx, if any.
func TraceContextFrom(ctx context.Context) (traceID, spanID string) {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return "", ""
	}
	return span.SpanContext().TraceID().String(), span.SpanContext().SpanID().String()
}

// LogTraceFields returns a zerolog Func hook that adds trace_id and span_id
// to the event when a valid span exists in ctx. Use with .Func():
//
//	log.Info().Str("request_id", id).Func(otel.LogTraceFields(ctx)).Msg("...")
//
// Fields are only added when non-empty so logs stay clean with OTel disabled.
func LogTraceFields(ctx context.Context) func(e *zerolog.Event) {
	return func(e *zerolog.Event) {
		traceID, spanID := TraceContextFrom(ctx)
		if traceID != "" {
			e.Str("trace_id", traceID)
		}
		if spanID != "" {
			e.Str("span_id", spanID)
		}
	}
}
