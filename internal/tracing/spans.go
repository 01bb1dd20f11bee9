package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names for snapshot persistence.
const (
	SpanPersistSave  = "persist.save"
	SpanPersistLoad  = "persist.load"
	SpanPersistClear = "persist.clear"
)

// Span attribute keys.
const (
	AttrStorageBackend = "storage.backend"
	AttrStorageKey     = "storage.key"
	AttrSnapshotPaths  = "snapshot.paths"
	AttrSnapshotBytes  = "snapshot.bytes"
	AttrErrorMessage   = "error.message"
)

// Start opens an internal span on tracer. A nil tracer yields a no-op span.
func Start(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// End closes span, marking it failed when err is non-nil.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
