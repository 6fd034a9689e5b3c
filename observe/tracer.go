package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OpMeta describes one reference-data operation for telemetry.
type OpMeta struct {
	// Operation is the operation name, e.g. "domain_code" (required).
	Operation string

	// Prefix is the group prefix: a domain, LISTREF or EXTENDED.
	Prefix string

	// TypeCode is the typecode the operation targets.
	TypeCode string
}

// SpanName returns the span name: refdata.<operation>.
func (m OpMeta) SpanName() string {
	return "refdata." + m.Operation
}

// Validate reports ErrMissingOperation when Operation is empty.
func (m OpMeta) Validate() error {
	if m.Operation == "" {
		return ErrMissingOperation
	}
	return nil
}

// Attributes returns the telemetry attributes for the operation. Empty
// optional fields are omitted.
func (m OpMeta) Attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("refdata.operation", m.Operation)}
	if m.Prefix != "" {
		attrs = append(attrs, attribute.String("refdata.prefix", m.Prefix))
	}
	if m.TypeCode != "" {
		attrs = append(attrs, attribute.String("refdata.typecode", m.TypeCode))
	}
	return attrs
}

// Tracer starts and ends spans for reference-data operations.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span)
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(meta.Attributes()...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("refdata.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
