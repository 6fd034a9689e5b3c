package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestOpMeta_SpanName(t *testing.T) {
	meta := OpMeta{Operation: "rl_code", Prefix: "GEO"}
	if got, want := meta.SpanName(), "refdata.rl_code"; got != want {
		t.Errorf("SpanName() = %q, want %q", got, want)
	}
}

func TestOpMeta_Validate(t *testing.T) {
	if err := (OpMeta{}).Validate(); !errors.Is(err, ErrMissingOperation) {
		t.Errorf("Validate() = %v, want ErrMissingOperation", err)
	}
	if err := (OpMeta{Operation: "find"}).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestOpMeta_Attributes(t *testing.T) {
	tests := []struct {
		name string
		meta OpMeta
		want int
	}{
		{name: "operation only", meta: OpMeta{Operation: "clear"}, want: 1},
		{name: "with prefix", meta: OpMeta{Operation: "clear", Prefix: "GEO"}, want: 2},
		{name: "all fields", meta: OpMeta{Operation: "clear", Prefix: "GEO", TypeCode: "CITY"}, want: 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := len(tc.meta.Attributes()); got != tc.want {
				t.Errorf("len(Attributes()) = %d, want %d", got, tc.want)
			}
		})
	}
}

func newRecordingTracer() (Tracer, *tracetest.SpanRecorder) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return NewTracer(tp.Tracer("test")), sr
}

func TestTracer_SpanStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{name: "success", want: codes.Ok},
		{name: "failure", err: errors.New("boom"), want: codes.Error},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tracer, sr := newRecordingTracer()
			_, span := tracer.StartSpan(context.Background(), OpMeta{Operation: "validate", TypeCode: "COUNTRY"})
			tracer.EndSpan(span, tc.err)

			spans := sr.Ended()
			if len(spans) != 1 {
				t.Fatalf("expected 1 span, got %d", len(spans))
			}
			s := spans[0]
			if s.Name() != "refdata.validate" {
				t.Errorf("span name = %q", s.Name())
			}
			if s.Status().Code != tc.want {
				t.Errorf("status = %v, want %v", s.Status().Code, tc.want)
			}

			var sawTypeCode bool
			for _, kv := range s.Attributes() {
				if kv.Key == attribute.Key("refdata.typecode") && kv.Value.AsString() == "COUNTRY" {
					sawTypeCode = true
				}
			}
			if !sawTypeCode {
				t.Error("refdata.typecode attribute missing")
			}
		})
	}
}
