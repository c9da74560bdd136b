package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func attrsOf(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestStartServiceSpan_Attributes(t *testing.T) {
	recorder := useRecorder(t)
	invoiceID := uuid.MustParse("0b7c2f0e-8f5e-4d4b-9d6f-1c7f3f0b9a11")

	_, span := StartServiceSpan(context.Background(), "invoice", "apply_payment",
		WithAttribute(SpanAttrInvoiceID, invoiceID))
	SetAttributes(span,
		SpanAttrAmount, decimal.RequireFromString("400"),
		SpanAttrCount, 2,
		42, "skipped",
	)
	SetAttribute(span, "paid", true)
	SetOK(span)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "invoice.apply_payment", ended[0].Name())
	assert.Equal(t, codes.Ok, ended[0].Status().Code)

	attrs := attrsOf(ended[0])
	assert.Equal(t, invoiceID.String(), attrs[SpanAttrInvoiceID].AsString())
	assert.Equal(t, "400.00", attrs[SpanAttrAmount].AsString())
	assert.Equal(t, int64(2), attrs[SpanAttrCount].AsInt64())
	assert.True(t, attrs["paid"].AsBool())
	assert.Len(t, attrs, 4)
}

func TestRecordError(t *testing.T) {
	recorder := useRecorder(t)

	_, span := StartSpan(context.Background(), "billing_cron.run")
	RecordError(span, nil)
	RecordError(span, errors.New("db down"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "db down", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "exception", ended[0].Events()[0].Name)
}

func TestSpanHelpers_NilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		SetAttributes(nil, "a", 1)
		SetAttribute(nil, "a", 1)
		RecordError(nil, errors.New("x"))
		SetOK(nil)
	})
}
