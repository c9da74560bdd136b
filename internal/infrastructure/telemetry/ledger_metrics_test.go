package telemetry

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, agg metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := agg.(metricdata.Sum[int64])
	require.True(t, ok, "want int64 sum, got %T", agg)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestLedgerMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewLedgerMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordTransactionPosted(ctx, "charge")
	m.RecordTransactionPosted(ctx, "credit")
	m.RecordTransactionReversed(ctx, "charge")
	m.RecordPaymentProcessed(ctx, PaymentKindInvoice, "bank_transfer", decimal.RequireFromString("600"))
	m.RecordPaymentProcessed(ctx, PaymentKindRent, "cash", decimal.RequireFromString("400"))
	m.RecordInvoicesGenerated(ctx, 3)
	m.RecordInvoicesGenerated(ctx, 0)
	m.RecordInvoicesOverdue(ctx, 1)

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, data["ledger_transactions_posted_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["ledger_transactions_reversed_total"]))
	assert.Equal(t, int64(2), sumOf(t, data["ledger_payments_processed_total"]))
	assert.Equal(t, int64(3), sumOf(t, data["ledger_invoices_generated_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["ledger_invoices_marked_overdue_total"]))

	hist, ok := data["ledger_payment_amount"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var total float64
	for _, dp := range hist.DataPoints {
		total += dp.Sum
	}
	assert.InDelta(t, 1000.0, total, 0.001)
}

func TestLedgerMetrics_NilSafe(t *testing.T) {
	var m *LedgerMetrics
	assert.NotPanics(t, func() {
		m.RecordTransactionPosted(context.Background(), "charge")
		m.RecordPaymentProcessed(context.Background(), PaymentKindRent, "cash", decimal.NewFromInt(1))
		m.RecordInvoicesOverdue(context.Background(), 2)
	})

	_, err := NewLedgerMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
	assert.NotNil(t, NewNoopLedgerMetrics())
}
