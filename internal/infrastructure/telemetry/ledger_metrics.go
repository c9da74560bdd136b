package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// PaymentKind distinguishes invoice payments from rent payments in metrics.
type PaymentKind string

const (
	PaymentKindInvoice PaymentKind = "payment"
	PaymentKindRent    PaymentKind = "rent_payment"
)

var (
	attrTransactionType = attribute.Key("transaction_type")
	attrPaymentKind     = attribute.Key("payment_kind")
	attrPaymentMethod   = attribute.Key("payment_method")
)

// paymentAmountBuckets are in currency units
var paymentAmountBuckets = []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 50000}

// LedgerMetrics records ledger business counters.
// A nil *LedgerMetrics is valid and records nothing.
type LedgerMetrics struct {
	transactionsPosted   metric.Int64Counter
	transactionsReversed metric.Int64Counter
	paymentsProcessed    metric.Int64Counter
	paymentAmount        metric.Float64Histogram
	invoicesGenerated    metric.Int64Counter
	invoicesOverdue      metric.Int64Counter
}

// NewLedgerMetrics registers the ledger instruments on meter.
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var (
		m    LedgerMetrics
		errs []error
	)
	counter := func(name, desc, unit string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			errs = append(errs, fmt.Errorf("counter %s: %w", name, err))
		}
		return c
	}

	m.transactionsPosted = counter("ledger_transactions_posted_total", "Transactions posted to accounts", "{transactions}")
	m.transactionsReversed = counter("ledger_transactions_reversed_total", "Transactions reversed", "{transactions}")
	m.paymentsProcessed = counter("ledger_payments_processed_total", "Payments and rent payments processed", "{payments}")
	m.invoicesGenerated = counter("ledger_invoices_generated_total", "Invoices created by generation", "{invoices}")
	m.invoicesOverdue = counter("ledger_invoices_marked_overdue_total", "Invoices moved to overdue", "{invoices}")

	var err error
	m.paymentAmount, err = meter.Float64Histogram("ledger_payment_amount",
		metric.WithDescription("Amount of processed payments"),
		metric.WithUnit("{currency}"),
		metric.WithExplicitBucketBoundaries(paymentAmountBuckets...),
	)
	if err != nil {
		errs = append(errs, fmt.Errorf("histogram ledger_payment_amount: %w", err))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &m, nil
}

// NewNoopLedgerMetrics returns metrics that record nothing, for tests and tools.
func NewNoopLedgerMetrics() *LedgerMetrics {
	m, _ := NewLedgerMetrics(noop.NewMeterProvider().Meter("noop"))
	return m
}

// RecordTransactionPosted counts a posted transaction.
func (m *LedgerMetrics) RecordTransactionPosted(ctx context.Context, txType string) {
	if m == nil {
		return
	}
	m.transactionsPosted.Add(ctx, 1, metric.WithAttributes(attrTransactionType.String(txType)))
}

// RecordTransactionReversed counts a reversal.
func (m *LedgerMetrics) RecordTransactionReversed(ctx context.Context, txType string) {
	if m == nil {
		return
	}
	m.transactionsReversed.Add(ctx, 1, metric.WithAttributes(attrTransactionType.String(txType)))
}

// RecordPaymentProcessed counts a processed payment and records its amount.
func (m *LedgerMetrics) RecordPaymentProcessed(ctx context.Context, kind PaymentKind, method string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attrPaymentKind.String(string(kind)), attrPaymentMethod.String(method))
	m.paymentsProcessed.Add(ctx, 1, attrs)
	m.paymentAmount.Record(ctx, amount.InexactFloat64(), attrs)
}

// RecordInvoicesGenerated counts newly created invoices.
func (m *LedgerMetrics) RecordInvoicesGenerated(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.invoicesGenerated.Add(ctx, int64(n))
}

// RecordInvoicesOverdue counts invoices moved to overdue.
func (m *LedgerMetrics) RecordInvoicesOverdue(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.invoicesOverdue.Add(ctx, int64(n))
}

// ErrMeterNil is returned by NewLedgerMetrics when meter is nil.
var ErrMeterNil = errors.New("ledger metrics: meter cannot be nil")
