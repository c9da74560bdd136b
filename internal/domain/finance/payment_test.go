package finance

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReferenceNumber(t *testing.T) {
	now := time.Date(2025, 1, 15, 9, 30, 12, 0, time.UTC)
	ref := GenerateReferenceNumber(now)

	assert.Regexp(t, regexp.MustCompile(`^AUTO-20250115093012-[A-Z0-9]{6}$`), ref)
	assert.NotEqual(t, ref, GenerateReferenceNumber(now))
}

func TestNewPayment(t *testing.T) {
	payment, err := NewPayment(uuid.New(), nil, dec("100"), "", "")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodBankTransfer, payment.PaymentMethod)
	assert.Equal(t, PaymentStatusPending, payment.Status)
	assert.Regexp(t, `^AUTO-\d{14}-[A-Z0-9]{6}$`, payment.ReferenceNumber)

	payment, err = NewPayment(uuid.New(), nil, dec("100"), PaymentMethodMobileMoney, " QX12 ")
	require.NoError(t, err)
	assert.Equal(t, "QX12", payment.ReferenceNumber)
	assert.Equal(t, "Payment QX12", payment.TransactionDescription())

	_, err = NewPayment(uuid.New(), nil, dec("0"), "", "")
	assert.True(t, shared.HasCode(err, CodeInvalidAmount))

	_, err = NewPayment(uuid.New(), nil, dec("5"), PaymentMethod("gold"), "")
	assert.True(t, shared.HasCode(err, CodeInvalidPaymentMethod))
}

func TestPayment_Allocate(t *testing.T) {
	invoice, _ := newTestInvoice(t)
	_, err := invoice.AddItem(uuid.New(), "Rent", dec("1"), dec("1000"))
	require.NoError(t, err)
	invoice.RecalculateTotals()

	t.Run("without invoice everything goes to account", func(t *testing.T) {
		payment, err := NewPayment(invoice.TenantID, nil, dec("75"), "", "")
		require.NoError(t, err)

		alloc, err := payment.Allocate(nil)
		require.NoError(t, err)
		assert.True(t, alloc.ToInvoice.IsZero())
		assert.Equal(t, "75.00", alloc.ToAccount.StringFixed(2))
	})

	t.Run("overpayment remainder goes to account", func(t *testing.T) {
		payment, err := NewPayment(invoice.TenantID, &invoice.ID, dec("1000.01"), "", "")
		require.NoError(t, err)

		alloc, err := payment.Allocate(invoice)
		require.NoError(t, err)
		assert.Equal(t, "1000.00", alloc.ToInvoice.StringFixed(2))
		assert.Equal(t, "0.01", alloc.ToAccount.StringFixed(2))
		assert.True(t, alloc.Total().Equal(payment.Amount))
		assert.Equal(t, InvoiceStatusPaid, invoice.Status)
	})

	t.Run("other tenant's invoice", func(t *testing.T) {
		payment, err := NewPayment(uuid.New(), &invoice.ID, dec("5"), "", "")
		require.NoError(t, err)

		_, err = payment.Allocate(invoice)
		assert.True(t, shared.HasCode(err, CodeTenantMismatch))
	})
}

func TestPayment_Complete(t *testing.T) {
	payment, err := NewPayment(uuid.New(), nil, dec("10"), "", "")
	require.NoError(t, err)
	txID := uuid.New()
	receiptID := uuid.New()

	require.NoError(t, payment.Complete(txID, &receiptID, uuid.New()))
	assert.Equal(t, PaymentStatusCompleted, payment.Status)
	assert.Equal(t, txID, *payment.TransactionID)
	assert.NotNil(t, payment.ProcessedAt)

	assert.True(t, shared.HasCode(payment.Complete(uuid.New(), nil, uuid.New()), "INVALID_STATE"))
	assert.Equal(t, txID, *payment.TransactionID)
}

func TestValidatePaymentAgainstBalance(t *testing.T) {
	balance := dec("100.00")

	assert.NoError(t, ValidatePaymentAgainstBalance(dec("100.00"), balance))
	assert.NoError(t, ValidatePaymentAgainstBalance(dec("100.01"), balance))
	assert.True(t, shared.HasCode(ValidatePaymentAgainstBalance(dec("100.02"), balance), CodeAmountExceedsBalance))
	assert.True(t, shared.HasCode(ValidatePaymentAgainstBalance(decimal.Zero, balance), CodeInvalidAmount))
}
