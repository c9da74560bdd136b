package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReceipt(t *testing.T) {
	account := newTestAccount(t)
	tx := newTestTransaction(t, account, TransactionTypePayment, "600")

	receipt, err := NewReceipt(ReceiptInput{
		ReceiptNumber: "RCP-202501-0001",
		Transaction:   tx,
		TenantID:      uuid.New(),
		Allocation:    PaymentAllocation{ToInvoice: dec("600"), ToAccount: dec("0")},
		PaymentMethod: PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, tx.ID, receipt.TransactionID)
	assert.Equal(t, "600.00", receipt.Amount.StringFixed(2))
	assert.False(t, receipt.PaymentDate.IsZero())

	_, err = NewReceipt(ReceiptInput{
		ReceiptNumber: "RCP-202501-0002",
		Transaction:   tx,
		Allocation:    PaymentAllocation{ToInvoice: dec("600"), ToAccount: dec("0.01")},
	})
	assert.True(t, shared.HasCode(err, CodeInvalidAmount))

	_, err = NewReceipt(ReceiptInput{Transaction: tx})
	assert.Error(t, err)
}

type stubAllocator struct {
	next int64
	err  error
}

func (s *stubAllocator) Next(context.Context, string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.next++
	return s.next, nil
}

func TestNextDocumentNumber(t *testing.T) {
	at := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	alloc := &stubAllocator{next: 6}

	number, err := NextDocumentNumber(context.Background(), alloc, DocumentKindInvoice, at)
	require.NoError(t, err)
	assert.Equal(t, "INV-202501-0007", number)

	assert.Equal(t, "RCP-202512", SequenceScope(DocumentKindReceipt, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "RCP-202501-12345", FormatDocumentNumber(DocumentKindReceipt, at, 12345))

	_, err = NextDocumentNumber(context.Background(), &stubAllocator{err: errors.New("down")}, DocumentKindReceipt, at)
	assert.ErrorContains(t, err, "allocate RCP number")
}
