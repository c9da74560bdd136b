package finance

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionType_BalanceSign(t *testing.T) {
	increases := []TransactionType{TransactionTypePayment, TransactionTypeRefund, TransactionTypeCredit}
	decreases := []TransactionType{TransactionTypeCharge, TransactionTypeAdjustment, TransactionTypePenalty}

	for _, tt := range increases {
		assert.Equal(t, int64(1), tt.BalanceSign(), tt.String())
	}
	for _, tt := range decreases {
		assert.Equal(t, int64(-1), tt.BalanceSign(), tt.String())
	}
}

func TestNewTransaction(t *testing.T) {
	accountID := uuid.New()

	t.Run("valid", func(t *testing.T) {
		tx, err := NewTransaction(accountID, TransactionTypePayment, dec("10.005"), TransactionDetails{
			PaymentMethod: PaymentMethodCash,
			Description:   "  cash at desk ",
		})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, tx.TransactionID)
		assert.Equal(t, "10.01", tx.Amount.StringFixed(2))
		assert.Equal(t, "cash at desk", tx.Description)
		assert.False(t, tx.IsReversed)
	})

	t.Run("zero amount", func(t *testing.T) {
		_, err := NewTransaction(accountID, TransactionTypePayment, dec("0"), TransactionDetails{})
		assert.True(t, shared.HasCode(err, CodeInvalidAmount))
	})

	t.Run("negative amount", func(t *testing.T) {
		_, err := NewTransaction(accountID, TransactionTypeCharge, dec("-3"), TransactionDetails{})
		assert.True(t, shared.HasCode(err, CodeInvalidAmount))
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewTransaction(accountID, TransactionType("gift"), dec("3"), TransactionDetails{})
		assert.True(t, shared.HasCode(err, CodeInvalidTransactionType))
	})

	t.Run("unknown method", func(t *testing.T) {
		_, err := NewTransaction(accountID, TransactionTypePayment, dec("3"), TransactionDetails{PaymentMethod: "barter"})
		assert.True(t, shared.HasCode(err, CodeInvalidPaymentMethod))
	})
}

func TestTransaction_Reverse(t *testing.T) {
	account := newTestAccount(t)
	actor := uuid.New()
	original := newTestTransaction(t, account, TransactionTypePayment, "250")
	require.NoError(t, account.Apply(original))

	reversal, err := original.Reverse(actor, "entered twice")
	require.NoError(t, err)
	require.NoError(t, account.Revert(original))

	assert.True(t, original.IsReversed)
	assert.True(t, reversal.IsReversal())
	assert.Equal(t, original.ID, *reversal.ReversedTransactionID)
	assert.Equal(t, original.TransactionType, reversal.TransactionType)
	assert.True(t, original.Amount.Equal(reversal.Amount))
	assert.True(t, strings.HasPrefix(reversal.Description, "Reversal of "+original.TransactionID.String()))
	assert.Contains(t, reversal.Description, "entered twice")
	assert.True(t, reversal.BalanceEffect().Equal(original.BalanceEffect().Neg()))
	assert.True(t, account.Balance.IsZero())

	t.Run("second reversal fails and mutates nothing", func(t *testing.T) {
		balance := account.Balance
		_, err := original.Reverse(actor, "again")
		assert.True(t, shared.HasCode(err, CodeAlreadyReversed))
		assert.True(t, account.Balance.Equal(balance))
	})

	t.Run("reversal cannot be reversed", func(t *testing.T) {
		_, err := reversal.Reverse(actor, "undo the undo")
		assert.True(t, shared.HasCode(err, "INVALID_STATE"))
		assert.False(t, reversal.IsReversed)
	})
}
