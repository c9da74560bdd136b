package finance

import (
	"testing"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestAccount(t *testing.T) *Account {
	t.Helper()
	account, err := NewAccount(uuid.New(), decimal.Zero)
	require.NoError(t, err)
	return account
}

func newTestTransaction(t *testing.T, account *Account, txType TransactionType, amount string) *Transaction {
	t.Helper()
	tx, err := NewTransaction(account.ID, txType, dec(amount), TransactionDetails{})
	require.NoError(t, err)
	return tx
}

func TestNewAccount(t *testing.T) {
	account, err := NewAccount(uuid.New(), dec("500"))
	require.NoError(t, err)
	assert.True(t, account.Balance.IsZero())
	assert.Equal(t, "500.00", account.CreditLimit.StringFixed(2))
	assert.Equal(t, 1, account.Version)

	_, err = NewAccount(uuid.New(), dec("-1"))
	assert.True(t, shared.HasCode(err, CodeInvalidAmount))

	_, err = NewAccount(uuid.Nil, decimal.Zero)
	assert.Error(t, err)
}

func TestAccount_BalanceIsSignedSumOfTransactions(t *testing.T) {
	account := newTestAccount(t)

	postings := []struct {
		txType TransactionType
		amount string
	}{
		{TransactionTypeCharge, "1000.00"},
		{TransactionTypePayment, "600.00"},
		{TransactionTypePenalty, "25.50"},
		{TransactionTypeCredit, "10.00"},
		{TransactionTypeRefund, "5.25"},
		{TransactionTypeAdjustment, "0.75"},
	}

	expected := decimal.Zero
	for _, p := range postings {
		tx := newTestTransaction(t, account, p.txType, p.amount)
		require.NoError(t, account.Apply(tx))
		expected = expected.Add(tx.BalanceEffect())
	}

	assert.True(t, account.Balance.Equal(expected))
	assert.Equal(t, "-411.00", account.Balance.StringFixed(2))
	assert.Equal(t, 1+len(postings), account.Version)
}

func TestAccount_ApplyRejectsForeignTransaction(t *testing.T) {
	account := newTestAccount(t)
	other := newTestAccount(t)
	tx := newTestTransaction(t, other, TransactionTypePayment, "10")

	err := account.Apply(tx)
	assert.Error(t, err)
	assert.True(t, account.Balance.IsZero())
	assert.Equal(t, 1, account.Version)
}

func TestAccount_RevertRestoresBalance(t *testing.T) {
	account := newTestAccount(t)
	charge := newTestTransaction(t, account, TransactionTypeCharge, "300")
	payment := newTestTransaction(t, account, TransactionTypePayment, "120")
	require.NoError(t, account.Apply(charge))
	before := account.Balance
	require.NoError(t, account.Apply(payment))

	require.NoError(t, account.Revert(payment))
	assert.True(t, account.Balance.Equal(before))
}

func TestAccount_DerivedValues(t *testing.T) {
	account, err := NewAccount(uuid.New(), dec("200"))
	require.NoError(t, err)

	assert.False(t, account.IsInDebt())
	assert.True(t, account.DebtAmount().IsZero())
	assert.Equal(t, "200.00", account.AvailableCredit().StringFixed(2))

	require.NoError(t, account.Apply(newTestTransaction(t, account, TransactionTypeCharge, "150")))
	assert.True(t, account.IsInDebt())
	assert.Equal(t, "150.00", account.DebtAmount().StringFixed(2))
	assert.Equal(t, "50.00", account.AvailableCredit().StringFixed(2))

	require.NoError(t, account.Apply(newTestTransaction(t, account, TransactionTypeCharge, "100")))
	assert.True(t, account.AvailableCredit().IsZero())
}

func TestAccount_SetCreditLimit(t *testing.T) {
	account := newTestAccount(t)
	require.NoError(t, account.SetCreditLimit(dec("99.999")))
	assert.Equal(t, "100.00", account.CreditLimit.StringFixed(2))
	assert.Error(t, account.SetCreditLimit(dec("-5")))
}
