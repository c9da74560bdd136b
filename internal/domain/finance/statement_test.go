package finance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatement(t *testing.T) {
	accountID := uuid.New()
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	mk := func(txType TransactionType, amount string) *Transaction {
		tx, err := NewTransaction(accountID, txType, dec(amount), TransactionDetails{})
		require.NoError(t, err)
		return tx
	}

	rent := mk(TransactionTypeCharge, "1000")
	paid := mk(TransactionTypePayment, "600")
	wrong := mk(TransactionTypePenalty, "50")
	reversal, err := wrong.Reverse(uuid.New(), "posted in error")
	require.NoError(t, err)

	st, err := NewStatement(accountID, from, to, dec("200"), []Transaction{*rent, *paid, *wrong, *reversal})
	require.NoError(t, err)

	assert.Len(t, st.Transactions, 4)
	assert.Equal(t, "200.00", st.OpeningBalance.StringFixed(2))
	assert.Equal(t, "600.00", st.TotalCredits.StringFixed(2))
	assert.Equal(t, "1000.00", st.TotalDebits.StringFixed(2))
	assert.Equal(t, "-200.00", st.ClosingBalance.StringFixed(2))
}

func TestNewStatement_InvalidRange(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := NewStatement(uuid.New(), day, day, dec("0"), nil)
	assert.True(t, shared.HasCode(err, CodeInvalidDateRange))
}
