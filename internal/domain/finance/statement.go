package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Statement is an account's activity over a date range.
// Reversed originals and their reversals are listed but left out of every total.
type Statement struct {
	AccountID      uuid.UUID
	From           time.Time
	To             time.Time
	OpeningBalance decimal.Decimal
	Transactions   []Transaction
	TotalCredits   decimal.Decimal
	TotalDebits    decimal.Decimal
	ClosingBalance decimal.Decimal
}

// NewStatement totals the period's transactions on top of the opening balance
func NewStatement(accountID uuid.UUID, from, to time.Time, opening decimal.Decimal, txs []Transaction) (*Statement, error) {
	if !to.After(from) {
		return nil, shared.NewDomainError(CodeInvalidDateRange, "Statement end must be after its start")
	}

	st := &Statement{
		AccountID:      accountID,
		From:           from,
		To:             to,
		OpeningBalance: shared.RoundMoney(opening),
		Transactions:   txs,
		TotalCredits:   decimal.Zero,
		TotalDebits:    decimal.Zero,
	}
	for i := range txs {
		tx := &txs[i]
		if tx.IsReversed || tx.IsReversal() {
			continue
		}
		effect := tx.BalanceEffect()
		if effect.IsPositive() {
			st.TotalCredits = st.TotalCredits.Add(effect)
		} else {
			st.TotalDebits = st.TotalDebits.Add(effect.Neg())
		}
	}
	st.ClosingBalance = st.OpeningBalance.Add(st.TotalCredits).Sub(st.TotalDebits)
	return st, nil
}
