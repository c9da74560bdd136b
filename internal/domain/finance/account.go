package finance

import (
	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Account holds the running balance and credit limit of one user.
// Balance only moves through Apply and Revert.
type Account struct {
	shared.BaseAggregateRoot
	UserID      uuid.UUID
	Balance     decimal.Decimal
	CreditLimit decimal.Decimal
}

// NewAccount opens a zero-balance account for a user
func NewAccount(userID uuid.UUID, creditLimit decimal.Decimal) (*Account, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	creditLimit = shared.RoundMoney(creditLimit)
	if creditLimit.IsNegative() {
		return nil, errNegativeAmount("Credit limit")
	}

	return &Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Balance:           decimal.Zero,
		CreditLimit:       creditLimit,
	}, nil
}

// Apply adds the transaction's balance effect
func (a *Account) Apply(tx *Transaction) error {
	if err := a.checkOwnership(tx); err != nil {
		return err
	}
	a.Balance = a.Balance.Add(tx.BalanceEffect())
	a.MarkModified()
	return nil
}

// Revert undoes the balance effect of a previously applied transaction
func (a *Account) Revert(tx *Transaction) error {
	if err := a.checkOwnership(tx); err != nil {
		return err
	}
	a.Balance = a.Balance.Sub(tx.BalanceEffect())
	a.MarkModified()
	return nil
}

func (a *Account) checkOwnership(tx *Transaction) error {
	if tx == nil {
		return shared.NewDomainError("INVALID_INPUT", "Transaction cannot be nil")
	}
	if tx.AccountID != a.ID {
		return shared.NewDomainError("INVALID_INPUT", "Transaction does not belong to this account")
	}
	return nil
}

// SetCreditLimit changes the credit limit
func (a *Account) SetCreditLimit(limit decimal.Decimal) error {
	limit = shared.RoundMoney(limit)
	if limit.IsNegative() {
		return errNegativeAmount("Credit limit")
	}
	a.CreditLimit = limit
	a.MarkModified()
	return nil
}

// DebtAmount is the amount owed when the balance is negative
func (a *Account) DebtAmount() decimal.Decimal {
	if a.Balance.IsNegative() {
		return a.Balance.Neg()
	}
	return decimal.Zero
}

// AvailableCredit is the credit limit less any debt, floored at zero
func (a *Account) AvailableCredit() decimal.Decimal {
	if !a.Balance.IsNegative() {
		return a.CreditLimit
	}
	return shared.MaxDecimal(decimal.Zero, a.CreditLimit.Add(a.Balance))
}

// IsInDebt reports a negative balance
func (a *Account) IsInDebt() bool {
	return a.Balance.IsNegative()
}
