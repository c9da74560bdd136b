package finance

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionType is the kind of balance-affecting event
type TransactionType string

const (
	TransactionTypePayment    TransactionType = "payment"
	TransactionTypeCharge     TransactionType = "charge"
	TransactionTypeRefund     TransactionType = "refund"
	TransactionTypeAdjustment TransactionType = "adjustment"
	TransactionTypePenalty    TransactionType = "penalty"
	TransactionTypeCredit     TransactionType = "credit"
)

// IsValid checks if the transaction type is known
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypePayment, TransactionTypeCharge, TransactionTypeRefund,
		TransactionTypeAdjustment, TransactionTypePenalty, TransactionTypeCredit:
		return true
	}
	return false
}

// String returns the string representation
func (t TransactionType) String() string {
	return string(t)
}

// IncreasesBalance reports whether the type adds to the account balance.
// Payments, refunds and credits add; charges, adjustments and penalties subtract.
func (t TransactionType) IncreasesBalance() bool {
	switch t {
	case TransactionTypePayment, TransactionTypeRefund, TransactionTypeCredit:
		return true
	}
	return false
}

// BalanceIncreasingTypes lists the types IncreasesBalance accepts
func BalanceIncreasingTypes() []TransactionType {
	return []TransactionType{TransactionTypePayment, TransactionTypeRefund, TransactionTypeCredit}
}

// BalanceSign returns +1 or -1
func (t TransactionType) BalanceSign() int64 {
	if t.IncreasesBalance() {
		return 1
	}
	return -1
}

// PaymentMethod represents how money moved
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodMobileMoney  PaymentMethod = "mobile_money"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodOther        PaymentMethod = "other"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCard,
		PaymentMethodMobileMoney, PaymentMethodCheck, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation
func (m PaymentMethod) String() string {
	return string(m)
}

// TransactionDetails carries the optional attributes of a new Transaction
type TransactionDetails struct {
	PaymentMethod   PaymentMethod
	InvoiceID       *uuid.UUID
	ReferenceNumber string
	Description     string
	ProcessedBy     *uuid.UUID
}

// Transaction is an immutable balance-affecting event on an Account.
// The sign of its effect comes from TransactionType; Amount is always positive.
type Transaction struct {
	shared.BaseEntity
	TransactionID         uuid.UUID
	AccountID             uuid.UUID
	TransactionType       TransactionType
	Amount                decimal.Decimal
	PaymentMethod         PaymentMethod
	InvoiceID             *uuid.UUID
	ReferenceNumber       string
	Description           string
	ProcessedBy           *uuid.UUID
	IsReversed            bool
	ReversedTransactionID *uuid.UUID // set on a reversal, points at the transaction it undoes
}

// NewTransaction creates a new transaction against an account
func NewTransaction(accountID uuid.UUID, txType TransactionType, amount decimal.Decimal, details TransactionDetails) (*Transaction, error) {
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Account ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError(CodeInvalidTransactionType, fmt.Sprintf("Unknown transaction type %q", txType))
	}
	amount = shared.RoundMoney(amount)
	if !amount.IsPositive() {
		return nil, errInvalidAmount("Transaction amount")
	}
	if details.PaymentMethod != "" && !details.PaymentMethod.IsValid() {
		return nil, shared.NewDomainError(CodeInvalidPaymentMethod, fmt.Sprintf("Unknown payment method %q", details.PaymentMethod))
	}

	return &Transaction{
		BaseEntity:      shared.NewBaseEntity(),
		TransactionID:   uuid.New(),
		AccountID:       accountID,
		TransactionType: txType,
		Amount:          amount,
		PaymentMethod:   details.PaymentMethod,
		InvoiceID:       details.InvoiceID,
		ReferenceNumber: strings.TrimSpace(details.ReferenceNumber),
		Description:     strings.TrimSpace(details.Description),
		ProcessedBy:     details.ProcessedBy,
	}, nil
}

// IsReversal reports whether this transaction undoes another one
func (t *Transaction) IsReversal() bool {
	return t.ReversedTransactionID != nil
}

// BalanceEffect returns the signed change this transaction makes to its account.
// A reversal carries the same type and amount as the original but the opposite effect.
func (t *Transaction) BalanceEffect() decimal.Decimal {
	effect := t.Amount.Mul(decimal.NewFromInt(t.TransactionType.BalanceSign()))
	if t.IsReversal() {
		return effect.Neg()
	}
	return effect
}

// Reverse marks the transaction reversed and returns the offsetting reversal.
// The caller applies the reversal to the account in the same unit of work.
func (t *Transaction) Reverse(actor uuid.UUID, reason string) (*Transaction, error) {
	if t.IsReversed {
		return nil, NewAlreadyReversedError(t.TransactionID)
	}
	if t.IsReversal() {
		return nil, errInvalidState("Transaction %s is itself a reversal and cannot be reversed", t.TransactionID)
	}

	reversal := &Transaction{
		BaseEntity:            shared.NewBaseEntity(),
		TransactionID:         uuid.New(),
		AccountID:             t.AccountID,
		TransactionType:       t.TransactionType,
		Amount:                t.Amount,
		PaymentMethod:         t.PaymentMethod,
		InvoiceID:             t.InvoiceID,
		ReferenceNumber:       t.ReferenceNumber,
		Description:           fmt.Sprintf("Reversal of %s: %s", t.TransactionID, strings.TrimSpace(reason)),
		ProcessedBy:           &actor,
		ReversedTransactionID: &t.ID,
	}

	t.IsReversed = true
	t.Touch()
	return reversal, nil
}
