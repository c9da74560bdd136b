package finance

import (
	"fmt"

	"github.com/propledger/backend/internal/domain/shared"
)

// Ledger error codes. Validation codes map to 400, state conflicts map to 400.
const (
	CodeInvalidAmount          = "INVALID_AMOUNT"
	CodeInvalidQuantity        = "INVALID_QUANTITY"
	CodeInvalidDateRange       = "INVALID_DATE_RANGE"
	CodeInvalidTransactionType = "INVALID_TRANSACTION_TYPE"
	CodeInvalidPaymentMethod   = "INVALID_PAYMENT_METHOD"
	CodeAlreadyReversed        = "ALREADY_REVERSED"
	CodeAlreadyBilled          = "ALREADY_BILLED"
	CodeAlreadyClosed          = "ALREADY_CLOSED"
	CodePeriodClosed           = "PERIOD_CLOSED"
	CodeAmountExceedsBalance   = "AMOUNT_EXCEEDS_BALANCE"
	CodePendingInvoices        = "PENDING_INVOICES"
	CodeTenantMismatch         = "TENANT_MISMATCH"
	CodeRentUnavailable        = "RENT_UNAVAILABLE"
)

func errInvalidAmount(field string) *shared.DomainError {
	return shared.NewDomainError(CodeInvalidAmount, fmt.Sprintf("%s must be greater than zero", field))
}

func errNegativeAmount(field string) *shared.DomainError {
	return shared.NewDomainError(CodeInvalidAmount, fmt.Sprintf("%s cannot be negative", field))
}

func errInvalidState(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError("INVALID_STATE", fmt.Sprintf(format, args...))
}

// NewAlreadyReversedError reports a second reversal attempt.
func NewAlreadyReversedError(transactionID fmt.Stringer) *shared.DomainError {
	return shared.NewDomainError(CodeAlreadyReversed, fmt.Sprintf("Transaction %s is already reversed", transactionID))
}

// NewAmountExceedsBalanceError reports a payment larger than what is owed.
func NewAmountExceedsBalanceError(amount, ceiling fmt.Stringer) *shared.DomainError {
	return shared.NewDomainError(CodeAmountExceedsBalance,
		fmt.Sprintf("Payment amount %s exceeds amount due %s", amount, ceiling))
}
