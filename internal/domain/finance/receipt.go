package finance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Receipt is the immutable proof of a completed payment.
// AmountAllocatedToInvoice + AmountToAccount never exceeds Amount.
type Receipt struct {
	shared.BaseEntity
	ReceiptNumber            string
	TransactionID            uuid.UUID
	TenantID                 uuid.UUID
	InvoiceID                *uuid.UUID
	Amount                   decimal.Decimal
	AmountAllocatedToInvoice decimal.Decimal
	AmountToAccount          decimal.Decimal
	PaymentDate              time.Time
	PaymentMethod            PaymentMethod
	Notes                    string
	IssuedBy                 *uuid.UUID
}

// ReceiptInput carries what a receipt records about a processed payment
type ReceiptInput struct {
	ReceiptNumber string
	Transaction   *Transaction
	TenantID      uuid.UUID
	InvoiceID     *uuid.UUID
	Allocation    PaymentAllocation
	PaymentDate   time.Time
	PaymentMethod PaymentMethod
	Notes         string
	IssuedBy      *uuid.UUID
}

// NewReceipt issues a receipt for a posted transaction
func NewReceipt(in ReceiptInput) (*Receipt, error) {
	if strings.TrimSpace(in.ReceiptNumber) == "" {
		return nil, shared.NewDomainError("INVALID_RECEIPT_NUMBER", "Receipt number cannot be empty")
	}
	if in.Transaction == nil {
		return nil, shared.NewDomainError("INVALID_TRANSACTION", "Receipt requires a transaction")
	}
	amount := in.Transaction.Amount
	if !amount.IsPositive() {
		return nil, errInvalidAmount("Receipt amount")
	}
	if in.Allocation.ToInvoice.IsNegative() || in.Allocation.ToAccount.IsNegative() {
		return nil, errNegativeAmount("Receipt allocation")
	}
	if in.Allocation.Total().GreaterThan(amount) {
		return nil, shared.NewDomainError(CodeInvalidAmount, "Receipt allocation exceeds the amount received")
	}
	paymentDate := in.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	return &Receipt{
		BaseEntity:               shared.NewBaseEntity(),
		ReceiptNumber:            in.ReceiptNumber,
		TransactionID:            in.Transaction.ID,
		TenantID:                 in.TenantID,
		InvoiceID:                in.InvoiceID,
		Amount:                   amount,
		AmountAllocatedToInvoice: in.Allocation.ToInvoice,
		AmountToAccount:          in.Allocation.ToAccount,
		PaymentDate:              DateOnly(paymentDate),
		PaymentMethod:            in.PaymentMethod,
		Notes:                    strings.TrimSpace(in.Notes),
		IssuedBy:                 in.IssuedBy,
	}, nil
}
