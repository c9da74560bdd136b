package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RentPayment tracks the rent owed by one tenant for one billing period.
// It may be settled by several partial payments.
type RentPayment struct {
	shared.BaseAggregateRoot
	TenantID          uuid.UUID
	BillingPeriodID   uuid.UUID
	InvoiceID         *uuid.UUID
	Amount            decimal.Decimal
	AmountPaid        decimal.Decimal
	OutstandingAmount decimal.Decimal
	DueDate           time.Time
	PaymentDate       time.Time
	PaymentMethod     PaymentMethod
	ReferenceNumber   string
	Status            PaymentStatus
	IsPartial         bool
	TransactionID     *uuid.UUID
	ProcessedBy       *uuid.UUID
	Notes             string
}

// NewRentPayment creates a pending rent payment due on the period's due date
func NewRentPayment(tenantID uuid.UUID, period *BillingPeriod, amount decimal.Decimal, method PaymentMethod) (*RentPayment, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if period == nil {
		return nil, shared.NewDomainError("INVALID_BILLING_PERIOD", "Billing period is required")
	}
	amount = shared.RoundMoney(amount)
	if !amount.IsPositive() {
		return nil, errInvalidAmount("Rent amount")
	}
	if method == "" {
		method = PaymentMethodBankTransfer
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError(CodeInvalidPaymentMethod, fmt.Sprintf("Unknown payment method %q", method))
	}

	return &RentPayment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TenantID:          tenantID,
		BillingPeriodID:   period.ID,
		Amount:            amount,
		AmountPaid:        decimal.Zero,
		OutstandingAmount: amount,
		DueDate:           period.DueDate,
		PaymentDate:       DateOnly(time.Now()),
		PaymentMethod:     method,
		Status:            PaymentStatusPending,
	}, nil
}

// CanProcess reports whether a further payment may be recorded
func (r *RentPayment) CanProcess() bool {
	return r.Status == PaymentStatusPending || r.Status == PaymentStatusPartial
}

// TotalAmountDue is what remains to be paid: the rent less everything already paid
func (r *RentPayment) TotalAmountDue() decimal.Decimal {
	return shared.MaxDecimal(decimal.Zero, r.Amount.Sub(r.AmountPaid))
}

// ResolveAmount validates a requested payment, defaulting to the full amount due
func (r *RentPayment) ResolveAmount(requested *decimal.Decimal) (decimal.Decimal, error) {
	if !r.CanProcess() {
		return decimal.Zero, errInvalidState("Cannot process rent payment with status %s", r.Status)
	}

	due := r.TotalAmountDue()
	amount := due
	if requested != nil {
		amount = shared.RoundMoney(*requested)
	}
	if !amount.IsPositive() {
		return decimal.Zero, errInvalidAmount("Payment amount")
	}
	if amount.GreaterThan(due) {
		return decimal.Zero, NewAmountExceedsBalanceError(amount, due)
	}
	return amount, nil
}

// TransactionDescription is the description of the ledger transaction for this rent
func (r *RentPayment) TransactionDescription(periodName string) string {
	return fmt.Sprintf("Rent payment for %s", periodName)
}

// RecordPayment books a processed amount and moves the status to partial or completed
func (r *RentPayment) RecordPayment(amount decimal.Decimal, transactionID uuid.UUID, actor uuid.UUID) error {
	if !r.CanProcess() {
		return errInvalidState("Cannot process rent payment with status %s", r.Status)
	}

	now := time.Now()
	r.AmountPaid = r.AmountPaid.Add(amount)
	if r.AmountPaid.GreaterThanOrEqual(r.Amount) {
		r.Status = PaymentStatusCompleted
		r.IsPartial = false
		r.OutstandingAmount = decimal.Zero
	} else {
		r.Status = PaymentStatusPartial
		r.IsPartial = true
		r.OutstandingAmount = r.Amount.Sub(r.AmountPaid)
	}
	r.TransactionID = &transactionID
	r.ProcessedBy = &actor
	r.PaymentDate = DateOnly(now)
	r.UpdatedAt = now
	return nil
}

// SetReference sets the external reference of the rent payment
func (r *RentPayment) SetReference(referenceNumber string) {
	r.ReferenceNumber = strings.TrimSpace(referenceNumber)
}

// DaysLate is how many days after the due date the last payment landed
func (r *RentPayment) DaysLate() int {
	if r.PaymentDate.After(r.DueDate) {
		return daysBetween(r.DueDate, r.PaymentDate)
	}
	return 0
}

// IsOverdue reports an unpaid or partly paid rent past its due date
func (r *RentPayment) IsOverdue(now time.Time) bool {
	return DateOnly(now).After(r.DueDate) && r.CanProcess()
}
