package finance

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the processing status of a payment or rent payment
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusPartial    PaymentStatus = "partial"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// IsValid checks if the status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusPartial,
		PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation
func (s PaymentStatus) String() string {
	return string(s)
}

// OverpaymentTolerance is how far a requested payment may exceed the invoice balance due
var OverpaymentTolerance = decimal.NewFromFloat(0.01)

const (
	referenceCodeLength  = 6
	referenceCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateReferenceNumber builds an AUTO-<yyyymmddhhmmss>-<6 alphanumerics> payment reference
func GenerateReferenceNumber(now time.Time) string {
	code := make([]byte, referenceCodeLength)
	limit := big.NewInt(int64(len(referenceCodeCharset)))
	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			n = big.NewInt(now.UnixNano() % int64(len(referenceCodeCharset)))
		}
		code[i] = referenceCodeCharset[n.Int64()]
	}
	return fmt.Sprintf("AUTO-%s-%s", now.UTC().Format("20060102150405"), code)
}

// PaymentAllocation is how a payment amount splits between an invoice and the account
type PaymentAllocation struct {
	ToInvoice decimal.Decimal
	ToAccount decimal.Decimal
}

// Total returns the whole allocated amount
func (a PaymentAllocation) Total() decimal.Decimal {
	return a.ToInvoice.Add(a.ToAccount)
}

// Payment is a request to pay down an invoice or credit a tenant account.
// It is processed exactly once, from pending to completed.
type Payment struct {
	shared.BaseAggregateRoot
	TenantID        uuid.UUID
	InvoiceID       *uuid.UUID
	Amount          decimal.Decimal
	PaymentDate     time.Time
	PaymentMethod   PaymentMethod
	ReferenceNumber string
	Status          PaymentStatus
	TransactionID   *uuid.UUID
	ReceiptID       *uuid.UUID
	ProcessedBy     *uuid.UUID
	ProcessedAt     *time.Time
	Notes           string
}

// NewPayment creates a pending payment, generating a reference when none is given
func NewPayment(tenantID uuid.UUID, invoiceID *uuid.UUID, amount decimal.Decimal, method PaymentMethod, referenceNumber string) (*Payment, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	amount = shared.RoundMoney(amount)
	if !amount.IsPositive() {
		return nil, errInvalidAmount("Payment amount")
	}
	if method == "" {
		method = PaymentMethodBankTransfer
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError(CodeInvalidPaymentMethod, fmt.Sprintf("Unknown payment method %q", method))
	}

	now := time.Now()
	referenceNumber = strings.TrimSpace(referenceNumber)
	if referenceNumber == "" {
		referenceNumber = GenerateReferenceNumber(now)
	}

	return &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TenantID:          tenantID,
		InvoiceID:         invoiceID,
		Amount:            amount,
		PaymentDate:       DateOnly(now),
		PaymentMethod:     method,
		ReferenceNumber:   referenceNumber,
		Status:            PaymentStatusPending,
	}, nil
}

// EnsurePending fails unless the payment can still be processed
func (p *Payment) EnsurePending() error {
	if p.Status != PaymentStatusPending {
		return errInvalidState("Cannot process payment with status %s", p.Status)
	}
	return nil
}

// TransactionDescription is the description of the ledger transaction this payment posts
func (p *Payment) TransactionDescription() string {
	ref := p.ReferenceNumber
	if ref == "" {
		ref = "N/A"
	}
	return fmt.Sprintf("Payment %s", ref)
}

// Allocate splits the amount between the invoice, up to its balance due, and the account.
// Without an invoice everything goes to the account.
func (p *Payment) Allocate(invoice *Invoice) (PaymentAllocation, error) {
	if invoice == nil {
		return PaymentAllocation{ToInvoice: decimal.Zero, ToAccount: p.Amount}, nil
	}
	if err := invoice.EnsureTenant(p.TenantID); err != nil {
		return PaymentAllocation{}, err
	}

	toInvoice, err := invoice.ApplyPayment(p.Amount)
	if err != nil {
		return PaymentAllocation{}, err
	}
	return PaymentAllocation{ToInvoice: toInvoice, ToAccount: p.Amount.Sub(toInvoice)}, nil
}

// Complete marks the payment completed and links its ledger records
func (p *Payment) Complete(transactionID uuid.UUID, receiptID *uuid.UUID, actor uuid.UUID) error {
	if err := p.EnsurePending(); err != nil {
		return err
	}
	now := time.Now()
	p.Status = PaymentStatusCompleted
	p.TransactionID = &transactionID
	p.ReceiptID = receiptID
	p.ProcessedBy = &actor
	p.ProcessedAt = &now
	p.UpdatedAt = now
	return nil
}

// ValidatePaymentAgainstBalance checks a requested amount against an invoice's balance due,
// allowing OverpaymentTolerance for rounding.
func ValidatePaymentAgainstBalance(amount, balanceDue decimal.Decimal) error {
	if !amount.IsPositive() {
		return errInvalidAmount("Payment amount")
	}
	if amount.GreaterThan(balanceDue.Add(OverpaymentTolerance)) {
		return NewAmountExceedsBalanceError(amount, balanceDue)
	}
	return nil
}
