package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPartial   InvoiceStatus = "partial"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// IsValid checks if the status is valid
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPartial,
		InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further payment or edit is possible
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// CanEditItems returns true if line items may be added or removed
func (s InvoiceStatus) CanEditItems() bool {
	return s == InvoiceStatusDraft || s == InvoiceStatusSent
}

// CanSend returns true if the invoice can be sent
func (s InvoiceStatus) CanSend() bool {
	return s == InvoiceStatusDraft
}

// CanCancel returns true if the invoice can be cancelled
func (s InvoiceStatus) CanCancel() bool {
	return s == InvoiceStatusDraft || s == InvoiceStatusSent
}

// AcceptsPayments returns true while money is still owed
func (s InvoiceStatus) AcceptsPayments() bool {
	return !s.IsTerminal()
}

// IsPending returns true for invoices that still block closing their period
func (s InvoiceStatus) IsPending() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPartial, InvoiceStatusOverdue:
		return true
	}
	return false
}

var invoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPartial,
	InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled,
}

// PendingInvoiceStatuses lists every status for which IsPending holds
func PendingInvoiceStatuses() []InvoiceStatus {
	pending := make([]InvoiceStatus, 0, len(invoiceStatuses))
	for _, s := range invoiceStatuses {
		if s.IsPending() {
			pending = append(pending, s)
		}
	}
	return pending
}

// Invoice is an itemized bill for one tenant in one billing period.
// TotalAmount = Subtotal + TaxAmount and Subtotal = sum of item line totals
// after every RecalculateTotals call.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber   string
	TenantID        uuid.UUID
	BillingPeriodID uuid.UUID
	Status          InvoiceStatus
	Subtotal        decimal.Decimal
	TaxAmount       decimal.Decimal
	TotalAmount     decimal.Decimal
	AmountPaid      decimal.Decimal
	IssueDate       time.Time
	DueDate         time.Time
	Notes           string
	CreatedBy       *uuid.UUID
	Items           []InvoiceItem
}

// NewInvoice creates an empty draft invoice
func NewInvoice(invoiceNumber string, tenantID uuid.UUID, period *BillingPeriod, issueDate time.Time) (*Invoice, error) {
	invoiceNumber = strings.TrimSpace(invoiceNumber)
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if period == nil {
		return nil, shared.NewDomainError("INVALID_BILLING_PERIOD", "Billing period is required")
	}

	return &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		TenantID:          tenantID,
		BillingPeriodID:   period.ID,
		Status:            InvoiceStatusDraft,
		Subtotal:          decimal.Zero,
		TaxAmount:         decimal.Zero,
		TotalAmount:       decimal.Zero,
		AmountPaid:        decimal.Zero,
		IssueDate:         DateOnly(issueDate),
		DueDate:           period.DueDate,
		Items:             make([]InvoiceItem, 0),
	}, nil
}

// AddItem appends a line item. The caller recalculates totals afterwards.
func (inv *Invoice) AddItem(chargeTypeID uuid.UUID, description string, quantity, unitPrice decimal.Decimal) (*InvoiceItem, error) {
	if !inv.Status.CanEditItems() {
		return nil, errInvalidState("Cannot add items to invoice %s in %s status", inv.InvoiceNumber, inv.Status)
	}

	item, err := NewInvoiceItem(inv.ID, chargeTypeID, description, quantity, unitPrice)
	if err != nil {
		return nil, err
	}
	inv.Items = append(inv.Items, *item)
	inv.Touch()
	return &inv.Items[len(inv.Items)-1], nil
}

// RemoveItem removes a line item. The caller recalculates totals afterwards.
func (inv *Invoice) RemoveItem(itemID uuid.UUID) (*InvoiceItem, error) {
	if !inv.Status.CanEditItems() {
		return nil, errInvalidState("Cannot remove items from invoice %s in %s status", inv.InvoiceNumber, inv.Status)
	}

	for i := range inv.Items {
		if inv.Items[i].ID == itemID {
			removed := inv.Items[i]
			inv.Items = append(inv.Items[:i], inv.Items[i+1:]...)
			inv.Touch()
			return &removed, nil
		}
	}
	return nil, shared.ErrNotFound
}

// HasItemWithChargeType reports whether any line uses the charge type
func (inv *Invoice) HasItemWithChargeType(chargeTypeID uuid.UUID) bool {
	for i := range inv.Items {
		if inv.Items[i].ChargeTypeID == chargeTypeID {
			return true
		}
	}
	return false
}

// HasRentItem reports whether the invoice already carries a rent line
func (inv *Invoice) HasRentItem(rentChargeTypeID uuid.UUID) bool {
	return inv.HasItemWithChargeType(rentChargeTypeID)
}

// SetTaxAmount replaces the tax amount and recalculates totals
func (inv *Invoice) SetTaxAmount(tax decimal.Decimal) error {
	tax = shared.RoundMoney(tax)
	if tax.IsNegative() {
		return errNegativeAmount("Tax amount")
	}
	inv.TaxAmount = tax
	inv.RecalculateTotals()
	return nil
}

// RecalculateTotals recomputes subtotal and total from the items
func (inv *Invoice) RecalculateTotals() {
	subtotal := decimal.Zero
	for i := range inv.Items {
		inv.Items[i].RecalculateLineTotal()
		subtotal = subtotal.Add(inv.Items[i].LineTotal)
	}
	inv.Subtotal = subtotal
	inv.TotalAmount = subtotal.Add(inv.TaxAmount)
	inv.Touch()
}

// Send moves a draft invoice to sent
func (inv *Invoice) Send() error {
	if !inv.Status.CanSend() {
		return errInvalidState("Only draft invoices can be sent, invoice %s is %s", inv.InvoiceNumber, inv.Status)
	}
	inv.Status = InvoiceStatusSent
	inv.Touch()
	return nil
}

// Cancel cancels a draft or sent invoice
func (inv *Invoice) Cancel() error {
	if !inv.Status.CanCancel() {
		return errInvalidState("Cannot cancel invoice %s in %s status", inv.InvoiceNumber, inv.Status)
	}
	inv.Status = InvoiceStatusCancelled
	inv.Touch()
	return nil
}

// BalanceDue is the amount still owed
func (inv *Invoice) BalanceDue() decimal.Decimal {
	return inv.TotalAmount.Sub(inv.AmountPaid)
}

// ApplyPayment allocates up to the balance due from amount and returns the allocated part.
// Status becomes paid once AmountPaid reaches TotalAmount, partial otherwise.
func (inv *Invoice) ApplyPayment(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, errInvalidAmount("Payment amount")
	}
	if !inv.Status.AcceptsPayments() {
		return decimal.Zero, errInvalidState("Invoice %s is %s and does not accept payments", inv.InvoiceNumber, inv.Status)
	}

	allocated := shared.MaxDecimal(decimal.Zero, shared.MinDecimal(amount, inv.BalanceDue()))
	inv.AmountPaid = inv.AmountPaid.Add(allocated)
	if inv.AmountPaid.GreaterThanOrEqual(inv.TotalAmount) {
		inv.Status = InvoiceStatusPaid
	} else {
		inv.Status = InvoiceStatusPartial
	}
	inv.Touch()
	return allocated, nil
}

// IsOverdue reports whether the due date has passed on an unsettled invoice
func (inv *Invoice) IsOverdue(now time.Time) bool {
	return DateOnly(now).After(inv.DueDate) && !inv.Status.IsTerminal()
}

// DaysOverdue returns how many days past due the invoice is, zero if not overdue
func (inv *Invoice) DaysOverdue(now time.Time) int {
	if !inv.IsOverdue(now) {
		return 0
	}
	return daysBetween(inv.DueDate, now)
}

// MarkOverdue flags a sent or partially paid invoice once it is past due.
// It returns true when the status changed.
func (inv *Invoice) MarkOverdue(now time.Time) bool {
	if inv.Status != InvoiceStatusSent && inv.Status != InvoiceStatusPartial {
		return false
	}
	if !inv.IsOverdue(now) {
		return false
	}
	inv.Status = InvoiceStatusOverdue
	inv.Touch()
	return true
}

// EnsureTenant returns TENANT_MISMATCH when the invoice belongs to another tenant
func (inv *Invoice) EnsureTenant(tenantID uuid.UUID) error {
	if inv.TenantID != tenantID {
		return shared.NewDomainError(CodeTenantMismatch,
			fmt.Sprintf("Invoice %s does not belong to this tenant", inv.InvoiceNumber))
	}
	return nil
}
