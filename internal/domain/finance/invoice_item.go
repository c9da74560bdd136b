package finance

import (
	"strings"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MinItemQuantity is the smallest quantity an invoice line accepts
var MinItemQuantity = decimal.NewFromFloat(0.01)

// InvoiceItem is one line of an invoice.
// LineTotal is always Quantity x UnitPrice, rounded to cents.
type InvoiceItem struct {
	shared.BaseEntity
	InvoiceID       uuid.UUID
	ChargeTypeID    uuid.UUID
	ChargeTypeName  string // read-only, filled when loaded with its charge type
	UtilityChargeID *uuid.UUID
	Description     string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	LineTotal       decimal.Decimal
}

// NewInvoiceItem creates a line item with its total computed
func NewInvoiceItem(invoiceID, chargeTypeID uuid.UUID, description string, quantity, unitPrice decimal.Decimal) (*InvoiceItem, error) {
	if chargeTypeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CHARGE_TYPE", "Charge type is required")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Item description cannot be empty")
	}
	quantity = shared.RoundMoney(quantity)
	if quantity.LessThan(MinItemQuantity) {
		return nil, shared.NewDomainError(CodeInvalidQuantity, "Quantity must be at least 0.01")
	}
	unitPrice = shared.RoundMoney(unitPrice)
	if unitPrice.IsNegative() {
		return nil, errNegativeAmount("Unit price")
	}

	item := &InvoiceItem{
		BaseEntity:   shared.NewBaseEntity(),
		InvoiceID:    invoiceID,
		ChargeTypeID: chargeTypeID,
		Description:  description,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
	}
	item.RecalculateLineTotal()
	return item, nil
}

// RecalculateLineTotal recomputes LineTotal from Quantity and UnitPrice
func (i *InvoiceItem) RecalculateLineTotal() {
	i.LineTotal = shared.RoundMoney(i.Quantity.Mul(i.UnitPrice))
	i.Touch()
}
