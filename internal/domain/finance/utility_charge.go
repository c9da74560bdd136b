package finance

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// UtilityType is the kind of utility being billed
type UtilityType string

const (
	UtilityTypeElectricity UtilityType = "Electricity"
	UtilityTypeWater       UtilityType = "Water"
	UtilityTypeGas         UtilityType = "Gas"
	UtilityTypeInternet    UtilityType = "Internet"
	UtilityTypeGarbage     UtilityType = "Garbage Collection"
	UtilityTypeSewer       UtilityType = "Sewer"
	UtilityTypeSecurity    UtilityType = "Security"
	UtilityTypeCleaning    UtilityType = "Cleaning"
	UtilityTypeParking     UtilityType = "Parking"
	UtilityTypeOther       UtilityType = "Other"
	UtilityTypeDeposit     UtilityType = "Deposit" // move-in fees such as deposits
)

// AllUtilityTypes returns every utility type
func AllUtilityTypes() []UtilityType {
	return []UtilityType{
		UtilityTypeElectricity, UtilityTypeWater, UtilityTypeGas, UtilityTypeInternet,
		UtilityTypeGarbage, UtilityTypeSewer, UtilityTypeSecurity, UtilityTypeCleaning,
		UtilityTypeParking, UtilityTypeOther, UtilityTypeDeposit,
	}
}

// IsValid checks if the utility type is known
func (u UtilityType) IsValid() bool {
	for _, t := range AllUtilityTypes() {
		if t == u {
			return true
		}
	}
	return false
}

// UtilityCharge is a recorded utility bill for one tenant and period
// that has not necessarily been attached to an invoice yet. Billing is one-way.
type UtilityCharge struct {
	shared.BaseAggregateRoot
	TenantID        uuid.UUID
	UtilityType     UtilityType
	BillingPeriodID uuid.UUID
	Amount          decimal.Decimal
	Description     string
	ReferenceNumber string
	RecordedBy      *uuid.UUID
	IsBilled        bool
	InvoiceItemID   *uuid.UUID
}

// NewUtilityCharge records an unbilled utility charge
func NewUtilityCharge(tenantID uuid.UUID, utilityType UtilityType, period *BillingPeriod, amount decimal.Decimal) (*UtilityCharge, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if !utilityType.IsValid() {
		return nil, shared.NewDomainError("INVALID_UTILITY_TYPE", fmt.Sprintf("Unknown utility type %q", utilityType))
	}
	if period == nil {
		return nil, shared.NewDomainError("INVALID_BILLING_PERIOD", "Billing period is required")
	}
	amount = shared.RoundMoney(amount)
	if amount.IsNegative() {
		return nil, errNegativeAmount("Utility charge amount")
	}

	return &UtilityCharge{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TenantID:          tenantID,
		UtilityType:       utilityType,
		BillingPeriodID:   period.ID,
		Amount:            amount,
	}, nil
}

// SetDetails sets the free-text description and bill reference
func (c *UtilityCharge) SetDetails(description, referenceNumber string) {
	c.Description = strings.TrimSpace(description)
	c.ReferenceNumber = strings.TrimSpace(referenceNumber)
	c.Touch()
}

// ItemDescription is the text used on the invoice line
func (c *UtilityCharge) ItemDescription(periodName string) string {
	if c.Description != "" {
		return c.Description
	}
	return fmt.Sprintf("%s - %s", c.UtilityType, periodName)
}

// BillTo adds the charge to the invoice as a single line and marks it billed.
// The caller recalculates the invoice totals; batch callers do it once at the end.
func (c *UtilityCharge) BillTo(invoice *Invoice, chargeType *ChargeType, periodName string) (*InvoiceItem, error) {
	if c.IsBilled {
		return nil, shared.NewDomainError(CodeAlreadyBilled, "Utility charge already billed")
	}
	if invoice.TenantID != c.TenantID || invoice.BillingPeriodID != c.BillingPeriodID {
		return nil, shared.NewDomainError(CodeTenantMismatch,
			"Utility charge must belong to the same tenant and billing period as the invoice")
	}

	item, err := invoice.AddItem(chargeType.ID, c.ItemDescription(periodName), decimal.NewFromInt(1), c.Amount)
	if err != nil {
		return nil, err
	}
	item.UtilityChargeID = &c.ID

	c.IsBilled = true
	c.InvoiceItemID = &item.ID
	c.Touch()
	return item, nil
}
