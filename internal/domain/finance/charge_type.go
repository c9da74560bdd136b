package finance

import (
	"fmt"
	"strings"

	"github.com/propledger/backend/internal/domain/shared"
)

// ChargeFrequency describes how often a charge recurs
type ChargeFrequency string

const (
	ChargeFrequencyOneTime    ChargeFrequency = "one_time"
	ChargeFrequencyRecurring  ChargeFrequency = "recurring"
	ChargeFrequencyUsageBased ChargeFrequency = "usage_based"
)

// IsValid checks if the frequency is valid
func (f ChargeFrequency) IsValid() bool {
	switch f {
	case ChargeFrequencyOneTime, ChargeFrequencyRecurring, ChargeFrequencyUsageBased:
		return true
	}
	return false
}

// MonthlyRentChargeName is the charge type every rent line item uses
const MonthlyRentChargeName = "Monthly Rent"

// ChargeType is a named category of billable item.
// Names are unique; lookups go through get-or-create.
type ChargeType struct {
	shared.BaseEntity
	Name           string
	Description    string
	Frequency      ChargeFrequency
	IsSystemCharge bool
	IsActive       bool
}

// NewChargeType creates a new active charge type
func NewChargeType(name, description string, frequency ChargeFrequency, systemCharge bool) (*ChargeType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Charge type name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Charge type name cannot exceed 100 characters")
	}
	if frequency == "" {
		frequency = ChargeFrequencyOneTime
	}
	if !frequency.IsValid() {
		return nil, shared.NewDomainError("INVALID_FREQUENCY", fmt.Sprintf("Unknown charge frequency %q", frequency))
	}

	return &ChargeType{
		BaseEntity:     shared.NewBaseEntity(),
		Name:           name,
		Description:    strings.TrimSpace(description),
		Frequency:      frequency,
		IsSystemCharge: systemCharge,
		IsActive:       true,
	}, nil
}

// ChargeTypeDefinition describes a charge type to get or create
type ChargeTypeDefinition struct {
	Name           string
	Description    string
	Frequency      ChargeFrequency
	IsSystemCharge bool
}

// RentChargeTypeDefinition is the system charge used for rent items
func RentChargeTypeDefinition() ChargeTypeDefinition {
	return ChargeTypeDefinition{
		Name:           MonthlyRentChargeName,
		Description:    "Monthly rent payment",
		Frequency:      ChargeFrequencyRecurring,
		IsSystemCharge: true,
	}
}

// UtilityChargeTypeDefinition is the system charge used when a utility charge is billed
func UtilityChargeTypeDefinition(utilityType UtilityType) ChargeTypeDefinition {
	return ChargeTypeDefinition{
		Name:           fmt.Sprintf("%s Bill", utilityType),
		Description:    fmt.Sprintf("%s utility charges", utilityType),
		Frequency:      ChargeFrequencyRecurring,
		IsSystemCharge: true,
	}
}

// DefaultChargeTypes is the catalog installed by the seed command
func DefaultChargeTypes() []ChargeTypeDefinition {
	return []ChargeTypeDefinition{
		RentChargeTypeDefinition(),
		UtilityChargeTypeDefinition(UtilityTypeWater),
		UtilityChargeTypeDefinition(UtilityTypeElectricity),
		UtilityChargeTypeDefinition(UtilityTypeGas),
		UtilityChargeTypeDefinition(UtilityTypeInternet),
		UtilityChargeTypeDefinition(UtilityTypeGarbage),
		{Name: "Parking Fee", Description: "Monthly parking fee", Frequency: ChargeFrequencyRecurring, IsSystemCharge: true},
		{Name: "Maintenance Fee", Description: "Property maintenance fee", Frequency: ChargeFrequencyRecurring, IsSystemCharge: true},
		{Name: "Security Fee", Description: "Security service fee", Frequency: ChargeFrequencyRecurring, IsSystemCharge: true},
		{Name: "Late Fee", Description: "Late payment penalty", Frequency: ChargeFrequencyOneTime, IsSystemCharge: true},
		{Name: "Deposit", Description: "Refundable security deposit", Frequency: ChargeFrequencyOneTime, IsSystemCharge: true},
	}
}
