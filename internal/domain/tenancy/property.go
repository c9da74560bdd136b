package tenancy

import (
	"strings"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Property is a managed building or estate
type Property struct {
	shared.BaseEntity
	Name      string
	Address   string
	ManagerID *uuid.UUID
	IsActive  bool
}

// NewProperty creates a new active property
func NewProperty(name, address string) (*Property, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Property name cannot be empty")
	}
	return &Property{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Address:    strings.TrimSpace(address),
		IsActive:   true,
	}, nil
}

// OccupiedStatus is the occupancy state of a unit
type OccupiedStatus string

const (
	UnitOccupied    OccupiedStatus = "occupied"
	UnitVacant      OccupiedStatus = "vacant"
	UnitMaintenance OccupiedStatus = "maintenance"
	UnitClosed      OccupiedStatus = "closed"
)

// Unit is a rentable unit within a property
type Unit struct {
	shared.BaseEntity
	PropertyID     uuid.UUID
	Name           string
	UnitNumber     string
	OccupiedStatus OccupiedStatus
	MonthlyRent    decimal.Decimal
	DepositAmount  decimal.Decimal
}

// NewUnit creates a new vacant unit
func NewUnit(propertyID uuid.UUID, unitNumber string, monthlyRent decimal.Decimal) (*Unit, error) {
	if propertyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROPERTY", "Property ID cannot be empty")
	}
	unitNumber = strings.TrimSpace(unitNumber)
	if unitNumber == "" {
		return nil, shared.NewDomainError("INVALID_UNIT_NUMBER", "Unit number cannot be empty")
	}
	if monthlyRent.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Monthly rent cannot be negative")
	}
	return &Unit{
		BaseEntity:     shared.NewBaseEntity(),
		PropertyID:     propertyID,
		Name:           unitNumber,
		UnitNumber:     unitNumber,
		OccupiedStatus: UnitVacant,
		MonthlyRent:    shared.RoundMoney(monthlyRent),
		DepositAmount:  decimal.Zero,
	}, nil
}

// SetMonthlyRent changes the unit's rent
func (u *Unit) SetMonthlyRent(rent decimal.Decimal) error {
	if rent.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Monthly rent cannot be negative")
	}
	u.MonthlyRent = shared.RoundMoney(rent)
	u.Touch()
	return nil
}
